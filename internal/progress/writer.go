package progress

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/flagz/internal/store"
)

const writeTimeout = 5 * time.Second

type opKind int

const (
	opSet opKind = iota
	opDelete
	opBarrier
)

type writeOp struct {
	kind  opKind
	key   string
	value []byte
	keys  []string
	done  chan error
}

// writer applies store mutations in FIFO order on a single goroutine.
type writer struct {
	kv      store.KV
	log     *zap.Logger
	onError ErrorHandler

	mu     sync.Mutex
	queue  []writeOp
	closed bool
	wake   chan struct{}
	exited chan struct{}
}

func newWriter(kv store.KV, log *zap.Logger, onError ErrorHandler) *writer {
	w := &writer{
		kv:      kv,
		log:     log,
		onError: onError,
		wake:    make(chan struct{}, 1),
		exited:  make(chan struct{}),
	}
	go w.run()
	return w
}

// enqueue never blocks. It reports false once the writer is closed.
func (w *writer) enqueue(op writeOp) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		if op.done != nil {
			op.done <- errWriterClosed
		}
		return false
	}
	w.queue = append(w.queue, op)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

func (w *writer) run() {
	defer close(w.exited)
	for {
		w.mu.Lock()
		batch := w.queue
		w.queue = nil
		closed := w.closed
		w.mu.Unlock()

		for _, op := range batch {
			w.apply(op)
		}

		if len(batch) == 0 {
			if closed {
				return
			}
			<-w.wake
		}
	}
}

func (w *writer) apply(op writeOp) {
	if op.kind == opBarrier {
		op.done <- nil
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	var pe *PersistError
	switch op.kind {
	case opSet:
		err = w.kv.Set(ctx, op.key, op.value)
		if err != nil {
			pe = &PersistError{Op: "set", Keys: []string{op.key}, Err: err}
		}
	case opDelete:
		err = w.kv.Delete(ctx, op.keys...)
		if err != nil {
			pe = &PersistError{Op: "delete", Keys: op.keys, Err: err}
		}
	}

	if pe != nil {
		w.log.Warn("progress write failed",
			zap.String("op", pe.Op),
			zap.Strings("keys", pe.Keys),
			zap.Error(err))
		if w.onError != nil {
			w.onError(pe)
		}
	}
	if op.done != nil {
		if pe != nil {
			op.done <- pe
		} else {
			op.done <- nil
		}
	}
}

// flush waits until every op queued before the call has been applied.
func (w *writer) flush(ctx context.Context) error {
	done := make(chan error, 1)
	if !w.enqueue(writeOp{kind: opBarrier, done: done}) {
		return errWriterClosed
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close drains the queue and stops the goroutine.
func (w *writer) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.exited
		return
	}
	w.closed = true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	<-w.exited
}
