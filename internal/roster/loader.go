package roster

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

//go:embed data/countries.json
var embeddedRoster []byte

// Source fetches raw roster JSON.
type Source func(ctx context.Context) ([]byte, error)

// EmbeddedSource returns the world roster compiled into the binary.
func EmbeddedSource() Source {
	return func(context.Context) ([]byte, error) {
		return embeddedRoster, nil
	}
}

// FileSource reads the roster from a file on disk.
func FileSource(path string) Source {
	return func(context.Context) ([]byte, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read roster %s: %w", path, err)
		}
		return b, nil
	}
}

// Loader is a Provider that loads its roster asynchronously. Until the load
// finishes Countries returns an empty slice.
type Loader struct {
	source Source
	log    *zap.Logger

	mu        sync.RWMutex
	countries []Country
	version   string
	err       error
	done      chan struct{}
	startOnce sync.Once
}

var _ Provider = (*Loader)(nil)

// NewLoader creates a loader for the given source.
func NewLoader(source Source, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		source: source,
		log:    log,
		done:   make(chan struct{}),
	}
}

// Start begins loading in the background. Subsequent calls are no-ops.
func (l *Loader) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		go l.load(ctx)
	})
}

// Load loads synchronously and returns the load error, if any.
func (l *Loader) Load(ctx context.Context) error {
	l.Start(ctx)
	return l.Wait(ctx)
}

// Wait blocks until the roster has loaded or ctx is done.
func (l *Loader) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		l.mu.RLock()
		defer l.mu.RUnlock()
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loader) load(ctx context.Context) {
	defer close(l.done)

	raw, err := l.source(ctx)
	if err == nil {
		var doc *Document
		doc, err = Parse(raw)
		if err == nil {
			l.mu.Lock()
			l.countries = doc.Countries
			l.version = doc.Version
			l.mu.Unlock()
			l.log.Info("roster loaded",
				zap.String("version", doc.Version),
				zap.Int("countries", len(doc.Countries)))
			return
		}
	}

	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
	l.log.Error("roster load failed", zap.Error(err))
}

// Countries returns a copy of the loaded roster, or nil before the load
// completes.
func (l *Loader) Countries() []Country {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.countries) == 0 {
		return nil
	}
	out := make([]Country, len(l.countries))
	copy(out, l.countries)
	return out
}

// Version returns the roster document version once loaded.
func (l *Loader) Version() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}
