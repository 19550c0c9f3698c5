package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/flagz/internal/catalog"
	"github.com/abhisek/flagz/internal/config"
	"github.com/abhisek/flagz/internal/i18n"
	"github.com/abhisek/flagz/internal/llm"
	"github.com/abhisek/flagz/internal/logger"
	"github.com/abhisek/flagz/internal/memory"
	"github.com/abhisek/flagz/internal/mnemonic"
	"github.com/abhisek/flagz/internal/progress"
	"github.com/abhisek/flagz/internal/roster"
	"github.com/abhisek/flagz/internal/store"
)

// env holds the dependencies shared by every command that touches
// learner progress.
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	kv      store.KV
	roster  *roster.Loader
	catalog *catalog.Catalog
	tracker *progress.Tracker
	loc     *i18n.Localizer

	// persistErrs receives background write failures. Sends never block.
	persistErrs chan *progress.PersistError
}

// setup loads config, opens the store and loads progress. The roster
// starts loading in the background; call awaitRoster before using the
// catalog. logToFile keeps log output off the terminal.
func setup(cmd *cobra.Command, logToFile bool) (*env, error) {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg, logToFile)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	kv, err := store.Open(ctx, store.Config{
		Driver: cfg.Store.Driver,
		DSN:    cfg.Store.DSN,
		Prefix: cfg.Store.RedisPrefix,
	})
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("open store: %w", err)
	}

	source := roster.EmbeddedSource()
	if cfg.Roster != "" {
		source = roster.FileSource(cfg.Roster)
	}
	loader := roster.NewLoader(source, log.Named("roster"))
	loader.Start(ctx)

	cat := catalog.New(log.Named("catalog"))
	e := &env{
		cfg:         cfg,
		log:         log,
		kv:          kv,
		roster:      loader,
		catalog:     cat,
		loc:         i18n.New(cfg.Lang),
		persistErrs: make(chan *progress.PersistError, 8),
	}
	e.tracker = progress.New(kv, cat,
		progress.WithLogger(log.Named("progress")),
		progress.WithErrorHandler(func(pe *progress.PersistError) {
			select {
			case e.persistErrs <- pe:
			default:
			}
		}),
	)
	if err := e.tracker.Load(ctx); err != nil {
		e.close()
		return nil, fmt.Errorf("load progress: %w", err)
	}

	log.Debug("environment ready",
		zap.String("store", cfg.Store.Driver),
		zap.String("lang", e.loc.Lang().String()))
	return e, nil
}

// awaitRoster blocks until the roster has loaded and the catalog is built.
func (e *env) awaitRoster(ctx context.Context) error {
	if err := e.roster.Wait(ctx); err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	return e.catalog.Await(ctx, e.roster, e.cfg.RosterRetry)
}

func (e *env) trainer(p memory.Presenter) *memory.Trainer {
	return memory.New(memory.Deps{
		Catalog:   e.catalog,
		Tracker:   e.tracker,
		Roster:    e.roster,
		Localizer: e.loc,
		Presenter: p,
		Logger:    e.log.Named("trainer"),
	})
}

// hooks returns the memory-hook service, or nil when no LLM provider is
// configured.
func (e *env) hooks(ctx context.Context) *mnemonic.Service {
	return newHooks(ctx, e.cfg, e.log)
}

func newHooks(ctx context.Context, cfg *config.Config, log *zap.Logger) *mnemonic.Service {
	provider, err := newProvider(ctx, cfg, log)
	if err != nil {
		log.Info("memory hooks disabled", zap.Error(err))
		return nil
	}
	return mnemonic.NewService(provider, mnemonic.DefaultConfig(), log.Named("mnemonic"))
}

func newProvider(ctx context.Context, cfg *config.Config, log *zap.Logger) (llm.Provider, error) {
	lc, ok := llm.Discover(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
	})
	if !ok {
		return nil, fmt.Errorf("no LLM provider configured")
	}
	return llm.New(ctx, lc, log.Named("llm"))
}

// close flushes pending writes and releases the store.
func (e *env) close() {
	if e.tracker != nil {
		e.tracker.Close()
	}
	if err := e.kv.Close(); err != nil {
		e.log.Warn("close store", zap.Error(err))
	}
	_ = e.log.Sync()
}
