package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abhisek/flagz/internal/app"
)

// runApp builds dependencies and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	e, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer e.close()

	gw := app.NewGateway()
	opts := app.Options{
		Trainer:       e.trainer(gw),
		Gateway:       gw,
		Localizer:     e.loc,
		Ready:         func(ctx context.Context) error { return e.awaitRoster(ctx) },
		PersistErrors: e.persistErrs,
		Logger:        e.log.Named("app"),
	}
	// A nil *mnemonic.Service must not become a non-nil interface.
	if hooks := e.hooks(ctx); hooks != nil {
		opts.Hooks = hooks
	}

	return app.Run(ctx, opts)
}
