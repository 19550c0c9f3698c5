package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/flagz/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "flagz",
	Short: "Learn the flags of the world",
	Long:  "Flagz is a terminal trainer for memorising national flags, one continent group at a time.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default $XDG_CONFIG_HOME/flagz/config.yaml)")
	pf.String("db", "", "Store DSN; a SQLite file path by default (overrides FLAGZ_DB)")
	pf.String("store", "", "Store driver: sqlite, postgres, redis or memory")
	pf.String("lang", "", "UI language (en, fr)")
	pf.String("roster", "", "Roster JSON file overriding the built-in one")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.String("log-file", "", "Log file path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads configuration with the command's flags bound on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
