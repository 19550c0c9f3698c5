package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/flagz/internal/roster"
	"github.com/abhisek/flagz/internal/selfupdate"
)

// version is set via -ldflags at build time.
var version = selfupdate.DevVersion

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := roster.NewLoader(roster.EmbeddedSource(), nil)
		if err := loader.Load(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("flagz %s (roster %s)\n", version, loader.Version())
		return nil
	},
}
