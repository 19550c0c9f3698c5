package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/flagz/internal/selfupdate"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update flagz to the latest version",
	RunE: func(cmd *cobra.Command, args []string) error {
		checkOnly, _ := cmd.Flags().GetBool("check")
		checker := selfupdate.NewChecker(selfupdate.WithTimeout(2 * time.Minute))

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		res, err := checker.Check(ctx, &selfupdate.CheckInput{Version: version})
		if err != nil {
			return fmt.Errorf("check for updates: %w", err)
		}
		if !res.UpdateAvailable {
			fmt.Println("Already running the latest version.")
			return nil
		}
		if checkOnly {
			fmt.Printf("flagz %s is available: %s\n", res.LatestVersion, res.ReleaseURL)
			return nil
		}
		if version == selfupdate.DevVersion {
			fmt.Printf("flagz %s is available. Development builds cannot update themselves; install a release build first.\n", res.LatestVersion)
			return nil
		}

		err = checker.Install(ctx, res.Release, func(stage selfupdate.Stage, detail string) {
			fmt.Printf("%-9s %s\n", stage, detail)
		})
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("%w\n\nTry running: sudo flagz update", err)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Updated to %s.\n", res.LatestVersion)
		return nil
	},
}

func init() {
	updateCmd.Flags().Bool("check", false, "Only report whether an update is available")
}
