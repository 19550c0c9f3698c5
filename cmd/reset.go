package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase all learning progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		yes, _ := cmd.Flags().GetBool("yes")

		if !yes {
			fmt.Print("This erases every learned flag and the session history. Type 'yes' to continue: ")
			scanner := bufio.NewScanner(os.Stdin)
			if !scanner.Scan() || strings.TrimSpace(strings.ToLower(scanner.Text())) != "yes" {
				fmt.Println("Reset cancelled.")
				return nil
			}
		}

		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.trainer(nil).ResetNow(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		fmt.Println("All progress erased.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
