package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.close()
		if err := e.awaitRoster(ctx); err != nil {
			return err
		}

		s := e.tracker.Stats()
		state := e.tracker.State()

		fmt.Println("Learning Statistics")
		fmt.Println(strings.Repeat("─", 40))
		fmt.Printf("%-24s  %d/%d\n", "Flags learned", s.LearnedFlags, s.TotalFlags)
		fmt.Printf("%-24s  %d/%d\n", "Categories completed", s.CompletedCategories, s.Categories)
		fmt.Printf("%-24s  %d\n", "Total reviews", s.TotalReviews)
		fmt.Printf("%-24s  %d\n", "Smart-learning sessions", s.Sessions)
		if state.CurrentCategory != "" {
			fmt.Printf("%-24s  %s\n", "Current category", state.CurrentCategory)
		}
		if state.LastStudiedCategory != "" {
			fmt.Printf("%-24s  %s\n", "Previous category", state.LastStudiedCategory)
		}
		return nil
	},
}
