package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List study categories with progress",
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

		views := e.trainer(nil).CategoryViews()

		fmt.Printf("%-16s  %-28s  %9s  %-12s  %s\n", "Key", "Title", "Learned", "Status", "")
		fmt.Println(strings.Repeat("─", 80))
		for _, v := range views {
			mark := ""
			if v.Recommended {
				mark = "★"
			}
			learned := fmt.Sprintf("%d/%d", v.Progress.LearnedCount, v.Progress.TotalCount)
			fmt.Printf("%-16s  %-28s  %9s  %-12s  %s\n",
				v.Category.Key, truncate(v.Title, 28), learned, v.Progress.Status, mark)
		}
		fmt.Printf("\n%d categories\n", len(views))
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Show the category smart learning would pick next",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		exclude, _ := cmd.Flags().GetString("exclude")

		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.close()
		if err := e.awaitRoster(ctx); err != nil {
			return err
		}

		trainer := e.trainer(nil)
		pick := trainer.Recommendation(exclude)
		if !pick.Found() {
			fmt.Println(trainer.ReasonText(pick))
			return nil
		}
		v, err := trainer.Category(pick.Key)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", v.Title, pick.Key)
		fmt.Println(trainer.ReasonText(pick))
		return nil
	},
}

func init() {
	recommendCmd.Flags().String("exclude", "", "Category key to skip")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
