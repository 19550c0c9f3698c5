package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/flagz/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export progress to an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out, _ := cmd.Flags().GetString("out")

		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.close()
		if err := e.awaitRoster(ctx); err != nil {
			return err
		}

		views := e.trainer(nil).CategoryViews()
		countries := e.roster.Countries()
		rows := make([]report.FlagRow, 0, len(countries))
		for _, c := range countries {
			key, ok := e.catalog.CategoryOf(c.Code)
			if !ok {
				continue
			}
			ip, _ := e.tracker.Item(c.Code)
			rows = append(rows, report.FlagRow{
				Country:  c,
				Name:     e.loc.CountryName(c),
				Category: key,
				Progress: ip,
			})
		}

		if err := report.Save(out, views, rows); err != nil {
			return err
		}
		fmt.Printf("Wrote %d categories and %d flags to %s\n", len(views), len(rows), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "flagz-progress.xlsx", "Output file")
}
