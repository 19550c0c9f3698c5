// Package report exports learner progress as an Excel workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/flagz/internal/memory"
	"github.com/abhisek/flagz/internal/progress"
	"github.com/abhisek/flagz/internal/roster"
)

// Sheet names.
const (
	SheetCategories = "Categories"
	SheetFlags      = "Flags"
)

const timeLayout = "2006-01-02 15:04"

var (
	categoryHeader = []any{"Key", "Title", "Status", "Learned", "Total", "Percent", "Last studied", "Study count"}
	flagHeader     = []any{"Code", "Name", "Continent", "Category", "Learned", "First learned", "Last learned", "Learn count"}
)

// FlagRow is one flag in the Flags sheet.
type FlagRow struct {
	Country  roster.Country
	Name     string
	Category string
	Progress progress.ItemProgress
}

// Build creates the workbook. The caller closes it.
func Build(categories []memory.CategoryView, flags []FlagRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetCategories); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetFlags); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DCE6F1"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	rows := make([][]any, 0, len(categories))
	for _, v := range categories {
		p := v.Progress
		pct := 0.0
		if p.TotalCount > 0 {
			pct = float64(p.LearnedCount) / float64(p.TotalCount)
		}
		rows = append(rows, []any{
			v.Category.Key, v.Title, string(p.Status), p.LearnedCount, p.TotalCount,
			pct, formatTimePtr(p.LastStudied), p.StudyCount,
		})
	}
	if err := writeSheet(f, SheetCategories, categoryHeader, rows, bold); err != nil {
		f.Close()
		return nil, err
	}

	rows = rows[:0]
	for _, r := range flags {
		ip := r.Progress
		rows = append(rows, []any{
			r.Country.Code, r.Name, string(r.Country.Continent), r.Category, ip.Learned,
			formatTime(ip.FirstLearnedAt), formatTime(ip.LastLearnedAt), ip.LearnCount,
		})
	}
	if err := writeSheet(f, SheetFlags, flagHeader, rows, bold); err != nil {
		f.Close()
		return nil, err
	}

	pctStyle, err := f.NewStyle(&excelize.Style{NumFmt: 9})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create percent style: %w", err)
	}
	if len(categories) > 0 {
		last := fmt.Sprintf("F%d", len(categories)+1)
		if err := f.SetCellStyle(SheetCategories, "F2", last, pctStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("style percent column: %w", err)
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "H", 16); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, categories []memory.CategoryView, flags []FlagRow) error {
	f, err := Build(categories, flags)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Save builds the workbook and saves it at path.
func Save(path string, categories []memory.CategoryView, flags []FlagRow) error {
	f, err := Build(categories, flags)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
