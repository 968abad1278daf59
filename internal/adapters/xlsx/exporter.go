// Package xlsx exports dashboard pages as Excel workbooks: one summary sheet
// plus one data sheet per chart.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ewilliams-labs/decades/internal/core/presenter"
)

const (
	summarySheet = "Summary"
	maxSheetName = 31
)

// Exporter implements ports.PageExporter.
type Exporter struct{}

// New returns an Exporter.
func New() *Exporter { return &Exporter{} }

// Export writes page as a workbook to w.
func (e *Exporter) Export(w io.Writer, page presenter.Page) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: style: %w", err)
	}
	b := &book{f: f, bold: bold, used: map[string]bool{}}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	b.used[summarySheet] = true
	if err := b.summary(page); err != nil {
		return err
	}

	for _, c := range page.Charts() {
		name := b.sheetName(c.ID)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("xlsx: sheet %s: %w", name, err)
		}
		if err := b.chart(name, c); err != nil {
			return fmt.Errorf("xlsx: chart %s: %w", c.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

type book struct {
	f    *excelize.File
	bold int
	used map[string]bool
}

func (b *book) summary(page presenter.Page) error {
	rows := [][]any{
		{"View", page.ID},
		{"Title", page.Title},
	}
	if page.Intro != "" {
		rows = append(rows, []any{"Intro", page.Intro})
	}
	if page.Selected != "" {
		rows = append(rows, []any{"Artist", page.Selected})
	}
	for _, s := range page.Sections {
		if s.Heading == "" && s.Text == "" {
			continue
		}
		rows = append(rows, []any{s.Heading, s.Text})
	}
	for _, d := range page.Glossary {
		rows = append(rows, []any{d.Term, d.Text})
	}
	if err := b.rows(summarySheet, 1, rows); err != nil {
		return err
	}
	if err := b.f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), b.bold); err != nil {
		return err
	}
	if err := b.f.SetColWidth(summarySheet, "A", "A", 20); err != nil {
		return err
	}
	return b.f.SetColWidth(summarySheet, "B", "B", 80)
}

func (b *book) chart(sheet string, c presenter.Chart) error {
	if err := b.f.SetCellValue(sheet, "A1", c.Title); err != nil {
		return err
	}
	if err := b.f.SetCellStyle(sheet, "A1", "A1", b.bold); err != nil {
		return err
	}

	var header []any
	var rows [][]any
	switch {
	case c.Heatmap != nil:
		header, rows = heatmapRows(c)
	case c.Distribution != nil:
		header, rows = distributionRows(c.Distribution)
	default:
		header, rows = seriesRows(c)
	}

	if err := b.rows(sheet, 3, [][]any{header}); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 3)
	if err != nil {
		return err
	}
	if err := b.f.SetCellStyle(sheet, "A3", last, b.bold); err != nil {
		return err
	}
	if err := b.rows(sheet, 4, rows); err != nil {
		return err
	}
	return b.f.SetColWidth(sheet, "A", "A", 24)
}

func (b *book) rows(sheet string, first int, rows [][]any) error {
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, first+i)
		if err != nil {
			return err
		}
		r := r
		if err := b.f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	return nil
}

// sheetName turns a chart id into a unique, Excel-safe sheet name.
func (b *book) sheetName(id string) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, id)
	if base == "" {
		base = "chart"
	}
	if len(base) > maxSheetName {
		base = base[:maxSheetName]
	}
	name := base
	for i := 2; b.used[name]; i++ {
		suffix := fmt.Sprintf("~%d", i)
		cut := base
		if len(cut)+len(suffix) > maxSheetName {
			cut = cut[:maxSheetName-len(suffix)]
		}
		name = cut + suffix
	}
	b.used[name] = true
	return name
}

// seriesRows lays out bar charts with one column per series.
func seriesRows(c presenter.Chart) ([]any, [][]any) {
	label := c.YLabel
	if !c.Horizontal || label == "" {
		label = "Label"
	}
	header := []any{label}
	for _, s := range c.Series {
		header = append(header, s.Name)
	}
	if len(c.Series) == 0 {
		return header, nil
	}
	rows := make([][]any, len(c.Series[0].Points))
	for i, pt := range c.Series[0].Points {
		row := []any{pt.Label}
		for _, s := range c.Series {
			if i < len(s.Points) {
				row = append(row, s.Points[i].Value)
			} else {
				row = append(row, nil)
			}
		}
		rows[i] = row
	}
	return header, rows
}

func heatmapRows(c presenter.Chart) ([]any, [][]any) {
	hm := c.Heatmap
	header := []any{c.YLabel}
	for _, col := range hm.Columns {
		header = append(header, col)
	}
	rows := make([][]any, len(hm.Rows))
	for i, r := range hm.Rows {
		row := []any{r}
		for _, n := range hm.Counts[i] {
			row = append(row, n)
		}
		rows[i] = row
	}
	return header, rows
}

func distributionRows(d *presenter.Distribution) ([]any, [][]any) {
	s := d.Summary
	rows := [][]any{
		{"count", s.Count}, {"mean", s.Mean}, {"std", s.StdDev},
		{"min", s.Min}, {"25%", s.Q1}, {"50%", s.Median}, {"75%", s.Q3}, {"max", s.Max},
		{},
		{"bin min", "bin max", "count"},
	}
	for _, bin := range d.Bins {
		rows = append(rows, []any{bin.Min, bin.Max, bin.Count})
	}
	return []any{"statistic", string(d.Feature)}, rows
}
