package aggregate

import "github.com/ewilliams-labs/decades/internal/core/domain"

// Pivot is a dense count grid. Every (row, column) pair has a cell, zero
// when no track falls into it.
type Pivot struct {
	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`
	Counts  [][]int  `json:"counts"`
}

// Count returns the cell for (row, col), zero for labels outside the grid.
func (p Pivot) Count(row, col string) int {
	ri, ci := indexOf(p.Rows, row), indexOf(p.Columns, col)
	if ri < 0 || ci < 0 {
		return 0
	}
	return p.Counts[ri][ci]
}

// Total sums every cell.
func (p Pivot) Total() int {
	n := 0
	for _, r := range p.Counts {
		for _, c := range r {
			n += c
		}
	}
	return n
}

// Crosstab counts tracks by (rowKey, colKey) over fixed axes. Labels that do
// not appear in the axes are appended in first-seen order so nothing is
// silently dropped.
func Crosstab(tracks []domain.Track, rows, cols []string, rowKey, colKey func(domain.Track) string) Pivot {
	p := Pivot{
		Rows:    append([]string(nil), rows...),
		Columns: append([]string(nil), cols...),
	}
	for _, t := range tracks {
		if r := rowKey(t); indexOf(p.Rows, r) < 0 {
			p.Rows = append(p.Rows, r)
		}
		if c := colKey(t); indexOf(p.Columns, c) < 0 {
			p.Columns = append(p.Columns, c)
		}
	}

	p.Counts = make([][]int, len(p.Rows))
	for i := range p.Counts {
		p.Counts[i] = make([]int, len(p.Columns))
	}
	for _, t := range tracks {
		p.Counts[indexOf(p.Rows, rowKey(t))][indexOf(p.Columns, colKey(t))]++
	}
	return p
}

// KeyModePivot counts tracks per (key_mode, decade). Rows are all 24
// key/mode labels; columns are the given decades, or the decades present in
// tracks when decades is empty.
func KeyModePivot(tracks []domain.Track, decades []domain.Decade) Pivot {
	return Crosstab(tracks, domain.AllKeyModes(), decadeAxis(tracks, decades),
		func(t domain.Track) string { return t.KeyMode },
		func(t domain.Track) string { return string(t.Decade) },
	)
}

// ExplicitByDecade counts explicit and non-explicit tracks per decade. Rows
// are decades, columns the two explicit labels.
func ExplicitByDecade(tracks []domain.Track, decades []domain.Decade) Pivot {
	return Crosstab(tracks, decadeAxis(tracks, decades), []string{domain.LabelExplicit, domain.LabelNotExplicit},
		func(t domain.Track) string { return string(t.Decade) },
		func(t domain.Track) string { return t.ExplicitLabel },
	)
}

func decadeAxis(tracks []domain.Track, decades []domain.Decade) []string {
	if len(decades) == 0 {
		seen := make(map[domain.Decade]bool)
		for _, t := range tracks {
			if !seen[t.Decade] {
				seen[t.Decade] = true
				decades = append(decades, t.Decade)
			}
		}
	}
	sorted := append([]domain.Decade(nil), decades...)
	domain.SortDecades(sorted)

	out := make([]string, len(sorted))
	for i, d := range sorted {
		out[i] = string(d)
	}
	return out
}

func indexOf(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}
	return -1
}
