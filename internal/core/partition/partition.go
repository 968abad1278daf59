// Package partition splits the master table into per-decade shards.
package partition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/decades/internal/core/derive"
	"github.com/ewilliams-labs/decades/internal/core/domain"
)

// Partition assigns every master row to the shard of its decade label.
// Shards come back in chronological order; rows keep their master order.
// A missing decade column, an unparsable label, or a label that disagrees
// with the year column fails the whole run.
func Partition(master domain.Table) ([]domain.Shard, error) {
	decadeIdx, err := master.Index(derive.ColDecade)
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}
	yearIdx, err := master.Index(derive.ColYear)
	if err != nil {
		yearIdx = -1
	}

	table := withArtistTrack(master)

	byDecade := make(map[domain.Decade][][]string)
	order := make([]domain.Decade, 0)
	for i, row := range table.Rows {
		raw := ""
		if decadeIdx < len(row) {
			raw = row[decadeIdx]
		}
		d, err := domain.ParseDecade(raw)
		if err != nil {
			return nil, fmt.Errorf("partition: %w", domain.ValueError{
				Column: derive.ColDecade,
				Row:    i + 1,
				Value:  raw,
				Reason: "not a decade label",
			})
		}
		if yearIdx >= 0 {
			if err := checkYear(row, yearIdx, i+1, d); err != nil {
				return nil, fmt.Errorf("partition: %w", err)
			}
		}
		if _, seen := byDecade[d]; !seen {
			order = append(order, d)
		}
		byDecade[d] = append(byDecade[d], row)
	}
	domain.SortDecades(order)

	shards := make([]domain.Shard, 0, len(order))
	for _, d := range order {
		shards = append(shards, domain.Shard{
			Decade: d,
			Table: domain.Table{
				Header: append([]string(nil), table.Header...),
				Rows:   byDecade[d],
			},
		})
	}
	return shards, nil
}

// checkYear rejects a row whose year does not fall inside its decade label.
func checkYear(row []string, yearIdx, rowNum int, d domain.Decade) error {
	raw := strings.TrimSpace(cell(row, yearIdx))
	year, err := strconv.Atoi(raw)
	if err != nil {
		return domain.ValueError{Column: derive.ColYear, Row: rowNum, Value: raw, Reason: "not an integer"}
	}
	if got := domain.DecadeOf(year); got != d {
		return domain.ValueError{
			Column: derive.ColDecade,
			Row:    rowNum,
			Value:  string(d),
			Reason: fmt.Sprintf("year %d belongs to %s", year, got),
		}
	}
	return nil
}

// withArtistTrack appends the artist_track column when the table has the
// columns it is built from and does not carry it already.
func withArtistTrack(t domain.Table) domain.Table {
	if t.Has(derive.ColArtistTrack) {
		return t
	}
	nameIdx, err := t.Index(derive.ColName)
	if err != nil {
		return t
	}
	artistIdx, err := t.Index(derive.ColFirstArtist)
	if err != nil {
		return t
	}
	return t.WithColumn(derive.ColArtistTrack, func(row []string) string {
		return domain.ArtistTrackLabel(cell(row, artistIdx), cell(row, nameIdx))
	})
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// Verify checks that shards are a partition of master: row counts add up and
// every shard row carries its shard's decade label.
func Verify(master domain.Table, shards []domain.Shard) error {
	total := 0
	seen := make(map[domain.Decade]bool, len(shards))
	for _, s := range shards {
		if seen[s.Decade] {
			return fmt.Errorf("partition: duplicate shard for %s", s.Decade)
		}
		seen[s.Decade] = true

		idx, err := s.Table.Index(derive.ColDecade)
		if err != nil {
			return fmt.Errorf("partition: shard %s: %w", s.Decade, err)
		}
		for i, row := range s.Table.Rows {
			if strings.TrimSpace(cell(row, idx)) != string(s.Decade) {
				return fmt.Errorf("partition: shard %s row %d has decade %q", s.Decade, i+1, cell(row, idx))
			}
		}
		total += s.Table.Len()
	}
	if total != master.Len() {
		return fmt.Errorf("partition: shards hold %d rows, master has %d", total, master.Len())
	}
	return nil
}
