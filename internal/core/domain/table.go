package domain

import (
	"strings"
	"time"
)

// Table is a header plus string rows, exactly as read from a delimited file.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of column in the header. Header names are
// compared after trimming surrounding whitespace.
func (t Table) Index(column string) (int, error) {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == column {
			return i, nil
		}
	}
	return -1, ColumnError{Column: column}
}

// Has reports whether the header carries column.
func (t Table) Has(column string) bool {
	_, err := t.Index(column)
	return err == nil
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// WithColumn returns a copy of t with an extra column computed per row.
// The receiver is left untouched.
func (t Table) WithColumn(name string, value func(row []string) string) Table {
	header := make([]string, len(t.Header), len(t.Header)+1)
	copy(header, t.Header)
	header = append(header, name)

	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]string, len(r), len(r)+1)
		copy(row, r)
		rows[i] = append(row, value(r))
	}
	return Table{Header: header, Rows: rows}
}

// Shard is the subset of the master table belonging to one decade.
type Shard struct {
	Decade Decade
	Table  Table
}

// ShardEntry describes one persisted shard.
type ShardEntry struct {
	Decade   Decade `json:"decade"`
	Location string `json:"location"`
	Rows     int    `json:"rows"`
	Checksum uint64 `json:"checksum"`
}

// Manifest records one partitioning run.
type Manifest struct {
	RunID     string       `json:"run_id"`
	CreatedAt time.Time    `json:"created_at"`
	Source    string       `json:"source"`
	Codec     string       `json:"codec"`
	Shards    []ShardEntry `json:"shards"`
}

// Entry returns the manifest entry for d.
func (m Manifest) Entry(d Decade) (ShardEntry, bool) {
	for _, e := range m.Shards {
		if e.Decade == d {
			return e, true
		}
	}
	return ShardEntry{}, false
}

// TotalRows sums the row counts of every shard.
func (m Manifest) TotalRows() int {
	n := 0
	for _, e := range m.Shards {
		n += e.Rows
	}
	return n
}
