// Package sqlite provides a SQLite-backed implementation of the table source
// and shard sink ports.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
	"go.uber.org/zap"

	"github.com/ewilliams-labs/decades/internal/core/domain"
)

// masterKey is the pseudo decade the master table is stored under.
const masterKey = "master"

// Adapter stores tables as JSON-encoded rows, one table per decade plus the
// master table.
type Adapter struct {
	db  *sql.DB
	log *zap.Logger
}

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string, log *zap.Logger) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	adapter := &Adapter{db: db, log: log}
	if err := adapter.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// ImportMaster replaces the stored master table.
func (a *Adapter) ImportMaster(ctx context.Context, t domain.Table) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := putTable(ctx, tx, masterKey, "", t); err != nil {
		return fmt.Errorf("sqlite: import master: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// LoadMaster returns the imported master table.
func (a *Adapter) LoadMaster(ctx context.Context) (domain.Table, error) {
	t, err := a.getTable(ctx, masterKey)
	if err != nil {
		return domain.Table{}, fmt.Errorf("sqlite: load master: %w", err)
	}
	return t, nil
}

// LoadShard returns the rows of decade in insertion order.
func (a *Adapter) LoadShard(ctx context.Context, decade domain.Decade) (domain.Table, error) {
	t, err := a.getTable(ctx, decade.String())
	if err != nil {
		return domain.Table{}, fmt.Errorf("sqlite: shard %s: %w", decade, err)
	}
	return t, nil
}

// Decades lists stored shards in chronological order.
func (a *Adapter) Decades(ctx context.Context) ([]domain.Decade, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT name FROM tables_meta WHERE name != ?", masterKey)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list shards: %w", err)
	}
	defer rows.Close()

	out := []domain.Decade{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: scan shard: %w", err)
		}
		d, err := domain.ParseDecade(name)
		if err != nil {
			return nil, fmt.Errorf("sqlite: shard name %q: %w", name, domain.ErrMalformedInput)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate shards: %w", err)
	}
	domain.SortDecades(out)
	return out, nil
}

// WriteShards replaces every stored shard inside one transaction and records
// the run.
func (a *Adapter) WriteShards(ctx context.Context, source string, shards []domain.Shard) (domain.Manifest, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Manifest{}, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM tables_meta WHERE name != ?", masterKey); err != nil {
		return domain.Manifest{}, fmt.Errorf("sqlite: clear shards: %w", err)
	}

	m := domain.Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Source:    source,
		Codec:     "sqlite",
	}
	for _, sh := range shards {
		sum, err := putTable(ctx, tx, sh.Decade.String(), m.RunID, sh.Table)
		if err != nil {
			return domain.Manifest{}, fmt.Errorf("sqlite: shard %s: %w", sh.Decade, err)
		}
		m.Shards = append(m.Shards, domain.ShardEntry{
			Decade:   sh.Decade,
			Location: "sqlite:" + sh.Decade.String(),
			Rows:     sh.Table.Len(),
			Checksum: sum,
		})
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, created_at, source, shards) VALUES (?, ?, ?, ?)",
		m.RunID, m.CreatedAt, m.Source, len(m.Shards),
	); err != nil {
		return domain.Manifest{}, fmt.Errorf("sqlite: record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Manifest{}, fmt.Errorf("sqlite: commit: %w", err)
	}
	sort.Slice(m.Shards, func(i, j int) bool {
		return m.Shards[i].Decade.Start() < m.Shards[j].Decade.Start()
	})
	a.log.Info("shards written",
		zap.String("run_id", m.RunID),
		zap.Int("shards", len(m.Shards)),
		zap.Int("rows", m.TotalRows()))
	return m, nil
}

func (a *Adapter) getTable(ctx context.Context, name string) (domain.Table, error) {
	var headerJSON string
	var checksum int64
	row := a.db.QueryRowContext(ctx, "SELECT header, checksum FROM tables_meta WHERE name = ?", name)
	if err := row.Scan(&headerJSON, &checksum); err != nil {
		if err == sql.ErrNoRows {
			return domain.Table{}, domain.ErrNotFound
		}
		return domain.Table{}, fmt.Errorf("load header: %w", err)
	}

	var t domain.Table
	if err := json.Unmarshal([]byte(headerJSON), &t.Header); err != nil {
		return domain.Table{}, fmt.Errorf("%w: header: %v", domain.ErrMalformedInput, err)
	}

	rows, err := a.db.QueryContext(ctx, "SELECT cells FROM table_rows WHERE name = ? ORDER BY row_num ASC", name)
	if err != nil {
		return domain.Table{}, fmt.Errorf("load rows: %w", err)
	}
	defer rows.Close()

	h := xxhash.New()
	h.WriteString(headerJSON)
	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return domain.Table{}, fmt.Errorf("scan row: %w", err)
		}
		h.WriteString(cells)
		var rec []string
		if err := json.Unmarshal([]byte(cells), &rec); err != nil {
			return domain.Table{}, fmt.Errorf("%w: row %d: %v", domain.ErrMalformedInput, len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return domain.Table{}, fmt.Errorf("iterate rows: %w", err)
	}
	if uint64(checksum) != h.Sum64() {
		return domain.Table{}, domain.ErrChecksumMismatch
	}
	return t, nil
}

// putTable replaces table name and returns the checksum of its encoded form.
func putTable(ctx context.Context, tx *sql.Tx, name, runID string, t domain.Table) (uint64, error) {
	if _, err := tx.ExecContext(ctx, "DELETE FROM table_rows WHERE name = ?", name); err != nil {
		return 0, fmt.Errorf("clear rows: %w", err)
	}

	headerJSON, err := json.Marshal(t.Header)
	if err != nil {
		return 0, fmt.Errorf("encode header: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO table_rows (name, row_num, cells) VALUES (?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	h := xxhash.New()
	h.Write(headerJSON)
	for i, r := range t.Rows {
		cells, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("encode row %d: %w", i+1, err)
		}
		h.Write(cells)
		if _, err := stmt.ExecContext(ctx, name, i, string(cells)); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	sum := h.Sum64()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tables_meta (name, run_id, header, row_count, checksum) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			run_id=excluded.run_id,
			header=excluded.header,
			row_count=excluded.row_count,
			checksum=excluded.checksum;
	`, name, runID, string(headerJSON), len(t.Rows), int64(sum)); err != nil {
		return 0, fmt.Errorf("save header: %w", err)
	}
	return sum, nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS tables_meta (
		name TEXT PRIMARY KEY,
		run_id TEXT,
		header TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		checksum INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS table_rows (
		name TEXT NOT NULL,
		row_num INTEGER NOT NULL,
		cells TEXT NOT NULL,
		PRIMARY KEY (name, row_num)
	);

	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		source TEXT,
		shards INTEGER NOT NULL
	);

	CREATE TRIGGER IF NOT EXISTS tables_meta_cascade
	AFTER DELETE ON tables_meta
	BEGIN
		DELETE FROM table_rows WHERE name = OLD.name;
	END;
	`
	_, err := a.db.Exec(query)
	return err
}
