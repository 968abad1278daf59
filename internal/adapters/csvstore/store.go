// Package csvstore keeps the master table and its decade shards as CSV files
// on disk, optionally compressed, with a JSON manifest per partitioning run.
package csvstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ewilliams-labs/decades/internal/core/domain"
)

// ManifestName is the manifest file written next to the shards.
const ManifestName = "manifest.json"

// Store implements ports.TableSource and ports.ShardSink on a directory.
type Store struct {
	master   string
	dir      string
	codec    Codec
	parallel int
	log      *zap.Logger
	now      func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithCodec selects the compression used for new shards.
func WithCodec(c Codec) Option {
	return func(s *Store) { s.codec = c }
}

// WithParallelism bounds concurrent shard writes.
func WithParallelism(n int) Option {
	return func(s *Store) { s.parallel = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a store reading the master table from master and keeping
// shards under dir.
func New(master, dir string, opts ...Option) *Store {
	s := &Store{
		master:   master,
		dir:      dir,
		codec:    noneCodec{},
		parallel: 4,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// LoadMaster reads the master table.
func (s *Store) LoadMaster(ctx context.Context) (domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return domain.Table{}, err
	}
	raw, err := readFile(s.master)
	if err != nil {
		return domain.Table{}, fmt.Errorf("csvstore: load master: %w", err)
	}
	t, err := DecodeTable(raw)
	if err != nil {
		return domain.Table{}, fmt.Errorf("csvstore: load master %s: %w", s.master, err)
	}
	return t, nil
}

// LoadShard reads the shard of decade. When a manifest is present the shard
// checksum is verified against it.
func (s *Store) LoadShard(ctx context.Context, decade domain.Decade) (domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return domain.Table{}, err
	}

	m, hasManifest, err := s.readManifest()
	if err != nil {
		return domain.Table{}, err
	}

	var path string
	var entry domain.ShardEntry
	if hasManifest {
		e, ok := m.Entry(decade)
		if !ok {
			return domain.Table{}, fmt.Errorf("csvstore: shard %s: %w", decade, domain.ErrNotFound)
		}
		entry = e
		path = filepath.Join(s.dir, e.Location)
	} else {
		path, err = s.findShard(decade)
		if err != nil {
			return domain.Table{}, err
		}
	}

	raw, err := readFile(path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("csvstore: shard %s: %w", decade, err)
	}
	if hasManifest {
		if sum := xxhash.Sum64(raw); sum != entry.Checksum {
			return domain.Table{}, fmt.Errorf("csvstore: shard %s: %w: have %x, manifest %x",
				decade, domain.ErrChecksumMismatch, sum, entry.Checksum)
		}
	}

	t, err := DecodeTable(raw)
	if err != nil {
		return domain.Table{}, fmt.Errorf("csvstore: shard %s: %w", decade, err)
	}
	s.log.Debug("shard loaded", zap.String("decade", decade.String()), zap.Int("rows", t.Len()))
	return t, nil
}

// Decades lists stored shards in chronological order.
func (s *Store) Decades(ctx context.Context) ([]domain.Decade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, ok, err := s.readManifest()
	if err != nil {
		return nil, err
	}
	out := []domain.Decade{}
	if ok {
		for _, e := range m.Shards {
			out = append(out, e.Decade)
		}
	} else {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return []domain.Decade{}, nil
			}
			return nil, fmt.Errorf("csvstore: list %s: %w", s.dir, err)
		}
		for _, e := range entries {
			if d, ok := decadeFromFile(e.Name()); ok {
				out = append(out, d)
			}
		}
	}
	domain.SortDecades(out)
	return out, nil
}

// Manifest returns the manifest of the last run, or ErrNotFound.
func (s *Store) Manifest() (domain.Manifest, error) {
	m, ok, err := s.readManifest()
	if err != nil {
		return domain.Manifest{}, err
	}
	if !ok {
		return domain.Manifest{}, fmt.Errorf("csvstore: manifest: %w", domain.ErrNotFound)
	}
	return m, nil
}

// WriteShards writes every shard concurrently, then the manifest. Shard files
// are written to a temporary name and renamed, so readers never observe a
// partial file.
func (s *Store) WriteShards(ctx context.Context, source string, shards []domain.Shard) (domain.Manifest, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return domain.Manifest{}, fmt.Errorf("csvstore: mkdir %s: %w", s.dir, err)
	}

	entries := make([]domain.ShardEntry, len(shards))
	g, gctx := errgroup.WithContext(ctx)
	if s.parallel > 0 {
		g.SetLimit(s.parallel)
	}
	for i, sh := range shards {
		i, sh := i, sh
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, err := s.writeShard(sh)
			if err != nil {
				return err
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Manifest{}, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Decade.Start() < entries[j].Decade.Start()
	})
	m := domain.Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Source:    source,
		Codec:     s.codec.Name(),
		Shards:    entries,
	}
	if err := s.writeManifest(m); err != nil {
		return domain.Manifest{}, err
	}
	s.log.Info("shards written",
		zap.String("run_id", m.RunID),
		zap.Int("shards", len(entries)),
		zap.Int("rows", m.TotalRows()),
		zap.String("codec", m.Codec))
	return m, nil
}

func (s *Store) writeShard(sh domain.Shard) (domain.ShardEntry, error) {
	var buf bytes.Buffer
	enc, err := s.codec.NewWriter(&buf)
	if err != nil {
		return domain.ShardEntry{}, fmt.Errorf("csvstore: shard %s: %w", sh.Decade, err)
	}
	if err := encodeTable(enc, sh.Table); err != nil {
		return domain.ShardEntry{}, fmt.Errorf("csvstore: shard %s: %w", sh.Decade, err)
	}
	if err := enc.Close(); err != nil {
		return domain.ShardEntry{}, fmt.Errorf("csvstore: shard %s: %w", sh.Decade, err)
	}

	name := sh.Decade.Slug() + ".csv" + s.codec.Ext()
	if err := WriteAtomic(filepath.Join(s.dir, name), buf.Bytes()); err != nil {
		return domain.ShardEntry{}, fmt.Errorf("csvstore: shard %s: %w", sh.Decade, err)
	}
	return domain.ShardEntry{
		Decade:   sh.Decade,
		Location: name,
		Rows:     sh.Table.Len(),
		Checksum: xxhash.Sum64(buf.Bytes()),
	}, nil
}

func (s *Store) readManifest() (domain.Manifest, bool, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, ManifestName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Manifest{}, false, nil
		}
		return domain.Manifest{}, false, fmt.Errorf("csvstore: read manifest: %w", err)
	}
	var m domain.Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return domain.Manifest{}, false, fmt.Errorf("csvstore: manifest: %w: %v", domain.ErrMalformedInput, err)
	}
	return m, true, nil
}

func (s *Store) writeManifest(m domain.Manifest) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("csvstore: encode manifest: %w", err)
	}
	if err := WriteAtomic(filepath.Join(s.dir, ManifestName), raw); err != nil {
		return fmt.Errorf("csvstore: write manifest: %w", err)
	}
	return nil
}

// findShard looks for a shard file under each codec extension in
// CodecNames order.
func (s *Store) findShard(d domain.Decade) (string, error) {
	for _, name := range CodecNames {
		path := filepath.Join(s.dir, d.Slug()+".csv"+Codecs[name].Ext())
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("csvstore: shard %s: %w", d, domain.ErrNotFound)
}

func decadeFromFile(name string) (domain.Decade, bool) {
	if !strings.HasPrefix(name, "data_") {
		return "", false
	}
	base := strings.TrimPrefix(name, "data_")
	i := strings.Index(base, ".csv")
	if i < 0 {
		return "", false
	}
	d, err := domain.ParseDecade(base[:i])
	if err != nil {
		return "", false
	}
	return d, true
}

// readFile returns the raw bytes of path. A missing file is ErrNotFound.
func readFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
		}
		return nil, err
	}
	return raw, nil
}

// DecodeTable decompresses raw by sniffing its codec and parses the CSV.
func DecodeTable(raw []byte) (domain.Table, error) {
	r, err := sniff(raw)
	if err != nil {
		return domain.Table{}, fmt.Errorf("%w: %v", domain.ErrMalformedInput, err)
	}
	defer r.Close()
	return ReadTable(r)
}

// sniff picks a decompressor from the stream's magic bytes.
func sniff(raw []byte) (io.ReadCloser, error) {
	br := bytes.NewReader(raw)
	switch {
	case bytes.HasPrefix(raw, []byte{0x1f, 0x8b}):
		return gzipCodec{}.NewReader(br)
	case bytes.HasPrefix(raw, []byte{0x28, 0xb5, 0x2f, 0xfd}):
		return zstdCodec{}.NewReader(br)
	case bytes.HasPrefix(raw, []byte{0x04, 0x22, 0x4d, 0x18}):
		return lz4Codec{}.NewReader(br)
	case bytes.HasPrefix(raw, []byte{0xff, 0x06, 0x00, 0x00}):
		return s2Codec{}.NewReader(br)
	default:
		return noneCodec{}.NewReader(br)
	}
}

// ReadTable parses a CSV stream whose first record is the header.
func ReadTable(r io.Reader) (domain.Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Table{}, fmt.Errorf("%w: empty file", domain.ErrMalformedInput)
		}
		return domain.Table{}, fmt.Errorf("%w: %v", domain.ErrMalformedInput, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := domain.Table{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("%w: %v", domain.ErrMalformedInput, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// WriteTable writes t as CSV, header first.
func WriteTable(w io.Writer, t domain.Table) error {
	return encodeTable(w, t)
}

func encodeTable(w io.Writer, t domain.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteAtomic writes data to a temporary file next to path and renames it
// into place.
func WriteAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
