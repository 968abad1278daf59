package csvstore

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec wraps shard files in a stream compression format.
type Codec interface {
	Name() string
	// Ext is appended to ".csv"; "" for plain files.
	Ext() string
	NewWriter(w io.Writer) (io.WriteCloser, error)
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// Codecs lists every supported codec by name.
var Codecs = map[string]Codec{
	"none": noneCodec{},
	"gzip": gzipCodec{},
	"zstd": zstdCodec{},
	"lz4":  lz4Codec{},
	"s2":   s2Codec{},
}

// CodecNames fixes the lookup order when shards are found by extension:
// plain files first.
var CodecNames = []string{"none", "gzip", "zstd", "lz4", "s2"}

// CodecFor resolves a codec name. An empty name means "none".
func CodecFor(name string) (Codec, error) {
	if name == "" {
		name = "none"
	}
	c, ok := Codecs[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("csvstore: unknown codec %q", name)
	}
	return c, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type noneCodec struct{}

func (noneCodec) Name() string { return "none" }
func (noneCodec) Ext() string  { return "" }
func (noneCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}
func (noneCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

type gzipCodec struct{}

func (gzipCodec) Name() string { return "gzip" }
func (gzipCodec) Ext() string  { return ".gz" }
func (gzipCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, gzip.BestSpeed)
}
func (gzipCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

type zstdCodec struct{}

func (zstdCodec) Name() string { return "zstd" }
func (zstdCodec) Ext() string  { return ".zst" }
func (zstdCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
}
func (zstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return d.IOReadCloser(), nil
}

type lz4Codec struct{}

func (lz4Codec) Name() string { return "lz4" }
func (lz4Codec) Ext() string  { return ".lz4" }
func (lz4Codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}
func (lz4Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

type s2Codec struct{}

func (s2Codec) Name() string { return "s2" }
func (s2Codec) Ext() string  { return ".s2" }
func (s2Codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return s2.NewWriter(w), nil
}
func (s2Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(s2.NewReader(r)), nil
}
