package domain

import (
	"errors"
	"math"
	"testing"
)

func TestParseExplicit(t *testing.T) {
	tests := []struct {
		raw       string
		want      bool
		wantLabel string
		wantErr   bool
	}{
		{raw: "1", want: true, wantLabel: LabelExplicit},
		{raw: "0", want: false, wantLabel: LabelNotExplicit},
		{raw: "True", want: true, wantLabel: LabelExplicit},
		{raw: "false", want: false, wantLabel: LabelNotExplicit},
		{raw: "2", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "yes", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseExplicit(tc.raw)
		if tc.wantErr {
			if !errors.Is(err, ErrUnexpectedValue) {
				t.Fatalf("%q: expected ErrUnexpectedValue, got %v", tc.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %v, want %v", tc.raw, got, tc.want)
		}
		if label := ExplicitLabel(got); label != tc.wantLabel {
			t.Fatalf("%q: label got %q, want %q", tc.raw, label, tc.wantLabel)
		}
	}
}

func TestDurationRoundTrip(t *testing.T) {
	for _, ms := range []float64{0, 1, 59999, 60000, 270000, 1234567} {
		minutes := DurationMinutes(ms)
		if math.Abs(DurationMillis(minutes)-ms) > 1e-6 {
			t.Fatalf("round trip for %v ms drifted: %v", ms, DurationMillis(minutes))
		}
	}
	if got := DurationMinutes(270000); got != 4.5 {
		t.Fatalf("270000ms: got %v minutes, want 4.5", got)
	}
}

func TestArtistTrackLabel(t *testing.T) {
	got := ArtistTrackLabel("Elvis Presley", "Hound Dog")
	if got != "Elvis Presley - Hound Dog" {
		t.Fatalf("got %q", got)
	}
	if again := ArtistTrackLabel("Elvis Presley", "Hound Dog"); again != got {
		t.Fatalf("label is not stable: %q vs %q", again, got)
	}
}

func TestColumnAndValueErrors(t *testing.T) {
	var err error = ColumnError{Column: "decade"}
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("ColumnError should match ErrMissingColumn")
	}
	err = ValueError{Column: "explicit", Row: 3, Value: "2"}
	if !errors.Is(err, ErrUnexpectedValue) {
		t.Fatalf("ValueError should match ErrUnexpectedValue")
	}
	if err.Error() != `unexpected value "2" in column "explicit" at row 3` {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestTable_WithColumn(t *testing.T) {
	tbl := Table{
		Header: []string{"name", "first_artist"},
		Rows:   [][]string{{"Song", "Artist"}},
	}
	out := tbl.WithColumn("artist_track", func(row []string) string {
		return ArtistTrackLabel(row[1], row[0])
	})
	if len(tbl.Header) != 2 || len(tbl.Rows[0]) != 2 {
		t.Fatalf("receiver was mutated: %+v", tbl)
	}
	idx, err := out.Index("artist_track")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if out.Rows[0][idx] != "Artist - Song" {
		t.Fatalf("got %q", out.Rows[0][idx])
	}
	if _, err := out.Index("missing"); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}
