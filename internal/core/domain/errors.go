package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("domain: not found")
	ErrMissingColumn    = errors.New("domain: missing column")
	ErrUnexpectedValue  = errors.New("domain: unexpected value")
	ErrMalformedInput   = errors.New("domain: malformed input")
	ErrUnknownFeature   = errors.New("domain: unknown feature")
	ErrUnknownArtist    = errors.New("domain: unknown artist")
	ErrChecksumMismatch = errors.New("domain: checksum mismatch")
)

// ColumnError reports a required column that is absent from a table header.
type ColumnError struct {
	Column string
}

func (e ColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

func (e ColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// ValueError reports a cell that cannot be interpreted. Row is 1-based and
// counts data rows only (the header is not row 1).
type ValueError struct {
	Column string
	Row    int
	Value  string
	Reason string
}

func (e ValueError) Error() string {
	msg := fmt.Sprintf("unexpected value %q in column %q", e.Value, e.Column)
	if e.Row > 0 {
		msg = fmt.Sprintf("%s at row %d", msg, e.Row)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e ValueError) Is(target error) bool {
	return target == ErrUnexpectedValue
}
