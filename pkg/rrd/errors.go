package rrd

import (
	"errors"
	"fmt"
)

var (
	ErrFormat       = errors.New("rrd: format error")
	ErrAlignment    = errors.New("rrd: inconsistent alignment")
	ErrArchMismatch = errors.New("rrd: target architecture equals source architecture")
	ErrIntegrity    = errors.New("rrd: integrity check failed")
	ErrUnknownArch  = errors.New("rrd: unknown architecture")
)

// FormatError reports a field that does not hold what the format requires,
// or a region the source ended inside of.
type FormatError struct {
	Field    string
	Expected string
	Actual   string
	Err      error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("rrd: format issue: %s: expected %s, got %s", e.Field, e.Expected, e.Actual)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFormat}
	}
	return []error{ErrFormat, e.Err}
}

// AlignmentError reports a header whose padding matched neither layout.
// Extra is the number of zero fields that had to be skipped; only 0 and 2
// identify a layout.
type AlignmentError struct {
	Extra int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("rrd: format issue: ALIGNMENT: %d padded header fields, want 0 (armv6l) or 2 (x86_64)", e.Extra)
}

func (e *AlignmentError) Unwrap() error {
	return ErrAlignment
}

// ArchMismatchError reports a requested target equal to the source layout.
type ArchMismatchError struct {
	Arch Arch
}

func (e *ArchMismatchError) Error() string {
	return fmt.Sprintf("rrd: source is already %s", e.Arch)
}

func (e *ArchMismatchError) Unwrap() error {
	return ErrArchMismatch
}

// IntegrityError reports a destination whose size or region offset differs
// from what the layout table predicts. The destination must be discarded.
type IntegrityError struct {
	Region   string
	Expected int64
	Actual   int64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("rrd: integrity check failed: %s: expected %d bytes, got %d", e.Region, e.Expected, e.Actual)
}

func (e *IntegrityError) Unwrap() error {
	return ErrIntegrity
}

func mismatch(field string, expected, actual any) error {
	return &FormatError{
		Field:    field,
		Expected: fmt.Sprintf("%v", expected),
		Actual:   fmt.Sprintf("%v", actual),
	}
}
