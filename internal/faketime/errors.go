package faketime

import (
	"errors"
	"fmt"
)

var (
	// ErrNoOffsetSource means libfaketime is preloaded but none of FAKETIME,
	// FAKETIME_TIMESTAMP_FILE, ~/.faketimerc or /etc/faketimerc is available.
	ErrNoOffsetSource = errors.New("could not determine libfaketime environment settings")

	// ErrMalformedOffset means the offset text is not a relative offset.
	ErrMalformedOffset = errors.New("required relative offset")

	// ErrUnknownUnit means the offset carries a unit letter the parser does not know.
	ErrUnknownUnit = errors.New("unknown libfaketime time unit")

	// ErrOffsetRange means the offset magnitude does not fit a time.Duration.
	ErrOffsetRange = errors.New("libfaketime offset out of range")
)

// ParseError describes an offset string that could not be turned into a duration
type ParseError struct {
	Text string
	Unit string
	Err  error
}

func (e *ParseError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnknownUnit):
		return fmt.Sprintf("%v: %s", e.Err, e.Unit)
	case errors.Is(e.Err, ErrMalformedOffset):
		return fmt.Sprintf("%v, found: %s", e.Err, e.Text)
	default:
		return fmt.Sprintf("%v: %s", e.Err, e.Text)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func malformed(text string) error {
	return &ParseError{Text: text, Err: ErrMalformedOffset}
}

func unknownUnit(text, unit string) error {
	return &ParseError{Text: text, Unit: unit, Err: ErrUnknownUnit}
}

func outOfRange(text string) error {
	return &ParseError{Text: text, Err: ErrOffsetRange}
}
