// Package patch makes request signing immune to a libfaketime relative offset.
//
// libfaketime shifts every clock read in the process. The signers in sigv4
// stamp requests with that shifted clock, and the remote service rejects the
// signature. Patch replaces sigv4.Time with a source that subtracts the
// current libfaketime offset from the three reads used for signing, and leaves
// every other clock read in the process alone.
//
// Call Patch once, early, before any request is signed concurrently. There is
// no way to undo it.
package patch

import (
	"fmt"
	"time"

	"github.com/connorhough/sigclock/internal/faketime"
	"github.com/connorhough/sigclock/internal/sigv4"
)

// ReadFunc reads a clock.
type ReadFunc func() (time.Time, error)

// OffsetFunc returns the offset currently applied to the process clock.
type OffsetFunc func() (time.Duration, error)

// Correct returns a ReadFunc yielding read() - offset(). The offset is
// fetched on every call.
func Correct(read ReadFunc, offset OffsetFunc) ReadFunc {
	return func() (time.Time, error) {
		d, err := offset()
		if err != nil {
			return time.Time{}, err
		}
		t, err := read()
		if err != nil {
			return time.Time{}, err
		}
		return t.Add(-d), nil
	}
}

// CorrectedTime is a sigv4.TimeSource that removes the offset from Today, Now
// and UTCNow and forwards Parse and Unix to the original source untouched.
type CorrectedTime struct {
	original sigv4.TimeSource
	now      ReadFunc
	utcNow   ReadFunc
}

// NewCorrectedTime wraps original. If original is itself a CorrectedTime, the
// source it wraps is used instead so corrections never stack.
func NewCorrectedTime(original sigv4.TimeSource, offset OffsetFunc) *CorrectedTime {
	if c, ok := original.(*CorrectedTime); ok {
		original = c.original
	}
	return &CorrectedTime{
		original: original,
		now:      Correct(original.Now, offset),
		utcNow:   Correct(original.UTCNow, offset),
	}
}

// Original returns the wrapped source.
func (c *CorrectedTime) Original() sigv4.TimeSource {
	return c.original
}

// Today returns midnight of the corrected local date. The date is derived
// from the corrected time of day, so an offset smaller than a day can still
// move it.
func (c *CorrectedTime) Today() (time.Time, error) {
	t, err := c.now()
	if err != nil {
		return time.Time{}, err
	}
	return sigv4.Midnight(t), nil
}

func (c *CorrectedTime) Now() (time.Time, error) {
	return c.now()
}

func (c *CorrectedTime) UTCNow() (time.Time, error) {
	return c.utcNow()
}

func (c *CorrectedTime) Parse(layout, value string) (time.Time, error) {
	return c.original.Parse(layout, value)
}

func (c *CorrectedTime) Unix(sec, nsec int64) time.Time {
	return c.original.Unix(sec, nsec)
}

var _ sigv4.TimeSource = (*CorrectedTime)(nil)

// Install points sigv4.Time at a CorrectedTime driven by offset.
func Install(offset OffsetFunc) {
	sigv4.Time = NewCorrectedTime(sigv4.Time, offset)
}

// Patch detects libfaketime in the process environment and, when it is
// active, installs the corrected signing clock. It does nothing when
// libfaketime is not preloaded. An error means libfaketime is preloaded but
// its offset cannot be found or parsed.
func Patch() error {
	resolver, err := faketime.Default()
	if err != nil {
		return fmt.Errorf("failed to patch signing clock: %w", err)
	}
	return patchWith(resolver)
}

func patchWith(resolver *faketime.Resolver) error {
	if !resolver.Active() {
		return nil
	}
	// fail at startup on an offset that cannot be read or parsed
	if _, err := resolver.Offset(); err != nil {
		return fmt.Errorf("failed to patch signing clock: %w", err)
	}
	Install(resolver.Offset)
	return nil
}

// MustPatch is like Patch but panics on error.
func MustPatch() {
	if err := Patch(); err != nil {
		panic(err)
	}
}
