package faketime

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// Resolver produces the current libfaketime offset on demand.
//
// A Resolver holds no mutable state: every Offset call reads the inline value
// or opens and reads the offset file anew, so it is safe for concurrent use
// and picks up edits made to the file while the process runs.
type Resolver struct {
	activation Activation
	fs         afero.Fs
}

// NewResolver detects the activation state from env and returns a Resolver for it.
func NewResolver(env Env) (*Resolver, error) {
	act, err := Detect(env)
	if err != nil {
		return nil, err
	}
	return &Resolver{activation: act, fs: env.Fs}, nil
}

// Activation returns the state the resolver was built from.
func (r *Resolver) Activation() Activation {
	return r.activation
}

// Active reports whether libfaketime is preloaded.
func (r *Resolver) Active() bool {
	return r.activation.Active
}

// Offset returns the offset libfaketime currently applies. It is zero when
// libfaketime is not active.
func (r *Resolver) Offset() (time.Duration, error) {
	text, err := r.offsetText()
	if err != nil {
		return 0, err
	}
	return ParseOffset(text)
}

func (r *Resolver) offsetText() (string, error) {
	switch {
	case !r.activation.Active:
		return "+0", nil
	case r.activation.File == "":
		return r.activation.Inline, nil
	}

	data, err := afero.ReadFile(r.fs, r.activation.File)
	if err != nil {
		return "", fmt.Errorf("failed to read libfaketime offset file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
	defaultErr      error
)

// Default returns the process-wide Resolver. Detection runs once, on first
// use; later calls return the same Resolver or the same error.
func Default() (*Resolver, error) {
	defaultOnce.Do(func() {
		defaultResolver, defaultErr = NewResolver(DefaultEnv())
	})
	return defaultResolver, defaultErr
}
