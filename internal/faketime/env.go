// Package faketime discovers a libfaketime relative offset configured for the
// current process and parses it into a time.Duration.
package faketime

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Environment variables and files consulted by libfaketime.
const (
	PreloadEnvVar    = "LD_PRELOAD"
	DarwinPreloadVar = "DYLD_INSERT_LIBRARIES"
	OffsetEnvVar     = "FAKETIME"
	TimestampFileVar = "FAKETIME_TIMESTAMP_FILE"
	UserRCFile       = ".faketimerc"
	SystemRCFile     = "/etc/faketimerc"
)

// libraryMarkers are the shared object names that identify libfaketime in a
// preload list.
var libraryMarkers = []string{
	"libfaketime.so.1",
	"libfaketimeMT.so.1",
	"libfaketime.1.dylib",
}

// Env is the slice of process state the resolver reads.
type Env struct {
	Getenv      func(string) string
	UserHomeDir func() (string, error)
	Fs          afero.Fs
}

// DefaultEnv binds Env to the running process and the OS filesystem.
func DefaultEnv() Env {
	return Env{
		Getenv:      os.Getenv,
		UserHomeDir: os.UserHomeDir,
		Fs:          afero.NewOsFs(),
	}
}

// Activation is the libfaketime state of a process. Inline and File are only
// meaningful when Active is true, and at most one of them is set.
type Activation struct {
	Active bool
	Inline string
	File   string
}

// Source names where the offset comes from: OffsetEnvVar, a file path, or ""
// when inactive.
func (a Activation) Source() string {
	switch {
	case !a.Active:
		return ""
	case a.File != "":
		return a.File
	default:
		return OffsetEnvVar
	}
}

// Detect reports whether libfaketime is preloaded and, if so, where its offset
// is configured. Resolution order is FAKETIME, FAKETIME_TIMESTAMP_FILE,
// ~/.faketimerc, /etc/faketimerc. When libfaketime is preloaded and none of
// these resolves, Detect returns ErrNoOffsetSource.
func Detect(env Env) (Activation, error) {
	if !preloaded(env.Getenv) {
		return Activation{}, nil
	}

	if inline := env.Getenv(OffsetEnvVar); inline != "" {
		return Activation{Active: true, Inline: inline}, nil
	}

	if path := env.Getenv(TimestampFileVar); path != "" {
		return Activation{Active: true, File: path}, nil
	}

	for _, path := range rcFiles(env) {
		if exists, _ := afero.Exists(env.Fs, path); exists {
			return Activation{Active: true, File: path}, nil
		}
	}

	return Activation{}, ErrNoOffsetSource
}

func preloaded(getenv func(string) string) bool {
	for _, name := range []string{PreloadEnvVar, DarwinPreloadVar} {
		list := getenv(name)
		if list == "" {
			continue
		}
		for _, marker := range libraryMarkers {
			if strings.Contains(list, marker) {
				return true
			}
		}
	}
	return false
}

func rcFiles(env Env) []string {
	var paths []string
	if env.UserHomeDir != nil {
		if home, err := env.UserHomeDir(); err == nil && home != "" {
			paths = append(paths, filepath.Join(home, UserRCFile))
		}
	}
	return append(paths, SystemRCFile)
}
