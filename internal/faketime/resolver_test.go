package faketime

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const preload = "/usr/lib/x86_64-linux-gnu/faketime/libfaketime.so.1"

func testEnv(vars map[string]string) Env {
	return Env{
		Getenv:      func(key string) string { return vars[key] },
		UserHomeDir: func() (string, error) { return "/home/tester", nil },
		Fs:          afero.NewMemMapFs(),
	}
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestDetect_Inactive(t *testing.T) {
	env := testEnv(map[string]string{
		OffsetEnvVar:     "+10m",
		TimestampFileVar: "/tmp/offset",
		PreloadEnvVar:    "/usr/lib/libjemalloc.so.2",
	})

	act, err := Detect(env)
	require.NoError(t, err)
	assert.Equal(t, Activation{}, act)
	assert.Empty(t, act.Source())
}

func TestDetect_Markers(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{name: "single thread library", vars: map[string]string{PreloadEnvVar: preload}},
		{name: "multi thread library", vars: map[string]string{PreloadEnvVar: "/usr/lib/faketime/libfaketimeMT.so.1"}},
		{name: "among other libraries", vars: map[string]string{PreloadEnvVar: "libfoo.so:" + preload + " libbar.so"}},
		{name: "darwin", vars: map[string]string{DarwinPreloadVar: "/usr/local/lib/faketime/libfaketime.1.dylib"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.vars[OffsetEnvVar] = "+1h"
			act, err := Detect(testEnv(tt.vars))
			require.NoError(t, err)
			assert.True(t, act.Active)
		})
	}
}

func TestDetect_SourcePriority(t *testing.T) {
	t.Run("inline wins over everything", func(t *testing.T) {
		env := testEnv(map[string]string{
			PreloadEnvVar:    preload,
			OffsetEnvVar:     "+10m",
			TimestampFileVar: "/tmp/offset",
		})
		writeFile(t, env.Fs, "/home/tester/.faketimerc", "+1d")

		act, err := Detect(env)
		require.NoError(t, err)
		assert.Equal(t, Activation{Active: true, Inline: "+10m"}, act)
		assert.Equal(t, OffsetEnvVar, act.Source())
	})

	t.Run("explicit file path even if missing", func(t *testing.T) {
		env := testEnv(map[string]string{
			PreloadEnvVar:    preload,
			TimestampFileVar: "/tmp/offset",
		})
		writeFile(t, env.Fs, "/home/tester/.faketimerc", "+1d")

		act, err := Detect(env)
		require.NoError(t, err)
		assert.Equal(t, Activation{Active: true, File: "/tmp/offset"}, act)
	})

	t.Run("user rc file before system file", func(t *testing.T) {
		env := testEnv(map[string]string{PreloadEnvVar: preload})
		writeFile(t, env.Fs, "/home/tester/.faketimerc", "+1d")
		writeFile(t, env.Fs, SystemRCFile, "+2d")

		act, err := Detect(env)
		require.NoError(t, err)
		assert.Equal(t, "/home/tester/.faketimerc", act.File)
	})

	t.Run("system file last", func(t *testing.T) {
		env := testEnv(map[string]string{PreloadEnvVar: preload})
		writeFile(t, env.Fs, SystemRCFile, "+2d")

		act, err := Detect(env)
		require.NoError(t, err)
		assert.Equal(t, SystemRCFile, act.File)
		assert.Equal(t, SystemRCFile, act.Source())
	})

	t.Run("home directory unavailable", func(t *testing.T) {
		env := testEnv(map[string]string{PreloadEnvVar: preload})
		env.UserHomeDir = func() (string, error) { return "", errors.New("no home") }
		writeFile(t, env.Fs, SystemRCFile, "+2d")

		act, err := Detect(env)
		require.NoError(t, err)
		assert.Equal(t, SystemRCFile, act.File)
	})
}

func TestDetect_NoSource(t *testing.T) {
	env := testEnv(map[string]string{PreloadEnvVar: preload})

	act, err := Detect(env)
	assert.ErrorIs(t, err, ErrNoOffsetSource)
	assert.False(t, act.Active)

	_, err = NewResolver(env)
	assert.ErrorIs(t, err, ErrNoOffsetSource)
}

func TestResolver_Inline(t *testing.T) {
	r, err := NewResolver(testEnv(map[string]string{
		PreloadEnvVar: preload,
		OffsetEnvVar:  "-90m",
	}))
	require.NoError(t, err)
	assert.True(t, r.Active())

	got, err := r.Offset()
	require.NoError(t, err)
	assert.Equal(t, -90*time.Minute, got)
}

func TestResolver_InactiveOffsetIsZero(t *testing.T) {
	r, err := NewResolver(testEnv(map[string]string{OffsetEnvVar: "+10m"}))
	require.NoError(t, err)
	assert.False(t, r.Active())

	got, err := r.Offset()
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestResolver_FileReadFreshEachCall(t *testing.T) {
	env := testEnv(map[string]string{
		PreloadEnvVar:    preload,
		TimestampFileVar: "/var/run/faketime",
	})
	writeFile(t, env.Fs, "/var/run/faketime", "  +1h\n")

	r, err := NewResolver(env)
	require.NoError(t, err)

	got, err := r.Offset()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, got)

	writeFile(t, env.Fs, "/var/run/faketime", "-5m\n")
	got, err = r.Offset()
	require.NoError(t, err)
	assert.Equal(t, -5*time.Minute, got)

	writeFile(t, env.Fs, "/var/run/faketime", "@2021-06-01 12:00:00\n")
	_, err = r.Offset()
	assert.ErrorIs(t, err, ErrMalformedOffset)
}

func TestResolver_MissingFile(t *testing.T) {
	r, err := NewResolver(testEnv(map[string]string{
		PreloadEnvVar:    preload,
		TimestampFileVar: "/does/not/exist",
	}))
	require.NoError(t, err)

	_, err = r.Offset()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read libfaketime offset file")
}

func TestResolver_ConcurrentOffset(t *testing.T) {
	env := testEnv(map[string]string{
		PreloadEnvVar:    preload,
		TimestampFileVar: "/etc/offset",
	})
	writeFile(t, env.Fs, "/etc/offset", "+3h")

	r, err := NewResolver(env)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := r.Offset()
			if err == nil && d != 3*time.Hour {
				err = errors.New("unexpected offset " + d.String())
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
