package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogPathUsesXDGStateHome(t *testing.T) {
	xdgStateHome := t.TempDir()
	t.Setenv("XDG_STATE_HOME", xdgStateHome)
	t.Setenv("HOME", t.TempDir())

	path, err := logPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdgStateHome, "rehearse", "log.jsonl"), path)
}

func TestLogPathFallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", home)

	path, err := logPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "state", "rehearse", "log.jsonl"), path)
}

func TestNewCreatesWritableJSONLogFile(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	runtime, err := New("info")
	require.NoError(t, err)

	runtime.Logger.Info("unit-test-log", "component", "logging")
	runtime.Logger.Debug("filtered-debug-log")
	require.NoError(t, runtime.Close())

	contents, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.Contains(t, string(contents), `"msg":"unit-test-log"`)
	require.Contains(t, string(contents), `"component":"logging"`)
	require.NotContains(t, string(contents), "filtered-debug-log")

	stat, err := os.Stat(runtime.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), stat.Mode().Perm())
}

func TestNewDebugLevelKeepsDebugRecords(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	runtime, err := New("debug")
	require.NoError(t, err)
	runtime.Logger.Debug("kept-debug-log")
	require.NoError(t, runtime.Close())

	contents, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "kept-debug-log")
}

func TestOpenRotatedMovesOversizedLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rehearse", "log.jsonl")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))

	file, err := openRotated(path, 10)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	rotated, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(rotated))

	fresh, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, fresh.Size())
}

func TestOpenRotatedAppendsBelowLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("kept\n"), 0o600))

	file, err := openRotated(path, 1024)
	require.NoError(t, err)
	_, err = file.WriteString("more\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "kept\nmore\n", string(contents))
	require.NoFileExists(t, path+".1")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for input, want := range tests {
		got, err := ParseLevel(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}

	for _, bad := range []string{"trace", "info+2", "debug-4"} {
		_, err := ParseLevel(bad)
		require.ErrorContains(t, err, "unknown log level", bad)
	}
}
