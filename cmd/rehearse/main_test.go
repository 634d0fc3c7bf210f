package main

import (
	"errors"
	"os"
	"os/exec"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

const reexecEnv = "REHEARSE_TEST_REEXEC"

// TestMain lets the test binary stand in for the rehearse executable so
// exit codes can be observed.
func TestMain(m *testing.M) {
	if os.Getenv(reexecEnv) == "1" {
		args := os.Args
		if i := slices.Index(args, "--"); i >= 0 {
			args = args[i+1:]
		} else {
			args = nil
		}
		os.Args = append([]string{"rehearse"}, args...)
		main()
		return
	}
	os.Exit(m.Run())
}

func rehearse(t *testing.T, args ...string) (string, int) {
	t.Helper()

	cmd := exec.Command(os.Args[0], append([]string{"--"}, args...)...)
	cmd.Env = append(os.Environ(), reexecEnv+"=1", "XDG_CONFIG_HOME="+t.TempDir(), "XDG_STATE_HOME="+t.TempDir())
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return string(out), 0
	case errors.As(err, &exitErr):
		return string(out), exitErr.ExitCode()
	default:
		t.Fatalf("run rehearse: %v", err)
		return "", -1
	}
}

func TestHelp(t *testing.T) {
	out, code := rehearse(t, "--help")
	require.Equal(t, 0, code, out)
	require.Contains(t, out, "Usage:")
}

func TestUnknownCommandExitsWithUsageError(t *testing.T) {
	out, code := rehearse(t, "quizz")
	require.Equal(t, 2, code)
	require.Contains(t, out, "unknown command")
}

func TestVersion(t *testing.T) {
	out, code := rehearse(t, "version")
	require.Equal(t, 0, code, out)
	require.Contains(t, out, "rehearse ")
}
