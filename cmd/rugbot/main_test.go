// File: cmd/rugbot/main_test.go
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetMocks restores the original function implementations.
func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(context.Canceled))
	assert.Equal(t, 0, exitCode(fmt.Errorf("run interrupted: %w", context.Canceled)))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestHandlePanic(t *testing.T) {
	defer resetMocks()

	t.Run("Writes panic log", func(t *testing.T) {
		var written string
		var code = -1
		osWriteFile = func(name string, data []byte, perm os.FileMode) error {
			assert.Equal(t, panicLogFile, name)
			written = string(data)
			return nil
		}
		osExit = func(c int) { code = c }

		func() {
			defer handlePanic()
			panic("sensor exploded")
		}()

		assert.Equal(t, 2, code)
		assert.True(t, strings.HasPrefix(written, "panic: sensor exploded"))
		assert.Contains(t, written, "goroutine", "the stack trace is included")
	})

	t.Run("Log write failure still exits", func(t *testing.T) {
		var code = -1
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only fs") }
		osExit = func(c int) { code = c }

		func() {
			defer handlePanic()
			panic("again")
		}()
		assert.Equal(t, 2, code)
	})

	t.Run("No panic is a no-op", func(t *testing.T) {
		osExit = func(int) { t.Fatal("osExit must not be called") }
		func() {
			defer handlePanic()
		}()
	})
}

func TestRunInteractive(t *testing.T) {
	in := strings.NewReader("\nversion\nexit\nversion\n")
	var out, errOut bytes.Buffer

	err := runInteractive(context.Background(), in, &out, &errOut)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out.String(), "rugbot dev"), "commands after exit are not run")
	assert.Contains(t, out.String(), "Exiting rugbot.")
}

func TestRunInteractive_UnknownCommandKeepsShell(t *testing.T) {
	in := strings.NewReader("fly\nversion\n")
	var out, errOut bytes.Buffer

	require.NoError(t, runInteractive(context.Background(), in, &out, &errOut))
	assert.Contains(t, errOut.String(), "unknown command")
	assert.Contains(t, out.String(), "rugbot dev")
}
