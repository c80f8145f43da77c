// File: cmd/classify_test.go
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/classifier"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/service"
)

// writeHistory writes rows "i i i" for i in [0, n).
func writeHistory(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d %d %d\n", i, i, i)
	}
	return writeTestFile(t, "history.txt", b.String())
}

func TestRunClassify_TimeWindow(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.History.Path = writeHistory(t, 40)

	var features []float64
	fake := classifier.Func(func(_ context.Context, f []float64) ([]float64, error) {
		features = f
		return []float64{0.1, 0.7, 0.2}, nil
	})

	var out bytes.Buffer
	err := runClassify(context.Background(), &out, cfg, fake, classifyOptions{elapsed: 30}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "1\n", out.String())
	require.Len(t, features, 24*3)
	assert.Equal(t, 6.0, features[0], "a window ending at second 30 starts at row 6")
	assert.Equal(t, 29.0, features[len(features)-1])
}

func TestRunClassify_Vector(t *testing.T) {
	cfg := newTestConfig(t)
	var got []float64
	fake := classifier.Func(func(_ context.Context, f []float64) ([]float64, error) {
		got = f
		return []float64{0, 0, 3}, nil
	})

	var out bytes.Buffer
	err := runClassify(context.Background(), &out, cfg, fake, classifyOptions{vector: "0.12, 0.34,0"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "2\n", out.String())
	assert.Equal(t, []float64{0.12, 0.34, 0}, got)

	err = runClassify(context.Background(), &out, cfg, fake, classifyOptions{vector: "1,2"}, zap.NewNop())
	assert.ErrorIs(t, err, classifier.ErrShape)

	err = runClassify(context.Background(), &out, cfg, fake, classifyOptions{vector: "1,x,2"}, zap.NewNop())
	assert.ErrorContains(t, err, `invalid vector component "x"`)
}

func TestRunClassify_MissingHistory(t *testing.T) {
	cfg := newTestConfig(t)
	fake := classifier.Func(func(context.Context, []float64) ([]float64, error) { return []float64{1}, nil })
	err := runClassify(context.Background(), &bytes.Buffer{}, cfg, fake, classifyOptions{random: true}, zap.NewNop())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClassifyCmd_ExternalProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("the fake model is a shell script")
	}
	dir := t.TempDir()
	binary := filepath.Join(dir, "model")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\ncp \"$1\" seen.txt\necho '[0.1, 0.2, 0.9]'\n"), 0755))

	out, err := executeCommand(t, service.NewComponentFactory(), "classify", "--binary", binary, "--vector", "1,2,3")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	input, err := os.ReadFile(filepath.Join(dir, "seen.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1 2 3\n", string(input))
}
