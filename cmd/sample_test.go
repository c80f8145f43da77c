// File: cmd/sample_test.go
package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/service"
)

func TestRunSample_Exact(t *testing.T) {
	cfg := newTestConfig(t)

	var out bytes.Buffer
	require.NoError(t, runSample(context.Background(), &out, cfg, 0.5, 0.5, sampleOptions{count: 2}, zap.NewNop()))
	assert.Equal(t, "white\t1\t1\nwhite\t1\t1\n", out.String())

	out.Reset()
	require.NoError(t, runSample(context.Background(), &out, cfg, 0.1, 0.9, sampleOptions{count: 1}, zap.NewNop()))
	assert.Equal(t, "black\t0\t0\n", out.String())
}

func TestRunSample_SeededDistributionRepeats(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Observation.Mode = "distribution"

	var first, second bytes.Buffer
	require.NoError(t, runSample(context.Background(), &first, cfg, 0.5, 0.5, sampleOptions{count: 5}, zap.NewNop()))
	require.NoError(t, runSample(context.Background(), &second, cfg, 0.5, 0.5, sampleOptions{count: 5}, zap.NewNop()))
	assert.Equal(t, first.String(), second.String())
}

func TestRunSample_Errors(t *testing.T) {
	cfg := newTestConfig(t)
	err := runSample(context.Background(), &bytes.Buffer{}, cfg, 0.5, 0.5, sampleOptions{count: 0}, zap.NewNop())
	assert.ErrorContains(t, err, "--count")

	cfg.Observation.Mode = "sonar"
	err = runSample(context.Background(), &bytes.Buffer{}, cfg, 0.5, 0.5, sampleOptions{count: 1}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown observation mode")
}

func TestSampleCmd(t *testing.T) {
	world := writeTestFile(t, "world.txt", "0,0\n")

	out, err := executeCommand(t, service.NewComponentFactory(), "sample", "0.1", "0.1", "--world", world, "-n", "3")
	require.NoError(t, err)
	assert.Equal(t, "white\t1\t1\nwhite\t1\t1\nwhite\t1\t1\n", out)

	_, err = executeCommand(t, service.NewComponentFactory(), "sample", "left", "0.1", "--world", world)
	assert.ErrorContains(t, err, `invalid x coordinate "left"`)

	_, err = executeCommand(t, service.NewComponentFactory(), "sample", "0.1")
	assert.Error(t, err, "two coordinates are required")
}
