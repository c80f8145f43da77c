// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/config"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/service"
)

// newTestConfig returns the default configuration pointed at a temporary
// world with the single marked tile (2,2) of a 5x5 grid.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.World.Path = writeTestFile(t, "world.txt", "2,2\n")
	cfg.History.Path = filepath.Join(t.TempDir(), "history.txt")
	cfg.Observation.Seed = 11
	cfg.Agent.Ticks = 20
	cfg.Agent.WalkSteps = 4
	cfg.Batch.StartRate = 1000
	return cfg
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// executeCommand runs the command tree built with factory and returns its
// standard output.
func executeCommand(t *testing.T, factory service.ComponentFactory, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(factory)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// contextWithConfig mimics what PersistentPreRunE stores for subcommands.
func contextWithConfig(cfg *config.Config) context.Context {
	return context.WithValue(context.Background(), configKey, cfg)
}

// mockComponentFactory is a testify mock of service.ComponentFactory.
type mockComponentFactory struct {
	mock.Mock
}

func (m *mockComponentFactory) Create(ctx context.Context, cfg *config.Config, inst service.Instance, logger *zap.Logger) (*service.Components, error) {
	args := m.Called(ctx, cfg, inst, logger)
	components, _ := args.Get(0).(*service.Components)
	return components, args.Error(1)
}

// findCommand returns the named subcommand of root.
func findCommand(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	c, _, err := root.Find([]string{name})
	require.NoError(t, err)
	require.Equal(t, name, c.Name())
	return c
}
