// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/config"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/observability"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/service"
)

// newRunCmd creates the `run` command, which drives a single agent.
func newRunCmd(factory service.ComponentFactory) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one agent for a number of world ticks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runAgent(ctx, cmd.OutOrStdout(), cfg, factory, observability.GetLogger())
		},
	}

	runCmd.Flags().String("mode", "", "observation mode: exact, distribution, fp_fn or classifier")
	runCmd.Flags().Uint64("seed", 0, "seed of the observation generator (0 seeds from the clock)")
	runCmd.Flags().Int("ticks", 0, "number of world ticks to run (0 runs until interrupted)")
	runCmd.Flags().String("world", "", "path of the world file")
	runCmd.Flags().String("samples", "", "append sample records to this JSON-lines file")
	runCmd.Flags().String("name", "", "robot name")
	bindFlag(runCmd, "mode", "observation.mode")
	bindFlag(runCmd, "seed", "observation.seed")
	bindFlag(runCmd, "ticks", "agent.ticks")
	bindFlag(runCmd, "world", "world.path")
	bindFlag(runCmd, "samples", "telemetry.samples_file")
	bindFlag(runCmd, "name", "agent.name")
	return runCmd
}

// runAgent contains the core logic for the run command, decoupled for testability.
func runAgent(ctx context.Context, out io.Writer, cfg *config.Config, factory service.ComponentFactory, logger *zap.Logger) error {
	components, err := factory.Create(ctx, cfg, service.Instance{}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}
	defer components.Shutdown()

	logger.Info("Agent started",
		zap.String("run_id", components.RunID),
		zap.Stringer("mode", components.Engine.Mode()),
		zap.Uint64("seed", components.Seed),
		zap.Int("ticks", cfg.Agent.Ticks))

	runErr := components.Agent.Run(ctx, cfg.Agent.Ticks)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	white, black, unclassified := components.Belief.Counts()
	fmt.Fprintf(out, "run %s: %d observations (%d white, %d black, %d unclassified) over %.2fs, belief %.4f\n",
		components.RunID, components.Agent.Observations(), white, black, unclassified,
		components.Clock.Seconds(), components.Belief.Value())
	return runErr
}
