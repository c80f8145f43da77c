// File: cmd/batch.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/config"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/observability"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/service"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/sim"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/telemetry"
)

// batchResult is the outcome of one agent instance.
type batchResult struct {
	name         string
	seed         uint64
	observations int
	belief       float64
}

func newBatchCmd(factory service.ComponentFactory) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Run independent agents in parallel on one shared radio channel",
		Long: `Runs a number of agent instances concurrently. Instance i is named R<i> and
seeded with seed_offset+i. All instances share one loopback radio hub and the
configured record sinks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runBatch(ctx, cmd.OutOrStdout(), cfg, factory, observability.GetLogger())
		},
	}

	batchCmd.Flags().Int("instances", 0, "number of agent instances")
	batchCmd.Flags().Int("workers", 0, "maximum number of instances running at once")
	batchCmd.Flags().Int("ticks", 0, "world ticks per instance")
	batchCmd.Flags().String("mode", "", "observation mode for every instance")
	batchCmd.Flags().String("samples", "", "append sample records of all instances to this file")
	bindFlag(batchCmd, "instances", "batch.instances")
	bindFlag(batchCmd, "workers", "batch.workers")
	bindFlag(batchCmd, "ticks", "agent.ticks")
	bindFlag(batchCmd, "mode", "observation.mode")
	bindFlag(batchCmd, "samples", "telemetry.samples_file")
	return batchCmd
}

// runBatch contains the core logic for the batch command.
func runBatch(ctx context.Context, out io.Writer, cfg *config.Config, factory service.ComponentFactory, logger *zap.Logger) error {
	if cfg.Batch.Instances <= 0 {
		return fmt.Errorf("batch.instances must be a positive integer")
	}
	if cfg.Agent.Ticks <= 0 {
		return fmt.Errorf("agent.ticks must be positive for a batch run")
	}

	sinks, closeSinks, err := service.OpenSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	var hub sim.Hub
	limiter := rate.NewLimiter(rate.Limit(cfg.Batch.StartRate), 1)
	results := make([]batchResult, cfg.Batch.Instances)

	// A shared mutex serializes writes into the shared sinks.
	var sinkMu sync.Mutex
	shared := telemetry.RecorderFunc(func(ctx context.Context, r telemetry.Record) error {
		sinkMu.Lock()
		defer sinkMu.Unlock()
		return sinks.Record(ctx, r)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Batch.Workers)

	logger.Info("Starting batch",
		zap.Int("instances", cfg.Batch.Instances),
		zap.Int("workers", cfg.Batch.Workers),
		zap.Float64("start_rate", cfg.Batch.StartRate))

	for i := 0; i < cfg.Batch.Instances; i++ {
		if err := limiter.Wait(gctx); err != nil {
			break
		}
		g.Go(func() error {
			inst := service.Instance{
				Name:  fmt.Sprintf("R%d", i),
				Seed:  cfg.Batch.SeedOffset + uint64(i),
				Sinks: shared,
				Radio: hub.Join(),
			}
			components, err := factory.Create(gctx, cfg, inst, logger)
			if err != nil {
				return fmt.Errorf("instance %s: %w", inst.Name, err)
			}
			defer components.Shutdown()

			if err := components.Agent.Run(gctx, cfg.Agent.Ticks); err != nil {
				return fmt.Errorf("instance %s: %w", inst.Name, err)
			}
			results[i] = batchResult{
				name:         inst.Name,
				seed:         inst.Seed,
				observations: components.Agent.Observations(),
				belief:       components.Belief.Value(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// The limiter only fails once the context is done.
	if err := ctx.Err(); err != nil {
		return err
	}

	var sum float64
	for _, r := range results {
		fmt.Fprintf(out, "%s\tseed=%d\tobservations=%d\tbelief=%.4f\n", r.name, r.seed, r.observations, r.belief)
		sum += r.belief
	}
	mean := sum / float64(len(results))
	fmt.Fprintf(out, "mean belief %.4f over %d instances\n", mean, len(results))
	logger.Info("Batch finished", zap.Float64("mean_belief", mean))
	return nil
}
