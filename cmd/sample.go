// File: cmd/sample.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/config"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/observability"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/service"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/world"
)

// sampleOptions holds the local flags of the sample command.
type sampleOptions struct {
	count   int
	elapsed float64
}

func newSampleCmd() *cobra.Command {
	var opts sampleOptions

	sampleCmd := &cobra.Command{
		Use:   "sample <x> <y>",
		Short: "Observe the tile under a position in the unit arena",
		Long: `Builds the configured observation engine and samples the position (x, y),
where both coordinates are in [0, 1]. Each line of output is one observation.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			x, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid x coordinate %q: %w", args[0], err)
			}
			y, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid y coordinate %q: %w", args[1], err)
			}
			return runSample(ctx, cmd.OutOrStdout(), cfg, x, y, opts, observability.GetLogger())
		},
	}

	sampleCmd.Flags().IntVarP(&opts.count, "count", "n", 1, "number of observations to take")
	sampleCmd.Flags().Float64Var(&opts.elapsed, "elapsed", 0, "simulated time in seconds used by the time anchor")
	sampleCmd.Flags().String("mode", "", "observation mode")
	sampleCmd.Flags().Uint64("seed", 0, "seed of the observation generator")
	sampleCmd.Flags().String("world", "", "path of the world file")
	bindFlag(sampleCmd, "mode", "observation.mode")
	bindFlag(sampleCmd, "seed", "observation.seed")
	bindFlag(sampleCmd, "world", "world.path")
	return sampleCmd
}

func runSample(ctx context.Context, out io.Writer, cfg *config.Config, x, y float64, opts sampleOptions, logger *zap.Logger) error {
	if opts.count <= 0 {
		return fmt.Errorf("--count must be a positive integer")
	}

	grid, err := world.Load(world.ResolvePath(cfg.World.Path, cfg.World.WorkingDir), cfg.World.Tiles, logger)
	if err != nil {
		return err
	}
	seed := cfg.Observation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	engine, _, err := service.NewEngine(cfg, grid, seed, nil, logger)
	if err != nil {
		return err
	}
	engine.SetElapsed(func() float64 { return opts.elapsed })

	for i := 0; i < opts.count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := engine.Sample(ctx, x, y)
		fmt.Fprintf(out, "%s\t%d\t%g\n", r.Class, int(r.Class), r.Raw)
	}
	return nil
}
