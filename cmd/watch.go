// File: cmd/watch.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/observability"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/telemetry"
)

type watchOptions struct {
	follow bool
	robot  string
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	watchCmd := &cobra.Command{
		Use:   "watch <samples-file>",
		Short: "Print sample records and the running belief from a samples file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := getConfigFromContext(ctx); err != nil {
				return err
			}
			return runWatch(ctx, cmd.OutOrStdout(), args[0], opts, observability.GetLogger())
		},
	}

	watchCmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "keep waiting for new records")
	watchCmd.Flags().StringVar(&opts.robot, "robot", "", "only show records of this robot")
	return watchCmd
}

func runWatch(ctx context.Context, out io.Writer, path string, opts watchOptions, logger *zap.Logger) error {
	var belief telemetry.Belief
	follower := telemetry.NewFollower(path, opts.follow, logger)

	err := follower.Run(ctx, func(r telemetry.Record) error {
		if opts.robot != "" && r.Robot != opts.robot {
			return nil
		}
		belief.Observe(r.Class)
		_, err := fmt.Fprintf(out, "%s\ttick=%d\tt=%.2fs\tclass=%d\traw=%g\tbelief=%.4f\n",
			r.Robot, r.Tick, r.SimTime, r.Class, r.Raw, belief.Value())
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	white, black, unclassified := belief.Counts()
	fmt.Fprintf(out, "%d white, %d black, %d unclassified, belief %.4f\n", white, black, unclassified, belief.Value())
	return err
}
