// File: cmd/classify.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/classifier"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/config"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/history"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/observability"
)

type classifyOptions struct {
	elapsed float64
	random  bool
	vector  string
}

func newClassifyCmd() *cobra.Command {
	var opts classifyOptions

	classifyCmd := &cobra.Command{
		Use:   "classify",
		Short: "Run the external classifier once and print the winning class index",
		Long: `Feeds the external classifier either a window of the sensor history file or,
with --vector, a single x,y,z feature vector, and prints the index of the
highest score.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			logger := observability.GetLogger()
			proc, err := classifier.NewProcess(cfg.Classifier, logger)
			if err != nil {
				return err
			}
			return runClassify(ctx, cmd.OutOrStdout(), cfg, proc, opts, logger)
		},
	}

	classifyCmd.Flags().Float64Var(&opts.elapsed, "elapsed", 0, "simulated time in seconds; the window ends at this row")
	classifyCmd.Flags().BoolVar(&opts.random, "random", false, "start the window at a random row instead")
	classifyCmd.Flags().StringVar(&opts.vector, "vector", "", "classify the comma separated vector x,y,z instead of a history window")
	classifyCmd.Flags().String("binary", "", "path of the classifier executable")
	classifyCmd.Flags().String("history", "", "path of the sensor history file")
	bindFlag(classifyCmd, "binary", "classifier.binary")
	bindFlag(classifyCmd, "history", "history.path")
	classifyCmd.MarkFlagsMutuallyExclusive("vector", "random")
	classifyCmd.MarkFlagsMutuallyExclusive("vector", "elapsed")
	return classifyCmd
}

func runClassify(ctx context.Context, out io.Writer, cfg *config.Config, clf classifier.Classifier, opts classifyOptions, logger *zap.Logger) error {
	if opts.vector != "" {
		values, err := parseVector(opts.vector)
		if err != nil {
			return err
		}
		idx, err := clf.ClassifyVector(ctx, values)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, idx)
		return nil
	}

	var anchor history.Anchor = history.TimeAnchor{Elapsed: opts.elapsed, Rows: cfg.History.Rows}
	if opts.random {
		anchor = history.RandomAnchor{MaxOffset: cfg.History.MaxOffset}
	}
	window, err := history.Loader{Path: cfg.History.Path, Rows: cfg.History.Rows}.Load(anchor)
	if err != nil {
		return err
	}
	if len(window) == 0 {
		return fmt.Errorf("history window from %s is empty", cfg.History.Path)
	}
	logger.Debug("Classifying history window", zap.Int("rows", len(window)), zap.Int("width", window.Width()))

	idx, err := clf.Classify(ctx, window)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, idx)
	return nil
}

// parseVector reads "x,y,z" into floats.
func parseVector(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		values = append(values, v)
	}
	return values, nil
}
