// File: internal/observe/engine.go
// Package observe turns a position into a tile classification. It combines
// the arena layout, the sensor noise model, the sensor history and the
// external classifier according to the configured Mode.
package observe

import (
	"context"
	"fmt"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/classifier"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/history"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/noise"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/world"
	"go.uber.org/zap"
)

// Anchor policies for the classifier pathway's history window.
const (
	AnchorTime   = "time"
	AnchorRandom = "random"
)

// Options wires the engine's collaborators.
type Options struct {
	Grid       *world.Grid
	Noise      *noise.Model
	Classifier classifier.Classifier
	History    history.Loader
	// Anchor is AnchorTime or AnchorRandom.
	Anchor    string
	MaxOffset int
	// Reproducible makes the random anchor draw from the noise model's
	// seeded generator instead of the process-wide one.
	Reproducible bool
	// Classes maps classifier output indices onto verdicts. Indices not
	// listed yield Unclassified.
	Classes map[int]int
	// Elapsed returns the simulated time in seconds.
	Elapsed func() float64
	Logger  *zap.Logger
}

// Engine produces observations. It is owned by a single agent and is not
// safe for concurrent use.
type Engine struct {
	opts    Options
	mode    Mode
	last    float64
	logger  *zap.Logger
	elapsed func() float64
}

// New builds an engine in Exact mode.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	elapsed := opts.Elapsed
	if elapsed == nil {
		elapsed = func() float64 { return 0 }
	}
	return &Engine{
		opts:    opts,
		mode:    Exact,
		logger:  logger.Named("observe"),
		elapsed: elapsed,
	}
}

// Configure selects the pipeline and replaces the noise parameters.
// Call it before sampling starts. Parameters the selected pipeline cannot
// draw from are rejected and leave the engine unchanged.
func (e *Engine) Configure(mode Mode, params noise.Params) error {
	switch mode {
	case Exact, Classifier:
	case Distribution:
		if err := params.ValidateDistribution(); err != nil {
			return fmt.Errorf("cannot configure %s mode: %w", mode, err)
		}
	case FalsePositiveNegative:
		if err := params.ValidateRates(); err != nil {
			return fmt.Errorf("cannot configure %s mode: %w", mode, err)
		}
	default:
		return fmt.Errorf("cannot configure unknown mode %s", mode)
	}
	e.mode = mode
	if e.opts.Noise != nil {
		e.opts.Noise.SetParams(params)
	}
	return nil
}

// SetElapsed replaces the simulated time source used by the time anchor.
func (e *Engine) SetElapsed(elapsed func() float64) {
	if elapsed != nil {
		e.elapsed = elapsed
	}
}

// Mode returns the selected pipeline.
func (e *Engine) Mode() Mode { return e.mode }

// LastRawValue returns the raw measurement behind the most recent Sample.
func (e *Engine) LastRawValue() float64 { return e.last }

// Sample observes the tile under (x, y). Failures never escape: they are
// logged and reported as Unclassified.
func (e *Engine) Sample(ctx context.Context, x, y float64) Result {
	var r Result
	switch {
	case e.mode != Classifier && e.opts.Grid == nil:
		e.logger.Error("Observation engine has no world grid.", zap.Stringer("mode", e.mode))
		r = unclassified
	case (e.mode == Distribution || e.mode == FalsePositiveNegative) && e.opts.Noise == nil:
		e.logger.Error("Observation engine has no noise model.", zap.Stringer("mode", e.mode))
		r = unclassified
	default:
		r = e.dispatch(ctx, x, y)
	}
	e.last = r.Raw
	return r
}

// unclassified is the degraded result of any pipeline failure.
var unclassified = Result{Class: Unclassified, Raw: float64(classifier.NoClass)}

func (e *Engine) dispatch(ctx context.Context, x, y float64) Result {
	var r Result
	switch e.mode {
	case Exact:
		r = e.sampleExact(x, y)
	case Distribution:
		r = e.sampleDistribution(x, y)
	case FalsePositiveNegative:
		r = e.sampleFalsePositiveNegative(x, y)
	case Classifier:
		r = e.sampleClassifier(ctx)
	default:
		e.logger.Error("Unknown observation mode.", zap.Stringer("mode", e.mode))
		r = unclassified
	}
	return r
}

func (e *Engine) sampleExact(x, y float64) Result {
	if e.opts.Grid.Contains(x, y) {
		return Result{Class: White, Raw: 1}
	}
	return Result{Class: Black, Raw: 0}
}

func (e *Engine) sampleDistribution(x, y float64) Result {
	member := e.opts.Grid.Contains(x, y)
	class, raw, err := e.opts.Noise.Distribution(member)
	if err != nil {
		e.logger.Error("Distribution draw failed.", zap.Error(err))
		return unclassified
	}
	return Result{Class: Classification(class), Raw: raw}
}

func (e *Engine) sampleFalsePositiveNegative(x, y float64) Result {
	member := e.opts.Grid.Contains(x, y)
	class := e.opts.Noise.FalsePositiveNegative(member)
	return Result{Class: Classification(class), Raw: float64(class)}
}

func (e *Engine) sampleClassifier(ctx context.Context) Result {
	failed := unclassified
	if e.opts.Classifier == nil {
		e.logger.Error("Classifier mode selected without a classifier.")
		return failed
	}

	window, err := e.opts.History.Load(e.anchor())
	if err != nil {
		e.logger.Warn("Could not load history window.", zap.String("path", e.opts.History.Path), zap.Error(err))
		return failed
	}
	if len(window) == 0 {
		e.logger.Warn("History window is empty.", zap.String("path", e.opts.History.Path))
		return failed
	}

	idx, err := e.opts.Classifier.Classify(ctx, window)
	if err != nil {
		e.logger.Error("Classifier failed.", zap.Error(err))
		return failed
	}

	class, ok := e.opts.Classes[idx]
	if !ok {
		e.logger.Warn("Classifier returned an unmapped class index.", zap.Int("index", idx))
		return Result{Class: Unclassified, Raw: float64(idx)}
	}
	return Result{Class: Classification(class), Raw: float64(idx)}
}

func (e *Engine) anchor() history.Anchor {
	if e.opts.Anchor == AnchorRandom {
		a := history.RandomAnchor{MaxOffset: e.opts.MaxOffset}
		if e.opts.Reproducible && e.opts.Noise != nil {
			a.Rand = e.opts.Noise.Rand()
		}
		return a
	}
	return history.TimeAnchor{Elapsed: e.elapsed(), Rows: e.opts.History.Rows}
}

// InferPosition runs the vector form of the classifier on a position.
// It returns classifier.NoClass on any failure.
func (e *Engine) InferPosition(ctx context.Context, x, y, z float64) int {
	if e.opts.Classifier == nil {
		return classifier.NoClass
	}
	idx, err := e.opts.Classifier.ClassifyVector(ctx, []float64{x, y, z})
	if err != nil {
		e.logger.Warn("Position inference failed.", zap.Error(err))
		return classifier.NoClass
	}
	return idx
}
