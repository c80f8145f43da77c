// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/agent"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/classifier"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/config"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/history"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/noise"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/observe"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/sim"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/store"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/telemetry"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/world"
)

// connectStore is swapped out in tests.
var connectStore = store.Connect

// Instance customizes one agent built by the factory.
type Instance struct {
	// Name overrides agent.name.
	Name string
	// Seed overrides observation.seed when non-zero.
	Seed uint64
	// Sinks, when set, replaces the sinks the factory would open from config.
	// The caller owns them.
	Sinks telemetry.Recorder
	// Classifier, when set, replaces the external process.
	Classifier classifier.Classifier
	// Radio, when set, replaces the private loopback radio.
	Radio agent.Radio
}

// ComponentFactory creates the set of components needed for one agent run.
// This abstraction is the key to making the commands testable.
type ComponentFactory interface {
	Create(ctx context.Context, cfg *config.Config, inst Instance, logger *zap.Logger) (*Components, error)
}

type concreteFactory struct{}

// NewComponentFactory creates a new production-ready component factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{}
}

// Create handles the full dependency injection of an agent instance.
func (f *concreteFactory) Create(ctx context.Context, cfg *config.Config, inst Instance, logger *zap.Logger) (*Components, error) {
	seed := inst.Seed
	if seed == 0 {
		seed = cfg.Observation.Seed
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	name := inst.Name
	if name == "" {
		name = cfg.Agent.Name
	}

	components := &Components{
		RunID:  uuid.NewString(),
		Seed:   seed,
		Belief: &telemetry.Belief{},
		logger: logger,
	}

	// Ensure cleanup happens if initialization fails midway.
	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			components.Shutdown()
		}
	}()

	// 1. World
	grid, err := world.Load(world.ResolvePath(cfg.World.Path, cfg.World.WorkingDir), cfg.World.Tiles, logger)
	if err != nil {
		initializationErr = err
		return nil, initializationErr
	}
	components.Grid = grid

	// 2. Observation engine
	engine, model, err := NewEngine(cfg, grid, seed, inst.Classifier, logger)
	if err != nil {
		initializationErr = err
		return nil, initializationErr
	}
	components.Engine = engine
	components.Noise = model

	// 3. Sinks
	sinks := telemetry.Multi{components.Belief}
	if inst.Sinks != nil {
		sinks = append(sinks, inst.Sinks)
	} else {
		owned, closeSinks, err := OpenSinks(ctx, cfg, logger)
		if err != nil {
			initializationErr = err
			return nil, initializationErr
		}
		components.onShutdown(closeSinks)
		sinks = append(sinks, owned...)
	}

	// 4. Simulated collaborators and the agent
	clock := sim.NewClock(cfg.Agent.TimeStep)
	components.Clock = clock
	engine.SetElapsed(clock.Seconds)

	radio := inst.Radio
	if radio == nil {
		radio = sim.NewRadio()
	}
	walker := sim.NewWalker(cfg.Agent.StepSize, cfg.Agent.WalkSteps, seed)

	components.Agent = agent.New(agent.Settings{
		Name:              name,
		RunID:             components.RunID,
		PositionInference: cfg.Classifier.PositionInference,
	}, walker, engine, radio, sinks, clock, logger)

	logger.Debug("Agent components initialized.",
		zap.String("run_id", components.RunID),
		zap.String("robot", name),
		zap.Uint64("seed", seed),
		zap.Stringer("mode", engine.Mode()))
	return components, nil
}

// NewEngine builds a configured observation engine over grid. The external
// classifier is only started when the configuration needs it, unless
// override is given.
func NewEngine(cfg *config.Config, grid *world.Grid, seed uint64, override classifier.Classifier, logger *zap.Logger) (*observe.Engine, *noise.Model, error) {
	mode, err := observe.ParseMode(cfg.Observation.Mode)
	if err != nil {
		return nil, nil, err
	}
	params := NoiseParams(cfg.Observation)
	model := noise.New(params, seed)

	clf := override
	if clf == nil && (mode == observe.Classifier || cfg.Classifier.PositionInference) {
		proc, err := classifier.NewProcess(cfg.Classifier, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to set up classifier: %w", err)
		}
		clf = proc
	}
	classes, err := cfg.Classifier.Classes()
	if err != nil {
		return nil, nil, err
	}

	engine := observe.New(observe.Options{
		Grid:         grid,
		Noise:        model,
		Classifier:   clf,
		History:      history.Loader{Path: cfg.History.Path, Rows: cfg.History.Rows},
		Anchor:       strings.ToLower(cfg.History.Anchor),
		MaxOffset:    cfg.History.MaxOffset,
		Reproducible: cfg.History.Reproducible,
		Classes:      classes,
		Logger:       logger,
	})
	if err := engine.Configure(mode, params); err != nil {
		return nil, nil, err
	}
	return engine, model, nil
}

// NoiseParams converts the observation config into noise parameters.
func NoiseParams(o config.ObservationConfig) noise.Params {
	p := noise.Params{
		OnTile:    noise.Gamma{Shape: o.OnTile.Shape, Scale: o.OnTile.Scale, Location: o.OnTile.Location},
		OffTile:   noise.Gamma{Shape: o.OffTile.Shape, Scale: o.OffTile.Scale, Location: o.OffTile.Location},
		Threshold: o.Threshold,
	}
	p.SetFalsePositivePercent(o.FalsePositive)
	p.SetFalseNegativePercent(o.FalseNegative)
	return p
}

// OpenSinks opens the record sinks named in the configuration: a JSON-lines
// file and a PostgreSQL table. The returned function closes them.
func OpenSinks(ctx context.Context, cfg *config.Config, logger *zap.Logger) (telemetry.Multi, func(), error) {
	var sinks telemetry.Multi
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if path := cfg.Telemetry.SamplesFile; path != "" {
		jsonl, err := telemetry.OpenJSONL(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open samples file: %w", err)
		}
		sinks = append(sinks, jsonl)
		closers = append(closers, func() {
			if err := jsonl.Close(); err != nil {
				logger.Warn("Failed to close samples file", zap.Error(err))
			}
		})
	}

	if url := cfg.Database.URL; url != "" {
		s, closeStore, err := connectStore(ctx, url, logger)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to initialize database store: %w", err)
		}
		sinks = append(sinks, s)
		closers = append(closers, closeStore)
		logger.Debug("Database store initialized.")
	}

	return sinks, closeAll, nil
}
