// File: internal/agent/fsm.go
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/observe"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/telemetry"
)

// State is a phase of the agent's loop.
type State int

const (
	// RandomWalk moves the robot until the drive reports a finished segment.
	RandomWalk State = iota
	// Observe samples the tile under the robot once.
	Observe
	// Pause does nothing. No transition enters it yet.
	Pause
)

func (s State) String() string {
	switch s {
	case RandomWalk:
		return "random_walk"
	case Observe:
		return "observe"
	case Pause:
		return "pause"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PositionScale is the number of XYZ units per side of the unit-square arena.
const PositionScale = 100

// Locomotion is the robot's drive and odometry.
type Locomotion interface {
	// StepRandomWalk advances one tick and returns true when a walk segment completes.
	StepRandomWalk() bool
	// Position returns the unit-square coordinates.
	Position() (x, y float64)
	// PositionXYZ returns the position in integer units of 1/PositionScale of
	// the arena side, so (50, 50, 0) is the centre of a flat arena.
	PositionXYZ() (x, y, z int)
}

// Radio broadcasts samples to peers.
type Radio interface {
	Send(sample int) error
	Receive() []int
}

// Sampler is the observation engine as seen by the agent.
type Sampler interface {
	Sample(ctx context.Context, x, y float64) observe.Result
	Mode() observe.Mode
	InferPosition(ctx context.Context, x, y, z float64) int
}

// Clock is the host simulation's time base.
type Clock interface {
	Advance()
	Ticks() int
	Seconds() float64
}

// Settings identify the agent and toggle optional behaviour.
type Settings struct {
	Name  string
	RunID string
	// PositionInference also runs the vector classifier on every observation.
	PositionInference bool
}

// Agent alternates walking and observing, one transition per world tick.
type Agent struct {
	settings Settings
	state    State

	loco     Locomotion
	sampler  Sampler
	radio    Radio
	recorder telemetry.Recorder
	clock    Clock
	logger   *zap.Logger

	observations int
	received     int
}

// New creates an agent in the RandomWalk state. A nil recorder discards records.
func New(settings Settings, loco Locomotion, sampler Sampler, radio Radio, recorder telemetry.Recorder, clock Clock, logger *zap.Logger) *Agent {
	if recorder == nil {
		recorder = telemetry.Multi{}
	}
	return &Agent{
		settings: settings,
		state:    RandomWalk,
		loco:     loco,
		sampler:  sampler,
		radio:    radio,
		recorder: recorder,
		clock:    clock,
		logger:   logger.Named("agent").With(zap.String("robot", settings.Name)),
	}
}

// State returns the current phase.
func (a *Agent) State() State { return a.state }

// Observations returns how many samples the agent has taken.
func (a *Agent) Observations() int { return a.observations }

// Received returns how many peer samples arrived over the radio.
func (a *Agent) Received() int { return a.received }

// Step runs one world tick. It never fails: collaborator errors are logged.
func (a *Agent) Step(ctx context.Context) {
	a.clock.Advance()

	switch a.state {
	case RandomWalk:
		if a.loco.StepRandomWalk() {
			a.state = Observe
		}
	case Observe:
		a.observe(ctx)
		a.state = RandomWalk
	case Pause:
	}

	if msgs := a.radio.Receive(); len(msgs) > 0 {
		a.received += len(msgs)
		a.logger.Debug("Received peer samples", zap.Int("count", len(msgs)), zap.Ints("samples", msgs))
	}
}

func (a *Agent) observe(ctx context.Context) {
	x, y := a.loco.Position()
	result := a.sampler.Sample(ctx, x, y)
	a.observations++

	px, py, pz := a.loco.PositionXYZ()
	a.logger.Info("Sample",
		zap.Int("sample", int(result.Class)),
		zap.Float64("raw", result.Raw),
		zap.Float64("x", float64(px)/PositionScale),
		zap.Float64("y", float64(py)/PositionScale),
		zap.Float64("z", float64(pz)/PositionScale))

	if a.settings.PositionInference {
		class := a.sampler.InferPosition(ctx,
			float64(px)/PositionScale,
			float64(py)/PositionScale,
			float64(pz)/PositionScale)
		a.logger.Info("Position inference", zap.Int("class_index", class))
	}

	if result.Class.Valid() {
		if err := a.radio.Send(int(result.Class)); err != nil {
			a.logger.Warn("Failed to broadcast sample", zap.Error(err))
		}
	}

	rec := telemetry.Record{
		RunID:   a.settings.RunID,
		Robot:   a.settings.Name,
		Tick:    a.clock.Ticks(),
		SimTime: a.clock.Seconds(),
		X:       x,
		Y:       y,
		Mode:    a.sampler.Mode().String(),
		Class:   int(result.Class),
		Raw:     result.Raw,
	}
	if err := a.recorder.Record(ctx, rec); err != nil {
		a.logger.Warn("Failed to record sample", zap.Error(err))
	}
}

// Run steps the agent for the given number of ticks, or until ctx is done
// when ticks is not positive.
func (a *Agent) Run(ctx context.Context, ticks int) error {
	for i := 0; ticks <= 0 || i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.Step(ctx)
	}
	return nil
}
