// File: internal/sim/walker.go
// Package sim provides stand-in collaborators for running an agent outside a
// host simulator: a random-walk drive, a fixed-step clock and a loopback radio.
package sim

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// PositionScale converts unit-square coordinates into the integer units the
// XYZ accessor reports. It equals agent.PositionScale, the unit the agent's
// locomotion contract expects.
const PositionScale = 100

// Walker drives a point around the unit square. Each step moves StepSize
// along the current heading, perturbed by a small random turn, and reflects
// off the walls. A walk segment completes every WalkSteps steps, after which a
// fresh heading is drawn.
type Walker struct {
	x, y      float64
	heading   float64
	stepSize  float64
	walkSteps int
	step      int
	rng       *rand.Rand
}

// NewWalker starts a walker in the middle of the arena.
func NewWalker(stepSize float64, walkSteps int, seed uint64) *Walker {
	if walkSteps <= 0 {
		walkSteps = 1
	}
	rng := rand.New(rand.NewPCG(seed, seed+1))
	return &Walker{
		x:         0.5,
		y:         0.5,
		heading:   rng.Float64() * 2 * math.Pi,
		stepSize:  stepSize,
		walkSteps: walkSteps,
		rng:       rng,
	}
}

// StepRandomWalk advances one step and reports whether the segment completed.
func (w *Walker) StepRandomWalk() bool {
	w.heading += (w.rng.Float64() - 0.5) * math.Pi / 8
	w.x, w.heading = reflect(w.x+w.stepSize*math.Cos(w.heading), w.heading, true)
	w.y, w.heading = reflect(w.y+w.stepSize*math.Sin(w.heading), w.heading, false)

	w.step++
	if w.step < w.walkSteps {
		return false
	}
	w.step = 0
	w.heading = w.rng.Float64() * 2 * math.Pi
	return true
}

// reflect folds a coordinate back into [0, 1] and mirrors the heading.
func reflect(v, heading float64, horizontal bool) (float64, float64) {
	switch {
	case v < 0:
		v = -v
	case v > 1:
		v = 2 - v
	default:
		return v, heading
	}
	if horizontal {
		heading = math.Pi - heading
	} else {
		heading = -heading
	}
	return math.Min(math.Max(v, 0), 1), heading
}

// Position returns the unit-square coordinates.
func (w *Walker) Position() (float64, float64) { return w.x, w.y }

// PositionXYZ returns the position scaled by PositionScale. The arena is flat,
// so z is always 0.
func (w *Walker) PositionXYZ() (int, int, int) {
	return int(math.Round(w.x * PositionScale)), int(math.Round(w.y * PositionScale)), 0
}

// Clock advances simulated time by a fixed step per tick.
type Clock struct {
	step  time.Duration
	ticks int
}

// NewClock creates a clock at time zero.
func NewClock(step time.Duration) *Clock { return &Clock{step: step} }

// Advance moves the clock forward by one step.
func (c *Clock) Advance() { c.ticks++ }

// Ticks returns the number of steps taken.
func (c *Clock) Ticks() int { return c.ticks }

// Elapsed returns the simulated time.
func (c *Clock) Elapsed() time.Duration { return time.Duration(c.ticks) * c.step }

// Seconds returns the simulated time in seconds.
func (c *Clock) Seconds() float64 { return c.Elapsed().Seconds() }

// Hub connects loopback radios. A message sent by one radio is delivered to
// every other radio on the same hub.
type Hub struct {
	mu     sync.Mutex
	radios []*Radio
}

// Join attaches a new radio to the hub.
func (h *Hub) Join() *Radio {
	r := &Radio{hub: h}
	h.mu.Lock()
	h.radios = append(h.radios, r)
	h.mu.Unlock()
	return r
}

// Radio is one endpoint of a Hub.
type Radio struct {
	hub   *Hub
	mu    sync.Mutex
	inbox []int
}

// NewRadio returns a radio on its own hub, so nothing is ever received.
func NewRadio() *Radio {
	return (&Hub{}).Join()
}

// Send broadcasts v to the other radios.
func (r *Radio) Send(v int) error {
	r.hub.mu.Lock()
	peers := append([]*Radio(nil), r.hub.radios...)
	r.hub.mu.Unlock()
	for _, p := range peers {
		if p == r {
			continue
		}
		p.mu.Lock()
		p.inbox = append(p.inbox, v)
		p.mu.Unlock()
	}
	return nil
}

// Receive drains and returns the pending messages.
func (r *Radio) Receive() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.inbox
	r.inbox = nil
	return msgs
}
