// File: internal/noise/model.go
// Package noise corrupts ground-truth tile readings the way a vibration
// sensor would: either by drawing a raw measurement from a per-colour shifted
// gamma distribution, or by flipping the reading with fixed false-positive
// and false-negative rates.
package noise

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Gamma parameterizes a shifted gamma distribution: Location + Gamma(Shape, Scale).
type Gamma struct {
	Shape    float64
	Scale    float64
	Location float64
}

// ErrInvalidParams is wrapped by every parameter validation failure.
var ErrInvalidParams = errors.New("invalid noise parameters")

// Validate reports whether g describes a usable distribution. Shape and
// scale must be positive and finite.
func (g Gamma) Validate() error {
	if !(g.Shape > 0) || !(g.Scale > 0) || math.IsInf(g.Shape, 0) || math.IsInf(g.Scale, 0) || math.IsNaN(g.Location) {
		return fmt.Errorf("%w: gamma shape %v scale %v location %v", ErrInvalidParams, g.Shape, g.Scale, g.Location)
	}
	return nil
}

// Params are the statistical parameters of the sensor model. The corruption
// rates are fractions in [0, 1].
type Params struct {
	OnTile        Gamma
	OffTile       Gamma
	Threshold     float64
	FalsePositive float64
	FalseNegative float64
}

// SetFalsePositivePercent stores a false-positive rate given in percent.
func (p *Params) SetFalsePositivePercent(pct float64) { p.FalsePositive = clampUnit(pct / 100) }

// SetFalseNegativePercent stores a false-negative rate given in percent.
func (p *Params) SetFalseNegativePercent(pct float64) { p.FalseNegative = clampUnit(pct / 100) }

// ValidateDistribution checks the parameters the distribution pipeline draws from.
func (p Params) ValidateDistribution() error {
	if err := p.OnTile.Validate(); err != nil {
		return fmt.Errorf("on-tile: %w", err)
	}
	if err := p.OffTile.Validate(); err != nil {
		return fmt.Errorf("off-tile: %w", err)
	}
	if math.IsNaN(p.Threshold) {
		return fmt.Errorf("%w: threshold is NaN", ErrInvalidParams)
	}
	return nil
}

// ValidateRates checks that both corruption rates are fractions in [0, 1].
func (p Params) ValidateRates() error {
	if !(p.FalsePositive >= 0 && p.FalsePositive <= 1) || !(p.FalseNegative >= 0 && p.FalseNegative <= 1) {
		return fmt.Errorf("%w: rates fp=%v fn=%v outside [0, 1]", ErrInvalidParams, p.FalsePositive, p.FalseNegative)
	}
	return nil
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Model owns the single seeded generator every draw consumes. It is not safe
// for concurrent use; each agent owns its own Model.
type Model struct {
	params Params
	src    *rand.PCG
	rng    *rand.Rand
}

// New creates a Model seeded with seed.
func New(params Params, seed uint64) *Model {
	src := rand.NewPCG(seed, streamFor(seed))
	return &Model{
		params: params,
		src:    src,
		rng:    rand.New(src),
	}
}

// streamFor derives the second PCG word from the seed so one number fully
// determines the sequence.
func streamFor(seed uint64) uint64 {
	return seed ^ 0x9e3779b97f4a7c15
}

// Reseed restarts the generator. The same seed always yields the same sequence.
func (m *Model) Reseed(seed uint64) {
	m.src.Seed(seed, streamFor(seed))
}

// Params returns the current parameters.
func (m *Model) Params() Params { return m.params }

// SetParams replaces the parameters. Call before sampling starts.
func (m *Model) SetParams(p Params) { m.params = p }

// Rand exposes the shared generator for callers that must draw from the same
// reproducible stream.
func (m *Model) Rand() *rand.Rand { return m.rng }

// Distribution draws a raw measurement from the on-tile generator when member
// is true and from the off-tile generator otherwise, and thresholds it.
// The returned raw value already includes the location shift. Parameters that
// cannot be sampled yield ErrInvalidParams and consume no randomness.
func (m *Model) Distribution(member bool) (int, float64, error) {
	g := m.params.OffTile
	if member {
		g = m.params.OnTile
	}
	if err := g.Validate(); err != nil {
		return 0, 0, err
	}
	dist := distuv.Gamma{
		Alpha: g.Shape,
		// distuv uses the rate parameterization.
		Beta: 1 / g.Scale,
		Src:  m.src,
	}
	value := dist.Rand() + g.Location
	if value > m.params.Threshold {
		return 1, value, nil
	}
	return 0, value, nil
}

// FalsePositiveNegative corrupts a membership bit. On a marked tile a
// successful Bernoulli(FalseNegative) trial yields a missed detection (0);
// on an unmarked tile a successful Bernoulli(FalsePositive) trial yields a
// spurious detection (1).
func (m *Model) FalsePositiveNegative(member bool) int {
	if member {
		if m.bernoulli(m.params.FalseNegative) {
			return 0
		}
		return 1
	}
	if m.bernoulli(m.params.FalsePositive) {
		return 1
	}
	return 0
}

func (m *Model) bernoulli(p float64) bool {
	trial := distuv.Bernoulli{P: p, Src: m.src}
	return trial.Rand() == 1
}
