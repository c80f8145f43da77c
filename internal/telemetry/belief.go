// File: internal/telemetry/belief.go
package telemetry

import (
	"context"
	"sync"
)

// Belief tracks the running fraction of white verdicts among classified
// samples. Unclassified samples are counted separately and do not move the
// estimate.
type Belief struct {
	mu           sync.Mutex
	white        int
	black        int
	unclassified int
}

// Observe folds one verdict into the estimate.
func (b *Belief) Observe(class int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch class {
	case 1:
		b.white++
	case 0:
		b.black++
	default:
		b.unclassified++
	}
}

// Record implements Recorder so a Belief can sit in a Multi.
func (b *Belief) Record(_ context.Context, r Record) error {
	b.Observe(r.Class)
	return nil
}

// Value returns white / (white + black), or 0.5 before any classified sample.
func (b *Belief) Value() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.white + b.black
	if n == 0 {
		return 0.5
	}
	return float64(b.white) / float64(n)
}

// Counts returns the white, black and unclassified tallies.
func (b *Belief) Counts() (white, black, unclassified int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.white, b.black, b.unclassified
}
