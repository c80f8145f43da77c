// File: internal/observe/mode.go
package observe

import (
	"fmt"
	"strings"
)

// Mode selects the measurement pipeline.
type Mode int

const (
	// Exact reports grid membership unchanged.
	Exact Mode = iota
	// Distribution draws a raw vibration value from a per-colour gamma and thresholds it.
	Distribution
	// FalsePositiveNegative flips membership with fixed corruption rates.
	FalsePositiveNegative
	// Classifier asks the external model about a window of sensor history.
	Classifier
)

var modeNames = map[Mode]string{
	Exact:                 "exact",
	Distribution:          "distribution",
	FalsePositiveNegative: "fp_fn",
	Classifier:            "classifier",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps a configuration string onto a Mode.
func ParseMode(s string) (Mode, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == want {
			return m, nil
		}
	}
	return Exact, fmt.Errorf("unknown observation mode %q", s)
}

// Classification is the binary verdict about a tile, or Unclassified.
type Classification int

const (
	// Unclassified is returned when the pipeline could not produce a verdict.
	Unclassified Classification = -1
	Black        Classification = 0
	White        Classification = 1
)

// Valid reports whether c is a usable black or white verdict.
func (c Classification) Valid() bool { return c == Black || c == White }

func (c Classification) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "unclassified"
	}
}

// Result is one observation: the verdict and the raw value that produced it.
type Result struct {
	Class Classification
	Raw   float64
}
