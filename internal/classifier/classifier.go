// File: internal/classifier/classifier.go
// Package classifier turns feature data into a class index by consulting an
// external classification model. The model is consumed as a black box: it is
// handed a window of sensor rows or a 3-value vector and answers with a score
// per class.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// VectorLen is the number of values the vector form accepts.
const VectorLen = 3

// NoClass is the index reported when no class could be determined.
const NoClass = -1

var (
	// ErrShape is returned when the vector form receives the wrong number of values.
	ErrShape = errors.New("classifier: vector must hold exactly 3 values")
	// ErrNoScores is returned when the classifier output holds no numeric token.
	ErrNoScores = errors.New("classifier: output contains no scores")
)

// Error describes a failure talking to the classification process.
type Error struct {
	// Op is one of "write", "spawn" or "parse".
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("classifier %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classifier predicts a class index from features. Implementations return
// NoClass together with a non-nil error on failure.
type Classifier interface {
	// Classify scores a rectangular window of sensor rows.
	Classify(ctx context.Context, rows [][]float64) (int, error)
	// ClassifyVector scores exactly VectorLen values, such as a 3D position.
	ClassifyVector(ctx context.Context, values []float64) (int, error)
}

// Func adapts a scoring function to the Classifier interface without any
// process or file I/O. Both forms flatten their input before calling it.
type Func func(ctx context.Context, features []float64) ([]float64, error)

// Classify implements Classifier.
func (f Func) Classify(ctx context.Context, rows [][]float64) (int, error) {
	var flat []float64
	for _, r := range rows {
		flat = append(flat, r...)
	}
	return f.score(ctx, flat)
}

// ClassifyVector implements Classifier.
func (f Func) ClassifyVector(ctx context.Context, values []float64) (int, error) {
	if len(values) != VectorLen {
		return NoClass, fmt.Errorf("%w: got %d", ErrShape, len(values))
	}
	return f.score(ctx, values)
}

func (f Func) score(ctx context.Context, features []float64) (int, error) {
	scores, err := f(ctx, features)
	if err != nil {
		return NoClass, err
	}
	idx := Argmax(scores)
	if idx == NoClass {
		return NoClass, ErrNoScores
	}
	return idx, nil
}

// outputReplacer strips brackets and turns comma separators into whitespace.
var outputReplacer = strings.NewReplacer("[", " ", "]", " ", ",", " ")

// ParseScores reads the textual score vector a classifier prints, such as
// "[0.1, 0.9, 0.05]" or "0.2 0.9 0.9".
func ParseScores(output string) ([]float64, error) {
	fields := strings.Fields(outputReplacer.Replace(output))
	if len(fields) == 0 {
		return nil, ErrNoScores
	}
	scores := make([]float64, 0, len(fields))
	for _, tok := range fields {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid score token %q: %w", tok, err)
		}
		scores = append(scores, v)
	}
	return scores, nil
}

// Argmax returns the index of the largest score. Ties go to the first
// occurrence. An empty slice yields NoClass.
func Argmax(scores []float64) int {
	best := NoClass
	for i, s := range scores {
		if best == NoClass || s > scores[best] {
			best = i
		}
	}
	return best
}
