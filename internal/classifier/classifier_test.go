// File: internal/classifier/classifier_test.go
package classifier

import (
	"context"
	"errors"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScores(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    []float64
		wantErr bool
	}{
		{name: "bracketed comma list", output: "[0.1, 0.9, 0.05]", want: []float64{0.1, 0.9, 0.05}},
		{name: "space separated", output: "0.2 0.9 0.9", want: []float64{0.2, 0.9, 0.9}},
		{name: "nested brackets and newline", output: "[[1e-3,2.5]]\n", want: []float64{0.001, 2.5}},
		{name: "empty", output: "  \n", wantErr: true},
		{name: "garbage token", output: "[0.1, nope]", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScores(tt.output)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseScores("")
	assert.ErrorIs(t, err, ErrNoScores)
}

func TestArgmax(t *testing.T) {
	assert.Equal(t, 1, Argmax([]float64{0.1, 0.9, 0.05}))
	assert.Equal(t, 1, Argmax([]float64{0.2, 0.9, 0.9}), "first occurrence wins a tie")
	assert.Equal(t, 0, Argmax([]float64{-3, -4}))
	assert.Equal(t, NoClass, Argmax(nil))
}

func TestFunc(t *testing.T) {
	var seen []float64
	f := Func(func(_ context.Context, features []float64) ([]float64, error) {
		seen = features
		return []float64{0.1, 0.2, 0.7}, nil
	})

	idx, err := f.Classify(context.Background(), [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.Equal(t, []float64{1, 2, 3, 4}, seen)

	idx, err = f.ClassifyVector(context.Background(), []float64{1, 2})
	assert.ErrorIs(t, err, ErrShape)
	assert.Equal(t, NoClass, idx)

	boom := errors.New("boom")
	failing := Func(func(context.Context, []float64) ([]float64, error) { return nil, boom })
	idx, err = failing.ClassifyVector(context.Background(), []float64{1, 2, 3})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, NoClass, idx)

	empty := Func(func(context.Context, []float64) ([]float64, error) { return nil, nil })
	_, err = empty.Classify(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoScores)
}

func TestErrorUnwrap(t *testing.T) {
	err := &Error{Op: "parse", Err: ErrNoScores}
	assert.ErrorIs(t, err, ErrNoScores)
	assert.Contains(t, err.Error(), "classifier parse failed")
}

// FuzzParseScores checks that any successful parse yields a usable argmax.
func FuzzParseScores(f *testing.F) {
	f.Add([]byte("[0.1, 0.9, 0.05]"))
	f.Add([]byte("0.2 0.9 0.9"))
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		output, err := consumer.GetString()
		if err != nil {
			return
		}
		scores, err := ParseScores(output)
		if err != nil {
			return
		}
		idx := Argmax(scores)
		if idx < 0 || idx >= len(scores) {
			t.Fatalf("argmax %d out of range for %d scores", idx, len(scores))
		}
	})
}
