// File: internal/history/window.go
// Package history loads fixed-length slices of the rolling sensor log that
// the classifier pathway feeds to the external model.
package history

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultRows is the number of non-empty rows in one window.
	DefaultRows = 24
	// DefaultMaxOffset bounds the random start row.
	DefaultMaxOffset = 36000
)

// Window is a rectangular slice of sensor rows, oldest first.
type Window [][]float64

// Anchor picks the first log row of a window.
type Anchor interface {
	StartRow() int
}

// TimeAnchor starts the window Rows rows before the current simulated second,
// so the window ends at the present.
type TimeAnchor struct {
	Elapsed float64
	Rows    int
}

// StartRow returns floor(Elapsed) - Rows, which may be negative.
func (a TimeAnchor) StartRow() int {
	rows := a.Rows
	if rows <= 0 {
		rows = DefaultRows
	}
	return int(math.Floor(a.Elapsed)) - rows
}

// RandomAnchor starts the window at a uniformly random row in [0, MaxOffset).
// A nil Rand draws from the process-wide, non-reproducible generator.
type RandomAnchor struct {
	MaxOffset int
	Rand      *rand.Rand
}

// StartRow draws the start row.
func (a RandomAnchor) StartRow() int {
	limit := a.MaxOffset
	if limit <= 0 {
		limit = DefaultMaxOffset
	}
	if a.Rand == nil {
		return rand.IntN(limit)
	}
	return a.Rand.IntN(limit)
}

// Loader reads windows from a sensor log file.
type Loader struct {
	Path string
	Rows int
}

// Load opens the log and reads one window starting at the anchor's row.
func (l Loader) Load(anchor Anchor) (Window, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	w, err := Read(f, anchor.StartRow(), l.rows())
	if err != nil {
		return nil, fmt.Errorf("failed to read history file %s: %w", l.Path, err)
	}
	return w, nil
}

func (l Loader) rows() int {
	if l.Rows <= 0 {
		return DefaultRows
	}
	return l.Rows
}

// Read skips the first start lines of r (blank lines included) and collects
// up to rows non-empty rows. A negative start reads from the top. A start past
// the end of the log also reads from the top instead of returning nothing.
func Read(r io.ReadSeeker, start, rows int) (Window, error) {
	if start < 0 {
		start = 0
	}
	w, seen, err := collect(r, start, rows)
	if err != nil {
		return nil, err
	}
	if len(w) == 0 && start > 0 && seen <= start {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		w, _, err = collect(r, 0, rows)
		if err != nil {
			return nil, err
		}
	}
	return w, nil
}

// collect returns the window and the number of lines consumed.
func collect(r io.Reader, start, rows int) (Window, int, error) {
	var w Window
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		if line < start {
			line++
			continue
		}
		if len(w) >= rows {
			break
		}
		if row := parseRow(scanner.Text()); len(row) > 0 {
			w = append(w, row)
		}
		line++
	}
	if err := scanner.Err(); err != nil {
		return nil, line, err
	}
	return w, line, nil
}

// parseRow reads whitespace-separated floats and stops at the first token
// that is not a number.
func parseRow(text string) []float64 {
	var row []float64
	for _, tok := range strings.Fields(text) {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			break
		}
		row = append(row, v)
	}
	return row
}

// Width returns the number of columns of the first row, or 0 for an empty window.
func (w Window) Width() int {
	if len(w) == 0 {
		return 0
	}
	return len(w[0])
}
