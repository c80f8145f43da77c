// File: internal/world/grid.go
// Package world holds the tile layout of the arena: which cells of the unit
// square are white (marked). Cells not listed are black.
package world

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DefaultTiles is the number of cells along each side of the arena.
const DefaultTiles = 5

// worldFileName is the file looked up inside a working directory override.
const worldFileName = "world.txt"

// tileLineRegex accepts "<int><sep><int>" where sep is any single character
// other than a digit or whitespace. Anything after the second integer is ignored.
var tileLineRegex = regexp.MustCompile(`^\s*([+-]?\d+)\s*[^\s\d]\s*([+-]?\d+)`)

// Tile identifies a cell by its integer grid coordinates.
type Tile struct {
	X int
	Y int
}

// FormatError reports a world file line that is not "int,int".
type FormatError struct {
	Line int
	Text string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: unsupported tile format %q", e.Line, e.Text)
}

// Grid is an immutable, ordered set of marked tiles on an N x N partition of
// the unit square.
type Grid struct {
	tiles []Tile
	size  int
}

// NewGrid builds a grid of the given side length from marked tiles. The
// order of tiles is kept; it decides which tile matches a boundary point.
func NewGrid(size int, tiles []Tile) *Grid {
	if size <= 0 {
		size = DefaultTiles
	}
	return &Grid{
		tiles: append([]Tile(nil), tiles...),
		size:  size,
	}
}

// ResolvePath applies the working directory override: when workingDir is set
// the grid is read from <workingDir>/world.txt instead of path.
func ResolvePath(path, workingDir string) string {
	if workingDir != "" {
		return filepath.Join(workingDir, worldFileName)
	}
	return path
}

// Load reads a world file. A missing or unreadable file is an error;
// malformed lines are logged and skipped.
func Load(path string, size int, logger *zap.Logger) (*Grid, error) {
	log := logger.Named("world")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open world file: %w", err)
	}
	defer f.Close()

	grid, err := Parse(f, size, func(fe *FormatError) {
		log.Warn("Unsupported file formatting in world file", zap.String("path", path), zap.Error(fe))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read world file %s: %w", path, err)
	}
	log.Info("World loaded", zap.String("path", path), zap.Int("marked_tiles", len(grid.tiles)), zap.Int("size", grid.size))
	return grid, nil
}

// Parse reads newline-delimited "x,y" records. onBadLine, when non-nil, is
// called for every line that could not be parsed; parsing continues. Lines
// of any length are read, so an oversized line is just another bad line.
func Parse(r io.Reader, size int, onBadLine func(*FormatError)) (*Grid, error) {
	var tiles []Tile
	reader := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			lineNo++
			tile, ferr := parseTileLine(strings.TrimRight(line, "\r\n"), lineNo)
			if ferr != nil {
				if onBadLine != nil {
					onBadLine(ferr)
				}
			} else {
				tiles = append(tiles, tile)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return NewGrid(size, tiles), nil
}

func parseTileLine(line string, lineNo int) (Tile, *FormatError) {
	m := tileLineRegex.FindStringSubmatch(line)
	if m == nil {
		return Tile{}, &FormatError{Line: lineNo, Text: line}
	}
	x, errX := strconv.Atoi(m[1])
	y, errY := strconv.Atoi(m[2])
	if errX != nil || errY != nil {
		return Tile{}, &FormatError{Line: lineNo, Text: line}
	}
	return Tile{X: x, Y: y}, nil
}

// Size returns the number of cells along each side.
func (g *Grid) Size() int { return g.size }

// Tiles returns a copy of the marked tiles in load order.
func (g *Grid) Tiles() []Tile {
	return append([]Tile(nil), g.tiles...)
}

// Cell maps a continuous coordinate to the cell containing it.
func (g *Grid) Cell(x, y float64) Tile {
	n := float64(g.size)
	return Tile{X: int(math.Floor(x * n)), Y: int(math.Floor(y * n))}
}

// Contains reports whether (x, y) lies on a marked tile.
func (g *Grid) Contains(x, y float64) bool {
	_, ok := g.Match(x, y)
	return ok
}

// Match returns the first marked tile, in load order, whose closed cell
// contains (x, y). Both cell edges are inclusive, so a point on an edge shared
// by two marked tiles matches whichever was listed first.
func (g *Grid) Match(x, y float64) (Tile, bool) {
	n := float64(g.size)
	for _, t := range g.tiles {
		if x >= float64(t.X)/n && x <= float64(t.X+1)/n &&
			y >= float64(t.Y)/n && y <= float64(t.Y+1)/n {
			return t, true
		}
	}
	return Tile{}, false
}
