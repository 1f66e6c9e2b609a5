// Package brush implements rectangular cell patterns used to paint the
// world, including the minimal brush-file wire format.
// Grounded on original_source/src/CellBrush.hh/.cc: a monotonic
// single-state fast path, a from-pattern constructor, and a file loader
// with an invert_y option.
package brush

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lifegrid/automaton/cell"
	"github.com/lifegrid/automaton/internal/obslog"
)

// Brush is a rectangular pattern of cell states with an implicit origin at
// its logical center (width/2, height/2 floor division).
type Brush struct {
	width, height int

	monotonic      bool
	monotonicState cell.State

	// data is row-major, bottom-left to top-right, length width*height.
	// Unused when monotonic.
	data []cell.State
}

// NewMonotonic returns a brush of the given size filled entirely with fill.
// width and height must be >= 1.
func NewMonotonic(width, height int, fill cell.State) (*Brush, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("brush: invalid size %dx%d", width, height)
	}
	return &Brush{width: width, height: height, monotonic: true, monotonicState: fill}, nil
}

// NewFromPattern builds a brush from an explicit grid. rows[0] is the
// bottom row; all rows must have the same length.
func NewFromPattern(rows [][]cell.State) (*Brush, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("brush: empty pattern")
	}
	h := len(rows)
	w := len(rows[0])
	data := make([]cell.State, 0, w*h)
	for _, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("brush: ragged pattern row (want %d, got %d)", w, len(row))
		}
		data = append(data, row...)
	}
	return &Brush{width: w, height: h, data: data}, nil
}

// Width returns the brush's width.
func (b *Brush) Width() int { return b.width }

// Height returns the brush's height.
func (b *Brush) Height() int { return b.height }

// StateAt returns the state of the cell at local coordinate (x, y), where
// (0,0) is the bottom-left corner. Out-of-rectangle coordinates and an
// invalid (zero-value) brush both return Dead.
func (b *Brush) StateAt(x, y int) cell.State {
	if b == nil || b.width == 0 || b.height == 0 {
		return cell.Dead
	}
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return cell.Dead
	}
	if b.monotonic {
		return b.monotonicState
	}
	return b.data[y*b.width+x]
}

// Inverse returns a brush the same size as b with every state flipped
// (Alive<->Dead).
func (b *Brush) Inverse() *Brush {
	data := make([]cell.State, b.width*b.height)
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			s := b.StateAt(x, y)
			if s == cell.Alive {
				data[y*b.width+x] = cell.Dead
			} else {
				data[y*b.width+x] = cell.Alive
			}
		}
	}
	return &Brush{width: b.width, height: b.height, data: data}
}

// LoadFile loads a brush from the minimal wire format: a "WIDTHxHEIGHT"
// header followed by exactly HEIGHT rows of exactly WIDTH characters from
// {'0','2'} ('1'/'3' are legacy aliases for Dead). The first row in the
// file becomes y=0, the bottom row; invertY reverses that order.
func LoadFile(path string, invertY bool, log *obslog.Logger) (*Brush, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("brush: opening %s: %w", path, err)
	}
	defer f.Close()

	return LoadFromReader(f, invertY, log)
}

// LoadFromReader loads a brush from an arbitrary reader, used by LoadFile
// and directly by tests.
func LoadFromReader(r io.Reader, invertY bool, log *obslog.Logger) (*Brush, error) {
	if log == nil {
		log = obslog.Nop()
	}

	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("brush: reading: %w", err)
	}

	idx := 0
	for idx < len(lines) && strings.TrimSpace(lines[idx]) == "" {
		idx++
	}
	if idx >= len(lines) {
		return nil, fmt.Errorf("brush: empty file")
	}

	width, height, err := parseHeader(lines[idx])
	if err != nil {
		return nil, err
	}
	idx++

	data := make([]cell.State, width*height)
	for row := 0; row < height; row++ {
		var line string
		if idx+row < len(lines) {
			line = lines[idx+row]
		} else {
			log.Warn("brush: missing trailing row, padding with Dead", "row", row)
			line = ""
		}

		runes := []rune(line)
		for col := 0; col < width; col++ {
			var state cell.State
			if col < len(runes) {
				state = parseCellChar(runes[col], log)
			} else {
				log.Warn("brush: short row, padding with Dead", "row", row, "col", col)
				state = cell.Dead
			}

			outRow := row
			if invertY {
				outRow = height - 1 - row
			}
			data[outRow*width+col] = state
		}
	}

	return &Brush{width: width, height: height, data: data}, nil
}

func parseHeader(line string) (width, height int, err error) {
	line = strings.TrimSpace(line)
	parts := strings.SplitN(line, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("brush: malformed header %q, want WIDTHxHEIGHT", line)
	}
	if _, err := fmt.Sscanf(parts[0], "%d", &width); err != nil || width < 1 {
		return 0, 0, fmt.Errorf("brush: malformed width in header %q", line)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &height); err != nil || height < 1 {
		return 0, 0, fmt.Errorf("brush: malformed height in header %q", line)
	}
	return width, height, nil
}

func parseCellChar(c rune, log *obslog.Logger) cell.State {
	switch c {
	case '2':
		return cell.Alive
	case '0', '1', '3':
		return cell.Dead
	default:
		log.Warn("brush: unknown character in row, treating as Dead", "char", string(c))
		return cell.Dead
	}
}
