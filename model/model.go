package model

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds      = errors.New("cell out of bounds")
	ErrCapacityExceeded = errors.New("board capacity exceeded")
	ErrBadSize          = errors.New("bad board size")
)

type Color int

const (
	None Color = iota
	Red
	Green
	Blue
	Yellow
	Purple
)

// Colors lists the player colors in seeding order.
var Colors = []Color{Red, Green, Blue, Yellow, Purple}

var colorRunes = map[Color]rune{
	None:   '.',
	Red:    'R',
	Green:  'G',
	Blue:   'B',
	Yellow: 'Y',
	Purple: 'P',
}

func (c Color) String() string {
	switch c {
	case None:
		return "None"
	case Red:
		return "Red"
	case Green:
		return "Green"
	case Blue:
		return "Blue"
	case Yellow:
		return "Yellow"
	case Purple:
		return "Purple"
	default:
		return fmt.Sprintf("n/a:%d", int(c))
	}
}

func (c Color) Rune() rune {
	if r, ok := colorRunes[c]; ok {
		return r
	}
	return '?'
}

// ParseColor maps a layout rune back to its Color.
func ParseColor(r rune) (Color, bool) {
	for c, cr := range colorRunes {
		if cr == r {
			return c, true
		}
	}
	return None, false
}

type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

func (a Axis) Toggle() Axis {
	if a == Horizontal {
		return Vertical
	}
	return Horizontal
}

func (a Axis) String() string {
	switch a {
	case Horizontal:
		return "Horizontal"
	case Vertical:
		return "Vertical"
	default:
		return fmt.Sprintf("n/a:%d", int(a))
	}
}

type Cell struct {
	Row, Col int
}

// Index linearizes the cell for renderers that address cells by number.
func (c Cell) Index(size int) int {
	return c.Row*size + c.Col
}

type Change struct {
	Cell
	Color Color
}

type MoveResult struct {
	Accepted bool
	Changes  []Change
}

type Tally map[Color]int

// Total sums the counts of every color.
func (t Tally) Total() int {
	total := 0
	for _, n := range t {
		total += n
	}
	return total
}
