package model

import (
	"fmt"
	"strings"
)

const DefaultSize = 10

type Board struct {
	Size   int
	Matrix [][]Color
}

func NewBoard(size int) (*Board, error) {
	if size < 2 {
		return nil, fmt.Errorf("board size %d, need at least 2: %w", size, ErrBadSize)
	}
	matrix := make([][]Color, 0, size)
	for r := 0; r < size; r++ {
		matrix = append(matrix, make([]Color, size))
	}
	return &Board{Size: size, Matrix: matrix}, nil
}

func (b *Board) Contains(row, col int) bool {
	return row >= 0 && row < b.Size && col >= 0 && col < b.Size
}

func (b *Board) check(row, col int) error {
	if !b.Contains(row, col) {
		return fmt.Errorf("(%d,%d) on %dx%d board: %w", row, col, b.Size, b.Size, ErrOutOfBounds)
	}
	return nil
}

func (b *Board) Get(row, col int) (Color, error) {
	if err := b.check(row, col); err != nil {
		return None, err
	}
	return b.Matrix[row][col], nil
}

// Set writes the color without looking at what was there.
func (b *Board) Set(row, col int, color Color) error {
	if err := b.check(row, col); err != nil {
		return err
	}
	b.Matrix[row][col] = color
	return nil
}

func (b *Board) Tally() Tally {
	t := make(Tally, len(Colors))
	for _, c := range Colors {
		t[c] = 0
	}
	for _, row := range b.Matrix {
		for _, c := range row {
			if c != None {
				t[c]++
			}
		}
	}
	return t
}

// TallyOf is Tally for callers holding only the board.
func TallyOf(b *Board) Tally {
	return b.Tally()
}

// Tokens counts the occupied cells.
func (b *Board) Tokens() int {
	n := 0
	for _, row := range b.Matrix {
		for _, c := range row {
			if c != None {
				n++
			}
		}
	}
	return n
}

func (b *Board) Clone() *Board {
	matrix := make([][]Color, 0, b.Size)
	for _, row := range b.Matrix {
		matrix = append(matrix, append([]Color(nil), row...))
	}
	return &Board{Size: b.Size, Matrix: matrix}
}

func (b *Board) Equal(o *Board) bool {
	if o == nil || b.Size != o.Size {
		return false
	}
	for r := range b.Matrix {
		for c := range b.Matrix[r] {
			if b.Matrix[r][c] != o.Matrix[r][c] {
				return false
			}
		}
	}
	return true
}

// String renders the board in layout form, one row per line.
func (b *Board) String() string {
	var sb strings.Builder
	for _, row := range b.Matrix {
		for _, c := range row {
			sb.WriteRune(c.Rune())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
