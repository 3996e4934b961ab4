package model

import "fmt"

// Rand is the part of *rand.Rand seeding needs.
type Rand interface {
	Intn(n int) int
}

// seedAttemptsPerCell bounds the retry loop for a single token; with at
// least one empty cell the chance of hitting it is 1-(1-1/n²)^(100n²).
const seedAttemptsPerCell = 100

// Seed drops countPerColor tokens of every color onto random empty cells,
// color-major: all of the first color, then the next.
func (b *Board) Seed(colors []Color, countPerColor int, rng Rand) error {
	cells := b.Size * b.Size
	if need := len(colors) * countPerColor; need > cells-b.Tokens() {
		return fmt.Errorf("%d tokens on %d free cells: %w", need, cells-b.Tokens(), ErrCapacityExceeded)
	}
	for _, color := range colors {
		if color == None {
			continue
		}
		for i := 0; i < countPerColor; i++ {
			if err := b.insertStartingDot(color, rng); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Board) insertStartingDot(color Color, rng Rand) error {
	limit := seedAttemptsPerCell * b.Size * b.Size
	for attempt := 0; attempt < limit; attempt++ {
		row, col := rng.Intn(b.Size), rng.Intn(b.Size)
		if b.Matrix[row][col] == None {
			b.Matrix[row][col] = color
			return nil
		}
	}
	return fmt.Errorf("no empty cell for %v after %d attempts: %w", color, limit, ErrCapacityExceeded)
}

func NewGame(size int, colors []Color, countPerColor int, rng Rand) (*Board, error) {
	b, err := NewBoard(size)
	if err != nil {
		return nil, err
	}
	if err := b.Seed(colors, countPerColor, rng); err != nil {
		return nil, err
	}
	return b, nil
}
