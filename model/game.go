package model

// Game pairs a board with the axis its moves run along.
type Game struct {
	Board *Board
	Axis  *AxisSelector
}

func NewSeededGame(size int, countPerColor int, rng Rand) (*Game, error) {
	b, err := NewGame(size, Colors, countPerColor, rng)
	if err != nil {
		return nil, err
	}
	return &Game{Board: b, Axis: &AxisSelector{}}, nil
}

// Move applies a move for moving on the currently selected axis.
func (g *Game) Move(row, col int, moving Color) (MoveResult, error) {
	return ApplyMove(g.Board, row, col, g.Axis.Get(), moving)
}
