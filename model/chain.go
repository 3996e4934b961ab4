package model

// 0 right, 1 down, 2 left, 3 up
var deltas = [4]Cell{
	{Row: 0, Col: 1},
	{Row: 1, Col: 0},
	{Row: 0, Col: -1},
	{Row: -1, Col: 0},
}

// directions returns the increasing then decreasing direction of the axis.
func directions(a Axis) [2]int {
	if a == Vertical {
		return [2]int{1, 3}
	}
	return [2]int{0, 2}
}

// ApplyMove consumes the moving token at (row, col) and pushes the chains on
// both sides of it along axis. A cell that does not hold moving is a rejected
// move: the board stays as it was and the result is not Accepted.
func ApplyMove(b *Board, row, col int, axis Axis, moving Color) (MoveResult, error) {
	current, err := b.Get(row, col)
	if err != nil {
		return MoveResult{}, err
	}
	if moving == None || current != moving {
		return MoveResult{Accepted: false}, nil
	}

	b.Matrix[row][col] = None
	changes := []Change{{Cell: Cell{Row: row, Col: col}, Color: None}}

	for _, d := range directions(axis) {
		first := Cell{Row: row + deltas[d].Row, Col: col + deltas[d].Col}
		if !b.Contains(first.Row, first.Col) {
			continue
		}
		chain := trace(b, first, d, 0)
		for i, cell := range chain {
			color := moving
			if i > 0 && i == len(chain)-1 {
				// pop
				color = None
			}
			b.Matrix[cell.Row][cell.Col] = color
			changes = append(changes, Change{Cell: cell, Color: color})
		}
	}
	return MoveResult{Accepted: true, Changes: changes}, nil
}

// trace walks outward from cell in direction d. The first neighbor (depth 0)
// is always part of the chain; beyond it the chain is the occupied run up to
// a gap or the edge, and its last cell is the one popped.
func trace(b *Board, cell Cell, d int, depth int) []Cell {
	occupied := b.Matrix[cell.Row][cell.Col] != None
	if depth > 0 && !occupied {
		return nil
	}
	chain := []Cell{cell}
	if !occupied {
		return chain
	}
	next := Cell{Row: cell.Row + deltas[d].Row, Col: cell.Col + deltas[d].Col}
	if !b.Contains(next.Row, next.Col) {
		return chain
	}
	return append(chain, trace(b, next, d, depth+1)...)
}
