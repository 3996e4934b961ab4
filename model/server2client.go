package model

type ServerMessage struct {
	Setup []Setup
	Moves []MoveOutcome
	Axis  []AxisChange
	Tally Tally
}

type Setup struct {
	Size   int
	Matrix [][]Color
	Axis   Axis
}

type MoveOutcome struct {
	Row, Col int
	Color    Color
	Axis     Axis
	Accepted bool
	Changes  []Change
	Error    string
}

type AxisChange struct {
	Axis Axis
}
