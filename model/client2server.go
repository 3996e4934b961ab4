package model

type MessageKind int

const (
	MsgMove MessageKind = iota
	MsgAxis
	MsgTally
)

// ClientMessage is one player action. For MsgAxis, Toggle flips the axis
// and otherwise Axis is selected.
type ClientMessage struct {
	Kind     MessageKind
	Row, Col int
	Color    Color
	Axis     Axis
	Toggle   bool
}
