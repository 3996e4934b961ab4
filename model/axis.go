package model

import "sync"

// AxisSelector holds the single active movement axis. It never looks at a
// board.
type AxisSelector struct {
	mu   sync.Mutex
	axis Axis
}

func (s *AxisSelector) Get() Axis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.axis
}

func (s *AxisSelector) Set(a Axis) {
	s.mu.Lock()
	s.axis = a
	s.mu.Unlock()
}

// Toggle flips Horizontal and Vertical and returns the new axis.
func (s *AxisSelector) Toggle() Axis {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.axis = s.axis.Toggle()
	return s.axis
}

var defaultAxis AxisSelector

// Default is the process-wide selector used by SetAxis and GetAxis.
func Default() *AxisSelector {
	return &defaultAxis
}

func SetAxis(a Axis) {
	defaultAxis.Set(a)
}

func GetAxis() Axis {
	return defaultAxis.Get()
}
