package cursor

// Stop is a navigable element. Implementations must be comparable (pointer
// types) because the manager finds stops by identity.
type Stop interface {
	// Top is the first rendered line of the stop in content coordinates.
	Top() int
	// Height is the number of rendered lines the stop occupies.
	Height() int
}

// Targetable stops are told when the cursor lands on or leaves them.
type Targetable interface {
	SetTargeted(targeted bool)
}

// Focusable stops receive focus when the cursor moves onto them and focus on
// move is enabled.
type Focusable interface {
	Focus()
}

// AbortStop marks a boundary the cursor may never cross, e.g. a pane that is
// still loading.
type AbortStop struct{}

func (*AbortStop) Top() int    { return 0 }
func (*AbortStop) Height() int { return 0 }

// IsAbort reports whether s is an abort sentinel.
func IsAbort(s Stop) bool {
	_, ok := s.(*AbortStop)
	return ok
}

// Viewport is the scrollable region the manager keeps targets visible in.
type Viewport interface {
	Offset() int
	Height() int
	SetOffset(offset int)
}
