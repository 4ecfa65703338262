// Package cursor implements a list-of-stops navigation primitive.
package cursor

// MoveResult is the outcome of Next and Previous.
type MoveResult int

const (
	NoStops MoveResult = iota
	Clipped
	Aborted
	Moved
)

func (r MoveResult) String() string {
	switch r {
	case NoStops:
		return "no-stops"
	case Clipped:
		return "clipped"
	case Aborted:
		return "aborted"
	case Moved:
		return "moved"
	default:
		return "unknown"
	}
}

// ScrollMode controls how the viewport follows the cursor.
type ScrollMode int

const (
	KeepVisible ScrollMode = iota
	Never
)

func (m ScrollMode) String() string {
	if m == Never {
		return "never"
	}
	return "keep-visible"
}

// MoveOptions tune a single Next or Previous call.
type MoveOptions struct {
	// Filter limits the reachable stops. Abort stops are never passed to it.
	Filter func(Stop) bool
	// Circular wraps around the ends of the list, skipping abort stops.
	Circular bool
	// TargetHeight overrides the height used to keep the new target visible.
	// It is only called when the cursor actually lands on a stop.
	TargetHeight func(Stop) int
}

// Manager tracks an index into an ordered list of stops.
type Manager struct {
	stops    []Stop
	index    int
	target   Stop
	viewport Viewport

	ScrollMode  ScrollMode
	FocusOnMove bool
}

func New(viewport Viewport) *Manager {
	return &Manager{
		index:      -1,
		viewport:   viewport,
		ScrollMode: KeepVisible,
	}
}

// Index returns the cursor position, -1 when unset.
func (m *Manager) Index() int {
	return m.index
}

// Target returns the targeted stop or nil.
func (m *Manager) Target() Stop {
	return m.target
}

func (m *Manager) Stops() []Stop {
	return m.stops
}

// SetViewport replaces the viewport used for keep-visible scrolling.
func (m *Manager) SetViewport(viewport Viewport) {
	m.viewport = viewport
}

// SetStops replaces the navigable list. The current target stays targeted if
// it is still present, otherwise the cursor is unset.
func (m *Manager) SetStops(stops []Stop) {
	m.stops = stops
	if m.target == nil {
		m.index = -1
		return
	}
	idx := m.indexOf(m.target)
	if idx == -1 {
		m.UnsetCursor()
		return
	}
	m.index = idx
}

// SetCursorAtIndex targets the stop at index. Out of range indices and abort
// stops leave the cursor unset.
func (m *Manager) SetCursorAtIndex(index int, suppressScroll bool) {
	m.setCursorAtIndex(index, suppressScroll, nil)
}

// SetCursor targets stop. A stop that is not in the list leaves the cursor
// unset.
func (m *Manager) SetCursor(stop Stop, suppressScroll bool) {
	m.setCursorAtIndex(m.indexOf(stop), suppressScroll, nil)
}

// UnsetCursor clears the target.
func (m *Manager) UnsetCursor() {
	if t, ok := m.target.(Targetable); ok {
		t.SetTargeted(false)
	}
	m.target = nil
	m.index = -1
}

func (m *Manager) Next(opts MoveOptions) MoveResult {
	return m.move(1, opts)
}

func (m *Manager) Previous(opts MoveOptions) MoveResult {
	return m.move(-1, opts)
}

// IsAtStart is true when the cursor is on the first stop or there are none.
func (m *Manager) IsAtStart() bool {
	return len(m.stops) == 0 || m.index == 0
}

// IsAtEnd is true when the cursor is on the last stop or there are none.
func (m *Manager) IsAtEnd() bool {
	return len(m.stops) == 0 || m.index == len(m.stops)-1
}

// MoveToStart targets the first stop; the cursor stays unset when it is an
// abort stop.
func (m *Manager) MoveToStart() {
	if len(m.stops) > 0 {
		m.SetCursorAtIndex(0, false)
	}
}

// MoveToEnd targets the last stop; the cursor stays unset when it is an
// abort stop.
func (m *Manager) MoveToEnd() {
	if len(m.stops) > 0 {
		m.SetCursorAtIndex(len(m.stops)-1, false)
	}
}

func (m *Manager) move(delta int, opts MoveOptions) MoveResult {
	count := len(m.stops)
	if count == 0 {
		m.UnsetCursor()
		return NoStops
	}

	newIndex := m.index
	if m.index == -1 && delta < 0 {
		newIndex = count
	}

	if opts.Circular {
		for step := 0; step < count; step++ {
			newIndex = ((newIndex+delta)%count + count) % count
			stop := m.stops[newIndex]
			if IsAbort(stop) || (opts.Filter != nil && !opts.Filter(stop)) {
				continue
			}
			if newIndex == m.index {
				return Clipped
			}
			m.setCursorAtIndex(newIndex, false, opts.TargetHeight)
			return Moved
		}
		return Clipped
	}

	clipped := false
	for {
		newIndex += delta
		if newIndex < 0 || newIndex >= count {
			newIndex = max(0, min(count-1, newIndex))
			clipped = true
			break
		}
		stop := m.stops[newIndex]
		if IsAbort(stop) || opts.Filter == nil || opts.Filter(stop) {
			break
		}
	}

	if newIndex == m.index {
		return Clipped
	}
	if IsAbort(m.stops[newIndex]) {
		return Aborted
	}
	m.setCursorAtIndex(newIndex, false, opts.TargetHeight)
	if clipped {
		return Clipped
	}
	return Moved
}

func (m *Manager) setCursorAtIndex(index int, suppressScroll bool, targetHeight func(Stop) int) {
	if index < 0 || index >= len(m.stops) || IsAbort(m.stops[index]) {
		m.UnsetCursor()
		return
	}
	stop := m.stops[index]
	if m.target != stop {
		if t, ok := m.target.(Targetable); ok {
			t.SetTargeted(false)
		}
	}
	m.index = index
	m.target = stop
	if t, ok := stop.(Targetable); ok {
		t.SetTargeted(true)
	}
	if m.FocusOnMove {
		if f, ok := stop.(Focusable); ok {
			f.Focus()
		}
	}
	if suppressScroll || m.ScrollMode == Never {
		return
	}
	height := stop.Height()
	if targetHeight != nil {
		height = targetHeight(stop)
	}
	m.scrollIntoView(stop.Top(), height)
}

// scrollIntoView applies the minimal offset change that makes [top,
// top+height) visible.
func (m *Manager) scrollIntoView(top, height int) {
	if m.viewport == nil || m.viewport.Height() <= 0 {
		return
	}
	offset := m.viewport.Offset()
	viewportHeight := m.viewport.Height()
	bottom := top + height
	if top < offset {
		m.viewport.SetOffset(top)
	} else if bottom > offset+viewportHeight {
		m.viewport.SetOffset(max(0, bottom-viewportHeight))
	}
}

func (m *Manager) indexOf(stop Stop) int {
	if stop == nil {
		return -1
	}
	for i, s := range m.stops {
		if s == stop {
			return i
		}
	}
	return -1
}
