package diffview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Viewport is the visible window over the stacked panes.
type Viewport struct {
	offset  int
	height  int
	content func() int
}

func (v *Viewport) Offset() int { return v.offset }

func (v *Viewport) Height() int { return v.height }

func (v *Viewport) SetHeight(height int) {
	v.height = max(height, 0)
	v.SetOffset(v.offset)
}

// SetOffset scrolls to offset, clamped to the content.
func (v *Viewport) SetOffset(offset int) {
	limit := 0
	if v.content != nil {
		limit = max(v.content()-v.height, 0)
	}
	v.offset = max(0, min(offset, limit))
}

// ScrollBy moves the viewport and reports whether it moved.
func (v *Viewport) ScrollBy(delta int) bool {
	before := v.offset
	v.SetOffset(v.offset + delta)
	return v.offset != before
}

// Stack shows panes one below the other in a shared viewport.
type Stack struct {
	panes    []*Pane
	viewport *Viewport
	width    int
}

func NewStack() *Stack {
	s := &Stack{}
	s.viewport = &Viewport{content: s.ContentHeight}
	return s
}

func (s *Stack) Viewport() *Viewport { return s.viewport }

func (s *Stack) Panes() []*Pane { return s.panes }

// SetPanes replaces the panes; panes that are not kept are closed.
func (s *Stack) SetPanes(panes []*Pane) {
	keep := make(map[*Pane]bool, len(panes))
	for _, p := range panes {
		keep[p] = true
	}
	for _, p := range s.panes {
		if !keep[p] {
			p.Close()
		}
	}
	s.panes = panes
	for _, p := range s.panes {
		p.SetWidth(s.width)
	}
	s.Layout()
	s.viewport.SetOffset(s.viewport.offset)
}

func (s *Stack) Pane(path string) *Pane {
	for _, p := range s.panes {
		if p.Path() == path {
			return p
		}
	}
	return nil
}

func (s *Stack) SetSize(width, height int) {
	s.width = width
	for _, p := range s.panes {
		p.SetWidth(width)
	}
	s.viewport.SetHeight(height)
}

// Layout places the panes one after the other.
func (s *Stack) Layout() {
	offset := 0
	for _, p := range s.panes {
		p.SetOffset(offset)
		offset += p.Height()
	}
}

func (s *Stack) ContentHeight() int {
	total := 0
	for _, p := range s.panes {
		total += p.Height()
	}
	return total
}

// Update forwards msg to every pane and re-lays them out.
func (s *Stack) Update(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for _, p := range s.panes {
		cmds = append(cmds, p.Update(msg))
	}
	s.Layout()
	return tea.Batch(cmds...)
}

// HitTest resolves a position relative to the top of the viewport.
func (s *Stack) HitTest(x, y int) (*Pane, Hit, bool) {
	y += s.viewport.offset
	for _, p := range s.panes {
		if y >= p.Offset() && y < p.Offset()+p.Height() {
			hit, ok := p.HitTest(x, y-p.Offset())
			return p, hit, ok
		}
	}
	return nil, Hit{}, false
}

func (s *Stack) View() string {
	from := s.viewport.offset
	to := from + s.viewport.height
	lines := make([]string, 0, s.viewport.height)
	for _, p := range s.panes {
		top, bottom := p.Offset(), p.Offset()+p.Height()
		if bottom <= from || top >= to {
			continue
		}
		lines = append(lines, p.Lines(max(from, top)-top, min(to, bottom)-top)...)
	}
	for len(lines) < s.viewport.height {
		lines = append(lines, strings.Repeat(" ", s.width))
	}
	return strings.Join(lines, "\n")
}
