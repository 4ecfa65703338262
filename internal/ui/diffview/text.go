package diffview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/idursun/jjreview/internal/diff/layer"
	"github.com/idursun/jjreview/internal/diff/model"
)

const SelectedClass = "selected"

// Selection modes: the part of the diff the mouse was last pressed on.
const (
	SelectedLeftClass    = "selected-left"
	SelectedRightClass   = "selected-right"
	SelectedCommentClass = "selected-comment"
	SelectedBlameClass   = "selected-blame"
)

// SideSelectionClass is the selection mode of side.
func SideSelectionClass(side model.Side) string {
	if side == model.Left {
		return SelectedLeftClass
	}
	return SelectedRightClass
}

// Position is a character of a line on one side.
type Position struct {
	Line model.LineNumber
	Char int
}

func (a Position) before(b Position) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Char < b.Char)
}

// TextRange is a selection of characters on one side, end exclusive.
type TextRange struct {
	Side  model.Side
	Start Position
	End   Position
}

// NewTextRange orders the two ends of a selection.
func NewTextRange(side model.Side, a, b Position) TextRange {
	if b.before(a) {
		a, b = b, a
	}
	return TextRange{Side: side, Start: a, End: b}
}

func (r TextRange) Empty() bool {
	return r.Start == r.End
}

// CommentRange converts the selection to the range of a comment.
func (r TextRange) CommentRange() model.CommentRange {
	return model.CommentRange{
		StartLine:      int(r.Start.Line),
		StartCharacter: r.Start.Char,
		EndLine:        int(r.End.Line),
		EndCharacter:   r.End.Char,
	}
}

// Text reconstructs the raw text of r from the diff content, ignoring how the
// lines are rendered.
func (p *Pane) Text(r TextRange) string {
	var lines []string
	for n := r.Start.Line; n <= r.End.Line; n++ {
		text, ok := p.LineText(r.Side, n)
		if !ok {
			continue
		}
		runes := []rune(text)
		start, end := 0, len(runes)
		if n == r.Start.Line {
			start = min(r.Start.Char, len(runes))
		}
		if n == r.End.Line {
			end = min(r.End.Char, len(runes))
		}
		if start > end {
			start = end
		}
		lines = append(lines, string(runes[start:end]))
	}
	return strings.Join(lines, "\n")
}

// SetSelection replaces the selected text range; nil clears it.
func (p *Pane) SetSelection(r *TextRange) {
	previous := p.selection
	if r != nil && r.Empty() {
		r = nil
	}
	p.selection = r
	for _, sel := range []*TextRange{previous, r} {
		if sel != nil {
			p.onLayerNotify(sel.Start.Line, sel.End.Line, sel.Side)
		}
	}
}

func (p *Pane) Selection() *TextRange { return p.selection }

// SetSelectionMode sets the selection mode class; the column it names is
// drawn with it. An empty class clears the mode.
func (p *Pane) SetSelectionMode(class string) { p.selectionMode = class }

func (p *Pane) SelectionMode() string { return p.selectionMode }

// modeClasses appends the selection mode to classes when it is class.
func (p *Pane) modeClasses(class string, classes ...string) []string {
	if p.selectionMode != "" && p.selectionMode == class {
		return append(classes, class)
	}
	return classes
}

func (p *Pane) HasSelection() bool { return p.selection != nil }

type selectionLayer struct {
	pane *Pane
}

func (selectionLayer) Name() string { return "selection" }

// Annotate marks the selected characters.
func (s selectionLayer) Annotate(el *layer.Element, line model.Line, side model.Side) {
	sel := s.pane.selection
	if sel == nil || sel.Side != side {
		return
	}
	n := line.Number(side)
	if n < sel.Start.Line || n > sel.End.Line {
		return
	}
	start, end := 0, layer.ToEnd
	if n == sel.Start.Line {
		start = sel.Start.Char
	}
	if n == sel.End.Line {
		end = sel.End.Char
	}
	el.AddSpan(start, end, SelectedClass)
}

// CreateRangeComment asks for a draft comment on the selected range, placed
// on the last selected line.
func (p *Pane) CreateRangeComment() (tea.Cmd, error) {
	if p.selection == nil {
		return nil, ErrNoSelection
	}
	sel := *p.selection
	rng := sel.CommentRange()
	msg := CreateCommentMsg{Path: p.path, Side: sel.Side, Line: sel.End.Line, Range: &rng}
	p.SetSelection(nil)
	return func() tea.Msg { return msg }, nil
}

// CreateLineComment asks for a draft comment on a line.
func (p *Pane) CreateLineComment(side model.Side, line model.LineNumber) tea.Cmd {
	msg := CreateCommentMsg{Path: p.path, Side: side, Line: line}
	return func() tea.Msg { return msg }
}
