// Package selection tracks what the user last pressed the mouse on and
// copies selected diff text.
package selection

import (
	"fmt"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/idursun/jjreview/internal/ui/diffview"
)

// Target is the part of the diff the mouse was last pressed on.
type Target int

const (
	None Target = iota
	Comment
	Blame
	Left
	Right
)

// Class is the state class set for the target; only one is set at a time.
func (t Target) Class() string {
	switch t {
	case Comment:
		return diffview.SelectedCommentClass
	case Blame:
		return diffview.SelectedBlameClass
	case Left:
		return diffview.SelectedLeftClass
	case Right:
		return diffview.SelectedRightClass
	default:
		return ""
	}
}

func targetForSide(side model.Side) Target {
	if side == model.Left {
		return Left
	}
	return Right
}

type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the clipboard of the operating system.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// Range is text selected in one pane.
type Range struct {
	Pane *diffview.Pane
	Text diffview.TextRange
}

// LineRange selects a whole line of a pane.
func LineRange(pane *diffview.Pane, side model.Side, line model.LineNumber) *Range {
	if pane == nil {
		return nil
	}
	text, ok := pane.LineText(side, line)
	if !ok {
		return nil
	}
	return &Range{
		Pane: pane,
		Text: diffview.TextRange{
			Side:  side,
			Start: diffview.Position{Line: line},
			End:   diffview.Position{Line: line, Char: utf8.RuneCountInString(text)},
		},
	}
}

type anchor struct {
	pane *diffview.Pane
	side model.Side
	pos  diffview.Position
}

type Selection struct {
	clipboard Clipboard
	target    Target
	pane      *diffview.Pane
	anchor    *anchor
}

func New(clipboard Clipboard) *Selection {
	if clipboard == nil {
		clipboard = SystemClipboard{}
	}
	return &Selection{clipboard: clipboard}
}

func (s *Selection) Target() Target { return s.target }

func (s *Selection) Class() string { return s.target.Class() }

// Selecting reports whether a text selection is being made or exists.
func (s *Selection) Selecting() bool {
	return s.anchor != nil || (s.pane != nil && s.pane.HasSelection())
}

// MouseDown records the target under the mouse and starts a text selection
// on content cells.
func (s *Selection) MouseDown(pane *diffview.Pane, hit diffview.Hit) {
	s.Clear()
	switch hit.Column {
	case diffview.ColumnThread:
		s.target = Comment
	case diffview.ColumnBlame:
		s.target = Blame
	case diffview.ColumnNumber, diffview.ColumnContent:
		s.target = targetForSide(hit.Side)
	default:
		s.target = None
	}
	if hit.Column != diffview.ColumnContent || hit.Row == nil {
		return
	}
	line := hit.Row.LineNumber(hit.Side)
	if !line.IsReal() {
		return
	}
	s.anchor = &anchor{pane: pane, side: hit.Side, pos: diffview.Position{Line: line, Char: hit.Char}}
}

// MouseDrag extends the selection started by MouseDown to hit. Drags onto
// another pane or side are ignored.
func (s *Selection) MouseDrag(pane *diffview.Pane, hit diffview.Hit) {
	a := s.anchor
	if a == nil || pane != a.pane || hit.Row == nil {
		return
	}
	line := hit.Row.LineNumber(a.side)
	if !line.IsReal() {
		return
	}
	char := hit.Char
	if hit.Column != diffview.ColumnContent || hit.Side != a.side {
		char = 0
	}
	r := diffview.NewTextRange(a.side, a.pos, diffview.Position{Line: line, Char: char})
	pane.SetSelection(&r)
	s.pane = pane
}

func (s *Selection) MouseUp() {
	s.anchor = nil
}

// Clear drops the text selection and the target.
func (s *Selection) Clear() {
	if s.pane != nil {
		s.pane.SetSelection(nil)
	}
	s.pane = nil
	s.anchor = nil
	s.target = None
}

// Scoped returns the text selected in a pane, if any.
func (s *Selection) Scoped() *Range {
	if s.pane == nil || !s.pane.HasSelection() {
		return nil
	}
	return &Range{Pane: s.pane, Text: *s.pane.Selection()}
}

// Copy puts the raw text of the selection on the clipboard. A text
// selection made in a pane wins over document, the selection of the
// surrounding view. Nothing is copied while a comment is the target.
func (s *Selection) Copy(document *Range) (string, error) {
	if s.target == Comment {
		return "", nil
	}
	r := s.Scoped()
	if r == nil {
		r = document
	}
	if r == nil || r.Pane == nil {
		return "", nil
	}
	text := r.Pane.Text(r.Text)
	if err := s.clipboard.WriteAll(text); err != nil {
		return "", fmt.Errorf("copy to clipboard: %w", err)
	}
	return text, nil
}
