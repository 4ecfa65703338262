// Package diffcursor moves a line cursor over one or more rendered diffs.
package diffcursor

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/idursun/jjreview/internal/cursor"
	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/rs/zerolog"
)

// ErrPathRequired is returned when a line is addressed without a path while
// several diffs are shown.
var ErrPathRequired = errors.New("a path is required when several diffs are shown")

// Row is a cursor stop showing one line pair of a diff.
type Row interface {
	cursor.Stop
	HasSide(side model.Side) bool
	LineNumber(side model.Side) model.LineNumber
	FirstOfChunk() bool
	HasThread() bool
	ChunkHeight() int
}

// Pane is a rendered diff of one file.
type Pane interface {
	Path() string
	// Stops are the rows of the pane, or a single abort stop while it is
	// still rendering.
	Stops() []cursor.Stop
	FindStop(line model.LineNumber, side model.Side) cursor.Stop
	SetCursorSide(side model.Side)
	Unified() bool
	HasSelection() bool
	CreateRangeComment() (tea.Cmd, error)
	CreateLineComment(side model.Side, line model.LineNumber) tea.Cmd
}

type initialLine struct {
	line model.LineNumber
	side model.Side
	path string
}

// Cursor tracks the targeted row and side over the stops of its panes.
type Cursor struct {
	log     zerolog.Logger
	manager *cursor.Manager
	panes   []Pane
	owners  map[cursor.Stop]Pane
	side    model.Side
	initial *initialLine

	preventAutoScroll bool
}

func New(viewport cursor.Viewport, log zerolog.Logger) *Cursor {
	return &Cursor{
		log:     log,
		manager: cursor.New(viewport),
		owners:  make(map[cursor.Stop]Pane),
		side:    model.Right,
	}
}

func (c *Cursor) Side() model.Side { return c.side }

func (c *Cursor) Manager() *cursor.Manager { return c.manager }

func (c *Cursor) Panes() []Pane { return c.panes }

// Target returns the targeted row or nil.
func (c *Cursor) Target() Row {
	row, _ := c.manager.Target().(Row)
	return row
}

// TargetPane returns the pane of the targeted row or nil.
func (c *Cursor) TargetPane() Pane {
	if t := c.manager.Target(); t != nil {
		return c.owners[t]
	}
	return nil
}

// SetInitialLine makes the next ReInitCursor target line instead of the
// first chunk.
func (c *Cursor) SetInitialLine(line model.LineNumber, side model.Side, path string) {
	c.initial = &initialLine{line: line, side: side, path: path}
}

// ReplacePanes sets the diffs the cursor moves over.
func (c *Cursor) ReplacePanes(panes ...Pane) {
	c.panes = panes
	c.UpdateStops()
}

// UpdateStops rebuilds the stop list from the panes, in order.
func (c *Cursor) UpdateStops() {
	clear(c.owners)
	var stops []cursor.Stop
	for _, p := range c.panes {
		for _, s := range p.Stops() {
			c.owners[s] = p
			stops = append(stops, s)
		}
	}
	c.manager.SetStops(stops)
	c.syncSide()
}

func (c *Cursor) syncSide() {
	for _, p := range c.panes {
		p.SetCursorSide(c.side)
	}
}

func (c *Cursor) unified() bool {
	if p := c.TargetPane(); p != nil {
		return p.Unified()
	}
	return len(c.panes) > 0 && c.panes[0].Unified()
}

func (c *Cursor) rowHasSide(s cursor.Stop) bool {
	row, ok := s.(Row)
	return ok && row.HasSide(c.side)
}

func (c *Cursor) isTargetBlank() bool {
	row := c.Target()
	if row == nil || c.unified() {
		return false
	}
	return !row.HasSide(c.side)
}

// fixSide flips the side when the new target has nothing on it.
func (c *Cursor) fixSide() {
	if c.isTargetBlank() {
		c.side = c.side.Opposite()
	}
	c.syncSide()
}

func (c *Cursor) MoveUp() cursor.MoveResult {
	if c.unified() {
		return c.manager.Previous(cursor.MoveOptions{})
	}
	return c.manager.Previous(cursor.MoveOptions{Filter: c.rowHasSide})
}

func (c *Cursor) MoveDown() cursor.MoveResult {
	if c.unified() {
		return c.manager.Next(cursor.MoveOptions{})
	}
	return c.manager.Next(cursor.MoveOptions{Filter: c.rowHasSide})
}

// MoveLeft switches to the left side, moving up to a row that has a left
// line when the current one does not.
func (c *Cursor) MoveLeft() {
	c.side = model.Left
	c.syncSide()
	if c.isTargetBlank() {
		c.MoveUp()
	}
}

func (c *Cursor) MoveRight() {
	c.side = model.Right
	c.syncSide()
	if c.isTargetBlank() {
		c.MoveUp()
	}
}

func isFirstOfChunk(s cursor.Stop) bool {
	row, ok := s.(Row)
	return ok && row.FirstOfChunk()
}

func chunkHeight(s cursor.Stop) int {
	if row, ok := s.(Row); ok {
		return row.ChunkHeight()
	}
	return s.Height()
}

func hasThread(s cursor.Stop) bool {
	row, ok := s.(Row)
	return ok && row.HasThread()
}

func (c *Cursor) MoveToNextChunk() cursor.MoveResult {
	result := c.manager.Next(cursor.MoveOptions{Filter: isFirstOfChunk, TargetHeight: chunkHeight})
	c.fixSide()
	return result
}

func (c *Cursor) MoveToPreviousChunk() cursor.MoveResult {
	result := c.manager.Previous(cursor.MoveOptions{Filter: isFirstOfChunk, TargetHeight: chunkHeight})
	c.fixSide()
	return result
}

func (c *Cursor) MoveToFirstChunk() {
	c.manager.MoveToStart()
	if row := c.Target(); row != nil && !row.FirstOfChunk() {
		c.MoveToNextChunk()
		return
	}
	c.fixSide()
}

func (c *Cursor) MoveToLastChunk() {
	c.manager.MoveToEnd()
	if row := c.Target(); row != nil && !row.FirstOfChunk() {
		c.MoveToPreviousChunk()
		return
	}
	c.fixSide()
}

func (c *Cursor) MoveToNextCommentThread() cursor.MoveResult {
	result := c.manager.Next(cursor.MoveOptions{Filter: hasThread})
	c.fixSide()
	return result
}

func (c *Cursor) MoveToPreviousCommentThread() cursor.MoveResult {
	result := c.manager.Previous(cursor.MoveOptions{Filter: hasThread})
	c.fixSide()
	return result
}

func (c *Cursor) findPane(path string) (Pane, error) {
	switch {
	case len(c.panes) == 0:
		return nil, nil
	case path == "" && len(c.panes) > 1:
		return nil, ErrPathRequired
	case path == "":
		return c.panes[0], nil
	}
	for _, p := range c.panes {
		if p.Path() == path {
			return p, nil
		}
	}
	return nil, nil
}

// MoveToLineNumber targets line on side and reports whether the line was
// found. path selects the diff and may be empty when there is only one.
func (c *Cursor) MoveToLineNumber(line model.LineNumber, side model.Side, path string) (bool, error) {
	pane, err := c.findPane(path)
	if err != nil || pane == nil {
		return false, err
	}
	stop := pane.FindStop(line, side)
	if stop == nil {
		return false, nil
	}
	c.side = side
	c.manager.SetCursor(stop, false)
	c.syncSide()
	return c.manager.Target() == stop, nil
}

// HandleLineSelected moves to a line whose number was clicked.
func (c *Cursor) HandleLineSelected(line model.LineNumber, side model.Side, path string) {
	if _, err := c.MoveToLineNumber(line, side, path); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("cannot select line")
	}
}

// Address returns the line the cursor is on, or nil when it is unset.
func (c *Cursor) Address() *model.Address {
	row := c.Target()
	if row == nil {
		return nil
	}
	side := c.side
	if c.unified() {
		side = model.Left
		if row.LineNumber(model.Right) != model.NoLine {
			side = model.Right
		}
	}
	line := row.LineNumber(side)
	if line == model.NoLine {
		return nil
	}
	return &model.Address{Side: side, Line: line}
}

// CreateCommentInPlace asks for a range comment when text is selected, a
// line comment on the targeted line otherwise, and does nothing when neither
// exists.
func (c *Cursor) CreateCommentInPlace() tea.Cmd {
	for _, p := range c.panes {
		if !p.HasSelection() {
			continue
		}
		cmd, err := p.CreateRangeComment()
		if err != nil {
			c.log.Warn().Err(err).Str("path", p.Path()).Msg("cannot create range comment")
			return nil
		}
		return cmd
	}
	addr := c.Address()
	pane := c.TargetPane()
	if addr == nil || pane == nil {
		return nil
	}
	return pane.CreateLineComment(addr.Side, addr.Line)
}

// ReInit forgets the target so the next ReInitCursor picks a new one.
func (c *Cursor) ReInit() {
	c.manager.UnsetCursor()
	c.side = model.Right
	c.syncSide()
}

// ReInitCursor rebuilds the stops and, when nothing is targeted, moves to
// the initial line or the first chunk without scrolling to it.
func (c *Cursor) ReInitCursor() {
	c.UpdateStops()
	if c.manager.Target() != nil {
		return
	}
	if initial := c.initial; initial != nil {
		previous := c.manager.ScrollMode
		c.manager.ScrollMode = cursor.KeepVisible
		found, err := c.MoveToLineNumber(initial.line, initial.side, initial.path)
		c.manager.ScrollMode = previous
		if err != nil {
			c.log.Warn().Err(err).Msg("cannot move to initial line")
		}
		if found {
			c.initial = nil
			return
		}
	}
	previous := c.manager.ScrollMode
	c.manager.ScrollMode = cursor.Never
	c.MoveToFirstChunk()
	c.manager.ScrollMode = previous
}

// HandleRenderStart is called when a pane starts rendering.
func (c *Cursor) HandleRenderStart() {
	c.preventAutoScroll = true
}

// HandleScroll is called on scrolling that is not caused by the cursor. The
// first scroll during a render stops the cursor from scrolling the view.
func (c *Cursor) HandleScroll() {
	if !c.preventAutoScroll {
		return
	}
	c.manager.ScrollMode = cursor.Never
	c.manager.FocusOnMove = false
	c.preventAutoScroll = false
}

// HandleRenderContent is called when a pane finished rendering.
func (c *Cursor) HandleRenderContent() {
	c.UpdateStops()
	c.manager.FocusOnMove = true
	c.preventAutoScroll = false
}

// ResetScrollMode lets keyboard driven moves scroll the view again.
func (c *Cursor) ResetScrollMode() {
	c.manager.ScrollMode = cursor.KeepVisible
}
