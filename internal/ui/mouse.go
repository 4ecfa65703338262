package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/idursun/jjreview/internal/git"
	"github.com/idursun/jjreview/internal/ui/diffview"
	"github.com/idursun/jjreview/internal/ui/intents"
)

const wheelStep = 3

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Y < headerHeight {
		return nil
	}
	y := msg.Y - headerHeight
	if msg.X < m.fileListWidth() {
		return m.handleFilesMouse(msg, y)
	}
	if msg.X < m.diffLeft() {
		return nil
	}
	return m.handleDiffMouse(msg, msg.X-m.diffLeft(), y)
}

func (m *Model) handleFilesMouse(msg tea.MouseMsg, y int) tea.Cmd {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.files.MoveUp()
	case msg.Button == tea.MouseButtonWheelDown:
		m.files.MoveDown()
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.focus = focusFiles
		if i := m.files.EntryAt(y); i >= 0 {
			return m.files.Open(i)
		}
	}
	return nil
}

func (m *Model) handleDiffMouse(msg tea.MouseMsg, x, y int) tea.Cmd {
	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		delta := wheelStep
		if msg.Button == tea.MouseButtonWheelUp {
			delta = -delta
		}
		if m.stack.Viewport().ScrollBy(delta) {
			m.cursor.HandleScroll()
		}
		return nil
	}

	pane, hit, ok := m.stack.HitTest(x, y)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !ok {
			return nil
		}
		m.focus = focusDiff
		return m.press(pane, hit)
	case tea.MouseActionMotion:
		if m.dragging {
			if ok {
				m.selection.MouseDrag(pane, hit)
			}
			return nil
		}
		return m.hover(pane, hit, ok)
	case tea.MouseActionRelease:
		m.dragging = false
		m.selection.MouseUp()
	}
	return nil
}

func (m *Model) press(pane *diffview.Pane, hit diffview.Hit) tea.Cmd {
	selecting := m.selection.Selecting()
	m.selection.MouseDown(pane, hit)
	m.setSelectionMode(pane)
	m.dragging = hit.Column == diffview.ColumnContent
	m.clickToken(pane, hit, selecting)
	if hit.Row == nil {
		return nil
	}
	switch hit.Column {
	case diffview.ColumnControl:
		if hit.Row.Kind == diffview.ContextControlRow {
			return pane.ExpandContext(hit.Row)
		}
	case diffview.ColumnNumber:
		line := hit.Row.LineNumber(hit.Side)
		if !line.IsReal() {
			return nil
		}
		msg := diffview.LineSelectedMsg{Line: line, Side: hit.Side, Path: pane.Path()}
		return func() tea.Msg { return msg }
	case diffview.ColumnBlame:
		return m.openBlame(pane, hit.Row)
	}
	return nil
}

// clickToken lets the token layer see every press in the diff; presses that
// are not on a token clear the highlight.
func (m *Model) clickToken(pane *diffview.Pane, hit diffview.Hit, selecting bool) {
	if hit.Column == diffview.ColumnContent && hit.Row != nil {
		if line := hit.Row.LineNumber(hit.Side); line.IsReal() {
			pane.Token().Click(hit.Side, line, hit.Char, selecting)
			return
		}
	}
	pane.Token().ClickOutside(selecting)
}

func (m *Model) hover(pane *diffview.Pane, hit diffview.Hit, ok bool) tea.Cmd {
	if m.hovered != nil {
		m.hovered.Token().MouseOut()
		m.hovered = nil
	}
	if !ok || hit.Column != diffview.ColumnContent || hit.Row == nil {
		return nil
	}
	line := hit.Row.LineNumber(hit.Side)
	if !line.IsReal() {
		return nil
	}
	m.hovered = pane
	return pane.Token().Hover(hit.Side, line, hit.Char)
}

// openBlame opens the weblink of the commit blamed for the base line of row.
func (m *Model) openBlame(pane *diffview.Pane, row *diffview.Row) tea.Cmd {
	b, found := pane.BlameAt(row.LineNumber(model.Left))
	if !found {
		return nil
	}
	url := git.CommitURL(m.remoteURL, b.Commit)
	if url == "" {
		return intents.Invoke(intents.AddMessage{Text: "No weblink for commit " + b.Commit})
	}
	open := m.openURL
	return func() tea.Msg {
		if err := open(url); err != nil {
			return intents.AddMessage{Err: err}
		}
		return nil
	}
}
