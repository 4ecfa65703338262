package ui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/idursun/jjreview/internal/config"
	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/idursun/jjreview/internal/ui/common"
	"github.com/idursun/jjreview/internal/ui/diffview"
	"github.com/idursun/jjreview/internal/ui/filelist"
	"github.com/idursun/jjreview/internal/ui/host"
	"github.com/idursun/jjreview/internal/ui/intents"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	common.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

type fakeDiffs map[string]*model.Diff

func (f fakeDiffs) Diff(_ context.Context, path string, _ config.DiffPreferences) (*model.Diff, error) {
	if d, ok := f[path]; ok {
		return d, nil
	}
	return nil, &model.StatusError{Status: 500, Text: "Internal Server Error"}
}

type fakeBlame []model.BlameRange

func (f fakeBlame) Blame(context.Context, string) ([]model.BlameRange, error) {
	return f, nil
}

type draft struct {
	path  string
	side  model.Side
	line  model.LineNumber
	rng   *model.CommentRange
	added model.Thread
}

type fakeComments struct {
	drafts []draft
	err    error
}

func (f *fakeComments) AddDraft(path string, side model.Side, line model.LineNumber, r *model.CommentRange) (model.Thread, error) {
	if f.err != nil {
		return model.Thread{}, f.err
	}
	t := model.Thread{Path: path, Side: side, Line: line, Range: r, RootID: "draft"}
	f.drafts = append(f.drafts, draft{path: path, side: side, line: line, rng: r, added: t})
	return t, nil
}

type fakeClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c, err := config.LoadDefault()
	require.NoError(t, err)
	c.Diff.SyntaxHighlighting = false
	c.UI.FlashMessageDisplaySeconds = 0
	c.UI.TokenHighlightDelayMs = 1
	c.UI.ReloadDebounceMs = 0
	return c
}

func testDiff(path string) *model.Diff {
	return &model.Diff{Path: path, Content: []model.Chunk{
		{AB: []string{"package a", ""}},
		{A: []string{"x := 1"}, B: []string{"x := 2", "y := 3"}},
		{AB: []string{"end"}},
	}}
}

func testFiles() []filelist.File {
	return []filelist.File{
		{Path: "a.go", LinesInserted: 2, LinesDeleted: 1},
		{Path: "b.go", LinesInserted: 2, LinesDeleted: 1},
	}
}

type fixture struct {
	model     *Model
	comments  *fakeComments
	clipboard *fakeClipboard
	opened    []string
}

func newFixture(t *testing.T, diffs fakeDiffs, mutate ...func(*Options)) *fixture {
	t.Helper()
	f := &fixture{comments: &fakeComments{}, clipboard: &fakeClipboard{}}
	opts := Options{
		Config:    testConfig(t),
		Files:     testFiles(),
		Providers: host.Providers{Diffs: diffs},
		Comments:  f.comments,
		Clipboard: f.clipboard,
		RemoteURL: "git@github.com:owner/repo.git",
		OpenURL: func(url string) error {
			f.opened = append(f.opened, url)
			return nil
		},
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	f.model = NewUI(opts)
	f.model.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	f.drive(t, f.model.Init())
	return f
}

// drive runs cmd and every command resulting from the messages it produces.
func (f *fixture) drive(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var msgs []tea.Msg
	queue := []tea.Cmd{cmd}
	for i := 0; len(queue) > 0; i++ {
		require.Less(t, i, 10000, "commands did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case tea.QuitMsg:
			msgs = append(msgs, msg)
			continue
		}
		msgs = append(msgs, msg)
		queue = append(queue, f.model.Update(msg))
	}
	return msgs
}

func (f *fixture) press(t *testing.T, keys ...string) []tea.Msg {
	t.Helper()
	var msgs []tea.Msg
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		msgs = append(msgs, f.drive(t, f.model.Update(msg))...)
	}
	return msgs
}

func (f *fixture) pane() *diffview.Pane {
	return f.model.activeHost().Pane()
}

func (f *fixture) address() model.Address {
	if addr := f.model.cursor.Address(); addr != nil {
		return *addr
	}
	return model.Address{}
}

// click presses and releases the left button over the first cell of row
// that hits column on side.
func (f *fixture) click(t *testing.T, row *diffview.Row, column diffview.Column, side model.Side) []tea.Msg {
	t.Helper()
	require.NotNil(t, row)
	m := f.model
	y := row.Top() - m.stack.Viewport().Offset()
	for x := 0; x < m.width-m.diffLeft(); x++ {
		_, hit, ok := m.stack.HitTest(x, y)
		if !ok || hit.Column != column || hit.Side != side {
			continue
		}
		at := tea.MouseMsg{X: m.diffLeft() + x, Y: headerHeight + y, Button: tea.MouseButtonLeft}
		at.Action = tea.MouseActionPress
		msgs := f.drive(t, m.Update(at))
		at.Action = tea.MouseActionRelease
		return append(msgs, f.drive(t, m.Update(at))...)
	}
	require.Failf(t, "no cell found", "column %d side %s", column, side)
	return nil
}

func notices(msgs []tea.Msg) []intents.AddMessage {
	var out []intents.AddMessage
	for _, msg := range msgs {
		if n, ok := msg.(intents.AddMessage); ok {
			out = append(out, n)
		}
	}
	return out
}

func TestNewBindings(t *testing.T) {
	bindings := newBindings(testConfig(t))

	tests := []struct {
		key   tea.KeyMsg
		scope string
		want  intents.Intent
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}, config.ScopeDiff, intents.CursorMove{Kind: intents.CursorDown}},
		{tea.KeyMsg{Type: tea.KeyDown}, config.ScopeDiff, intents.CursorMove{Kind: intents.CursorDown}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}, config.ScopeFiles, intents.FilesNavigate{Delta: 1}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("F")}, config.ScopeDiff, intents.BypassLargeDiff{Full: true}},
		{tea.KeyMsg{Type: tea.KeyTab}, config.ScopeFiles, intents.ToggleFocus{}},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, config.ScopeDiff, intents.Quit{}},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			got, ok := match(bindings, tt.key, config.ScopeGlobal, tt.scope)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := match(bindings, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")}, config.ScopeGlobal, config.ScopeDiff)
	assert.False(t, ok, "file list bindings are not active in the diff")
}

func TestModel_OpensFirstFileOnFirstChunk(t *testing.T) {
	f := newFixture(t, fakeDiffs{"a.go": testDiff("a.go"), "b.go": testDiff("b.go")})

	assert.Equal(t, "a.go", f.model.activeHost().Path())
	assert.False(t, f.pane().Loading())
	assert.Equal(t, model.Address{Side: model.Right, Line: 3}, f.address())
}

func TestModel_InitialLine(t *testing.T) {
	f := newFixture(t, fakeDiffs{"a.go": testDiff("a.go"), "b.go": testDiff("b.go")}, func(o *Options) {
		o.InitialPath = "b.go"
		o.InitialLine = 5
		o.InitialSide = model.Right
	})

	assert.Equal(t, "b.go", f.model.activeHost().Path())
	assert.Equal(t, model.Address{Side: model.Right, Line: 5}, f.address())
}

func TestModel_KeyboardNavigation(t *testing.T) {
	f := newFixture(t, fakeDiffs{"a.go": testDiff("a.go")})

	f.press(t, "j")
	assert.Equal(t, model.Address{Side: model.Right, Line: 4}, f.address())

	f.press(t, "h")
	assert.Equal(t, model.Address{Side: model.Left, Line: 3}, f.address(), "the added line has no base side")

	f.press(t, "k")
	assert.Equal(t, model.Address{Side: model.Left, Line: 2}, f.address())
}

func TestModel_ToggleViewKeepsCursorLine(t *testing.T) {
	f := newFixture(t, fakeDiffs{"a.go": testDiff("a.go")})
	f.press(t, "j")

	f.press(t, "v")
	assert.True(t, f.pane().Unified())
	assert.Equal(t, model.Address{Side: model.Right, Line: 4}, f.address())

	f.press(t, "v")
	assert.False(t, f.pane().Unified())
	assert.Equal(t, model.Address{Side: model.Right, Line: 4}, f.address())
}

func TestModel_CopyCursorLine(t *testing.T) {
	f := newFixture(t, fakeDiffs{"a.go": testDiff("a.go")})

	got := notices(f.press(t, "y"))
	assert.Equal(t, "x := 2", f.clipboard.text)
	require.Len(t, got, 1)
	assert.Equal(t, "Copied 6 characters", got[0].Text)
	assert.True(t, f.model.flash.Any())

	f.press(t, "esc")
	assert.False(t, f.model.flash.Any())
}

func TestModel_CreateComment(t *testing.T) {
	f := newFixture(t, fakeDiffs{"a.go": testDiff("a.go")})

	f.press(t, "c")
	require.Len(t, f.comments.drafts, 1)
	d := f.comments.drafts[0]
	assert.Equal(t, "a.go", d.path)
	assert.Equal(t, model.Right, d.side)
	assert.Equal(t, model.LineNumber(3), d.line)
	assert.Nil(t, d.rng)

	assert.Equal(t, []model.Thread{d.added}, f.pane().Threads())
	assert.True(t, f.pane().FindRow(3, model.Right).HasThread())
	assert.Equal(t, 1, f.model.files.Files()[0].Comments)
}

func TestModel_CreateCommentFailure(t *testing.T) {
	f := newFixture(t, fakeDiffs{"a.go": testDiff("a.go")})
	boom := errors.New("read-only")
	f.comments.err = boom

	got := notices(f.press(t, "c"))
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, boom)
	assert.Empty(t, f.pane().Threads())
}

func TestModel_ClickLineNumberMovesCursor(t *testing.T) {
	f := newFixture(t, fakeDiffs{"a.go": testDiff("a.go")})

	f.click(t, f.pane().FindRow(5, model.Right), diffview.ColumnNumber, model.Right)
	assert.Equal(t, model.Address{Side: model.Right, Line: 5}, f.address())

	f.click(t, f.pane().FindRow(1, model.Left), diffview.ColumnNumber, model.Left)
	assert.Equal(t, model.Address{Side: model.Left, Line: 1}, f.address())
	assert.Equal(t, diffview.SelectedLeftClass, f.pane().SelectionMode())
}

func TestModel_ClickOutsideTokenClearsHighlight(t *testing.T) {
	f := newFixture(t, fakeDiffs{"a.go": testDiff("a.go")})
	m := f.model
	row := f.pane().FindRow(3, model.Right)
	y := row.Top() - m.stack.Viewport().Offset()

	x := -1
	for i := 0; i < m.width-m.diffLeft(); i++ {
		_, hit, ok := m.stack.HitTest(i, y)
		if ok && hit.Column == diffview.ColumnContent && hit.Side == model.Right {
			x = i
			break
		}
	}
	require.GreaterOrEqual(t, x, 0)

	hover := tea.MouseMsg{X: m.diffLeft() + x, Y: headerHeight + y, Action: tea.MouseActionMotion, Button: tea.MouseButtonNone}
	f.drive(t, m.Update(hover))
	require.Equal(t, "x", f.pane().Token().Highlighted())

	f.click(t, row, diffview.ColumnNumber, model.Right)
	assert.Equal(t, "", f.pane().Token().Highlighted())
	assert.Equal(t, diffview.SelectedRightClass, f.pane().SelectionMode())
}

func TestModel_DragSelectsAndCopies(t *testing.T) {
	f := newFixture(t, fakeDiffs{"a.go": testDiff("a.go")})
	m := f.model
	row := f.pane().FindRow(3, model.Right)
	y := headerHeight + row.Top() - m.stack.Viewport().Offset()

	var start int
	for x := 0; x < m.width; x++ {
		_, hit, ok := m.stack.HitTest(x, y-headerHeight)
		if ok && hit.Column == diffview.ColumnContent && hit.Side == model.Right {
			start = x
			break
		}
	}
	require.NotZero(t, start)

	m.Update(tea.MouseMsg{X: m.diffLeft() + start, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m.Update(tea.MouseMsg{X: m.diffLeft() + start + 1, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	m.Update(tea.MouseMsg{X: m.diffLeft() + start + 1, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	require.True(t, f.pane().HasSelection())

	f.press(t, "y")
	assert.Equal(t, "x", f.clipboard.text)
}

func TestModel_ClickFileOpensIt(t *testing.T) {
	f := newFixture(t, fakeDiffs{"a.go": testDiff("a.go"), "b.go": testDiff("b.go")})

	f.drive(t, f.model.Update(tea.MouseMsg{X: 1, Y: headerHeight + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}))
	assert.Equal(t, "b.go", f.model.activeHost().Path())
	assert.False(t, f.pane().Loading())
	assert.Equal(t, model.Address{Side: model.Right, Line: 3}, f.address())
}

func TestModel_FilterFiles(t *testing.T) {
	f := newFixture(t, fakeDiffs{"a.go": testDiff("a.go"), "b.go": testDiff("b.go")})

	f.press(t, "tab", "/", "b")
	assert.True(t, f.model.filtering)
	assert.Equal(t, "b", f.model.files.Filter())

	f.press(t, "enter")
	assert.False(t, f.model.filtering)
	assert.Equal(t, "b.go", f.model.activeHost().Path())
	assert.Equal(t, focusDiff, f.model.focus)
}

func TestModel_BlameOpensCommitLink(t *testing.T) {
	blame := fakeBlame{{Commit: "abc123", Author: "someone", Start: 1, End: 4}}
	f := newFixture(t, fakeDiffs{"a.go": testDiff("a.go")}, func(o *Options) {
		o.Providers.Blame = blame
	})

	f.press(t, "b")
	require.True(t, f.model.activeHost().BlameLoaded())

	f.click(t, f.pane().FindRow(3, model.Left), diffview.ColumnBlame, model.Left)
	assert.Equal(t, []string{"https://github.com/owner/repo/commit/abc123"}, f.opened)

	f.press(t, "b")
	assert.False(t, f.model.activeHost().BlameLoaded(), "blame toggles off")
}

func TestModel_LoadErrorIsShownInPlaceOfTheDiff(t *testing.T) {
	f := newFixture(t, fakeDiffs{})

	assert.Equal(t, "Encountered error when loading the diff: 500 Internal Server Error", f.model.activeHost().ErrorMessage())
	assert.Contains(t, f.model.View(), "Encountered error when loading the diff")
}

func TestModel_View(t *testing.T) {
	f := newFixture(t, fakeDiffs{"a.go": testDiff("a.go"), "b.go": testDiff("b.go")})

	view := f.model.View()
	lines := bytes.Split([]byte(view), []byte("\n"))
	require.Len(t, lines, 20)
	assert.Contains(t, string(lines[0]), "a.go")
	assert.Contains(t, string(lines[0]), "+4 -2")
	assert.Contains(t, view, "b.go")
	assert.Contains(t, view, "x := 2")
}

func TestModel_WheelScrollStopsAutoScroll(t *testing.T) {
	long := &model.Diff{Path: "a.go", Content: []model.Chunk{{A: make([]string, 60), B: make([]string, 60)}}}
	f := newFixture(t, fakeDiffs{"a.go": long, "b.go": testDiff("b.go")})
	m := f.model

	m.Update(tea.MouseMsg{X: m.diffLeft() + 1, Y: 5, Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	assert.Equal(t, wheelStep, m.stack.Viewport().Offset())

	m.Update(tea.MouseMsg{X: m.diffLeft() + 1, Y: 5, Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	assert.Zero(t, m.stack.Viewport().Offset())
}

func TestProgram_RendersAndQuits(t *testing.T) {
	c := testConfig(t)
	tm := teatest.NewTestModel(t, New(Options{
		Config:    c,
		Files:     testFiles(),
		Providers: host.Providers{Diffs: fakeDiffs{"a.go": testDiff("a.go"), "b.go": testDiff("b.go")}},
		Clipboard: &fakeClipboard{},
	}), teatest.WithInitialTermSize(100, 20))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("x := 2"))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
}
