package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/idursun/jjreview/internal/async"
	"github.com/idursun/jjreview/internal/config"
	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/idursun/jjreview/internal/ui/diffview"
	"github.com/idursun/jjreview/internal/ui/intents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiffs struct {
	mu    sync.Mutex
	diff  *model.Diff
	err   error
	calls []config.DiffPreferences
}

func (f *fakeDiffs) Diff(_ context.Context, _ string, prefs config.DiffPreferences) (*model.Diff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, prefs)
	return f.diff, f.err
}

func (f *fakeDiffs) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeThreads []model.Thread

func (f fakeThreads) Threads(context.Context, string) ([]model.Thread, error) {
	return f, nil
}

type fakeBlame struct {
	ranges []model.BlameRange
	err    error
}

func (f fakeBlame) Blame(context.Context, string) ([]model.BlameRange, error) {
	return f.ranges, f.err
}

type fakeCoverage struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeCoverage) Coverage(_ context.Context, path string) ([]model.CoverageRange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	return []model.CoverageRange{{Type: model.Covered, Side: model.Right, Start: 1, End: 2}}, nil
}

func testPrefs() config.DiffPreferences {
	return config.DiffPreferences{
		TabSize:                8,
		Context:                3,
		IgnoreWhitespace:       config.IgnoreNone,
		NumLinesRenderedAtOnce: 64,
		ViewMode:               config.SideBySide,
	}
}

func testDiff() *model.Diff {
	return &model.Diff{
		Path: "a.txt",
		Content: []model.Chunk{
			{AB: []string{"one", "two"}},
			{A: []string{"three"}, B: []string{"THREE", "four"}},
		},
	}
}

func newHost(providers Providers, prefs config.DiffPreferences) *Host {
	now := time.Unix(0, 0)
	return New("a.txt", Options{
		Providers: providers,
		Prefs:     prefs,
		Pane: diffview.Options{
			UI:  config.UIConfig{InitialRenderCount: 2, TargetFrameRate: 30},
			Now: func() time.Time { return now },
		},
	})
}

func drive(t *testing.T, h *Host, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var msgs []tea.Msg
	queue := []tea.Cmd{cmd}
	for i := 0; len(queue) > 0; i++ {
		require.Less(t, i, 100000, "commands did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if msg == nil {
			continue
		}
		msgs = append(msgs, msg)
		queue = append(queue, h.Update(msg), h.Pane().Update(msg))
	}
	return msgs
}

func notices(msgs []tea.Msg) []intents.AddMessage {
	var out []intents.AddMessage
	for _, msg := range msgs {
		if m, ok := msg.(intents.AddMessage); ok {
			out = append(out, m)
		}
	}
	return out
}

func TestReload_RendersDiffWithThreads(t *testing.T) {
	diffs := &fakeDiffs{diff: testDiff()}
	threads := fakeThreads{{Path: "a.txt", Side: model.Right, Line: 4, RootID: "t1"}}
	h := newHost(Providers{Diffs: diffs, Threads: threads}, testPrefs())

	msgs := drive(t, h, h.Init())

	assert.Contains(t, msgs, tea.Msg(diffview.RenderedMsg{Path: "a.txt"}))
	assert.False(t, h.Pane().Loading())
	assert.Empty(t, h.ErrorMessage())
	row := h.Pane().FindRow(4, model.Right)
	require.NotNil(t, row)
	assert.True(t, row.HasThread())
	assert.Equal(t, 1, diffs.callCount())
}

func TestReload_TooLargeIsANotice(t *testing.T) {
	diffs := &fakeDiffs{err: &model.StatusError{Status: http.StatusConflict, Text: "Conflict"}}
	h := newHost(Providers{Diffs: diffs}, testPrefs())

	got := notices(drive(t, h, h.Reload()))

	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, model.ErrFileTooLarge)
	assert.Empty(t, h.ErrorMessage())
}

func TestReload_StatusErrorIsShownInline(t *testing.T) {
	diffs := &fakeDiffs{err: &model.StatusError{Status: http.StatusInternalServerError, Text: "Internal Server Error"}}
	h := newHost(Providers{Diffs: diffs}, testPrefs())

	assert.Empty(t, notices(drive(t, h, h.Reload())))
	assert.Equal(t, "Encountered error when loading the diff: 500 Internal Server Error", h.ErrorMessage())
}

func TestReload_GenericError(t *testing.T) {
	h := newHost(Providers{Diffs: &fakeDiffs{err: errors.New("boom")}}, testPrefs())

	drive(t, h, h.Reload())
	assert.Equal(t, "Encountered error when loading the diff: loading diff of a.txt: boom", h.ErrorMessage())
}

func TestReload_InvalidDiff(t *testing.T) {
	invalid := &model.Diff{Path: "a.txt", Content: []model.Chunk{{AB: []string{"x"}, A: []string{"y"}}}}
	h := newHost(Providers{Diffs: &fakeDiffs{diff: invalid}}, testPrefs())

	drive(t, h, h.Reload())
	assert.Contains(t, h.ErrorMessage(), model.ErrInvalidChunk.Error())
}

func TestReload_NewerReloadSupersedesPending(t *testing.T) {
	diffs := &fakeDiffs{diff: testDiff()}
	h := newHost(Providers{Diffs: diffs}, testPrefs())

	first := h.Reload()
	second := h.Reload()

	assert.Nil(t, first(), "the superseded reload never fires")
	drive(t, h, second)
	assert.Equal(t, 1, diffs.callCount())
	assert.False(t, h.Pane().Loading())
}

func TestUpdate_IgnoresStaleAndCanceledLoads(t *testing.T) {
	h := newHost(Providers{Diffs: &fakeDiffs{diff: testDiff()}}, testPrefs())
	h.Reload()

	assert.Nil(t, h.Update(loadedMsg{hostID: h.id, generation: h.generation - 1, content: content{diff: testDiff()}}))
	assert.Nil(t, h.Pane().Diff())

	assert.Nil(t, h.Update(loadedMsg{hostID: h.id, generation: h.generation, err: async.ErrCanceled}))
	assert.Empty(t, h.ErrorMessage())

	assert.Nil(t, h.Update(loadedMsg{hostID: h.id + 1000, generation: h.generation, content: content{diff: testDiff()}}))
	assert.Nil(t, h.Pane().Diff())
}

func TestReload_SyntaxLimits(t *testing.T) {
	prefs := testPrefs()
	prefs.SyntaxHighlighting = true

	long := testDiff()
	long.Content[0].AB[0] = strings.Repeat("x", SyntaxMaxLineLength+1)
	h := newHost(Providers{Diffs: &fakeDiffs{diff: long}}, prefs)
	got := notices(drive(t, h, h.Reload()))
	require.Len(t, got, 1)
	assert.Equal(t, "Files with line longer than 500 characters will not be syntax highlighted.", got[0].Text)
	assert.False(t, h.Pane().SyntaxEnabled())

	many := &model.Diff{Path: "a.txt", Content: []model.Chunk{{AB: make([]string, CodeMaxLines+1)}}}
	h = newHost(Providers{Diffs: &fakeDiffs{diff: many}}, prefs)
	got = notices(drive(t, h, h.Reload()))
	require.Len(t, got, 1)
	assert.Equal(t, "Files with more than 20000 lines will not be syntax highlighted.", got[0].Text)

	h = newHost(Providers{Diffs: &fakeDiffs{diff: testDiff()}}, prefs)
	assert.Empty(t, notices(drive(t, h, h.Reload())))
	assert.True(t, h.Pane().SyntaxEnabled())
}

func TestLoadBlame(t *testing.T) {
	h := newHost(Providers{Diffs: &fakeDiffs{diff: testDiff()}}, testPrefs())
	assert.Equal(t, []intents.AddMessage{{Text: EmptyBlame}}, notices(drive(t, h, h.LoadBlame())))

	h = newHost(Providers{Diffs: &fakeDiffs{diff: testDiff()}, Blame: fakeBlame{}}, testPrefs())
	assert.Equal(t, []intents.AddMessage{{Text: EmptyBlame}}, notices(drive(t, h, h.LoadBlame())))
	assert.False(t, h.BlameLoaded())

	boom := errors.New("boom")
	h = newHost(Providers{Diffs: &fakeDiffs{diff: testDiff()}, Blame: fakeBlame{err: boom}}, testPrefs())
	got := notices(drive(t, h, h.LoadBlame()))
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, boom)

	ranges := []model.BlameRange{{Commit: "abc", Start: 1, End: 3}}
	h = newHost(Providers{Diffs: &fakeDiffs{diff: testDiff()}, Blame: fakeBlame{ranges: ranges}}, testPrefs())
	assert.Empty(t, notices(drive(t, h, h.LoadBlame())))
	assert.True(t, h.BlameLoaded())
	assert.Equal(t, ranges, h.Pane().Blame())

	h.ClearBlame()
	assert.False(t, h.BlameLoaded())
	assert.Empty(t, h.Pane().Blame())
}

func TestSetPrefs(t *testing.T) {
	diffs := &fakeDiffs{diff: testDiff()}
	h := newHost(Providers{Diffs: diffs}, testPrefs())
	drive(t, h, h.Reload())
	require.Equal(t, 1, diffs.callCount())

	rendering := testPrefs()
	rendering.TabSize = 4
	rendering.ViewMode = config.Unified
	drive(t, h, h.SetPrefs(rendering))
	assert.Equal(t, 1, diffs.callCount(), "rendering changes do not refetch")
	assert.True(t, h.Pane().Unified())

	whitespace := rendering
	whitespace.IgnoreWhitespace = config.IgnoreAll
	drive(t, h, h.SetPrefs(whitespace))
	require.Equal(t, 2, diffs.callCount())
	assert.Equal(t, config.IgnoreAll, diffs.calls[1].IgnoreWhitespace)

	h.NoRenderOnPrefsChange = true
	full := whitespace
	full.Context = config.FullContext
	assert.Nil(t, h.SetPrefs(full))
	assert.Equal(t, 2, diffs.callCount())
	assert.Equal(t, full, h.Prefs())
}

func TestSetPrefs_EnablingSyntaxChecksLimits(t *testing.T) {
	long := testDiff()
	long.Content[0].AB[0] = strings.Repeat("x", SyntaxMaxLineLength+1)
	h := newHost(Providers{Diffs: &fakeDiffs{diff: long}}, testPrefs())
	drive(t, h, h.Reload())

	prefs := testPrefs()
	prefs.SyntaxHighlighting = true
	got := notices(drive(t, h, h.SetPrefs(prefs)))
	require.Len(t, got, 1)
	assert.False(t, h.Pane().SyntaxEnabled())
}

func TestReload_LoadsCoverage(t *testing.T) {
	coverage := &fakeCoverage{}
	h := newHost(Providers{Diffs: &fakeDiffs{diff: testDiff()}, Coverage: coverage}, testPrefs())

	drive(t, h, h.Init())
	assert.Equal(t, []string{"a.txt"}, coverage.paths)
	row := h.Pane().FindRow(1, model.Right)
	require.NotNil(t, row)
	assert.Contains(t, fmt.Sprint(h.Pane().View()), "one")
}

func TestClose_CancelsPendingReload(t *testing.T) {
	diffs := &fakeDiffs{diff: testDiff()}
	h := newHost(Providers{Diffs: diffs}, testPrefs())
	cmd := h.Reload()
	h.Close()

	assert.Nil(t, cmd())
	assert.Zero(t, diffs.callCount())
}
