package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/idursun/jjreview/internal/browser"
	"github.com/idursun/jjreview/internal/config"
	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/idursun/jjreview/internal/ui/common"
	"github.com/idursun/jjreview/internal/ui/diffcursor"
	"github.com/idursun/jjreview/internal/ui/diffview"
	"github.com/idursun/jjreview/internal/ui/filelist"
	"github.com/idursun/jjreview/internal/ui/flash"
	"github.com/idursun/jjreview/internal/ui/host"
	"github.com/idursun/jjreview/internal/ui/intents"
	"github.com/idursun/jjreview/internal/ui/selection"
	"github.com/rs/zerolog"
)

const headerHeight = 1

type focusArea int

const (
	focusDiff focusArea = iota
	focusFiles
)

// CommentStore keeps draft comments created in the diff.
type CommentStore interface {
	AddDraft(path string, side model.Side, line model.LineNumber, r *model.CommentRange) (model.Thread, error)
}

type Options struct {
	Log       zerolog.Logger
	Config    *config.Config
	Files     []filelist.File
	Providers host.Providers
	Comments  CommentStore
	// RemoteURL is the url of the remote blame commits link to.
	RemoteURL string
	OpenURL   func(url string) error
	Clipboard selection.Clipboard

	// InitialPath opens a file first; InitialLine puts the cursor on a line
	// of it once it rendered.
	InitialPath string
	InitialLine model.LineNumber
	InitialSide model.Side
}

type Model struct {
	log       zerolog.Logger
	config    *config.Config
	palette   *common.Palette
	bindings  []binding
	providers host.Providers
	comments  CommentStore
	remoteURL string
	openURL   func(url string) error

	files     *filelist.Model
	filter    textinput.Model
	filtering bool
	stack     *diffview.Stack
	hosts     []*host.Host
	cursor    *diffcursor.Cursor
	selection *selection.Selection
	flash     *flash.Model

	focus    focusArea
	width    int
	height   int
	dragging bool
	hovered  *diffview.Pane
}

func NewUI(opts Options) *Model {
	c := opts.Config
	if c == nil {
		c = config.Current
	}
	palette := common.NewPalette()
	palette.Update(c.UI.Colors)
	openURL := opts.OpenURL
	if openURL == nil {
		openURL = browser.Open
	}

	filter := textinput.New()
	filter.Prompt = "/"
	filter.Cursor.SetMode(cursor.CursorStatic)

	stack := diffview.NewStack()
	m := &Model{
		log:       opts.Log,
		config:    c,
		palette:   palette,
		bindings:  newBindings(c),
		providers: opts.Providers,
		comments:  opts.Comments,
		remoteURL: opts.RemoteURL,
		openURL:   openURL,
		files:     filelist.New(opts.Files, palette),
		filter:    filter,
		stack:     stack,
		cursor:    diffcursor.New(stack.Viewport(), opts.Log),
		selection: selection.New(opts.Clipboard),
		flash:     flash.New(palette, config.GetExpiringFlashMessageTimeout(c)),
	}
	if opts.InitialPath != "" {
		for i, e := range m.files.Files() {
			if e.Path == opts.InitialPath {
				m.files.SetSelectedIndex(i)
				break
			}
		}
		if opts.InitialLine != model.NoLine {
			m.cursor.SetInitialLine(opts.InitialLine, opts.InitialSide, opts.InitialPath)
		}
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	f := m.files.SelectedFile()
	if f == nil {
		return m.flash.Init()
	}
	return tea.Batch(m.flash.Init(), m.open(f.Path))
}

// open replaces the shown diff with the diff of path.
func (m *Model) open(path string) tea.Cmd {
	for _, h := range m.hosts {
		h.Close()
	}
	h := host.New(path, host.Options{
		Log:       m.log,
		Providers: m.providers,
		Prefs:     m.config.Diff,
		Pane:      diffview.Options{Palette: m.palette, UI: m.config.UI},
		Debounce:  config.GetReloadDebounce(m.config),
	})
	m.hosts = []*host.Host{h}
	m.hovered = nil
	m.dragging = false
	m.clearSelection()
	m.stack.SetPanes([]*diffview.Pane{h.Pane()})
	m.stack.Viewport().SetOffset(0)
	m.cursor.ReInit()
	m.cursor.ReplacePanes(h.Pane())
	m.layout()
	return h.Init()
}

func (m *Model) panes() []*diffview.Pane {
	return m.stack.Panes()
}

// activeHost is the host of the targeted row, or the first host.
func (m *Model) activeHost() *host.Host {
	if p, ok := m.cursor.TargetPane().(*diffview.Pane); ok {
		for _, h := range m.hosts {
			if h.Pane() == p {
				return h
			}
		}
	}
	if len(m.hosts) > 0 {
		return m.hosts[0]
	}
	return nil
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case intents.Intent:
		return m.handleIntent(msg)
	case filelist.FileSelectedMsg:
		m.focus = focusDiff
		return m.open(msg.Path)
	case diffview.LineSelectedMsg:
		m.cursor.ResetScrollMode()
		m.cursor.HandleLineSelected(msg.Line, msg.Side, msg.Path)
		return nil
	case diffview.CreateCommentMsg:
		return m.createComment(msg)
	}

	cmds := make([]tea.Cmd, 0, len(m.hosts)+2)
	for _, h := range m.hosts {
		cmds = append(cmds, h.Update(msg))
	}
	cmds = append(cmds, m.stack.Update(msg), m.flash.Update(msg))

	switch msg.(type) {
	case diffview.RenderStartMsg:
		m.cursor.HandleRenderStart()
		m.cursor.UpdateStops()
	case diffview.RenderedMsg:
		m.cursor.HandleRenderContent()
		m.cursor.ReInitCursor()
	case diffview.ChangedMsg:
		m.cursor.UpdateStops()
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.filtering {
		return m.updateFilter(msg)
	}
	scope := config.ScopeDiff
	if m.focus == focusFiles {
		scope = config.ScopeFiles
	}
	if intent, ok := match(m.bindings, msg, config.ScopeGlobal, scope); ok {
		return m.handleIntent(intent)
	}
	if msg.Type == tea.KeyEsc {
		return m.handleIntent(intents.DismissOldest{})
	}
	return nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m.files.OpenSelected()
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.files.SetFilter("")
		return nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.files.SetFilter(m.filter.Value())
	return cmd
}

func (m *Model) handleIntent(intent intents.Intent) tea.Cmd {
	switch intent := intent.(type) {
	case intents.Quit:
		return tea.Quit
	case intents.ToggleFocus:
		if m.focus == focusFiles || m.fileListWidth() == 0 {
			m.focus = focusDiff
		} else {
			m.focus = focusFiles
		}
		return nil
	case intents.AddMessage, intents.DismissOldest:
		return m.flash.Update(intent)
	case intents.FilesNavigate:
		if intent.Delta < 0 {
			m.files.MoveUp()
		} else {
			m.files.MoveDown()
		}
		return nil
	case intents.FilesOpen:
		return m.files.OpenSelected()
	case intents.FilesFilter:
		m.filtering = true
		m.focus = focusFiles
		return m.filter.Focus()
	}
	return m.handleDiffIntent(intent)
}

func (m *Model) handleDiffIntent(intent intents.Intent) tea.Cmd {
	switch intent := intent.(type) {
	case intents.CursorMove:
		m.moveCursor(intent.Kind)
	case intents.CreateComment:
		return m.cursor.CreateCommentInPlace()
	case intents.ExpandAll:
		var cmds []tea.Cmd
		for _, p := range m.panes() {
			cmds = append(cmds, p.ExpandAll())
		}
		m.stack.Layout()
		m.cursor.UpdateStops()
		return tea.Batch(cmds...)
	case intents.BypassLargeDiff:
		contextLines := config.LimitedContext
		if intent.Full {
			contextLines = config.FullContext
		}
		var cmds []tea.Cmd
		for _, p := range m.panes() {
			if p.TooLarge() {
				cmds = append(cmds, p.Bypass(contextLines))
			}
		}
		return tea.Batch(cmds...)
	case intents.LoadBlame:
		h := m.activeHost()
		if h == nil {
			return nil
		}
		if h.BlameLoaded() {
			h.ClearBlame()
			return nil
		}
		return h.LoadBlame()
	case intents.Copy:
		return m.copy()
	case intents.ToggleViewMode:
		return m.toggleViewMode()
	}
	return nil
}

func (m *Model) moveCursor(kind intents.CursorMoveKind) {
	m.cursor.ResetScrollMode()
	switch kind {
	case intents.CursorUp:
		m.cursor.MoveUp()
	case intents.CursorDown:
		m.cursor.MoveDown()
	case intents.CursorLeft:
		m.cursor.MoveLeft()
	case intents.CursorRight:
		m.cursor.MoveRight()
	case intents.CursorNextChunk:
		m.cursor.MoveToNextChunk()
	case intents.CursorPrevChunk:
		m.cursor.MoveToPreviousChunk()
	case intents.CursorFirstChunk:
		m.cursor.MoveToFirstChunk()
	case intents.CursorLastChunk:
		m.cursor.MoveToLastChunk()
	case intents.CursorNextThread:
		m.cursor.MoveToNextCommentThread()
	case intents.CursorPrevThread:
		m.cursor.MoveToPreviousCommentThread()
	}
}

// copy puts the selected text, or the line under the cursor, on the
// clipboard.
func (m *Model) copy() tea.Cmd {
	var document *selection.Range
	if addr := m.cursor.Address(); addr != nil {
		if p, ok := m.cursor.TargetPane().(*diffview.Pane); ok {
			document = selection.LineRange(p, addr.Side, addr.Line)
		}
	}
	text, err := m.selection.Copy(document)
	if err != nil {
		return intents.Invoke(intents.AddMessage{Err: err})
	}
	if text == "" {
		return nil
	}
	return intents.Invoke(intents.AddMessage{Text: fmt.Sprintf("Copied %d characters", utf8.RuneCountInString(text))})
}

// toggleViewMode switches between side by side and unified, keeping the
// cursor on its line.
func (m *Model) toggleViewMode() tea.Cmd {
	prefs := m.config.Diff
	if prefs.ViewMode == config.Unified {
		prefs.ViewMode = config.SideBySide
	} else {
		prefs.ViewMode = config.Unified
	}
	m.config.Diff = prefs
	if addr := m.cursor.Address(); addr != nil {
		if p := m.cursor.TargetPane(); p != nil {
			m.cursor.SetInitialLine(addr.Line, addr.Side, p.Path())
		}
	}
	m.cursor.ReInit()
	m.clearSelection()
	var cmds []tea.Cmd
	for _, h := range m.hosts {
		cmds = append(cmds, h.SetPrefs(prefs))
	}
	return tea.Batch(cmds...)
}

// clearSelection drops the selected text and the selection mode.
func (m *Model) clearSelection() {
	m.selection.Clear()
	m.setSelectionMode(nil)
}

// setSelectionMode gives pane the mode of the last press and clears it on
// the others.
func (m *Model) setSelectionMode(pane *diffview.Pane) {
	for _, p := range m.panes() {
		if p == pane {
			p.SetSelectionMode(m.selection.Class())
		} else {
			p.SetSelectionMode("")
		}
	}
}

func (m *Model) createComment(msg diffview.CreateCommentMsg) tea.Cmd {
	if m.comments == nil {
		return intents.Invoke(intents.AddMessage{Text: "Comments are not saved in this session."})
	}
	thread, err := m.comments.AddDraft(msg.Path, msg.Side, msg.Line, msg.Range)
	if err != nil {
		m.log.Error().Err(err).Str("path", msg.Path).Msg("saving draft failed")
		return intents.Invoke(intents.AddMessage{Err: err})
	}
	var cmd tea.Cmd
	if p := m.stack.Pane(msg.Path); p != nil {
		cmd = p.SetThreads(append(slices.Clone(p.Threads()), thread))
	}
	files := slices.Clone(m.files.Files())
	for i := range files {
		if files[i].Path == msg.Path {
			files[i].Comments++
		}
	}
	m.files.SetFiles(files)
	return tea.Batch(cmd, intents.Invoke(intents.AddMessage{
		Text: fmt.Sprintf("Draft comment added on %s line %s", msg.Side, msg.Line),
	}))
}

func (m *Model) fileListWidth() int {
	if m.files.FileCount() == 0 {
		return 0
	}
	return max(min(m.config.UI.FileListWidth, m.width/2), 0)
}

// diffLeft is the first column of the diff area.
func (m *Model) diffLeft() int {
	if w := m.fileListWidth(); w > 0 {
		return w + 1
	}
	return 0
}

func (m *Model) bodyHeight() int {
	return max(m.height-headerHeight, 0)
}

func (m *Model) layout() {
	m.files.SetSize(m.fileListWidth(), m.bodyHeight())
	m.stack.SetSize(max(m.width-m.diffLeft(), 0), m.bodyHeight())
	m.filter.Width = max(m.fileListWidth()-2, 1)
}

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	body := m.renderDiff()
	if w := m.fileListWidth(); w > 0 {
		border := m.palette.Get("border").Render(strings.TrimSuffix(strings.Repeat("│\n", m.bodyHeight()), "\n"))
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.files.View(), border, body)
	}
	view := m.renderHeader()
	if m.bodyHeight() > 0 {
		view += "\n" + body
	}
	return m.overlayFlash(view)
}

func (m *Model) renderDiff() string {
	width, height := max(m.width-m.diffLeft(), 0), m.bodyHeight()
	var message string
	switch h := m.activeHost(); {
	case h == nil:
		message = "No files to review."
	case h.ErrorMessage() != "":
		message = m.palette.Get("error").Render(h.ErrorMessage())
	default:
		return m.stack.View()
	}
	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, ansi.Truncate(message, width, ""))
}

func (m *Model) renderHeader() string {
	left := "jjreview"
	if h := m.activeHost(); h != nil {
		left = h.Path()
	}
	if m.filtering {
		left = m.filter.View()
	}
	totals := filelist.ComputeTotals(m.files.Files())
	right := fmt.Sprintf("+%d -%d", totals.Inserted, totals.Deleted)
	if addr := m.cursor.Address(); addr != nil {
		right = fmt.Sprintf("%s %s  %s", addr.Side, addr.Line, right)
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	line := ansi.Truncate(left+strings.Repeat(" ", gap)+right, m.width, "")
	return m.palette.Get("header").Render(line)
}

// overlayFlash draws the notices over the bottom lines of view.
func (m *Model) overlayFlash(view string) string {
	box := m.flash.View(m.width)
	if box == "" {
		return view
	}
	lines := strings.Split(view, "\n")
	boxLines := strings.Split(box, "\n")
	start := max(len(lines)-len(boxLines), 0)
	for i, line := range boxLines {
		if start+i < len(lines) {
			lines[start+i] = line
		}
	}
	return strings.Join(lines, "\n")
}

var _ tea.Model = (*wrapper)(nil)

type (
	frameTickMsg struct{}
	wrapper      struct {
		ui                 *Model
		scheduledNextFrame bool
		render             bool
		cachedFrame        string
	}
)

func (w *wrapper) Init() tea.Cmd {
	return w.ui.Init()
}

// Update redraws at most once per frame tick; a burst of render frames
// produces one View call.
func (w *wrapper) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(frameTickMsg); ok {
		w.render = true
		w.scheduledNextFrame = false
		return w, nil
	}
	cmd := w.ui.Update(msg)
	if !w.scheduledNextFrame {
		w.scheduledNextFrame = true
		return w, tea.Batch(cmd, tea.Tick(time.Millisecond*8, func(time.Time) tea.Msg {
			return frameTickMsg{}
		}))
	}
	return w, cmd
}

func (w *wrapper) View() string {
	if w.render {
		w.cachedFrame = w.ui.View()
		w.render = false
	}
	return w.cachedFrame
}

func New(opts Options) tea.Model {
	return &wrapper{ui: NewUI(opts)}
}
