package diffview

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/idursun/jjreview/internal/config"
	"github.com/idursun/jjreview/internal/cursor"
	"github.com/idursun/jjreview/internal/diff/layer"
	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/idursun/jjreview/internal/diff/processor"
	"github.com/idursun/jjreview/internal/ui/common"
	"github.com/idursun/jjreview/internal/ui/incremental"
	"github.com/rs/zerolog"
)

var ErrNoSelection = errors.New("no text selected")

// LargeDiffLines is the diff length from which whole file context is not
// rendered without an explicit bypass.
const LargeDiffLines = 10000

var paneIDs atomic.Int64

// RenderStartMsg is sent when a pane starts laying out its rows.
type RenderStartMsg struct {
	Path   string
	paneID int64
}

// RenderedMsg is sent when every row of a pane has been rendered.
type RenderedMsg struct {
	Path string
}

// ChangedMsg is sent when the rows of a rendered pane changed, e.g. after
// context was expanded or threads were placed.
type ChangedMsg struct {
	Path string
}

// LineSelectedMsg is sent when a line number is clicked.
type LineSelectedMsg struct {
	Line model.LineNumber
	Side model.Side
	Path string
}

// CreateCommentMsg asks for a draft comment at a line or range.
type CreateCommentMsg struct {
	Path  string
	Side  model.Side
	Line  model.LineNumber
	Range *model.CommentRange
}

type layersReadyMsg struct {
	paneID int64
}

type Options struct {
	Log      zerolog.Logger
	Palette  *common.Palette
	Prefs    config.DiffPreferences
	Registry *layer.Registry
	UI       config.UIConfig
	// Now replaces time.Now for the render scheduler in tests.
	Now func() time.Time
}

// Pane renders one file diff.
type Pane struct {
	id       int64
	log      zerolog.Logger
	palette  *common.Palette
	prefs    config.DiffPreferences
	registry *layer.Registry

	path    string
	diff    *model.Diff
	threads []model.Thread
	blame   []model.BlameRange
	texts   [2][]string
	known   [2][]bool

	groups    []processor.Group
	rows      []*Row
	lineIndex [2]map[model.LineNumber]*Row
	rendered  int
	repeat    *incremental.Repeat[*Row, *Row]
	pending   tea.Cmd
	loading   bool
	tooLarge  bool
	bypass    *int
	abort     *cursor.AbortStop

	token      *layer.TokenLayer
	syntax     *layer.SyntaxLayer
	ranges     *layer.RangesLayer
	whitespace *layer.WhitespaceLayer
	intraline  layer.IntralineLayer
	extra      []layer.Layer
	listeners  map[layer.Notifier]layer.ListenerID

	width      int
	offset     int
	cursorSide model.Side
	selection  *TextRange
	// selectionMode is one of the Selected*Class modes or empty.
	selectionMode string
}

func NewPane(path string, opts Options) *Pane {
	if opts.Palette == nil {
		opts.Palette = common.DefaultPalette
	}
	if opts.Registry == nil {
		opts.Registry = layer.NewRegistry()
		opts.Registry.MarkLoaded()
	}
	p := &Pane{
		id:         paneIDs.Add(1),
		log:        opts.Log.With().Str("path", path).Logger(),
		palette:    opts.Palette,
		prefs:      opts.Prefs,
		registry:   opts.Registry,
		path:       path,
		abort:      &cursor.AbortStop{},
		token:      layer.NewTokenLayer(time.Duration(opts.UI.TokenHighlightDelayMs) * time.Millisecond),
		syntax:     layer.NewSyntaxLayer(),
		ranges:     &layer.RangesLayer{},
		whitespace: &layer.WhitespaceLayer{},
		listeners:  make(map[layer.Notifier]layer.ListenerID),
		width:      80,
		cursorSide: model.Right,
		loading:    true,
	}
	p.syntax.SetEnabled(opts.Prefs.SyntaxHighlighting)
	p.applyPrefs()
	p.repeat = incremental.New(p.materialize, incremental.Options{
		InitialCount:    opts.UI.InitialRenderCount,
		TargetFrameRate: opts.UI.TargetFrameRate,
		Now:             opts.Now,
	})
	for _, n := range []layer.Notifier{p.token, p.syntax, p.ranges} {
		p.listen(n)
	}
	return p
}

func (p *Pane) ID() int64 { return p.id }

func (p *Pane) Path() string { return p.path }

func (p *Pane) Diff() *model.Diff { return p.diff }

func (p *Pane) Loading() bool { return p.loading }

func (p *Pane) TooLarge() bool { return p.tooLarge }

func (p *Pane) Rows() []*Row { return p.rows }

func (p *Pane) Groups() []processor.Group { return p.groups }

func (p *Pane) Token() *layer.TokenLayer { return p.token }

func (p *Pane) Prefs() config.DiffPreferences { return p.prefs }

func (p *Pane) Offset() int { return p.offset }

func (p *Pane) SetOffset(offset int) { p.offset = offset }

func (p *Pane) Width() int { return p.width }

func (p *Pane) SetWidth(width int) { p.width = max(width, 0) }

// SetCursorSide selects which line number of the targeted row is marked.
func (p *Pane) SetCursorSide(side model.Side) { p.cursorSide = side }

func (p *Pane) unified() bool { return p.prefs.ViewMode == config.Unified }

// Unified reports whether the pane shows a single column.
func (p *Pane) Unified() bool { return p.unified() }

// Init waits for runtime registered layers and picks them up.
func (p *Pane) Init() tea.Cmd {
	registry, id := p.registry, p.id
	if registry.Loaded() {
		p.attachRegistry()
		return nil
	}
	return func() tea.Msg {
		if err := registry.Wait(context.Background()); err != nil {
			return nil
		}
		return layersReadyMsg{paneID: id}
	}
}

func (p *Pane) attachRegistry() {
	p.extra = p.registry.Providers()
	for _, l := range p.extra {
		if n, ok := l.(layer.Notifier); ok {
			p.listen(n)
		}
	}
	p.reannotateAll()
}

func (p *Pane) listen(n layer.Notifier) {
	if _, ok := p.listeners[n]; ok {
		return
	}
	p.listeners[n] = n.AddListener(p.onLayerNotify)
}

// Close detaches the pane from layers shared with other panes.
func (p *Pane) Close() {
	for n, id := range p.listeners {
		n.RemoveListener(id)
	}
	clear(p.listeners)
	p.repeat.Cancel()
	p.pending = nil
	p.token.MouseOut()
}

func (p *Pane) layers() []layer.Layer {
	layers := []layer.Layer{p.syntax, p.intraline, p.whitespace, p.ranges}
	layers = append(layers, p.extra...)
	return append(layers, p.token, selectionLayer{pane: p})
}

func (p *Pane) applyPrefs() {
	p.whitespace.ShowTabs = p.prefs.ShowTabs
	p.whitespace.ShowWhitespaceErrors = p.prefs.ShowWhitespaceErrors
}

// SetDiff replaces the content of the pane and starts rendering it.
func (p *Pane) SetDiff(diff *model.Diff) (tea.Cmd, error) {
	if diff == nil {
		return nil, errors.New("diff is required")
	}
	if err := diff.Validate(); err != nil {
		return nil, err
	}
	p.diff = diff
	p.indexTexts()
	p.token.Reset()
	p.selection = nil
	return tea.Batch(p.syntax.Process(diff), p.render()), nil
}

func (p *Pane) indexTexts() {
	for side := range p.texts {
		p.texts[side] = p.texts[side][:0]
		p.known[side] = p.known[side][:0]
	}
	add := func(side model.Side, lines []string, known bool) {
		p.texts[side] = append(p.texts[side], lines...)
		for range lines {
			p.known[side] = append(p.known[side], known)
		}
	}
	for _, c := range p.diff.Content {
		if c.Skip > 0 {
			empty := make([]string, c.Skip)
			add(model.Left, empty, false)
			add(model.Right, empty, false)
			continue
		}
		add(model.Left, c.AB, true)
		add(model.Right, c.AB, true)
		add(model.Left, c.A, true)
		add(model.Right, c.B, true)
	}
}

// LineText returns the raw text of line n on side.
func (p *Pane) LineText(side model.Side, n model.LineNumber) (string, bool) {
	i := int(n) - 1
	if i < 0 || i >= len(p.texts[side]) || !p.known[side][i] {
		return "", false
	}
	return p.texts[side][i], true
}

func (p *Pane) effectiveContext() int {
	if p.bypass != nil {
		return *p.bypass
	}
	return p.prefs.Context
}

func (p *Pane) isTooLarge() bool {
	return p.bypass == nil && p.prefs.Context == config.FullContext && p.diff.Length() >= LargeDiffLines
}

func (p *Pane) render() tea.Cmd {
	p.repeat.Cancel()
	p.rendered = 0
	p.tooLarge = p.isTooLarge()

	includeLost := false
	for _, t := range p.threads {
		includeLost = includeLost || t.Line == model.LostLine
	}
	if p.tooLarge {
		p.groups = processor.Process(nil, processor.Options{IncludeLost: includeLost})
		p.rows = p.buildRows(p.groups, 0)
		p.rows = append(p.rows, &Row{
			pane: p,
			Kind: WarningRow,
			Group: -1,
			Text: "Prevented render because \"Whole file\" is enabled and this diff is very large. " +
				"Press F to render anyway or L to render with limited context.",
		})
	} else {
		p.groups = processor.Process(p.diff.Content, processor.Options{
			Context:        p.effectiveContext(),
			KeyLocations:   processor.KeyLocationsFromThreads(p.threads),
			AsyncThreshold: p.prefs.NumLinesRenderedAtOnce,
			IncludeLost:    includeLost,
		})
		p.rows = p.buildRows(p.groups, 0)
		p.rows = append(p.rows, p.newlineWarnings()...)
	}
	p.reindex()
	p.placeThreads()
	p.layout()
	p.loading = true
	// rows are scheduled once the start message went round, so that
	// RenderStartMsg is always seen before RenderedMsg
	p.pending = p.repeat.Render(p.rows, incremental.All)
	start := RenderStartMsg{Path: p.path, paneID: p.id}
	return func() tea.Msg { return start }
}

func (p *Pane) newlineWarnings() []*Row {
	var rows []*Row
	if p.diff.MissingNewlineLeft {
		rows = append(rows, &Row{pane: p, Kind: WarningRow, Group: -1, Text: "No newline at end of base file."})
	}
	if p.diff.MissingNewlineRight {
		rows = append(rows, &Row{pane: p, Kind: WarningRow, Group: -1, Text: "No newline at end of revision file."})
	}
	return rows
}

// materialize annotates a row the first time the scheduler reaches it.
func (p *Pane) materialize(row *Row, _ int) *Row {
	p.annotate(row)
	p.rendered++
	return row
}

func (p *Pane) annotate(row *Row) {
	row.annotated = true
	if row.Kind != LineRow {
		return
	}
	layers := p.layers()
	for _, side := range []model.Side{model.Left, model.Right} {
		el := row.Element(side)
		el.Reset()
		line := row.Line(side)
		if !line.OnSide(side) {
			continue
		}
		layer.AnnotateAll(p.log, layers, el, line, side)
	}
}

func (p *Pane) reannotateAll() {
	for _, row := range p.rows {
		if row.annotated {
			p.annotate(row)
		}
	}
}

func (p *Pane) onLayerNotify(start, end model.LineNumber, side model.Side) {
	index := p.lineIndex[side]
	if len(index) == 0 {
		return
	}
	start = max(start, 1)
	end = min(end, model.LineNumber(len(p.texts[side])))
	for n := start; n <= end; n++ {
		if row, ok := index[n]; ok && row.annotated {
			p.annotate(row)
		}
	}
}

func (p *Pane) reindex() {
	for side := range p.lineIndex {
		p.lineIndex[side] = make(map[model.LineNumber]*Row)
	}
	for _, row := range p.rows {
		if row.Kind != LineRow {
			continue
		}
		for _, side := range []model.Side{model.Left, model.Right} {
			if n := row.LineNumber(side); n != model.NoLine {
				if _, seen := p.lineIndex[side][n]; !seen {
					p.lineIndex[side][n] = row
				}
			}
		}
	}
}

func (p *Pane) layout() {
	top := 0
	for _, row := range p.rows {
		row.top = top
		top += row.Height()
	}
}

// Height is the number of lines the rendered part of the pane occupies.
func (p *Pane) Height() int {
	if p.rendered == 0 {
		return 1
	}
	last := p.rows[min(p.rendered, len(p.rows))-1]
	return last.top + last.Height()
}

func (p *Pane) groupHeight(group int) int {
	height := 0
	for _, row := range p.rows {
		if row.Group == group && row.Kind == LineRow {
			height += row.Height()
		}
	}
	return height
}

// Stops lists the rows the cursor can land on. A pane that is still
// rendering only offers an abort stop.
func (p *Pane) Stops() []cursor.Stop {
	if p.loading {
		return []cursor.Stop{p.abort}
	}
	stops := make([]cursor.Stop, 0, len(p.rows))
	for _, row := range p.rows[:p.rendered] {
		if row.Kind == LineRow {
			stops = append(stops, row)
		}
	}
	return stops
}

// FindRow returns the rendered row showing line on side.
func (p *Pane) FindRow(line model.LineNumber, side model.Side) *Row {
	if line == model.FileLine || line == model.LostLine {
		for _, row := range p.rows {
			if row.Kind == LineRow && row.Line(side).Number(side) == line {
				return row
			}
		}
		return nil
	}
	row, ok := p.lineIndex[side][line]
	if !ok || !row.annotated {
		return nil
	}
	return row
}

// SetThreads places thread markers under the rows they belong to.
func (p *Pane) SetThreads(threads []model.Thread) tea.Cmd {
	p.threads = append([]model.Thread(nil), threads...)
	p.ranges.SetRanges(p.threads)
	if p.diff == nil {
		return nil
	}
	p.placeThreads()
	p.layout()
	return p.changed()
}

func (p *Pane) Threads() []model.Thread { return p.threads }

func (p *Pane) placeThreads() {
	for _, row := range p.rows {
		row.threads = nil
	}
	for _, t := range p.threads {
		var row *Row
		switch t.Line {
		case model.FileLine, model.LostLine:
			for _, r := range p.rows {
				if r.Kind == LineRow && r.Line(t.Side).Number(t.Side) == t.Line {
					row = r
					break
				}
			}
		default:
			row = p.lineIndex[t.Side][t.Line]
		}
		if row == nil {
			p.log.Warn().
				Stringer("side", t.Side).
				Stringer("line", t.Line).
				Str("thread", t.RootID).
				Msg("skipping comment thread on a line that is not in the diff")
			continue
		}
		row.threads = append(row.threads, t)
	}
}

func (p *Pane) SetBlame(ranges []model.BlameRange) {
	p.blame = ranges
}

func (p *Pane) Blame() []model.BlameRange { return p.blame }

// BlameAt returns the blame range covering a base line.
func (p *Pane) BlameAt(line model.LineNumber) (model.BlameRange, bool) {
	for _, b := range p.blame {
		if int(line) >= b.Start && int(line) <= b.End {
			return b, true
		}
	}
	return model.BlameRange{}, false
}

// SetPrefs applies new preferences. Changes that alter the row layout
// re-render the pane.
func (p *Pane) SetPrefs(prefs config.DiffPreferences) tea.Cmd {
	old := p.prefs
	p.prefs = prefs
	p.applyPrefs()
	if old.SyntaxHighlighting != prefs.SyntaxHighlighting {
		p.syntax.SetEnabled(prefs.SyntaxHighlighting)
	}
	if p.diff == nil {
		return nil
	}
	var cmds []tea.Cmd
	if !old.SyntaxHighlighting && prefs.SyntaxHighlighting {
		cmds = append(cmds, p.syntax.Process(p.diff))
	}
	if old.ViewMode != prefs.ViewMode || old.Context != prefs.Context ||
		old.NumLinesRenderedAtOnce != prefs.NumLinesRenderedAtOnce {
		cmds = append(cmds, p.render())
	} else {
		p.reannotateAll()
	}
	return tea.Batch(cmds...)
}

// SetSyntaxEnabled turns syntax highlighting on or off for this diff only.
func (p *Pane) SetSyntaxEnabled(enabled bool) tea.Cmd {
	if p.syntax.Enabled() == enabled {
		return nil
	}
	p.syntax.SetEnabled(enabled)
	if !enabled {
		p.reannotateAll()
		return nil
	}
	return p.syntax.Process(p.diff)
}

func (p *Pane) SyntaxEnabled() bool { return p.syntax.Enabled() }

// Bypass renders a diff that was too large with the given context.
func (p *Pane) Bypass(contextLines int) tea.Cmd {
	if p.diff == nil {
		return nil
	}
	p.bypass = &contextLines
	return p.render()
}

// ExpandContext replaces the context control row with the rows it hides.
func (p *Pane) ExpandContext(row *Row) tea.Cmd {
	if p.loading || row == nil || row.Kind != ContextControlRow || row.pane != p {
		return nil
	}
	g := row.Group
	if g < 0 || g >= len(p.groups) || p.groups[g].Type != processor.ContextControl {
		return nil
	}
	hidden := p.groups[g].Hidden
	index := -1
	for i, r := range p.rows {
		if r == row {
			index = i
			break
		}
	}
	if index < 0 {
		return nil
	}
	p.groups = processor.Expand(p.groups, g)
	inserted := p.buildRows(hidden, g)
	for _, r := range inserted {
		p.annotate(r)
	}
	shift := len(hidden) - 1
	for _, r := range p.rows[index+1:] {
		if r.Group > g {
			r.Group += shift
		}
	}
	rows := make([]*Row, 0, len(p.rows)+len(inserted)-1)
	rows = append(rows, p.rows[:index]...)
	rows = append(rows, inserted...)
	rows = append(rows, p.rows[index+1:]...)
	p.rows = rows
	p.rendered += len(inserted) - 1
	p.reindex()
	p.placeThreads()
	p.layout()
	return p.changed()
}

// ExpandAll expands every context control.
func (p *Pane) ExpandAll() tea.Cmd {
	var cmd tea.Cmd
	for {
		var control *Row
		for _, r := range p.rows {
			if r.Kind == ContextControlRow && r.Group >= 0 && r.Group < len(p.groups) &&
				p.groups[r.Group].Type == processor.ContextControl {
				control = r
				break
			}
		}
		if control == nil {
			return cmd
		}
		next := p.ExpandContext(control)
		if next == nil {
			return cmd
		}
		cmd = next
	}
}

func (p *Pane) changed() tea.Cmd {
	path := p.path
	return func() tea.Msg { return ChangedMsg{Path: path} }
}

func (p *Pane) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case RenderStartMsg:
		if msg.paneID != p.id {
			return nil
		}
		cmd := p.pending
		p.pending = nil
		return cmd
	case incremental.FrameMsg:
		return p.repeat.Update(msg)
	case incremental.DoneMsg:
		if msg.ID != p.repeat.ID() || !p.loading {
			return nil
		}
		p.loading = false
		path := p.path
		return func() tea.Msg { return RenderedMsg{Path: path} }
	case layer.TokenHighlightMsg:
		p.token.Update(msg)
	case layer.SyntaxDoneMsg:
		p.syntax.Update(msg)
	case layersReadyMsg:
		if msg.paneID == p.id {
			p.attachRegistry()
		}
	}
	return nil
}

// FindStop is FindRow as a cursor stop; it is nil when the row is missing.
func (p *Pane) FindStop(line model.LineNumber, side model.Side) cursor.Stop {
	if row := p.FindRow(line, side); row != nil {
		return row
	}
	return nil
}
