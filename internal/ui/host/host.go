// Package host loads the data of one file diff from the providers and feeds
// it to a diff pane.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/idursun/jjreview/internal/async"
	"github.com/idursun/jjreview/internal/config"
	"github.com/idursun/jjreview/internal/diff/layer"
	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/idursun/jjreview/internal/ui/common"
	"github.com/idursun/jjreview/internal/ui/diffview"
	"github.com/idursun/jjreview/internal/ui/intents"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	SyntaxMaxLineLength = 500
	CodeMaxLines        = 20000
	EmptyBlame          = "No blame information for this diff."
)

type DiffProvider interface {
	Diff(ctx context.Context, path string, prefs config.DiffPreferences) (*model.Diff, error)
}

type BlameProvider interface {
	Blame(ctx context.Context, path string) ([]model.BlameRange, error)
}

type ThreadSource interface {
	Threads(ctx context.Context, path string) ([]model.Thread, error)
}

type CoverageProvider interface {
	Coverage(ctx context.Context, path string) ([]model.CoverageRange, error)
}

// Providers supply the data of a diff. Only Diffs is required.
type Providers struct {
	Diffs    DiffProvider
	Blame    BlameProvider
	Threads  ThreadSource
	Coverage CoverageProvider
}

type Options struct {
	Log       zerolog.Logger
	Providers Providers
	Prefs     config.DiffPreferences
	// Pane is the base of the pane options; prefs, registry and logger are
	// set by the host.
	Pane     diffview.Options
	Debounce time.Duration
	// NoRenderOnPrefsChange keeps preference changes from reloading or
	// re-rendering the diff.
	NoRenderOnPrefsChange bool
}

type content struct {
	diff    *model.Diff
	threads []model.Thread
}

type loadedMsg struct {
	hostID     int64
	generation int
	whitespace config.WhitespaceMode
	content    content
	err        error
}

type blameMsg struct {
	hostID int64
	ranges []model.BlameRange
	err    error
}

type coverageMsg struct {
	hostID int64
	ranges []model.CoverageRange
	err    error
}

var hostIDs atomic.Int64

type Host struct {
	id        int64
	log       zerolog.Logger
	path      string
	providers Providers
	prefs     config.DiffPreferences
	pane      *diffview.Pane
	coverage  *layer.CoverageLayer

	latest     async.Latest[content]
	debouncer  *common.Debouncer
	debounce   time.Duration
	generation int

	loadedWhitespace config.WhitespaceMode
	errorMessage     string
	blameLoaded      bool

	NoRenderOnPrefsChange bool
}

func New(path string, opts Options) *Host {
	registry := layer.NewRegistry()
	var coverage *layer.CoverageLayer
	if opts.Providers.Coverage != nil {
		coverage = &layer.CoverageLayer{}
		registry.Register(coverage.Name(), coverage)
	}
	registry.MarkLoaded()

	paneOpts := opts.Pane
	paneOpts.Log = opts.Log
	paneOpts.Prefs = opts.Prefs
	paneOpts.Registry = registry

	return &Host{
		id:                    hostIDs.Add(1),
		log:                   opts.Log.With().Str("path", path).Logger(),
		path:                  path,
		providers:             opts.Providers,
		prefs:                 opts.Prefs,
		pane:                  diffview.NewPane(path, paneOpts),
		coverage:              coverage,
		debouncer:             common.NewDebouncer(),
		debounce:              opts.Debounce,
		NoRenderOnPrefsChange: opts.NoRenderOnPrefsChange,
	}
}

func (h *Host) Path() string { return h.path }

func (h *Host) Pane() *diffview.Pane { return h.pane }

func (h *Host) Prefs() config.DiffPreferences { return h.prefs }

// ErrorMessage is the inline message shown when the diff failed to load.
func (h *Host) ErrorMessage() string { return h.errorMessage }

func (h *Host) BlameLoaded() bool { return h.blameLoaded }

func (h *Host) Init() tea.Cmd {
	return tea.Batch(h.pane.Init(), h.Reload())
}

// Close stops pending loads and detaches the pane.
func (h *Host) Close() {
	h.debouncer.Cancel("reload")
	h.latest.Cancel()
	h.pane.Close()
}

// Reload fetches the diff and its threads again. Reloads requested within
// the debounce window collapse into one, and a newer reload supersedes one
// still running.
func (h *Host) Reload() tea.Cmd {
	h.generation++
	h.errorMessage = ""
	id, generation := h.id, h.generation
	path, prefs, providers := h.path, h.prefs, h.providers
	latest := &h.latest

	fetch := func() tea.Msg {
		future := latest.Submit(func(ctx context.Context) (content, error) {
			return load(ctx, providers, path, prefs)
		})
		c, err := future.Wait(context.Background())
		return loadedMsg{hostID: id, generation: generation, whitespace: prefs.IgnoreWhitespace, content: c, err: err}
	}
	return h.debouncer.Debounce("reload", h.debounce, fetch)
}

func load(ctx context.Context, providers Providers, path string, prefs config.DiffPreferences) (content, error) {
	var c content
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		diff, err := providers.Diffs.Diff(ctx, path, prefs)
		if err != nil {
			return fmt.Errorf("loading diff of %s: %w", path, err)
		}
		c.diff = diff
		return nil
	})
	if providers.Threads != nil {
		g.Go(func() error {
			threads, err := providers.Threads.Threads(ctx, path)
			if err != nil {
				return fmt.Errorf("loading threads of %s: %w", path, err)
			}
			c.threads = threads
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return content{}, err
	}
	return c, nil
}

func (h *Host) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.hostID != h.id || msg.generation != h.generation {
			return nil
		}
		if msg.err != nil {
			return h.handleLoadError(msg.err)
		}
		h.loadedWhitespace = msg.whitespace
		return h.show(msg.content)
	case blameMsg:
		if msg.hostID != h.id {
			return nil
		}
		if msg.err != nil {
			h.log.Error().Err(msg.err).Msg("loading blame failed")
			return intents.Invoke(intents.AddMessage{Err: msg.err})
		}
		if len(msg.ranges) == 0 {
			return intents.Invoke(intents.AddMessage{Text: EmptyBlame})
		}
		h.pane.SetBlame(msg.ranges)
		h.blameLoaded = true
	case coverageMsg:
		if msg.hostID != h.id {
			return nil
		}
		if msg.err != nil {
			h.log.Warn().Err(msg.err).Msg("loading coverage failed")
			return nil
		}
		h.coverage.SetRanges(msg.ranges)
	}
	return nil
}

func (h *Host) show(c content) tea.Cmd {
	enabled, notice := h.syntaxEnabled(c.diff)
	cmds := []tea.Cmd{notice, h.pane.SetSyntaxEnabled(enabled), h.pane.SetThreads(c.threads)}
	render, err := h.pane.SetDiff(c.diff)
	if err != nil {
		h.log.Error().Err(err).Msg("cannot render diff")
		h.errorMessage = "Encountered error when loading the diff: " + err.Error()
		return tea.Batch(cmds...)
	}
	cmds = append(cmds, render, h.loadCoverage())
	return tea.Batch(cmds...)
}

func (h *Host) handleLoadError(err error) tea.Cmd {
	if errors.Is(err, async.ErrCanceled) {
		return nil
	}
	if errors.Is(err, model.ErrFileTooLarge) {
		h.log.Warn().Err(err).Msg("diff too large")
		return intents.Invoke(intents.AddMessage{Err: err})
	}
	var statusErr *model.StatusError
	if errors.As(err, &statusErr) {
		h.log.Error().Err(err).Int("status", statusErr.Status).Msg("loading diff failed")
		h.errorMessage = fmt.Sprintf("Encountered error when loading the diff: %d %s", statusErr.Status, statusErr.Text)
		return nil
	}
	h.log.Error().Err(err).Msg("loading diff failed")
	h.errorMessage = "Encountered error when loading the diff: " + err.Error()
	return nil
}

// syntaxEnabled applies the limits above which a diff is not highlighted.
func (h *Host) syntaxEnabled(diff *model.Diff) (bool, tea.Cmd) {
	if !h.prefs.SyntaxHighlighting || diff == nil {
		return false, nil
	}
	if diff.AnyLineTooLong(SyntaxMaxLineLength) {
		return false, intents.Invoke(intents.AddMessage{Text: fmt.Sprintf(
			"Files with line longer than %d characters will not be syntax highlighted.", SyntaxMaxLineLength)})
	}
	if diff.Length() > CodeMaxLines {
		return false, intents.Invoke(intents.AddMessage{Text: fmt.Sprintf(
			"Files with more than %d lines will not be syntax highlighted.", CodeMaxLines)})
	}
	return true, nil
}

func (h *Host) loadCoverage() tea.Cmd {
	if h.providers.Coverage == nil {
		return nil
	}
	id, path, provider := h.id, h.path, h.providers.Coverage
	return func() tea.Msg {
		ranges, err := provider.Coverage(context.Background(), path)
		return coverageMsg{hostID: id, ranges: ranges, err: err}
	}
}

// LoadBlame fetches blame for the base of the diff.
func (h *Host) LoadBlame() tea.Cmd {
	if h.providers.Blame == nil {
		return intents.Invoke(intents.AddMessage{Text: EmptyBlame})
	}
	id, path, provider := h.id, h.path, h.providers.Blame
	return func() tea.Msg {
		ranges, err := provider.Blame(context.Background(), path)
		return blameMsg{hostID: id, ranges: ranges, err: err}
	}
}

func (h *Host) ClearBlame() {
	h.pane.SetBlame(nil)
	h.blameLoaded = false
}

// SetPrefs applies new preferences. Changes to the diff content reload it;
// other changes re-render the pane.
func (h *Host) SetPrefs(prefs config.DiffPreferences) tea.Cmd {
	old := h.prefs
	h.prefs = prefs
	if h.NoRenderOnPrefsChange {
		return nil
	}
	whitespaceChanged := h.loadedWhitespace != "" && prefs.IgnoreWhitespace != h.loadedWhitespace
	if old.NeedsRefetch(prefs) || whitespaceChanged {
		return tea.Batch(h.pane.SetPrefs(prefs), h.Reload())
	}
	cmd := h.pane.SetPrefs(prefs)
	if old.SyntaxHighlighting || !prefs.SyntaxHighlighting {
		return cmd
	}
	enabled, notice := h.syntaxEnabled(h.pane.Diff())
	if !enabled {
		return tea.Batch(cmd, notice, h.pane.SetSyntaxEnabled(false))
	}
	return cmd
}
