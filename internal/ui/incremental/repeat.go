// Package incremental renders long lists a batch per frame so the program
// stays responsive while a large diff is laid out.
package incremental

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	DefaultTargetFrameRate = 30
	DefaultInitialCount    = 1
	// All as an end bound renders every value.
	All = -1
)

var repeatIDs atomic.Int64

// FrameMsg asks a Repeat to render its next batch.
type FrameMsg struct {
	id         int64
	generation int64
}

// DoneMsg is sent when a pass has rendered everything up to its end bound.
type DoneMsg struct {
	ID    int64
	Count int
}

type Options struct {
	InitialCount    int
	TargetFrameRate int
	StartAt         int
	// Now replaces time.Now in tests.
	Now func() time.Time
}

// Repeat maps values to rendered items progressively. The first
// InitialCount items are mapped synchronously; the rest follow one batch per
// frame, with the batch size adapting to the achieved frame rate.
type Repeat[T, R any] struct {
	id         int64
	mapper     func(value T, index int) R
	initial    int
	frameRate  int
	startAt    int
	now        func() time.Time
	values     []T
	endAt      int
	items      []R
	batch      int
	lastFrame  time.Time
	generation int64
	running    bool
}

func New[T, R any](mapper func(value T, index int) R, opts Options) *Repeat[T, R] {
	if opts.InitialCount <= 0 {
		opts.InitialCount = DefaultInitialCount
	}
	if opts.TargetFrameRate <= 0 {
		opts.TargetFrameRate = DefaultTargetFrameRate
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StartAt < 0 {
		opts.StartAt = 0
	}
	return &Repeat[T, R]{
		id:        repeatIDs.Add(1),
		mapper:    mapper,
		initial:   opts.InitialCount,
		frameRate: opts.TargetFrameRate,
		startAt:   opts.StartAt,
		now:       opts.Now,
		endAt:     All,
		batch:     opts.InitialCount,
	}
}

func (r *Repeat[T, R]) ID() int64 { return r.id }

// Items returns the items rendered so far; item i corresponds to value
// StartAt+i.
func (r *Repeat[T, R]) Items() []R { return r.items }

// Set replaces a rendered item in place.
func (r *Repeat[T, R]) Set(i int, item R) {
	if i >= 0 && i < len(r.items) {
		r.items[i] = item
	}
}

func (r *Repeat[T, R]) Running() bool { return r.running }

func (r *Repeat[T, R]) BatchSize() int { return r.batch }

func (r *Repeat[T, R]) frameInterval() time.Duration {
	return time.Second / time.Duration(r.frameRate)
}

func (r *Repeat[T, R]) end() int {
	n := len(r.values)
	if r.endAt != All && r.endAt < n {
		n = r.endAt
	}
	return n
}

func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) || cap(a) != cap(b) {
		return false
	}
	if len(a) == 0 {
		return (a == nil) == (b == nil)
	}
	return &a[0] == &b[0]
}

// Render starts or extends a pass. Passing the same slice again with the same
// bound does nothing; a different slice restarts from scratch; a larger bound
// continues the current pass.
func (r *Repeat[T, R]) Render(values []T, endAt int) tea.Cmd {
	if sameSlice(values, r.values) && r.generation > 0 {
		if endAt == r.endAt {
			return nil
		}
		r.endAt = endAt
		r.lastFrame = r.now()
		if limit := r.end() - r.startAt; len(r.items) > max(limit, 0) {
			r.items = r.items[:max(limit, 0)]
		}
		return r.schedule()
	}

	r.generation++
	r.values = values
	r.endAt = endAt
	r.items = nil
	r.batch = r.initial
	r.renderUpTo(r.startAt + r.initial)
	r.lastFrame = r.now()
	return r.schedule()
}

// Cancel stops the current pass; items already rendered are kept.
func (r *Repeat[T, R]) Cancel() {
	r.generation++
	r.running = false
}

func (r *Repeat[T, R]) renderUpTo(limit int) {
	end := min(limit, r.end())
	for i := r.startAt + len(r.items); i < end; i++ {
		r.items = append(r.items, r.mapper(r.values[i], i))
	}
}

func (r *Repeat[T, R]) complete() bool {
	return r.startAt+len(r.items) >= r.end()
}

func (r *Repeat[T, R]) schedule() tea.Cmd {
	if r.complete() {
		wasRunning := r.running
		r.running = false
		if wasRunning || len(r.items) > 0 || r.end() == 0 {
			return r.done()
		}
		return nil
	}
	if r.running {
		return nil
	}
	r.running = true
	return r.tick()
}

// tick yields to the event loop; the next batch runs once pending messages
// have been handled.
func (r *Repeat[T, R]) tick() tea.Cmd {
	msg := r.Frame()
	return func() tea.Msg { return msg }
}

func (r *Repeat[T, R]) done() tea.Cmd {
	msg := DoneMsg{ID: r.id, Count: len(r.items)}
	return func() tea.Msg { return msg }
}

// Frame returns the message for the next frame of the current pass.
func (r *Repeat[T, R]) Frame() FrameMsg {
	return FrameMsg{id: r.id, generation: r.generation}
}

// Update renders one batch when msg is a frame of the current pass.
func (r *Repeat[T, R]) Update(msg tea.Msg) tea.Cmd {
	frame, ok := msg.(FrameMsg)
	if !ok || frame.id != r.id || frame.generation != r.generation || !r.running {
		return nil
	}

	now := r.now()
	elapsed := now.Sub(r.lastFrame)
	r.lastFrame = now
	if elapsed > r.frameInterval() {
		r.batch = max(1, r.batch/2)
	} else {
		r.batch++
	}

	r.renderUpTo(r.startAt + len(r.items) + r.batch)
	if r.complete() {
		r.running = false
		return r.done()
	}
	return r.tick()
}
