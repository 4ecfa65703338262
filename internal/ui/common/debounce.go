package common

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type debouncer struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Debouncer delays commands; a newer call with the same identifier cancels
// the previous one.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]*debouncer
}

func NewDebouncer() *Debouncer {
	return &Debouncer{pending: map[string]*debouncer{}}
}

// Debounce waits for the given duration before running cmd; newer calls with
// the same identifier cancel previous ones.
func (d *Debouncer) Debounce(identifier string, duration time.Duration, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	state := &debouncer{ctx: ctx, cancel: cancel}

	d.mu.Lock()
	if previous, ok := d.pending[identifier]; ok {
		previous.cancel()
	}
	d.pending[identifier] = state
	d.mu.Unlock()

	return func() tea.Msg {
		defer d.forget(identifier, state)

		timer := time.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-state.ctx.Done():
			return nil
		}

		if !d.isLatest(identifier, state) {
			return nil
		}

		msg := cmd()

		if state.ctx.Err() != nil || !d.isLatest(identifier, state) {
			return nil
		}
		return msg
	}
}

// Cancel drops the pending command for identifier, if any.
func (d *Debouncer) Cancel(identifier string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if previous, ok := d.pending[identifier]; ok {
		previous.cancel()
		delete(d.pending, identifier)
	}
}

// Pending reports whether a command for identifier is waiting to fire.
func (d *Debouncer) Pending(identifier string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[identifier]
	return ok
}

func (d *Debouncer) isLatest(identifier string, state *debouncer) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending[identifier] == state && state.ctx.Err() == nil
}

func (d *Debouncer) forget(identifier string, state *debouncer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending[identifier] == state {
		delete(d.pending, identifier)
	}
}
