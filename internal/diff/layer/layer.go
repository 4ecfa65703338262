// Package layer implements the annotation layers that decorate rendered diff
// lines: token highlighting, syntax highlighting, whitespace errors, coverage,
// ranged comments and intraline edits.
package layer

import (
	"fmt"
	"sync"

	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/rs/zerolog"
)

// Layer annotates one line of one side. Annotate may be called for lines in
// any order and again for lines that were already annotated.
type Layer interface {
	Annotate(el *Element, line model.Line, side model.Side)
}

// Named layers report their name in logs.
type Named interface {
	Name() string
}

// Listener asks for the inclusive line range on side to be annotated again.
type Listener func(start, end model.LineNumber, side model.Side)

type ListenerID int

// Notifier is implemented by layers whose annotations change after the
// initial pass.
type Notifier interface {
	AddListener(fn Listener) ListenerID
	RemoveListener(id ListenerID)
}

// Listeners is embedded by layers to implement Notifier.
type Listeners struct {
	mu     sync.Mutex
	nextID ListenerID
	order  []ListenerID
	fns    map[ListenerID]Listener
}

func (l *Listeners) AddListener(fn Listener) ListenerID {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[ListenerID]Listener)
	}
	l.nextID++
	l.fns[l.nextID] = fn
	l.order = append(l.order, l.nextID)
	return l.nextID
}

func (l *Listeners) RemoveListener(id ListenerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.fns[id]; !ok {
		return
	}
	delete(l.fns, id)
	for i, other := range l.order {
		if other == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

func (l *Listeners) Notify(start, end model.LineNumber, side model.Side) {
	l.mu.Lock()
	fns := make([]Listener, 0, len(l.order))
	for _, id := range l.order {
		fns = append(fns, l.fns[id])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(start, end, side)
	}
}

func layerName(layer Layer) string {
	if named, ok := layer.(Named); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", layer)
}

// AnnotateAll runs every layer on the element. A layer that panics is logged
// and skipped; the others still annotate the line.
func AnnotateAll(log zerolog.Logger, layers []Layer, el *Element, line model.Line, side model.Side) {
	for _, layer := range layers {
		annotateOne(log, layer, el, line, side)
	}
}

func annotateOne(log zerolog.Logger, layer Layer, el *Element, line model.Line, side model.Side) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("layer", layerName(layer)).
				Stringer("line", line.Number(side)).
				Stringer("side", side).
				Interface("panic", r).
				Msg("layer failed to annotate line")
		}
	}()
	layer.Annotate(el, line, side)
}
