package layer

import (
	"slices"
	"sort"
)

// ToEnd as a span end means the span runs to the end of the line.
const ToEnd = -1

// Span marks a run of characters [Start, End) of a line with a class.
type Span struct {
	Start int
	End   int
	Class string
}

// Element collects the annotations of one rendered line on one side. Adding
// the same class or span twice has the same effect as adding it once.
type Element struct {
	classes []string
	spans   []Span
}

func (e *Element) AddClass(class string) {
	if !e.HasClass(class) {
		e.classes = append(e.classes, class)
	}
}

func (e *Element) HasClass(class string) bool {
	return slices.Contains(e.classes, class)
}

func (e *Element) RemoveClass(class string) {
	e.classes = slices.DeleteFunc(e.classes, func(c string) bool { return c == class })
}

func (e *Element) Classes() []string {
	return slices.Clone(e.classes)
}

func (e *Element) AddSpan(start, end int, class string) {
	if start < 0 || (end != ToEnd && end <= start) {
		return
	}
	span := Span{Start: start, End: end, Class: class}
	if slices.Contains(e.spans, span) {
		return
	}
	e.spans = append(e.spans, span)
}

func (e *Element) RemoveSpans(class string) {
	e.spans = slices.DeleteFunc(e.spans, func(s Span) bool { return s.Class == class })
}

// Spans returns the spans ordered by start offset. Spans with equal starts
// keep the order they were added in, which is the order of the layers.
func (e *Element) Spans() []Span {
	spans := slices.Clone(e.spans)
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

// ClassesAt returns the classes of all spans covering character offset i of a
// line with n characters.
func (e *Element) ClassesAt(i, n int) []string {
	var classes []string
	for _, s := range e.spans {
		end := s.End
		if end == ToEnd || end > n {
			end = n
		}
		if i >= s.Start && i < end {
			classes = append(classes, s.Class)
		}
	}
	return classes
}

func (e *Element) Reset() {
	e.classes = e.classes[:0]
	e.spans = e.spans[:0]
}
