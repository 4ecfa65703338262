package layer

import (
	"unicode/utf8"

	"github.com/idursun/jjreview/internal/diff/model"
)

const RangeClass = "range"

type sideRange struct {
	side  model.Side
	rng   model.CommentRange
	class string
}

// RangesLayer highlights the character ranges of ranged comments.
type RangesLayer struct {
	Listeners
	ranges []sideRange
}

func (r *RangesLayer) Name() string { return "ranged-comments" }

// SetRanges replaces the highlighted ranges with the ranges of threads.
func (r *RangesLayer) SetRanges(threads []model.Thread) {
	previous := r.ranges
	r.ranges = r.ranges[:0:0]
	for _, t := range threads {
		if t.Range == nil {
			continue
		}
		r.ranges = append(r.ranges, sideRange{side: t.Side, rng: *t.Range, class: RangeClass})
	}
	for _, sr := range previous {
		r.notify(sr)
	}
	for _, sr := range r.ranges {
		r.notify(sr)
	}
}

func (r *RangesLayer) notify(sr sideRange) {
	r.Notify(model.LineNumber(sr.rng.StartLine), model.LineNumber(sr.rng.EndLine), sr.side)
}

func (r *RangesLayer) Annotate(el *Element, line model.Line, side model.Side) {
	number := line.Number(side)
	if !number.IsReal() {
		return
	}
	n := int(number)
	for _, sr := range r.ranges {
		if sr.side != side || n < sr.rng.StartLine || n > sr.rng.EndLine {
			continue
		}
		start, end := 0, ToEnd
		if n == sr.rng.StartLine {
			start = sr.rng.StartCharacter
		}
		if n == sr.rng.EndLine {
			end = sr.rng.EndCharacter
		}
		if end == ToEnd && utf8.RuneCountInString(line.Text) == 0 {
			continue
		}
		el.AddSpan(start, end, sr.class)
	}
}
