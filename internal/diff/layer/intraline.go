package layer

import "github.com/idursun/jjreview/internal/diff/model"

const (
	IntralineAddedClass   = "intraline added"
	IntralineRemovedClass = "intraline removed"
)

// IntralineLayer turns the highlight ranges carried by a line into spans.
type IntralineLayer struct{}

func (IntralineLayer) Name() string { return "intraline" }

func (IntralineLayer) Annotate(el *Element, line model.Line, side model.Side) {
	class := IntralineAddedClass
	switch {
	case line.Type == model.LineRemove && side == model.Left:
		class = IntralineRemovedClass
	case line.Type == model.LineAdd && side == model.Right:
	default:
		return
	}
	for _, h := range line.Highlights {
		end := h.End
		if end == model.ToEnd {
			end = ToEnd
		}
		el.AddSpan(h.Start, end, class)
	}
}
