package layer

import (
	"sort"

	"github.com/idursun/jjreview/internal/diff/model"
)

// CoverageLayer marks line numbers with the coverage reported for them.
type CoverageLayer struct {
	Listeners
	ranges []model.CoverageRange
}

func (c *CoverageLayer) Name() string { return "coverage" }

// SetRanges replaces the coverage data and asks for the old and new ranges
// to be annotated again.
func (c *CoverageLayer) SetRanges(ranges []model.CoverageRange) {
	previous := c.ranges
	c.ranges = append([]model.CoverageRange(nil), ranges...)
	sort.SliceStable(c.ranges, func(i, j int) bool { return c.ranges[i].Start < c.ranges[j].Start })
	for _, r := range previous {
		c.Notify(model.LineNumber(r.Start), model.LineNumber(r.End), r.Side)
	}
	for _, r := range c.ranges {
		c.Notify(model.LineNumber(r.Start), model.LineNumber(r.End), r.Side)
	}
}

func (c *CoverageLayer) Annotate(el *Element, line model.Line, side model.Side) {
	n := line.Number(side)
	if !n.IsReal() {
		return
	}
	number := int(n)
	for _, r := range c.ranges {
		if r.Start > number {
			break
		}
		if r.Side == side && number <= r.End {
			el.AddClass("coverage " + r.Type.String())
			return
		}
	}
}
