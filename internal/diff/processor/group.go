package processor

import (
	"github.com/idursun/jjreview/internal/diff/model"
)

type GroupType int

const (
	Both GroupType = iota
	Delta
	ContextControl
)

func (t GroupType) String() string {
	switch t {
	case Both:
		return "both"
	case Delta:
		return "delta"
	default:
		return "context-control"
	}
}

// Group is a run of rows rendered together.
type Group struct {
	Type  GroupType
	Lines []model.Line
	// Skip is set on groups that stand for lines the provider omitted.
	Skip       int
	LeftStart  model.LineNumber
	RightStart model.LineNumber
	// Hidden holds the collapsed groups of a context control.
	Hidden []Group

	Move                  *model.MoveInfo
	DueToRebase           bool
	IgnoredWhitespaceOnly bool
	KeyLocation           bool
}

// Pair is one row: the left and right line shown next to each other.
type Pair struct {
	Left  model.Line
	Right model.Line
}

// Length is the number of lines the group covers on side.
func (g Group) Length(side model.Side) int {
	if g.Skip > 0 {
		return g.Skip
	}
	if g.Type == ContextControl {
		total := 0
		for _, h := range g.Hidden {
			total += h.Length(side)
		}
		return total
	}
	n := 0
	for _, l := range g.Lines {
		if l.OnSide(side) {
			n++
		}
	}
	return n
}

func (g Group) removes() []model.Line {
	var out []model.Line
	for _, l := range g.Lines {
		if l.Type == model.LineRemove {
			out = append(out, l)
		}
	}
	return out
}

func (g Group) adds() []model.Line {
	var out []model.Line
	for _, l := range g.Lines {
		if l.Type == model.LineAdd {
			out = append(out, l)
		}
	}
	return out
}

// SideBySidePairs pairs removed and added lines in order, padding the
// shorter side with blank lines.
func (g Group) SideBySidePairs() []Pair {
	if g.Type != Delta {
		pairs := make([]Pair, 0, len(g.Lines))
		for _, l := range g.Lines {
			pairs = append(pairs, Pair{Left: l, Right: l})
		}
		return pairs
	}
	removes, adds := g.removes(), g.adds()
	blank := model.Line{Type: model.LineBlank}
	pairs := make([]Pair, 0, max(len(removes), len(adds)))
	for i := 0; i < max(len(removes), len(adds)); i++ {
		p := Pair{Left: blank, Right: blank}
		if i < len(removes) {
			p.Left = removes[i]
		}
		if i < len(adds) {
			p.Right = adds[i]
		}
		pairs = append(pairs, p)
	}
	return pairs
}

// UnifiedPairs lists removed lines before added lines, each on its own row.
func (g Group) UnifiedPairs() []Pair {
	if g.Type != Delta {
		return g.SideBySidePairs()
	}
	blank := model.Line{Type: model.LineBlank}
	var pairs []Pair
	for _, l := range g.removes() {
		pairs = append(pairs, Pair{Left: l, Right: blank})
	}
	for _, l := range g.adds() {
		pairs = append(pairs, Pair{Left: blank, Right: l})
	}
	return pairs
}

// ExpandAll replaces every context control in groups with its hidden groups.
func ExpandAll(groups []Group) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if g.Type == ContextControl {
			out = append(out, g.Hidden...)
			continue
		}
		out = append(out, g)
	}
	return out
}

// Expand replaces the context control at index with its hidden groups.
func Expand(groups []Group, index int) []Group {
	if index < 0 || index >= len(groups) || groups[index].Type != ContextControl {
		return groups
	}
	out := make([]Group, 0, len(groups)+len(groups[index].Hidden))
	out = append(out, groups[:index]...)
	out = append(out, groups[index].Hidden...)
	out = append(out, groups[index+1:]...)
	return out
}
