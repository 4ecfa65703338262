package diffview

import (
	"fmt"

	"github.com/idursun/jjreview/internal/diff/layer"
	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/idursun/jjreview/internal/diff/processor"
)

type RowKind int

const (
	LineRow RowKind = iota
	ContextControlRow
	MoveControlRow
	WarningRow
)

func (k RowKind) String() string {
	switch k {
	case LineRow:
		return "line"
	case ContextControlRow:
		return "context-control"
	case MoveControlRow:
		return "move-control"
	default:
		return "warning"
	}
}

// Row is one rendered row of a pane. Line rows are cursor stops; the other
// kinds are only displayed.
type Row struct {
	pane  *Pane
	Kind  RowKind
	Group int
	Pair  processor.Pair
	Text  string

	first      bool
	delta      bool
	chunkLeft  bool
	chunkRight bool

	threads   []model.Thread
	top       int
	targeted  bool
	annotated bool
	elements  [2]layer.Element
}

func (r *Row) String() string {
	return fmt.Sprintf("%s row %s/%s", r.Kind, r.Pair.Left.BeforeNumber, r.Pair.Right.AfterNumber)
}

func (r *Row) Top() int {
	offset := 0
	if r.pane != nil {
		offset = r.pane.offset
	}
	return offset + r.top
}

// Height is one line plus one line per thread shown under the row.
func (r *Row) Height() int {
	return 1 + len(r.threads)
}

func (r *Row) SetTargeted(targeted bool) {
	r.targeted = targeted
}

func (r *Row) Targeted() bool { return r.targeted }

// Line returns the line shown on side.
func (r *Row) Line(side model.Side) model.Line {
	if side == model.Left {
		return r.Pair.Left
	}
	return r.Pair.Right
}

// HasSide reports whether the row shows content on side.
func (r *Row) HasSide(side model.Side) bool {
	return r.Kind == LineRow && r.Line(side).OnSide(side)
}

// LineNumber returns the number of the row's line on side, or NoLine.
func (r *Row) LineNumber(side model.Side) model.LineNumber {
	if !r.HasSide(side) {
		return model.NoLine
	}
	return r.Line(side).Number(side)
}

// FirstOfChunk reports whether the row starts a changed chunk.
func (r *Row) FirstOfChunk() bool { return r.first }

// ChunkSides reports which sides the chunk of the row has content on.
func (r *Row) ChunkSides() (left, right bool) { return r.chunkLeft, r.chunkRight }

func (r *Row) HasThread() bool { return len(r.threads) > 0 }

func (r *Row) Threads() []model.Thread { return r.threads }

// ChunkHeight is the height of every row of the group the row belongs to.
func (r *Row) ChunkHeight() int {
	if r.pane == nil {
		return r.Height()
	}
	return r.pane.groupHeight(r.Group)
}

func (r *Row) Element(side model.Side) *layer.Element {
	return &r.elements[side]
}

func (r *Row) Pane() *Pane { return r.pane }

func moveLabel(g processor.Group) string {
	if g.Move == nil {
		return ""
	}
	movedIn := g.Length(model.Left) == 0
	label := "Moved"
	if g.Move.Changed {
		label += " with changes"
	}
	if g.Move.RangeStart == 0 && g.Move.RangeEnd == 0 {
		if movedIn {
			return label + " in"
		}
		return label + " out"
	}
	direction := "to"
	if movedIn {
		direction = "from"
	}
	return fmt.Sprintf("%s %s lines %d - %d", label, direction, g.Move.RangeStart, g.Move.RangeEnd)
}

func contextLabel(g processor.Group) string {
	n := g.Length(model.Left)
	if n == 1 {
		return "⋯ 1 common line ⋯"
	}
	return fmt.Sprintf("⋯ %d common lines ⋯", n)
}

// buildRows turns groups into rows for the given view mode.
func (p *Pane) buildRows(groups []processor.Group, firstGroup int) []*Row {
	var rows []*Row
	for gi, g := range groups {
		index := firstGroup + gi
		switch {
		case g.Type == processor.ContextControl:
			rows = append(rows, &Row{pane: p, Kind: ContextControlRow, Group: index, Text: contextLabel(g)})
			continue
		case g.Skip > 0:
			rows = append(rows, &Row{pane: p, Kind: ContextControlRow, Group: index, Text: fmt.Sprintf("⋯ %d common lines skipped ⋯", g.Skip)})
			continue
		}
		if label := moveLabel(g); label != "" {
			rows = append(rows, &Row{pane: p, Kind: MoveControlRow, Group: index, Text: label})
		}
		pairs := g.SideBySidePairs()
		if p.unified() {
			pairs = g.UnifiedPairs()
		}
		delta := g.Type == processor.Delta
		chunkLeft := g.Length(model.Left) > 0
		chunkRight := g.Length(model.Right) > 0
		for pi, pair := range pairs {
			rows = append(rows, &Row{
				pane:       p,
				Kind:       LineRow,
				Group:      index,
				Pair:       pair,
				first:      delta && pi == 0,
				delta:      delta,
				chunkLeft:  chunkLeft,
				chunkRight: chunkRight,
			})
		}
	}
	return rows
}
