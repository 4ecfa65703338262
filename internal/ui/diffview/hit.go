package diffview

import "github.com/idursun/jjreview/internal/diff/model"

type Column int

const (
	ColumnNone Column = iota
	ColumnBlame
	ColumnNumber
	ColumnContent
	ColumnThread
	ColumnControl
)

// Hit describes what is under a position of the pane.
type Hit struct {
	Row    *Row
	Side   model.Side
	Column Column
	Char   int
	Thread *model.Thread
}

// HitTest resolves a position in pane coordinates.
func (p *Pane) HitTest(x, y int) (Hit, bool) {
	row, within := p.rowAt(y)
	if row == nil {
		return Hit{}, false
	}
	if within > 0 {
		t := row.threads[within-1]
		return Hit{Row: row, Side: t.Side, Column: ColumnThread, Thread: &t}, true
	}
	if row.Kind != LineRow {
		return Hit{Row: row, Column: ColumnControl}, true
	}

	cols := p.columns()
	if x < cols.blame {
		return Hit{Row: row, Side: model.Left, Column: ColumnBlame}, true
	}
	x -= cols.blame

	if p.unified() {
		if x < numberWidth {
			return Hit{Row: row, Side: model.Left, Column: ColumnNumber}, true
		}
		x -= numberWidth
		if x < numberWidth {
			return Hit{Row: row, Side: model.Right, Column: ColumnNumber}, true
		}
		x -= numberWidth + 2
		side := model.Right
		if !row.HasSide(model.Right) {
			side = model.Left
		}
		return p.contentHit(row, side, max(x, 0)), true
	}

	if x < numberWidth {
		return Hit{Row: row, Side: model.Left, Column: ColumnNumber}, true
	}
	x -= numberWidth
	if x < cols.content {
		return p.contentHit(row, model.Left, x), true
	}
	x -= cols.content
	if x < 1 {
		return Hit{Row: row, Column: ColumnNone}, true
	}
	x--
	if x < numberWidth {
		return Hit{Row: row, Side: model.Right, Column: ColumnNumber}, true
	}
	x -= numberWidth
	return p.contentHit(row, model.Right, x), true
}

func (p *Pane) contentHit(row *Row, side model.Side, x int) Hit {
	char := 0
	if row.HasSide(side) {
		char = charAt(row.Line(side).Text, p.prefs.TabSize, x)
	}
	return Hit{Row: row, Side: side, Column: ColumnContent, Char: char}
}
