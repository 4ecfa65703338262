package diffview

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/idursun/jjreview/internal/diff/layer"
	"github.com/idursun/jjreview/internal/diff/model"
)

const (
	numberWidth = 6
	blameWidth  = 18
)

type columns struct {
	blame   int
	content int
}

func (p *Pane) columns() columns {
	c := columns{}
	if len(p.blame) > 0 {
		c.blame = blameWidth
	}
	if p.unified() {
		c.content = p.width - c.blame - 2*numberWidth - 2
	} else {
		c.content = (p.width - c.blame - 2*numberWidth - 1) / 2
	}
	c.content = max(c.content, 0)
	return c
}

// contentStart is the first column of the content of side.
func (p *Pane) contentStart(side model.Side) int {
	c := p.columns()
	if p.unified() {
		return c.blame + 2*numberWidth + 2
	}
	if side == model.Left {
		return c.blame + numberWidth
	}
	return c.blame + 2*numberWidth + c.content + 1
}

// rowAt finds the rendered row covering local line y.
func (p *Pane) rowAt(y int) (*Row, int) {
	rows := p.rows[:p.rendered]
	i := sort.Search(len(rows), func(i int) bool { return rows[i].top+rows[i].Height() > y })
	if i == len(rows) || y < rows[i].top {
		return nil, 0
	}
	return rows[i], y - rows[i].top
}

// Lines renders the local lines [from, to) of the pane.
func (p *Pane) Lines(from, to int) []string {
	if p.rendered == 0 {
		if from <= 0 && to > 0 {
			return []string{p.fit(p.palette.Get("line blank").Render("Loading "+p.path+"…"), p.width)}
		}
		return nil
	}
	var out []string
	for y := max(from, 0); y < to; {
		row, within := p.rowAt(y)
		if row == nil {
			break
		}
		for ; within < row.Height() && y < to; within++ {
			if within == 0 {
				out = append(out, p.renderRow(row))
			} else {
				out = append(out, p.renderThread(row, row.threads[within-1]))
			}
			y++
		}
	}
	return out
}

func (p *Pane) View() string {
	return strings.Join(p.Lines(0, p.Height()), "\n")
}

func (p *Pane) fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "…")
	if pad := width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func (p *Pane) renderRow(row *Row) string {
	switch row.Kind {
	case ContextControlRow:
		return p.renderLabel(row.Text, "context-control")
	case MoveControlRow:
		return p.renderLabel(row.Text, "move-control")
	case WarningRow:
		return p.renderLabel(row.Text, "warning")
	}

	switch row.Pair.Left.BeforeNumber {
	case model.FileLine:
		return p.renderFileRow(row)
	case model.LostLine:
		return p.renderHeader(row, "LOST", "comments on lines that are no longer in the file")
	}

	cols := p.columns()
	var b strings.Builder
	b.WriteString(p.blameCell(row, cols.blame))
	if p.unified() {
		side := model.Right
		if !row.HasSide(model.Right) {
			side = model.Left
		}
		marker := " "
		switch row.Line(side).Type {
		case model.LineAdd:
			marker = "+"
		case model.LineRemove:
			marker = "-"
		}
		b.WriteString(p.numberCell(row, model.Left))
		b.WriteString(p.numberCell(row, model.Right))
		b.WriteString(p.palette.Get(lineClass(row.Line(side))).Render(marker + " "))
		b.WriteString(p.contentCell(row, side, cols.content))
	} else {
		b.WriteString(p.numberCell(row, model.Left))
		b.WriteString(p.contentCell(row, model.Left, cols.content))
		b.WriteString(p.palette.Get("line number").Render("│"))
		b.WriteString(p.numberCell(row, model.Right))
		b.WriteString(p.contentCell(row, model.Right, cols.content))
	}
	return p.fit(b.String(), p.width)
}

func (p *Pane) renderFileRow(row *Row) string {
	status := ""
	path := p.path
	if p.diff != nil {
		status = p.diff.Status.String()
		path = p.diff.DisplayPath()
	}
	return p.renderHeader(row, "FILE", status+" "+path)
}

func (p *Pane) renderHeader(row *Row, label, text string) string {
	marker := "  "
	if row.targeted {
		marker = "▶ "
	}
	style := p.palette.Get("file-header")
	if row.targeted {
		style = p.palette.Classes("file-header", "line number targeted")
	}
	return p.fit(style.Render(marker+label)+" "+p.palette.Get("file-header").Render(text), p.width)
}

func (p *Pane) renderLabel(text, class string) string {
	indent := strings.Repeat(" ", p.columns().blame+numberWidth)
	return p.fit(indent+p.palette.Get(class).Render(text), p.width)
}

func (p *Pane) renderThread(row *Row, t model.Thread) string {
	side := t.Side
	if p.unified() {
		side = model.Left
	}
	text := "▸ thread " + t.RootID
	if t.Range != nil {
		text += " (" + t.Range.String() + ")"
	}
	indent := strings.Repeat(" ", p.contentStart(side))
	return p.fit(indent+p.palette.Classes(p.modeClasses(SelectedCommentClass, "thread")...).Render(text), p.width)
}

func (p *Pane) blameCell(row *Row, width int) string {
	if width == 0 {
		return ""
	}
	text := ""
	if n := row.LineNumber(model.Left); n.IsReal() {
		for _, b := range p.blame {
			if int(n) == b.Start {
				commit := b.Commit
				if len(commit) > 8 {
					commit = commit[:8]
				}
				text = commit + " " + b.Author
				break
			}
		}
	}
	return p.fit(p.palette.Classes(p.modeClasses(SelectedBlameClass, "blame")...).Render(text), width)
}

func (p *Pane) numberCell(row *Row, side model.Side) string {
	n := row.LineNumber(side)
	text := fmt.Sprintf("%*s ", numberWidth-1, n.String())
	classes := []string{"line number"}
	for _, class := range row.Element(side).Classes() {
		if strings.HasPrefix(class, "coverage ") {
			classes = append(classes, class)
		}
	}
	classes = p.modeClasses(SideSelectionClass(side), classes...)
	if row.targeted && side == p.cursorSide && n != model.NoLine {
		classes = append(classes, "line number targeted")
	}
	return p.palette.Classes(classes...).Render(text)
}

func lineClass(line model.Line) string {
	switch line.Type {
	case model.LineAdd:
		return "line added"
	case model.LineRemove:
		return "line removed"
	case model.LineBlank:
		return "line blank"
	default:
		return "line"
	}
}

func (p *Pane) contentCell(row *Row, side model.Side, width int) string {
	if width <= 0 {
		return ""
	}
	line := row.Line(side)
	if !line.OnSide(side) {
		return p.palette.Get("line blank").Render(strings.Repeat(" ", width))
	}
	base := lineClass(line)
	baseStyle := p.palette.Get(base)
	el := row.Element(side)
	cells := layoutCells(line.Text, p.prefs.TabSize)

	var b strings.Builder
	var run strings.Builder
	runKey := ""
	var runClasses []string
	flush := func() {
		if run.Len() == 0 {
			return
		}
		b.WriteString(p.palette.Classes(append([]string{base}, runClasses...)...).Render(run.String()))
		run.Reset()
	}
	column := 0
	for _, c := range cells {
		if column > width {
			break
		}
		classes := el.ClassesAt(c.char, len(cells))
		key := strings.Join(classes, "\x00")
		if key != runKey {
			flush()
			runKey = key
			runClasses = classes
		}
		switch {
		case c.r == '\t' && slices.Contains(classes, layer.TabClass):
			run.WriteString("→" + strings.Repeat(" ", c.width-1))
		case c.r == '\t':
			run.WriteString(strings.Repeat(" ", c.width))
		default:
			run.WriteRune(c.r)
		}
		column += c.width
	}
	flush()

	out := ansi.Truncate(b.String(), width, "…")
	if pad := width - ansi.StringWidth(out); pad > 0 {
		out += baseStyle.Render(strings.Repeat(" ", pad))
	}
	return out
}

