package diffview

import (
	"github.com/mattn/go-runewidth"
)

// cell is one rune of a line as laid out on screen.
type cell struct {
	char  int
	r     rune
	width int
}

// layoutCells lays out text with tabs expanded to the next tab stop.
func layoutCells(text string, tabSize int) []cell {
	if tabSize <= 0 {
		tabSize = 8
	}
	cells := make([]cell, 0, len(text))
	column := 0
	i := 0
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if r == '\t' {
			w = tabSize - column%tabSize
		}
		cells = append(cells, cell{char: i, r: r, width: w})
		column += w
		i++
	}
	return cells
}

// charAt maps a display column to the character index under it. Columns past
// the end of the text map to the length of the text.
func charAt(text string, tabSize, column int) int {
	cells := layoutCells(text, tabSize)
	x := 0
	for _, c := range cells {
		if column < x+c.width {
			return c.char
		}
		x += c.width
	}
	return len(cells)
}
