package layer

import (
	"unicode"

	"github.com/idursun/jjreview/internal/diff/model"
)

const (
	TrailingWhitespaceClass = "trailing-whitespace"
	TabClass                = "tab"
)

// WhitespaceLayer marks tabs and, on added lines, trailing whitespace.
type WhitespaceLayer struct {
	ShowTabs             bool
	ShowWhitespaceErrors bool
}

func (w *WhitespaceLayer) Name() string { return "whitespace" }

func (w *WhitespaceLayer) Annotate(el *Element, line model.Line, side model.Side) {
	if !line.OnSide(side) {
		return
	}
	runes := []rune(line.Text)
	if w.ShowTabs {
		for i, r := range runes {
			if r == '\t' {
				el.AddSpan(i, i+1, TabClass)
			}
		}
	}
	if w.ShowWhitespaceErrors && line.Type == model.LineAdd {
		end := len(runes)
		start := end
		for start > 0 && unicode.IsSpace(runes[start-1]) {
			start--
		}
		if start < end {
			el.AddSpan(start, end, TrailingWhitespaceClass)
		}
	}
}
