package layer

import (
	"sort"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/idursun/jjreview/internal/ui/common"
	"github.com/rivo/uniseg"
)

const (
	TokenHighlightClass = "token-highlight"

	maxLineLength        = 500
	maxTokenLength       = 100
	maxTokenCount        = 10000
	maxTokenOccurrences  = 1000
	DefaultHoverDelay    = 200 * time.Millisecond
	DefaultNearestTokens = 100
)

// Location is a line on one side.
type Location struct {
	Line model.LineNumber
	Side model.Side
}

type tokenSpan struct {
	text  string
	start int
	end   int
}

var tokenLayerIDs atomic.Int64

// TokenHighlightMsg is produced once the hover delay has elapsed.
type TokenHighlightMsg struct {
	layerID int64
	Token   string
	Line    model.LineNumber
	Side    model.Side
}

// TokenLayer underlines every occurrence of the token under the mouse.
type TokenLayer struct {
	Listeners

	id          int64
	delay       time.Duration
	nearest     int
	debouncer   *common.Debouncer
	occurrences map[string]map[Location]struct{}
	lines       map[Location][]tokenSpan
	highlighted string
	anchor      Location
}

func NewTokenLayer(delay time.Duration) *TokenLayer {
	if delay <= 0 {
		delay = DefaultHoverDelay
	}
	return &TokenLayer{
		id:          tokenLayerIDs.Add(1),
		delay:       delay,
		nearest:     DefaultNearestTokens,
		debouncer:   common.NewDebouncer(),
		occurrences: make(map[string]map[Location]struct{}),
		lines:       make(map[Location][]tokenSpan),
	}
}

func (t *TokenLayer) Name() string { return "token-highlight" }

func (t *TokenLayer) Highlighted() string { return t.highlighted }

// Reset forgets all indexed tokens. The current highlight is kept so lines
// annotated afterwards still show it.
func (t *TokenLayer) Reset() {
	clear(t.occurrences)
	clear(t.lines)
}

func (t *TokenLayer) Annotate(el *Element, line model.Line, side model.Side) {
	number := line.Number(side)
	if !number.IsReal() || !line.OnSide(side) {
		return
	}
	if utf8.RuneCountInString(line.Text) > maxLineLength {
		return
	}
	loc := Location{Line: number, Side: side}
	spans := tokenize(line.Text)
	t.lines[loc] = spans
	for _, span := range spans {
		t.record(span.text, loc)
		if span.text == t.highlighted {
			el.AddSpan(span.start, span.end, TokenHighlightClass)
		}
	}
}

func (t *TokenLayer) record(token string, loc Location) {
	set, ok := t.occurrences[token]
	if !ok {
		if len(t.occurrences) >= maxTokenCount {
			return
		}
		set = make(map[Location]struct{})
		t.occurrences[token] = set
	}
	if len(set) >= maxTokenOccurrences {
		return
	}
	set[loc] = struct{}{}
}

// tokenize splits text into word tokens with rune offsets. Words joined by
// punctuation such as "a.b" are split further into their parts.
func tokenize(text string) []tokenSpan {
	var spans []tokenSpan
	offset := 0
	state := -1
	rest := text
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		start := -1
		i := 0
		flush := func(end int) {
			if start >= 0 && end-start <= maxTokenLength {
				runes := []rune(word)
				spans = append(spans, tokenSpan{
					text:  string(runes[start-offset : end-offset]),
					start: start,
					end:   end,
				})
			}
			start = -1
		}
		for _, r := range word {
			pos := offset + i
			if isWordRune(r) {
				if start < 0 {
					start = pos
				}
			} else {
				flush(pos)
			}
			i++
		}
		flush(offset + i)
		offset += i
	}
	return spans
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// TokenAt returns the token at character offset char of an annotated line.
func (t *TokenLayer) TokenAt(side model.Side, line model.LineNumber, char int) (string, bool) {
	for _, span := range t.lines[Location{Line: line, Side: side}] {
		if char >= span.start && char < span.end {
			return span.text, true
		}
	}
	return "", false
}

// Hover schedules highlighting of the token under the mouse. Hovering
// something else before the delay elapses replaces the pending update.
func (t *TokenLayer) Hover(side model.Side, line model.LineNumber, char int) tea.Cmd {
	token, ok := t.TokenAt(side, line, char)
	if !ok {
		return nil
	}
	msg := TokenHighlightMsg{layerID: t.id, Token: token, Line: line, Side: side}
	return t.debouncer.Debounce(t.Name(), t.delay, func() tea.Msg { return msg })
}

// MouseOut cancels a pending hover update.
func (t *TokenLayer) MouseOut() {
	t.debouncer.Cancel(t.Name())
}

// Click clears the highlight when the click is outside a token. Clicks that
// are part of a text selection leave the highlight alone.
func (t *TokenLayer) Click(side model.Side, line model.LineNumber, char int, selecting bool) {
	if _, ok := t.TokenAt(side, line, char); ok {
		return
	}
	t.ClickOutside(selecting)
}

// ClickOutside handles a click on something that is not text, such as a
// line number or a thread.
func (t *TokenLayer) ClickOutside(selecting bool) {
	if selecting {
		return
	}
	t.debouncer.Cancel(t.Name())
	t.setHighlight("", t.anchor)
}

// Update applies a TokenHighlightMsg produced by this layer and reports
// whether it did.
func (t *TokenLayer) Update(msg tea.Msg) bool {
	hm, ok := msg.(TokenHighlightMsg)
	if !ok || hm.layerID != t.id {
		return false
	}
	t.setHighlight(hm.Token, Location{Line: hm.Line, Side: hm.Side})
	return true
}

func (t *TokenLayer) setHighlight(token string, anchor Location) {
	previous := t.highlighted
	if previous == token {
		return
	}
	// The previous token is redrawn around the line it was hovered on.
	previousAnchor := t.anchor
	t.highlighted = token
	t.anchor = anchor
	t.notifyToken(previous, previousAnchor.Line)
	t.notifyToken(token, anchor.Line)
}

func (t *TokenLayer) notifyToken(token string, line model.LineNumber) {
	if token == "" {
		return
	}
	for _, loc := range t.Nearest(token, line) {
		t.Notify(loc.Line, loc.Line, loc.Side)
	}
}

// Nearest returns up to the configured number of occurrences of token ordered
// by distance from line. Ties go to the later line, then the left side.
func (t *TokenLayer) Nearest(token string, line model.LineNumber) []Location {
	set := t.occurrences[token]
	locs := make([]Location, 0, len(set))
	for loc := range set {
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool {
		di, dj := distance(locs[i].Line, line), distance(locs[j].Line, line)
		if di != dj {
			return di < dj
		}
		if locs[i].Line != locs[j].Line {
			return locs[i].Line > locs[j].Line
		}
		return locs[i].Side < locs[j].Side
	})
	if len(locs) > t.nearest {
		locs = locs[:t.nearest]
	}
	return locs
}

func distance(a, b model.LineNumber) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
