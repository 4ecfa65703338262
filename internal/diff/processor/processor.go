// Package processor turns the chunks of a file diff into render groups:
// collapsible context, changed blocks, and the synthetic file row.
package processor

import (
	"unicode/utf8"

	"github.com/idursun/jjreview/internal/diff/model"
)

// WholeFile disables collapsing of unchanged lines.
const WholeFile = -1

const (
	defaultAsyncThreshold = 64
	fallbackMaxGroupSize  = 120
)

// KeyLocations are lines that must never be collapsed, e.g. lines with
// comment threads.
type KeyLocations map[model.Side]map[int]bool

func (k KeyLocations) Add(side model.Side, line int) {
	if k[side] == nil {
		k[side] = make(map[int]bool)
	}
	k[side][line] = true
}

func (k KeyLocations) has(side model.Side, line int) bool {
	return k != nil && k[side][line]
}

// KeyLocationsFromThreads marks every line that hosts a thread.
func KeyLocationsFromThreads(threads []model.Thread) KeyLocations {
	k := KeyLocations{}
	for _, t := range threads {
		if t.Line.IsReal() {
			k.Add(t.Side, int(t.Line))
		}
	}
	return k
}

type Options struct {
	// Context is the number of unchanged lines kept around each change.
	Context      int
	KeyLocations KeyLocations
	// AsyncThreshold is the number of rows rendered per batch; changed
	// chunks are split into groups of at most twice that size.
	AsyncThreshold int
	IncludeLost    bool
}

func (o Options) maxGroupSize() int {
	switch {
	case o.AsyncThreshold > 0:
		return o.AsyncThreshold * 2
	case o.AsyncThreshold == 0:
		return defaultAsyncThreshold * 2
	default:
		return fallbackMaxGroupSize
	}
}

// Process converts chunks into groups. The first group is always the file
// row (preceded by the lost row when requested).
func Process(chunks []model.Chunk, opts Options) []Group {
	chunks = splitLargeChunks(chunks, opts.maxGroupSize())
	chunks = splitCommonChunksWithKeyLocations(chunks, opts.KeyLocations)

	var groups []Group
	if opts.IncludeLost {
		groups = append(groups, Group{Type: Both, Lines: []model.Line{model.LostLevelLine()}})
	}
	groups = append(groups, Group{Type: Both, Lines: []model.Line{model.FileLevelLine()}})

	left, right := 0, 0
	for i := 0; i < len(chunks); {
		first := firstUncollapsible(chunks, i)
		if first == i {
			c := chunks[i]
			groups = append(groups, chunkToGroup(c, left+1, right+1))
			left += leftCount(c)
			right += rightCount(c)
			i++
			continue
		}

		collapsible := chunks[i:first]
		lineCount := 0
		collapsed := make([]Group, 0, len(collapsible))
		hasSkip := false
		for _, c := range collapsible {
			collapsed = append(collapsed, chunkToGroup(c, left+1, right+1))
			lineCount += leftCount(c)
			left += leftCount(c)
			right += rightCount(c)
			hasSkip = hasSkip || c.Skip > 0
		}
		if opts.Context != WholeFile || hasSkip {
			context := max(opts.Context, 0)
			hiddenStart := context
			if i == 0 {
				hiddenStart = 0
			}
			hiddenEnd := lineCount - context
			if first == len(chunks) {
				hiddenEnd = lineCount
			}
			collapsed = hideInContextControl(collapsed, hiddenStart, hiddenEnd)
		}
		groups = append(groups, collapsed...)
		i = first
	}
	return groups
}

func isCollapsible(c model.Chunk) bool {
	return (len(c.AB) > 0 || c.Common || c.Skip > 0) && !c.KeyLocation
}

func firstUncollapsible(chunks []model.Chunk, offset int) int {
	i := offset
	for i < len(chunks) && isCollapsible(chunks[i]) {
		i++
	}
	return i
}

func leftCount(c model.Chunk) int {
	switch {
	case c.Skip > 0:
		return c.Skip
	case len(c.AB) > 0:
		return len(c.AB)
	default:
		return len(c.A)
	}
}

func rightCount(c model.Chunk) int {
	switch {
	case c.Skip > 0:
		return c.Skip
	case len(c.AB) > 0:
		return len(c.AB)
	default:
		return len(c.B)
	}
}

func chunkToGroup(c model.Chunk, leftStart, rightStart int) Group {
	g := Group{
		Type:                  Delta,
		Skip:                  c.Skip,
		LeftStart:             model.LineNumber(leftStart),
		RightStart:            model.LineNumber(rightStart),
		Move:                  c.Move,
		DueToRebase:           c.DueToRebase,
		IgnoredWhitespaceOnly: c.Common,
		KeyLocation:           c.KeyLocation,
	}
	if len(c.AB) > 0 || c.Skip > 0 {
		g.Type = Both
	}
	g.Lines = linesFromChunk(c, leftStart, rightStart)
	return g
}

func linesFromChunk(c model.Chunk, leftStart, rightStart int) []model.Line {
	if c.Skip > 0 {
		return nil
	}
	if len(c.AB) > 0 {
		lines := make([]model.Line, 0, len(c.AB))
		for i, text := range c.AB {
			lines = append(lines, model.Line{
				Type:         model.LineBoth,
				BeforeNumber: model.LineNumber(leftStart + i),
				AfterNumber:  model.LineNumber(rightStart + i),
				Text:         text,
				DueToRebase:  c.DueToRebase,
			})
		}
		return lines
	}

	lines := make([]model.Line, 0, len(c.A)+len(c.B))
	highlightsA := convertIntralineInfos(c.A, c.EditA)
	for i, text := range c.A {
		lines = append(lines, model.Line{
			Type:             model.LineRemove,
			BeforeNumber:     model.LineNumber(leftStart + i),
			Text:             text,
			Highlights:       highlightsA[i],
			HasIntralineInfo: c.EditA != nil,
			DueToRebase:      c.DueToRebase,
		})
	}
	highlightsB := convertIntralineInfos(c.B, c.EditB)
	for i, text := range c.B {
		lines = append(lines, model.Line{
			Type:             model.LineAdd,
			AfterNumber:      model.LineNumber(rightStart + i),
			Text:             text,
			Highlights:       highlightsB[i],
			HasIntralineInfo: c.EditB != nil,
			DueToRebase:      c.DueToRebase,
		})
	}
	return lines
}

// convertIntralineInfos maps [skip, mark] edits over the newline-joined rows
// onto per-row highlight ranges.
func convertIntralineInfos(rows []string, edits []model.IntralineEdit) [][]model.HighlightRange {
	out := make([][]model.HighlightRange, len(rows))
	lineLen := func(i int) int {
		return utf8.RuneCountInString(rows[i]) + 1
	}

	row, idx := 0, 0
	for _, e := range edits {
		skip, mark := e[0], e[1]
		for skip > 0 && row < len(rows) {
			remaining := lineLen(row) - idx
			if skip < remaining {
				idx += skip
				skip = 0
			} else {
				skip -= remaining
				row++
				idx = 0
			}
		}
		start := idx
		for mark > 0 && row < len(rows) {
			remaining := lineLen(row) - idx
			if mark < remaining {
				idx += mark
				mark = 0
				break
			}
			out[row] = append(out[row], model.HighlightRange{Start: start, End: model.ToEnd})
			mark -= remaining
			row++
			idx = 0
			start = 0
		}
		if row < len(rows) && idx > start {
			out[row] = append(out[row], model.HighlightRange{Start: start, End: idx})
		}
	}
	return out
}

// splitLargeChunks breaks one-sided chunks into pieces of at most size
// lines. Moved chunks stay whole.
func splitLargeChunks(chunks []model.Chunk, size int) []model.Chunk {
	out := make([]model.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if len(c.AB) > 0 || c.Skip > 0 || c.Move != nil || (len(c.A) > 0 && len(c.B) > 0) {
			out = append(out, c)
			continue
		}
		lines, isA := c.B, false
		if len(c.A) > 0 {
			lines, isA = c.A, true
		}
		for _, part := range breakdown(lines, size) {
			sub := model.Chunk{DueToRebase: c.DueToRebase, KeyLocation: c.KeyLocation}
			if isA {
				sub.A = part
			} else {
				sub.B = part
			}
			out = append(out, sub)
		}
	}
	return out
}

func breakdown(lines []string, size int) [][]string {
	if size <= 0 || len(lines) <= size {
		return [][]string{lines}
	}
	var parts [][]string
	for len(lines) > size {
		parts = append(parts, lines[:size])
		lines = lines[size:]
	}
	if len(lines) > 0 {
		parts = append(parts, lines)
	}
	return parts
}

// splitCommonChunksWithKeyLocations cuts key location lines out of common
// chunks so they are never collapsed.
func splitCommonChunksWithKeyLocations(chunks []model.Chunk, keys KeyLocations) []model.Chunk {
	if len(keys) == 0 {
		return chunks
	}
	out := make([]model.Chunk, 0, len(chunks))
	left, right := 1, 1
	for _, c := range chunks {
		if len(c.AB) == 0 || c.Skip > 0 {
			left += leftCount(c)
			right += rightCount(c)
			out = append(out, c)
			continue
		}
		n := len(c.AB)
		last := 0
		for i := 0; i < n; i++ {
			if !keys.has(model.Left, left+i) && !keys.has(model.Right, right+i) {
				continue
			}
			if i > last {
				part := c
				part.AB = c.AB[last:i]
				part.KeyLocation = false
				out = append(out, part)
			}
			part := c
			part.AB = c.AB[i : i+1]
			part.KeyLocation = true
			out = append(out, part)
			last = i + 1
		}
		if n > last {
			part := c
			part.AB = c.AB[last:]
			out = append(out, part)
		}
		left += n
		right += n
	}
	return out
}

// hideInContextControl wraps the lines in [hiddenStart, hiddenEnd) of a run
// of common groups into a context control group.
func hideInContextControl(groups []Group, hiddenStart, hiddenEnd int) []Group {
	if len(groups) == 0 {
		return nil
	}
	hiddenStart = max(hiddenStart, 0)
	hiddenEnd = max(hiddenEnd, hiddenStart)

	anySkip := false
	for _, g := range groups {
		anySkip = anySkip || g.Skip > 0
	}
	numHidden := hiddenEnd - hiddenStart
	if numHidden <= 1 && !anySkip {
		return groups
	}

	before, hidden := splitGroups(groups, hiddenStart, false)
	beforeLength := totalLength(before)
	hidden, after := splitGroups(hidden, hiddenEnd-beforeLength, true)

	result := append([]Group{}, before...)
	if len(hidden) > 0 {
		result = append(result, Group{
			Type:       ContextControl,
			Hidden:     hidden,
			LeftStart:  hidden[0].LeftStart,
			RightStart: hidden[0].RightStart,
		})
	}
	return append(result, after...)
}

func totalLength(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += g.Length(model.Left)
	}
	return n
}

// splitGroups divides groups after n lines. Groups that cannot be split
// (skips and whitespace-only changes) go to the left part when keepLeft is
// set, otherwise to the right part.
func splitGroups(groups []Group, n int, keepLeft bool) ([]Group, []Group) {
	var before, after []Group
	acc := 0
	for _, g := range groups {
		length := g.Length(model.Left)
		switch {
		case acc >= n:
			after = append(after, g)
		case acc+length <= n:
			before = append(before, g)
		case g.Skip > 0 || g.Type != Both:
			if keepLeft {
				before = append(before, g)
			} else {
				after = append(after, g)
			}
		default:
			k := n - acc
			head, tail := g, g
			head.Lines = g.Lines[:k]
			tail.Lines = g.Lines[k:]
			tail.LeftStart = g.LeftStart + model.LineNumber(k)
			tail.RightStart = g.RightStart + model.LineNumber(k)
			before = append(before, head)
			after = append(after, tail)
		}
		acc += length
	}
	return before, after
}
