package model

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// maxWordDiffCells bounds the LCS table; larger line pairs are diffed per
// character instead.
const maxWordDiffCells = 250_000

// ComputeIntraline fills the edit information of delta chunks that have both
// sides and none of their own. Lines are paired in order; unpaired lines are
// marked as changed entirely.
func ComputeIntraline(chunks []Chunk) {
	for i := range chunks {
		c := &chunks[i]
		if !c.IsDelta() || len(c.A) == 0 || len(c.B) == 0 || c.HasIntraline() {
			continue
		}
		c.EditA, c.EditB = chunkEdits(c.A, c.B)
	}
}

func chunkEdits(a, b []string) ([]IntralineEdit, []IntralineEdit) {
	pairs := min(len(a), len(b))
	rangesA := make([]HighlightRange, 0)
	rangesB := make([]HighlightRange, 0)
	offsetA, offsetB := 0, 0
	for i := 0; i < max(len(a), len(b)); i++ {
		if i < pairs {
			la, lb := LineDiff(a[i], b[i])
			rangesA = appendShifted(rangesA, la, offsetA)
			rangesB = appendShifted(rangesB, lb, offsetB)
		} else if i < len(a) {
			if n := utf8.RuneCountInString(a[i]); n > 0 {
				rangesA = append(rangesA, HighlightRange{Start: offsetA, End: offsetA + n})
			}
		} else {
			if n := utf8.RuneCountInString(b[i]); n > 0 {
				rangesB = append(rangesB, HighlightRange{Start: offsetB, End: offsetB + n})
			}
		}
		if i < len(a) {
			offsetA += utf8.RuneCountInString(a[i]) + 1
		}
		if i < len(b) {
			offsetB += utf8.RuneCountInString(b[i]) + 1
		}
	}
	return toEdits(rangesA), toEdits(rangesB)
}

func appendShifted(dst, ranges []HighlightRange, offset int) []HighlightRange {
	for _, r := range ranges {
		dst = append(dst, HighlightRange{Start: r.Start + offset, End: r.End + offset})
	}
	return dst
}

func toEdits(ranges []HighlightRange) []IntralineEdit {
	edits := make([]IntralineEdit, 0, len(ranges))
	prev := 0
	for _, r := range ranges {
		edits = append(edits, IntralineEdit{r.Start - prev, r.End - r.Start})
		prev = r.End
	}
	return edits
}

// LineDiff returns the changed character ranges of an old and a new line.
// Words are compared first; long lines fall back to a character diff.
func LineDiff(oldLine, newLine string) ([]HighlightRange, []HighlightRange) {
	oldTokens := tokenize(oldLine)
	newTokens := tokenize(newLine)
	if len(oldTokens)*len(newTokens) > maxWordDiffCells {
		return charDiff(oldLine, newLine)
	}
	inOld, inNew := computeLCS(oldTokens, newTokens)
	return changedRanges(oldTokens, inOld), changedRanges(newTokens, inNew)
}

// tokenize splits a string into tokens (words and whitespace/punctuation)
func tokenize(s string) []string {
	if s == "" {
		return nil
	}

	var tokens []string
	var current strings.Builder
	lastType := tokenNone

	for _, r := range s {
		currType := getTokenType(r)
		if lastType != tokenNone && currType != lastType && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
		current.WriteRune(r)
		lastType = currType
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

type tokenType int

const (
	tokenNone tokenType = iota
	tokenWord
	tokenSpace
	tokenPunct
)

func getTokenType(r rune) tokenType {
	if unicode.IsSpace(r) {
		return tokenSpace
	}
	if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
		return tokenWord
	}
	return tokenPunct
}

// computeLCS marks the tokens of both slices that are part of their longest
// common subsequence.
func computeLCS(old, new []string) ([]bool, []bool) {
	m, n := len(old), len(new)
	inOld := make([]bool, m)
	inNew := make([]bool, n)
	if m == 0 || n == 0 {
		return inOld, inNew
	}

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if old[i-1] == new[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	i, j := m, n
	for i > 0 && j > 0 {
		switch {
		case old[i-1] == new[j-1]:
			inOld[i-1] = true
			inNew[j-1] = true
			i--
			j--
		case dp[i-1][j] > dp[i][j-1]:
			i--
		default:
			j--
		}
	}
	return inOld, inNew
}

// changedRanges merges runs of tokens outside the LCS into character ranges.
func changedRanges(tokens []string, inLCS []bool) []HighlightRange {
	var ranges []HighlightRange
	offset := 0
	for i, token := range tokens {
		n := utf8.RuneCountInString(token)
		if !inLCS[i] {
			if len(ranges) > 0 && ranges[len(ranges)-1].End == offset {
				ranges[len(ranges)-1].End = offset + n
			} else {
				ranges = append(ranges, HighlightRange{Start: offset, End: offset + n})
			}
		}
		offset += n
	}
	return ranges
}

func charDiff(oldLine, newLine string) ([]HighlightRange, []HighlightRange) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(oldLine, newLine, false))

	var oldRanges, newRanges []HighlightRange
	oldOffset, newOffset := 0, 0
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldOffset += n
			newOffset += n
		case diffmatchpatch.DiffDelete:
			oldRanges = append(oldRanges, HighlightRange{Start: oldOffset, End: oldOffset + n})
			oldOffset += n
		case diffmatchpatch.DiffInsert:
			newRanges = append(newRanges, HighlightRange{Start: newOffset, End: newOffset + n})
			newOffset += n
		}
	}
	return oldRanges, newRanges
}
