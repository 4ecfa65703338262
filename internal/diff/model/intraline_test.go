package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"hello world", []string{"hello", " ", "world"}},
		{"foo_bar", []string{"foo_bar"}},
		{"a.b", []string{"a", ".", "b"}},
		{"x + y", []string{"x", " ", "+", " ", "y"}},
		{"  spaces  ", []string{"  ", "spaces", "  "}},
		{"", nil},
		{"abc123", []string{"abc123"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, tokenize(tt.input))
		})
	}
}

func TestLineDiff_SimpleChange(t *testing.T) {
	oldRanges, newRanges := LineDiff("hello world", "hello there")
	assert.Equal(t, []HighlightRange{{Start: 6, End: 11}}, oldRanges)
	assert.Equal(t, []HighlightRange{{Start: 6, End: 11}}, newRanges)
}

func TestLineDiff_NoChange(t *testing.T) {
	oldRanges, newRanges := LineDiff("same content", "same content")
	assert.Empty(t, oldRanges)
	assert.Empty(t, newRanges)
}

func TestLineDiff_AdjacentTokensMerge(t *testing.T) {
	oldRanges, _ := LineDiff("a foo.bar b", "a b")
	assert.Equal(t, []HighlightRange{{Start: 1, End: 9}}, oldRanges)
}

func TestLineDiff_CountsCharacters(t *testing.T) {
	oldRanges, newRanges := LineDiff("héllo wörld", "héllo world")
	assert.Equal(t, []HighlightRange{{Start: 6, End: 11}}, oldRanges)
	assert.Equal(t, []HighlightRange{{Start: 6, End: 11}}, newRanges)
}

func TestLineDiff_LongLinesUseCharacterDiff(t *testing.T) {
	words := strings.Repeat("w ", 600)
	oldRanges, newRanges := LineDiff(words+"x", words+"y")
	assert.Equal(t, []HighlightRange{{Start: 1200, End: 1201}}, oldRanges)
	assert.Equal(t, []HighlightRange{{Start: 1200, End: 1201}}, newRanges)
}

func TestComputeIntraline(t *testing.T) {
	chunks := []Chunk{
		{AB: []string{"keep"}},
		{A: []string{"int x = 1;", "gone"}, B: []string{"int x = 2;"}},
		{B: []string{"only added"}},
	}
	ComputeIntraline(chunks)

	assert.Nil(t, chunks[0].EditA)
	assert.Equal(t, []IntralineEdit{{8, 1}, {2, 4}}, chunks[1].EditA)
	assert.Equal(t, []IntralineEdit{{8, 1}}, chunks[1].EditB)
	assert.False(t, chunks[2].HasIntraline())
}

func TestComputeIntraline_KeepsProvidedEdits(t *testing.T) {
	provided := []IntralineEdit{{0, 1}}
	chunks := []Chunk{{A: []string{"a"}, B: []string{"b"}, EditA: provided, EditB: []IntralineEdit{}}}
	ComputeIntraline(chunks)
	assert.Equal(t, provided, chunks[0].EditA)
}
