package layer

import (
	"testing"

	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhitespaceLayer(t *testing.T) {
	layer := &WhitespaceLayer{ShowTabs: true, ShowWhitespaceErrors: true}

	var added Element
	layer.Annotate(&added, model.Line{Type: model.LineAdd, AfterNumber: 1, Text: "\tx  "}, model.Right)
	assert.Equal(t, []Span{{0, 1, TabClass}, {2, 4, TrailingWhitespaceClass}}, added.Spans())

	var context Element
	layer.Annotate(&context, bothLine(1, "x  "), model.Left)
	assert.Empty(t, context.Spans(), "only added lines report whitespace errors")

	var other Element
	layer.Annotate(&other, model.Line{Type: model.LineAdd, AfterNumber: 1, Text: "\t"}, model.Left)
	assert.Empty(t, other.Spans())
}

func TestCoverageLayer(t *testing.T) {
	layer := &CoverageLayer{}
	notes := record(layer)
	layer.SetRanges([]model.CoverageRange{
		{Type: model.NotCovered, Side: model.Right, Start: 5, End: 6},
		{Type: model.Covered, Side: model.Right, Start: 1, End: 3},
	})
	assert.Equal(t, []notification{{1, 3, model.Right}, {5, 6, model.Right}}, *notes)

	var el Element
	layer.Annotate(&el, bothLine(2, "x"), model.Right)
	assert.Equal(t, []string{"coverage covered"}, el.Classes())

	el.Reset()
	layer.Annotate(&el, bothLine(6, "x"), model.Right)
	assert.Equal(t, []string{"coverage not-covered"}, el.Classes())

	el.Reset()
	layer.Annotate(&el, bothLine(2, "x"), model.Left)
	assert.Empty(t, el.Classes())

	*notes = nil
	layer.SetRanges(nil)
	assert.Len(t, *notes, 2, "clearing asks for the old ranges again")
}

func TestRangesLayer(t *testing.T) {
	layer := &RangesLayer{}
	notes := record(layer)
	layer.SetRanges([]model.Thread{
		{Side: model.Right, Line: 3, Range: &model.CommentRange{StartLine: 1, StartCharacter: 2, EndLine: 3, EndCharacter: 4}},
		{Side: model.Right, Line: 9},
	})
	assert.Equal(t, []notification{{1, 3, model.Right}}, *notes)

	tests := []struct {
		line     int
		expected []Span
	}{
		{1, []Span{{2, ToEnd, RangeClass}}},
		{2, []Span{{0, ToEnd, RangeClass}}},
		{3, []Span{{0, 4, RangeClass}}},
		{4, nil},
	}
	for _, tt := range tests {
		var el Element
		layer.Annotate(&el, bothLine(tt.line, "abcdef"), model.Right)
		if tt.expected == nil {
			assert.Empty(t, el.Spans())
		} else {
			assert.Equal(t, tt.expected, el.Spans())
		}
	}
}

func TestIntralineLayer(t *testing.T) {
	var layer IntralineLayer
	removed := model.Line{Type: model.LineRemove, BeforeNumber: 1, Text: "abcdef",
		Highlights: []model.HighlightRange{{Start: 1, End: 3}, {Start: 4, End: model.ToEnd}}}

	var el Element
	layer.Annotate(&el, removed, model.Left)
	assert.Equal(t, []Span{{1, 3, IntralineRemovedClass}, {4, ToEnd, IntralineRemovedClass}}, el.Spans())

	el.Reset()
	layer.Annotate(&el, removed, model.Right)
	assert.Empty(t, el.Spans())

	added := model.Line{Type: model.LineAdd, AfterNumber: 1, Text: "xy",
		Highlights: []model.HighlightRange{{Start: 0, End: 1}}}
	el.Reset()
	layer.Annotate(&el, added, model.Right)
	assert.Equal(t, []Span{{0, 1, IntralineAddedClass}}, el.Spans())
}

func TestSyntaxLayer_ProcessAndApply(t *testing.T) {
	layer := NewSyntaxLayer()
	notes := record(layer)
	diff := &model.Diff{
		Path: "main.go",
		Content: []model.Chunk{
			{AB: []string{"package main"}},
			{B: []string{"func main() {}"}},
		},
	}

	cmd := layer.Process(diff)
	require.NotNil(t, cmd)
	assert.True(t, layer.Update(cmd()))
	assert.Equal(t, []notification{{1, 1, model.Left}, {1, 2, model.Right}}, *notes)

	var el Element
	layer.Annotate(&el, bothLine(1, "package main"), model.Left)
	spans := el.Spans()
	require.NotEmpty(t, spans)
	assert.Equal(t, Span{0, 7, "syntax keyword"}, spans[0])

	el.Reset()
	layer.Annotate(&el, model.Line{Type: model.LineAdd, AfterNumber: 2, Text: "func main() {}"}, model.Right)
	assert.Contains(t, el.Spans(), Span{0, 4, "syntax keyword"})
}

func TestSyntaxLayer_StaleResultsAreDropped(t *testing.T) {
	layer := NewSyntaxLayer()
	notes := record(layer)
	diff := &model.Diff{Path: "main.go", Content: []model.Chunk{{AB: []string{"package main"}}}}

	stale := layer.Process(diff)
	fresh := layer.Process(diff)

	assert.True(t, layer.Update(stale()))
	assert.Empty(t, *notes)
	assert.True(t, layer.Update(fresh()))
	assert.NotEmpty(t, *notes)
}

func TestSyntaxLayer_Disabled(t *testing.T) {
	layer := NewSyntaxLayer()
	diff := &model.Diff{Path: "main.go", Content: []model.Chunk{{AB: []string{"package main"}}}}
	cmd := layer.Process(diff)

	layer.SetEnabled(false)
	assert.True(t, layer.Update(cmd()))
	assert.Nil(t, layer.Process(diff))

	var el Element
	layer.Annotate(&el, bothLine(1, "package main"), model.Left)
	assert.Empty(t, el.Spans())
}
