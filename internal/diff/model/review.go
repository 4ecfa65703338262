package model

import "fmt"

// CommentRange is a character range: lines are 1-based, characters 0-based,
// start inclusive and end exclusive.
type CommentRange struct {
	StartLine      int
	StartCharacter int
	EndLine        int
	EndCharacter   int
}

func (r CommentRange) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.StartLine, r.StartCharacter, r.EndLine, r.EndCharacter)
}

// Contains reports whether the character at (line, char) is inside r.
func (r CommentRange) Contains(line, char int) bool {
	if line < r.StartLine || line > r.EndLine {
		return false
	}
	if line == r.StartLine && char < r.StartCharacter {
		return false
	}
	if line == r.EndLine && char >= r.EndCharacter {
		return false
	}
	return true
}

// Address is the semantic cursor position.
type Address struct {
	Side Side
	Line LineNumber
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%s", a.Side, a.Line)
}

// Thread is the placement of a comment thread on a diff.
type Thread struct {
	Path   string
	Side   Side
	Line   LineNumber
	Range  *CommentRange
	RootID string
}

// BlameRange attributes an inclusive range of lines to a commit.
type BlameRange struct {
	Commit  string
	Author  string
	Time    int64
	Message string
	Start   int
	End     int
}

type CoverageType int

const (
	Covered CoverageType = iota
	NotCovered
	PartiallyCovered
	NotInstrumented
)

func (t CoverageType) String() string {
	switch t {
	case Covered:
		return "covered"
	case NotCovered:
		return "not-covered"
	case PartiallyCovered:
		return "partially-covered"
	default:
		return "not-instrumented"
	}
}

// CoverageRange marks an inclusive line range on one side.
type CoverageRange struct {
	Type  CoverageType
	Side  Side
	Start int
	End   int
}
