// Package model holds the line-oriented representation of a file diff as it
// is delivered to the viewer, together with the review data placed on it.
package model

import (
	"fmt"
	"strconv"
)

// FileStatus represents the status of a file in the diff
type FileStatus int

const (
	FileModified FileStatus = iota
	FileAdded
	FileDeleted
	FileRenamed
	FileCopied
)

// String returns a single-character representation of the file status
func (s FileStatus) String() string {
	switch s {
	case FileModified:
		return "M"
	case FileAdded:
		return "A"
	case FileDeleted:
		return "D"
	case FileRenamed:
		return "R"
	case FileCopied:
		return "C"
	default:
		return "?"
	}
}

// Side is one half of a two column diff.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

func (s Side) Opposite() Side {
	if s == Right {
		return Left
	}
	return Right
}

// LineNumber is a 1-based line number on one side. Zero means the line does
// not exist on that side.
type LineNumber int

const (
	NoLine LineNumber = 0
	// FileLine addresses the file as a whole (file level comments).
	FileLine LineNumber = -1
	// LostLine collects comments whose line no longer exists.
	LostLine LineNumber = -2
)

func (n LineNumber) String() string {
	switch n {
	case FileLine:
		return "FILE"
	case LostLine:
		return "LOST"
	case NoLine:
		return ""
	default:
		return strconv.Itoa(int(n))
	}
}

// IsReal reports whether n addresses an actual line of content.
func (n LineNumber) IsReal() bool {
	return n > 0
}

// LineType is the kind of a processed diff line.
type LineType int

const (
	LineBoth LineType = iota
	LineAdd
	LineRemove
	LineBlank
)

func (t LineType) String() string {
	switch t {
	case LineBoth:
		return "both"
	case LineAdd:
		return "add"
	case LineRemove:
		return "remove"
	case LineBlank:
		return "blank"
	default:
		return "unknown"
	}
}

// HighlightRange is an intraline span in characters. End is exclusive; ToEnd
// means the span runs to the end of the line.
type HighlightRange struct {
	Start int
	End   int
}

const ToEnd = -1

// Line is one row of content on one or both sides.
type Line struct {
	Type         LineType
	BeforeNumber LineNumber
	AfterNumber  LineNumber
	Text         string
	Highlights   []HighlightRange
	// HasIntralineInfo is set when the chunk carried edit information, so an
	// empty Highlights means "nothing changed inside the line".
	HasIntralineInfo bool
	DueToRebase      bool
}

// Number returns the line number of l on side.
func (l Line) Number(side Side) LineNumber {
	if side == Left {
		return l.BeforeNumber
	}
	return l.AfterNumber
}

// OnSide reports whether l has content on side.
func (l Line) OnSide(side Side) bool {
	switch l.Type {
	case LineBoth:
		return true
	case LineRemove:
		return side == Left
	case LineAdd:
		return side == Right
	default:
		return false
	}
}

func (l Line) String() string {
	return fmt.Sprintf("%s %s/%s %q", l.Type, l.BeforeNumber, l.AfterNumber, l.Text)
}

// FileLevelLine is the synthetic line that hosts file level comments.
func FileLevelLine() Line {
	return Line{Type: LineBoth, BeforeNumber: FileLine, AfterNumber: FileLine}
}

// LostLevelLine is the synthetic line that hosts comments on lost lines.
func LostLevelLine() Line {
	return Line{Type: LineBoth, BeforeNumber: LostLine, AfterNumber: LostLine}
}
