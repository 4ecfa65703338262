package model

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var ErrInvalidChunk = errors.New("invalid chunk")

// IntralineEdit is a [skip, mark] pair: skip characters are unchanged, the
// following mark characters are changed. Offsets run over the chunk text
// where every line counts its length plus one for the newline.
type IntralineEdit [2]int

// MoveInfo describes a chunk that was moved within the file.
type MoveInfo struct {
	Changed bool
	// RangeStart and RangeEnd are the lines the block came from or went to.
	// Both are zero when the other end is unknown.
	RangeStart int
	RangeEnd   int
}

// Chunk is one segment of the file diff.
type Chunk struct {
	AB []string
	A  []string
	B  []string
	// Skip is the number of unchanged lines omitted by the provider.
	Skip  int
	EditA []IntralineEdit
	EditB []IntralineEdit
	// Common marks an A/B chunk whose sides only differ in whitespace.
	Common      bool
	DueToRebase bool
	Move        *MoveInfo
	// KeyLocation chunks are never collapsed into context controls.
	KeyLocation bool
}

// IsDelta reports whether the chunk holds changed lines.
func (c Chunk) IsDelta() bool {
	return len(c.AB) == 0 && c.Skip == 0 && (len(c.A) > 0 || len(c.B) > 0)
}

// HasIntraline reports whether the chunk carries edit information.
func (c Chunk) HasIntraline() bool {
	return c.EditA != nil || c.EditB != nil
}

// LineCount is the number of rows the chunk spans in a side-by-side view.
func (c Chunk) LineCount() int {
	if c.Skip > 0 {
		return c.Skip
	}
	if len(c.AB) > 0 {
		return len(c.AB)
	}
	return max(len(c.A), len(c.B))
}

func (c Chunk) Validate() error {
	if len(c.AB) > 0 && (len(c.A) > 0 || len(c.B) > 0) {
		return fmt.Errorf("%w: common chunk with sided lines", ErrInvalidChunk)
	}
	if c.Skip > 0 && (len(c.AB) > 0 || len(c.A) > 0 || len(c.B) > 0) {
		return fmt.Errorf("%w: skip chunk with lines", ErrInvalidChunk)
	}
	if c.Skip < 0 {
		return fmt.Errorf("%w: negative skip %d", ErrInvalidChunk, c.Skip)
	}
	if c.Skip == 0 && len(c.AB) == 0 && len(c.A) == 0 && len(c.B) == 0 {
		return fmt.Errorf("%w: empty chunk", ErrInvalidChunk)
	}
	return nil
}

// Diff is the content of one file diff.
type Diff struct {
	Path    string
	OldPath string
	Status  FileStatus
	Binary  bool
	Header  []string
	Content []Chunk
	// Language names the lexer used for syntax highlighting, derived from
	// the path when empty.
	Language string

	MissingNewlineLeft  bool
	MissingNewlineRight bool
}

func (d *Diff) Validate() error {
	for i, c := range d.Content {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%s: chunk %d: %w", d.Path, i, err)
		}
	}
	return nil
}

// Length is the number of content lines in the diff. Skipped lines are not
// counted.
func (d *Diff) Length() int {
	if d == nil {
		return 0
	}
	total := 0
	for _, c := range d.Content {
		if len(c.AB) > 0 {
			total += len(c.AB)
			continue
		}
		total += len(c.A) + len(c.B)
	}
	return total
}

// AnyLineTooLong reports whether any line is longer than limit characters.
func (d *Diff) AnyLineTooLong(limit int) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Content {
		for _, group := range [][]string{c.AB, c.A, c.B} {
			for _, line := range group {
				if utf8.RuneCountInString(line) > limit {
					return true
				}
			}
		}
	}
	return false
}

// DisplayPath returns the path shown for the diff, including the previous
// name for renames and copies.
func (d *Diff) DisplayPath() string {
	if d.OldPath != "" && d.OldPath != d.Path && (d.Status == FileRenamed || d.Status == FileCopied) {
		return d.OldPath + " → " + d.Path
	}
	return d.Path
}
