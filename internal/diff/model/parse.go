package model

import (
	"fmt"
	"io"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// Parse reads a unified diff and returns one Diff per file. Gaps between
// hunks become skip chunks and intraline edits are computed for changed
// chunks with both sides.
func Parse(r io.Reader) ([]*Diff, error) {
	files, _, err := gitdiff.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}
	diffs := make([]*Diff, 0, len(files))
	for _, f := range files {
		diffs = append(diffs, convertFile(f))
	}
	return diffs, nil
}

// ParseString is Parse for in-memory diffs.
func ParseString(text string) ([]*Diff, error) {
	return Parse(strings.NewReader(text))
}

func convertFile(gf *gitdiff.File) *Diff {
	d := &Diff{
		Path:    gf.NewName,
		OldPath: gf.OldName,
		Binary:  gf.IsBinary,
		Status:  determineFileStatus(gf),
		Header:  fileHeader(gf),
	}
	if d.Path == "" {
		d.Path = gf.OldName
	}
	if !d.Binary {
		d.Content = convertFragments(d, gf.TextFragments)
		ComputeIntraline(d.Content)
	}
	return d
}

func determineFileStatus(gf *gitdiff.File) FileStatus {
	if gf.IsNew {
		return FileAdded
	}
	if gf.IsDelete {
		return FileDeleted
	}
	if gf.IsRename {
		return FileRenamed
	}
	if gf.IsCopy {
		return FileCopied
	}
	return FileModified
}

func fileHeader(gf *gitdiff.File) []string {
	oldName, newName := gf.OldName, gf.NewName
	if oldName == "" {
		oldName = newName
	}
	if newName == "" {
		newName = oldName
	}
	header := []string{fmt.Sprintf("diff --git a/%s b/%s", oldName, newName)}
	switch {
	case gf.IsNew:
		header = append(header, fmt.Sprintf("new file mode %o", gf.NewMode))
	case gf.IsDelete:
		header = append(header, fmt.Sprintf("deleted file mode %o", gf.OldMode))
	case gf.OldMode != 0 && gf.NewMode != 0 && gf.OldMode != gf.NewMode:
		header = append(header, fmt.Sprintf("old mode %o", gf.OldMode), fmt.Sprintf("new mode %o", gf.NewMode))
	}
	if gf.IsRename {
		header = append(header, "rename from "+gf.OldName, "rename to "+gf.NewName)
	}
	if gf.IsCopy {
		header = append(header, "copy from "+gf.OldName, "copy to "+gf.NewName)
	}
	return header
}

func convertFragments(d *Diff, fragments []*gitdiff.TextFragment) []Chunk {
	var chunks []Chunk
	nextOld := int64(1)
	for _, tf := range fragments {
		start := tf.OldPosition
		if tf.OldLines == 0 {
			// Pure additions report the line before the insertion point.
			start++
		}
		if gap := start - nextOld; gap > 0 && tf.OldPosition > 0 {
			chunks = append(chunks, Chunk{Skip: int(gap)})
		}
		chunks = appendLines(d, chunks, tf.Lines)
		nextOld = start + tf.OldLines
	}
	return chunks
}

// appendLines groups runs of context lines into common chunks and runs of
// changed lines into delta chunks.
func appendLines(d *Diff, chunks []Chunk, lines []gitdiff.Line) []Chunk {
	var current *Chunk
	flush := func() {
		if current != nil {
			chunks = append(chunks, *current)
			current = nil
		}
	}
	for _, line := range lines {
		text := strings.TrimSuffix(line.Line, "\n")
		noEOL := line.NoEOL()
		switch line.Op {
		case gitdiff.OpContext:
			if current != nil && len(current.AB) == 0 {
				flush()
			}
			if current == nil {
				current = &Chunk{}
			}
			current.AB = append(current.AB, text)
			if noEOL {
				d.MissingNewlineLeft = true
				d.MissingNewlineRight = true
			}
		case gitdiff.OpDelete:
			if current != nil && len(current.AB) > 0 {
				flush()
			}
			if current == nil {
				current = &Chunk{}
			}
			current.A = append(current.A, text)
			if noEOL {
				d.MissingNewlineLeft = true
			}
		case gitdiff.OpAdd:
			if current != nil && len(current.AB) > 0 {
				flush()
			}
			if current == nil {
				current = &Chunk{}
			}
			current.B = append(current.B, text)
			if noEOL {
				d.MissingNewlineRight = true
			}
		}
	}
	flush()
	return chunks
}
