// Package comments keeps review comments in a TOML file next to the
// repository.
package comments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/idursun/jjreview/internal/diff/model"
)

type Range struct {
	StartLine      int `toml:"start_line"`
	StartCharacter int `toml:"start_character"`
	EndLine        int `toml:"end_line"`
	EndCharacter   int `toml:"end_character"`
}

// Comment is one stored comment. Line 0 is a file comment; Line -2 keeps a
// comment whose line is gone.
type Comment struct {
	ID      string `toml:"id"`
	Path    string `toml:"path"`
	Side    string `toml:"side"`
	Line    int    `toml:"line"`
	Range   *Range `toml:"range,omitempty"`
	Message string `toml:"message"`
	Draft   bool   `toml:"draft"`
}

type document struct {
	Comments []Comment `toml:"comment"`
}

// Store is safe for concurrent use; threads are read from provider jobs.
type Store struct {
	mu       sync.Mutex
	path     string
	comments []Comment
}

// Open reads the comments in path. A missing file is an empty store that
// is created on the first write.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading comments: %w", err)
	}
	var doc document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("decoding comments %s: %w", path, err)
	}
	for i, c := range doc.Comments {
		if c.Side != "left" && c.Side != "right" {
			return nil, fmt.Errorf("comment %d in %s: unknown side %q", i, path, c.Side)
		}
	}
	s.comments = doc.Comments
	return s, nil
}

func parseSide(side string) model.Side {
	if side == "left" {
		return model.Left
	}
	return model.Right
}

func toLine(line int) model.LineNumber {
	if line == 0 {
		return model.FileLine
	}
	return model.LineNumber(line)
}

func fromLine(line model.LineNumber) int {
	if line == model.FileLine {
		return 0
	}
	return int(line)
}

// Threads returns a thread per comment on path.
func (s *Store) Threads(_ context.Context, path string) ([]model.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var threads []model.Thread
	for _, c := range s.comments {
		if c.Path != path {
			continue
		}
		t := model.Thread{Path: c.Path, Side: parseSide(c.Side), Line: toLine(c.Line), RootID: c.ID}
		if c.Range != nil {
			t.Range = &model.CommentRange{
				StartLine:      c.Range.StartLine,
				StartCharacter: c.Range.StartCharacter,
				EndLine:        c.Range.EndLine,
				EndCharacter:   c.Range.EndCharacter,
			}
		}
		threads = append(threads, t)
	}
	return threads, nil
}

// Counts returns the number of comments per path.
func (s *Store) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, c := range s.comments {
		counts[c.Path]++
	}
	return counts
}

// AddDraft stores an empty draft comment and writes the file.
func (s *Store) AddDraft(path string, side model.Side, line model.LineNumber, r *model.CommentRange) (model.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := Comment{
		ID:    "draft-" + strconv.Itoa(len(s.comments)+1),
		Path:  path,
		Side:  side.String(),
		Line:  fromLine(line),
		Draft: true,
	}
	if r != nil {
		c.Range = &Range{
			StartLine:      r.StartLine,
			StartCharacter: r.StartCharacter,
			EndLine:        r.EndLine,
			EndCharacter:   r.EndCharacter,
		}
	}
	comments := append(s.comments, c)
	if err := s.write(comments); err != nil {
		return model.Thread{}, err
	}
	s.comments = comments
	return model.Thread{Path: path, Side: side, Line: line, Range: r, RootID: c.ID}, nil
}

func (s *Store) write(comments []Comment) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(document{Comments: comments}); err != nil {
		return fmt.Errorf("encoding comments: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("writing comments: %w", err)
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing comments: %w", err)
	}
	return nil
}
