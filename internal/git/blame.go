package git

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/idursun/jjreview/internal/diff/model"
)

type blameCommit struct {
	author  string
	time    int64
	summary string
}

// parseBlame reads "git blame --porcelain" output. Consecutive lines from
// the same commit are merged into one range.
func parseBlame(r io.Reader) ([]model.BlameRange, error) {
	commits := make(map[string]*blameCommit)
	var ranges []model.BlameRange
	var current *blameCommit
	var sha string
	var line int

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		text := scanner.Text()
		if strings.HasPrefix(text, "\t") {
			if current == nil {
				return nil, fmt.Errorf("blame: content line %d without header", line)
			}
			if n := len(ranges); n > 0 && ranges[n-1].Commit == sha && ranges[n-1].End == line-1 {
				ranges[n-1].End = line
			} else {
				ranges = append(ranges, model.BlameRange{
					Commit:  sha,
					Author:  current.author,
					Time:    current.time,
					Message: current.summary,
					Start:   line,
					End:     line,
				})
			}
			continue
		}
		key, value, _ := strings.Cut(text, " ")
		switch {
		case current != nil && key == "author":
			current.author = value
		case current != nil && key == "author-time":
			current.time, _ = strconv.ParseInt(value, 10, 64)
		case current != nil && key == "summary":
			current.summary = value
		default:
			fields := strings.Fields(text)
			if len(fields) < 3 || len(key) != 40 {
				continue
			}
			final, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("blame: bad header %q: %w", text, err)
			}
			sha, line = key, final
			if commits[sha] == nil {
				commits[sha] = &blameCommit{}
			}
			current = commits[sha]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("blame: %w", err)
	}
	return ranges, nil
}
