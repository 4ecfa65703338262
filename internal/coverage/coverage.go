// Package coverage turns Go coverage profiles into line coverage ranges.
package coverage

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/idursun/jjreview/internal/diff/model"
	"golang.org/x/tools/cover"
)

// Profile holds the parsed blocks of a coverage profile.
type Profile struct {
	files []*cover.Profile
}

func Load(path string) (*Profile, error) {
	files, err := cover.ParseProfiles(path)
	if err != nil {
		return nil, fmt.Errorf("coverage profile: %w", err)
	}
	return &Profile{files: files}, nil
}

func Parse(r io.Reader) (*Profile, error) {
	files, err := cover.ParseProfilesFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("coverage profile: %w", err)
	}
	return &Profile{files: files}, nil
}

// find matches path against the package qualified file names of the profile.
func (p *Profile) find(path string) *cover.Profile {
	for _, f := range p.files {
		if f.FileName == path || strings.HasSuffix(f.FileName, "/"+path) {
			return f
		}
	}
	return nil
}

type lineState uint8

const (
	hit lineState = 1 << iota
	missed
)

// Coverage returns the ranges of the new version of path. A line covered by
// both executed and unexecuted blocks is partially covered.
func (p *Profile) Coverage(_ context.Context, path string) ([]model.CoverageRange, error) {
	f := p.find(path)
	if f == nil {
		return nil, nil
	}
	states := make(map[int]lineState)
	for _, b := range f.Blocks {
		state := missed
		if b.Count > 0 {
			state = hit
		}
		for line := b.StartLine; line <= b.EndLine; line++ {
			states[line] |= state
		}
	}
	lines := make([]int, 0, len(states))
	for line := range states {
		lines = append(lines, line)
	}
	slices.Sort(lines)

	var ranges []model.CoverageRange
	for _, line := range lines {
		typ := coverageType(states[line])
		if n := len(ranges); n > 0 && ranges[n-1].Type == typ && ranges[n-1].End == line-1 {
			ranges[n-1].End = line
			continue
		}
		ranges = append(ranges, model.CoverageRange{Type: typ, Side: model.Right, Start: line, End: line})
	}
	return ranges, nil
}

func coverageType(state lineState) model.CoverageType {
	switch state {
	case hit:
		return model.Covered
	case missed:
		return model.NotCovered
	default:
		return model.PartiallyCovered
	}
}
