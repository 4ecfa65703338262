// Package git reads diffs, blame and remotes from a git repository.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/idursun/jjreview/internal/config"
	"github.com/idursun/jjreview/internal/diff/model"
)

// DefaultMaxDiffBytes bounds the diff text of one file.
const DefaultMaxDiffBytes = 8 << 20

// FileStat summarises the change of one file.
type FileStat struct {
	Path     string
	OldPath  string
	Status   model.FileStatus
	Binary   bool
	Inserted int
	Deleted  int
	// Size is the size of the new version; SizeDelta is the change in bytes.
	Size      int64
	SizeDelta int64
}

// Provider diffs Base against Head. An empty Head compares against the
// working tree.
type Provider struct {
	runner Runner
	Base   string
	Head   string
	// WorkTree is the repository root, used to size working tree files.
	WorkTree     string
	MaxDiffBytes int
}

func NewProvider(runner Runner, base, head string) *Provider {
	return &Provider{runner: runner, Base: base, Head: head, MaxDiffBytes: DefaultMaxDiffBytes}
}

func (p *Provider) revisions() []string {
	if p.Head == "" {
		return []string{p.Base}
	}
	return []string{p.Base, p.Head}
}

func whitespaceFlag(mode config.WhitespaceMode) string {
	switch mode {
	case config.IgnoreTrailing:
		return "--ignore-space-at-eol"
	case config.IgnoreLeadingAndTrailing:
		return "--ignore-space-change"
	case config.IgnoreAll:
		return "--ignore-all-space"
	default:
		return ""
	}
}

func (p *Provider) diffArgs(contextLines int, whitespace config.WhitespaceMode, paths ...string) []string {
	if contextLines == config.FullContext {
		contextLines = math.MaxInt32
	}
	args := []string{"diff", "--no-color", "--no-ext-diff", "--find-renames", "-U" + strconv.Itoa(contextLines)}
	if flag := whitespaceFlag(whitespace); flag != "" {
		args = append(args, flag)
	}
	args = append(args, p.revisions()...)
	args = append(args, "--")
	return append(args, paths...)
}

// Files lists the changed files with their line and size changes.
func (p *Provider) Files(ctx context.Context) ([]FileStat, error) {
	out, err := p.runner.Run(ctx, p.diffArgs(0, config.IgnoreNone)...)
	if err != nil {
		return nil, err
	}
	diffs, err := model.Parse(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	stats := make([]FileStat, 0, len(diffs))
	for _, d := range diffs {
		stat := FileStat{Path: d.Path, OldPath: d.OldPath, Status: d.Status, Binary: d.Binary}
		for _, c := range d.Content {
			stat.Inserted += len(c.B)
			stat.Deleted += len(c.A)
		}
		if d.Binary {
			if err := p.sizeBinary(ctx, &stat); err != nil {
				return nil, err
			}
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

func (p *Provider) sizeBinary(ctx context.Context, stat *FileStat) error {
	var oldSize, newSize int64
	var err error
	if stat.Status != model.FileAdded {
		oldPath := stat.OldPath
		if oldPath == "" {
			oldPath = stat.Path
		}
		if oldSize, err = p.blobSize(ctx, p.Base, oldPath); err != nil {
			return err
		}
	}
	if stat.Status != model.FileDeleted {
		if newSize, err = p.blobSize(ctx, p.Head, stat.Path); err != nil {
			return err
		}
	}
	stat.Size = newSize
	stat.SizeDelta = newSize - oldSize
	return nil
}

func (p *Provider) blobSize(ctx context.Context, rev, path string) (int64, error) {
	if rev == "" {
		info, err := os.Stat(filepath.Join(p.WorkTree, path))
		if err != nil {
			return 0, fmt.Errorf("size of %s: %w", path, err)
		}
		return info.Size(), nil
	}
	out, err := p.runner.Run(ctx, "cat-file", "-s", rev+":"+path)
	if err != nil {
		return 0, err
	}
	size, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("size of %s: %w", path, err)
	}
	return size, nil
}

// Diff returns the diff of path. Diffs larger than MaxDiffBytes fail with a
// 409 status error.
func (p *Provider) Diff(ctx context.Context, path string, prefs config.DiffPreferences) (*model.Diff, error) {
	out, err := p.runner.Run(ctx, p.diffArgs(prefs.Context, prefs.IgnoreWhitespace, path)...)
	if err != nil {
		return nil, err
	}
	if p.MaxDiffBytes > 0 && len(out) > p.MaxDiffBytes {
		return nil, &model.StatusError{Status: http.StatusConflict, Text: http.StatusText(http.StatusConflict)}
	}
	diffs, err := model.Parse(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	for _, d := range diffs {
		if d.Path == path {
			return d, nil
		}
	}
	return nil, &model.StatusError{Status: http.StatusNotFound, Text: http.StatusText(http.StatusNotFound)}
}

// Blame attributes the lines of path in Base to commits.
func (p *Provider) Blame(ctx context.Context, path string) ([]model.BlameRange, error) {
	out, err := p.runner.Run(ctx, "blame", "--porcelain", p.Base, "--", path)
	if err != nil {
		return nil, err
	}
	return parseBlame(bytes.NewReader(out))
}

// RemoteURL returns the fetch URL of remote, or of the first remote when
// name is empty.
func (p *Provider) RemoteURL(ctx context.Context, name string) (string, error) {
	out, err := p.runner.Run(ctx, "remote", "-v")
	if err != nil {
		return "", err
	}
	names, urls := ParseRemotes(string(out))
	if name == "" {
		if len(names) == 0 {
			return "", errors.New("no remotes")
		}
		name = names[0]
	}
	url, ok := urls[name]
	if !ok {
		return "", fmt.Errorf("unknown remote %q", name)
	}
	return url, nil
}
