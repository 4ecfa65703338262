package main

import (
	"testing"

	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/idursun/jjreview/internal/git"
	"github.com/idursun/jjreview/internal/ui/filelist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		value string
		want  location
		err   bool
	}{
		{"", location{side: model.Right}, false},
		{"a.go", location{path: "a.go", side: model.Right}, false},
		{"a.go:12", location{path: "a.go", line: 12, side: model.Right}, false},
		{"a.go:12:left", location{path: "a.go", line: 12, side: model.Left}, false},
		{"a.go:0", location{}, true},
		{"a.go:x", location{}, true},
		{"a.go:1:up", location{}, true},
		{":3", location{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseLocation(tt.value)
			if tt.err {
				assert.ErrorIs(t, err, errBadLocation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToFiles(t *testing.T) {
	files := toFiles([]git.FileStat{
		{Path: "a.go", Inserted: 3, Deleted: 1},
		{Path: "logo.png", OldPath: "old.png", Status: model.FileRenamed, Binary: true, Size: 10, SizeDelta: -2},
	}, map[string]int{"a.go": 2})

	assert.Equal(t, []filelist.File{
		{Path: "a.go", LinesInserted: 3, LinesDeleted: 1, Comments: 2},
		{Path: "logo.png", OldPath: "old.png", Status: model.FileRenamed, Binary: true, Size: 10, SizeDelta: -2},
	}, files)
}
