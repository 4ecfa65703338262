package filelist

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/idursun/jjreview/internal/cursor"
	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFiles() []File {
	return []File{
		{Path: "/COMMIT_MSG", LinesInserted: 7},
		{Path: "src/ui/app.go", LinesInserted: 10, LinesDeleted: 2},
		{Path: "src/ui/view.go", Status: model.FileAdded, LinesInserted: 5},
		{Path: "README.md", LinesInserted: 1, LinesDeleted: 1},
		{Path: "img/logo.png", Binary: true, Size: 2048, SizeDelta: 1024},
	}
}

func names(m *Model) []string {
	var result []string
	for _, e := range m.entries {
		result = append(result, e.node.name)
	}
	return result
}

func TestNew_BuildsSortedCollapsedTree(t *testing.T) {
	m := New(testFiles(), nil)

	assert.Equal(t, []string{"/COMMIT_MSG", "img", "logo.png", "src/ui", "app.go", "view.go", "README.md"}, names(m))
	assert.Equal(t, 1, m.entries[2].depth)
	require.NotNil(t, m.SelectedFile())
	assert.Equal(t, "/COMMIT_MSG", m.SelectedFile().Path)
}

func TestMove_SkipsDirectories(t *testing.T) {
	m := New(testFiles(), nil)

	var visited []string
	for range 4 {
		assert.Equal(t, cursor.Moved, m.MoveDown())
		visited = append(visited, m.SelectedFile().Path)
	}
	assert.Equal(t, []string{"img/logo.png", "src/ui/app.go", "src/ui/view.go", "README.md"}, visited)

	assert.Equal(t, cursor.Clipped, m.MoveDown())
	assert.Equal(t, "README.md", m.SelectedFile().Path)

	m.SetSelectedIndex(4)
	m.MoveUp()
	assert.Equal(t, "/COMMIT_MSG", m.SelectedFile().Path)
}

func TestToggleExpand(t *testing.T) {
	m := New(testFiles(), nil)
	m.SetSize(40, 10)
	m.SetSelectedIndex(3)

	m.ToggleExpand(3)
	assert.Equal(t, []string{"/COMMIT_MSG", "img", "logo.png", "src/ui", "README.md"}, names(m))
	assert.Equal(t, "README.md", m.SelectedFile().Path, "selection survives folding")
	assert.Contains(t, ansi.Strip(m.renderEntry(m.entries[3])), "▸ src/ui/")

	m.ToggleExpand(0)
	assert.Len(t, m.entries, 5, "files cannot be toggled")

	assert.Nil(t, m.Open(3))
	assert.Len(t, m.entries, 7)
}

func TestToggleExpand_SelectionInsideFoldedDir(t *testing.T) {
	m := New(testFiles(), nil)
	m.SetSelectedIndex(1)

	m.ToggleExpand(3)
	assert.Equal(t, "/COMMIT_MSG", m.SelectedFile().Path)
}

func TestSetFilter(t *testing.T) {
	m := New(testFiles(), nil)

	m.SetFilter("view")
	assert.Equal(t, []string{"src/ui/view.go"}, names(m))
	assert.Equal(t, "src/ui/view.go", m.SelectedFile().Path)
	assert.NotEmpty(t, m.entries[0].matched)

	m.SetFilter("zzz")
	assert.Empty(t, m.entries)
	assert.Nil(t, m.SelectedFile())

	m.SetFilter("")
	assert.Len(t, m.entries, 7)
}

func TestSetFiles_KeepsSelectedPath(t *testing.T) {
	m := New(testFiles(), nil)
	m.SetSelectedIndex(3)

	files := testFiles()[1:]
	m.SetFiles(files)
	assert.Equal(t, "README.md", m.SelectedFile().Path)
	assert.Equal(t, 2, m.SelectedIndex())
}

func TestOpenSelected(t *testing.T) {
	m := New(testFiles(), nil)
	m.MoveDown()

	cmd := m.OpenSelected()
	require.NotNil(t, cmd)
	assert.Equal(t, FileSelectedMsg{Index: 4, Path: "img/logo.png"}, cmd())

	cmd = m.Open(4)
	require.NotNil(t, cmd)
	assert.Equal(t, FileSelectedMsg{Index: 1, Path: "src/ui/app.go"}, cmd())
	assert.Nil(t, m.Open(99))
}

func TestComputeTotals(t *testing.T) {
	files := append(testFiles(), File{Path: "img/old.png", Status: model.FileDeleted, Binary: true, SizeDelta: -512})

	assert.Equal(t, Totals{
		Inserted:          16,
		Deleted:           3,
		SizeDeltaInserted: 1024,
		SizeDeltaDeleted:  -512,
		TotalSize:         2048,
	}, ComputeTotals(files))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "+10 -2", Summary(File{LinesInserted: 10, LinesDeleted: 2}))
	assert.Equal(t, "+1 KiB (+100%)", Summary(File{Binary: true, Size: 2048, SizeDelta: 1024}))
	assert.Equal(t, "+2 KiB", Summary(File{Binary: true, Size: 2048, SizeDelta: 2048}))
}

func TestView(t *testing.T) {
	files := testFiles()
	files[1].Comments = 2
	m := New(files, nil)
	m.SetSize(30, 9)

	lines := strings.Split(ansi.Strip(m.View()), "\n")
	require.Len(t, lines, 9)
	assert.True(t, strings.HasPrefix(lines[0], "/COMMIT_MSG"))
	assert.Contains(t, lines[1], "▾ img/")
	assert.Contains(t, lines[4], "app.go")
	assert.True(t, strings.HasSuffix(lines[4], "2● +10 -2"))
	assert.Equal(t, strings.Repeat(" ", 30), lines[8])
	for _, line := range lines {
		assert.Equal(t, 30, ansi.StringWidth(line))
	}
}

func TestEntryAt_FollowsScroll(t *testing.T) {
	m := New(testFiles(), nil)
	m.SetSize(30, 2)

	assert.Equal(t, 1, m.EntryAt(1))
	m.SetSelectedIndex(3)
	assert.Equal(t, 5, m.viewport.Offset(), "the selection is kept visible")
	assert.Equal(t, 6, m.EntryAt(1))
	assert.Equal(t, -1, m.EntryAt(2))
}
