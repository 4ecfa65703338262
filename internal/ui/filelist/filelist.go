// Package filelist shows the changed files as a tree with size and comment
// summaries.
package filelist

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/idursun/jjreview/internal/cursor"
	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/idursun/jjreview/internal/ui/common"
	"github.com/sahilm/fuzzy"
)

// Paths that do not belong to the repository content.
var magicPaths = map[string]bool{
	"/COMMIT_MSG":     true,
	"/MERGE_LIST":     true,
	"/PATCHSET_LEVEL": true,
}

// File is one entry of the list.
type File struct {
	Path          string
	OldPath       string
	Status        model.FileStatus
	Binary        bool
	LinesInserted int
	LinesDeleted  int
	// Size is the size of the new version; SizeDelta is the change in bytes.
	Size      int64
	SizeDelta int64
	Comments  int
}

// Totals sums the changes of the non magic files.
type Totals struct {
	Inserted          int
	Deleted           int
	SizeDeltaInserted int64
	SizeDeltaDeleted  int64
	TotalSize         int64
}

func ComputeTotals(files []File) Totals {
	var t Totals
	for _, f := range files {
		if magicPaths[f.Path] {
			continue
		}
		t.Inserted += f.LinesInserted
		t.Deleted += f.LinesDeleted
		if !f.Binary {
			continue
		}
		t.TotalSize += f.Size
		if f.SizeDelta > 0 {
			t.SizeDeltaInserted += f.SizeDelta
		} else {
			t.SizeDeltaDeleted += f.SizeDelta
		}
	}
	return t
}

// FileSelectedMsg is sent when a file is opened from the list.
type FileSelectedMsg struct {
	Index int
	Path  string
}

type node struct {
	name      string
	path      string
	isDir     bool
	children  []*node
	fileIndex int
}

// entry is a visible row; it is a cursor stop.
type entry struct {
	node     *node
	depth    int
	index    int
	matched  []int
	targeted bool
}

func (e *entry) Top() int                  { return e.index }
func (e *entry) Height() int               { return 1 }
func (e *entry) SetTargeted(targeted bool) { e.targeted = targeted }

type viewport struct {
	offset, height int
}

func (v *viewport) Offset() int          { return v.offset }
func (v *viewport) Height() int          { return v.height }
func (v *viewport) SetOffset(offset int) { v.offset = max(offset, 0) }

type Model struct {
	files    []File
	root     *node
	expanded map[string]bool
	entries  []*entry
	filter   string
	cursor   *cursor.Manager
	viewport *viewport
	palette  *common.Palette
	width    int
}

func New(files []File, palette *common.Palette) *Model {
	if palette == nil {
		palette = common.DefaultPalette
	}
	m := &Model{
		files:    files,
		root:     buildTree(files),
		expanded: make(map[string]bool),
		viewport: &viewport{},
		palette:  palette,
	}
	m.cursor = cursor.New(m.viewport)
	m.rebuild()
	return m
}

func buildTree(files []File) *node {
	root := &node{isDir: true, fileIndex: -1}
	for i, file := range files {
		parts := strings.Split(strings.TrimPrefix(file.Path, "/"), "/")
		if magicPaths[file.Path] {
			parts = []string{file.Path}
		}
		current := root
		currentPath := ""
		for j, part := range parts {
			if currentPath == "" {
				currentPath = part
			} else {
				currentPath += "/" + part
			}
			if j == len(parts)-1 {
				current.children = append(current.children, &node{name: part, path: file.Path, fileIndex: i})
				break
			}
			var dir *node
			for _, child := range current.children {
				if child.isDir && child.name == part {
					dir = child
					break
				}
			}
			if dir == nil {
				dir = &node{name: part, path: currentPath, isDir: true, fileIndex: -1}
				current.children = append(current.children, dir)
			}
			current = dir
		}
	}
	sortTree(root)
	collapseSingleChildDirs(root)
	return root
}

// sortTree puts magic files first, then directories, then files, each group
// by name.
func sortTree(n *node) {
	sort.SliceStable(n.children, func(i, j int) bool {
		a, b := n.children[i], n.children[j]
		if magicPaths[a.path] != magicPaths[b.path] {
			return magicPaths[a.path]
		}
		if a.isDir != b.isDir {
			return a.isDir
		}
		return a.name < b.name
	})
	for _, child := range n.children {
		if child.isDir {
			sortTree(child)
		}
	}
}

func collapseSingleChildDirs(n *node) {
	for _, child := range n.children {
		if !child.isDir {
			continue
		}
		for len(child.children) == 1 && child.children[0].isDir {
			grandchild := child.children[0]
			child.name += "/" + grandchild.name
			child.path = grandchild.path
			child.children = grandchild.children
		}
		collapseSingleChildDirs(child)
	}
}

func isFile(s cursor.Stop) bool {
	e, ok := s.(*entry)
	return ok && !e.node.isDir
}

func (m *Model) isExpanded(n *node) bool {
	expanded, ok := m.expanded[n.path]
	return !ok || expanded
}

// rebuild recomputes the visible entries, keeping the selected file.
func (m *Model) rebuild() {
	selected := m.SelectedIndex()
	m.entries = m.entries[:0]
	if m.filter == "" {
		m.flatten(m.root, 0)
	} else {
		for _, match := range fuzzy.FindFrom(m.filter, source(m.files)) {
			m.entries = append(m.entries, &entry{
				node:    &node{name: m.files[match.Index].Path, path: m.files[match.Index].Path, fileIndex: match.Index},
				matched: match.MatchedIndexes,
			})
		}
	}
	stops := make([]cursor.Stop, len(m.entries))
	for i, e := range m.entries {
		e.index = i
		stops[i] = e
	}
	m.cursor.SetStops(stops)
	if selected >= 0 {
		m.SetSelectedIndex(selected)
	}
	if m.cursor.Target() == nil {
		m.cursor.Next(cursor.MoveOptions{Filter: isFile})
	}
}

func (m *Model) flatten(n *node, depth int) {
	for _, child := range n.children {
		m.entries = append(m.entries, &entry{node: child, depth: depth})
		if child.isDir && m.isExpanded(child) {
			m.flatten(child, depth+1)
		}
	}
}

type source []File

func (s source) String(i int) string { return s[i].Path }
func (s source) Len() int            { return len(s) }

func (m *Model) Files() []File { return m.files }

func (m *Model) FileCount() int { return len(m.files) }

// SetFiles replaces the files, keeping the selection when the path is still
// listed.
func (m *Model) SetFiles(files []File) {
	path := ""
	if f := m.SelectedFile(); f != nil {
		path = f.Path
	}
	m.files = files
	m.root = buildTree(files)
	m.entries = nil
	m.cursor.UnsetCursor()
	m.rebuild()
	for i, f := range files {
		if f.Path == path {
			m.SetSelectedIndex(i)
		}
	}
}

// SetFilter shows only the files matching query, best match first. An empty
// query shows the tree again.
func (m *Model) SetFilter(query string) {
	if query == m.filter {
		return
	}
	m.filter = query
	m.rebuild()
}

func (m *Model) Filter() string { return m.filter }

func (m *Model) selected() *entry {
	e, _ := m.cursor.Target().(*entry)
	return e
}

// SelectedIndex returns the index of the selected file, or -1.
func (m *Model) SelectedIndex() int {
	e := m.selected()
	if e == nil || e.node.isDir {
		return -1
	}
	return e.node.fileIndex
}

func (m *Model) SelectedFile() *File {
	i := m.SelectedIndex()
	if i < 0 {
		return nil
	}
	return &m.files[i]
}

// SetSelectedIndex selects the visible entry of file index i.
func (m *Model) SetSelectedIndex(i int) {
	for _, e := range m.entries {
		if !e.node.isDir && e.node.fileIndex == i {
			m.cursor.SetCursor(e, false)
			return
		}
	}
}

func (m *Model) MoveUp() cursor.MoveResult {
	return m.move(m.cursor.Previous)
}

func (m *Model) MoveDown() cursor.MoveResult {
	return m.move(m.cursor.Next)
}

// move keeps the selection on a file when clipping lands on a directory.
func (m *Model) move(step func(cursor.MoveOptions) cursor.MoveResult) cursor.MoveResult {
	previous := m.cursor.Target()
	result := step(cursor.MoveOptions{Filter: isFile})
	if !isFile(m.cursor.Target()) && previous != nil {
		m.cursor.SetCursor(previous, false)
	}
	return result
}

// ToggleExpand folds or unfolds the directory shown at visible index i.
func (m *Model) ToggleExpand(i int) {
	if i < 0 || i >= len(m.entries) || !m.entries[i].node.isDir {
		return
	}
	n := m.entries[i].node
	m.expanded[n.path] = !m.isExpanded(n)
	m.rebuild()
}

// Open selects the file at visible index i, or toggles the directory there.
func (m *Model) Open(i int) tea.Cmd {
	if i < 0 || i >= len(m.entries) {
		return nil
	}
	e := m.entries[i]
	if e.node.isDir {
		m.ToggleExpand(i)
		return nil
	}
	m.cursor.SetCursor(e, false)
	return m.OpenSelected()
}

// OpenSelected asks for the selected file to be shown.
func (m *Model) OpenSelected() tea.Cmd {
	i := m.SelectedIndex()
	if i < 0 {
		return nil
	}
	msg := FileSelectedMsg{Index: i, Path: m.files[i].Path}
	return func() tea.Msg { return msg }
}

// EntryAt returns the visible index shown at line y of the view.
func (m *Model) EntryAt(y int) int {
	i := y + m.viewport.offset
	if i < 0 || i >= len(m.entries) {
		return -1
	}
	return i
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.viewport.height = height
	if e := m.selected(); e != nil {
		m.cursor.SetCursor(e, false)
	}
}

func (m *Model) View() string {
	lines := make([]string, 0, m.viewport.height)
	for i := m.viewport.offset; i < len(m.entries) && len(lines) < m.viewport.height; i++ {
		lines = append(lines, m.renderEntry(m.entries[i]))
	}
	for len(lines) < m.viewport.height {
		lines = append(lines, strings.Repeat(" ", m.width))
	}
	return strings.Join(lines, "\n")
}

func statusClass(status model.FileStatus) string {
	switch status {
	case model.FileAdded:
		return "file added"
	case model.FileDeleted:
		return "file deleted"
	case model.FileRenamed:
		return "file renamed"
	case model.FileCopied:
		return "file copied"
	default:
		return "file modified"
	}
}

// Summary is the change column of a file: line counts for text files and
// the size change for binary files.
func Summary(f File) string {
	if f.Binary {
		return strings.TrimSpace(FormatBytes(f.SizeDelta) + " " + FormatPercentage(f.Size, f.SizeDelta))
	}
	return fmt.Sprintf("+%d -%d", f.LinesInserted, f.LinesDeleted)
}

func (m *Model) renderEntry(e *entry) string {
	indent := strings.Repeat("  ", e.depth)
	if e.node.isDir {
		arrow := "▾ "
		if !m.isExpanded(e.node) {
			arrow = "▸ "
		}
		return m.fit(indent+m.palette.Get("file dir").Render(arrow+e.node.name+"/"), e.targeted)
	}

	f := m.files[e.node.fileIndex]
	name := m.highlightMatches(e.node.name, e.matched, statusClass(f.Status))
	right := Summary(f)
	if f.Comments > 0 {
		right = fmt.Sprintf("%d● %s", f.Comments, right)
	}
	left := indent + name
	pad := m.width - ansi.StringWidth(left) - ansi.StringWidth(right)
	if pad < 1 {
		return m.fit(left, e.targeted)
	}
	return m.fit(left+strings.Repeat(" ", pad)+right, e.targeted)
}

func (m *Model) highlightMatches(name string, matched []int, class string) string {
	if len(matched) == 0 {
		return m.palette.Get(class).Render(name)
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}
	var b strings.Builder
	for i, r := range name {
		style := m.palette.Get(class)
		if hit[i] {
			style = m.palette.Classes(class, "token-highlight")
		}
		b.WriteString(style.Render(string(r)))
	}
	return b.String()
}

func (m *Model) fit(s string, selected bool) string {
	s = ansi.Truncate(s, m.width, "…")
	if pad := m.width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	if selected {
		return m.palette.Get("selected").Render(ansi.Strip(s))
	}
	return s
}
