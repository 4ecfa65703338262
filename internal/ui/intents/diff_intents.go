package intents

type CursorMoveKind int

const (
	CursorUp CursorMoveKind = iota
	CursorDown
	CursorLeft
	CursorRight
	CursorNextChunk
	CursorPrevChunk
	CursorFirstChunk
	CursorLastChunk
	CursorNextThread
	CursorPrevThread
)

type CursorMove struct {
	Kind CursorMoveKind
}

func (CursorMove) isIntent() {}

// CreateComment starts a draft at the selection or the cursor line.
type CreateComment struct{}

func (CreateComment) isIntent() {}

type ExpandAll struct{}

func (ExpandAll) isIntent() {}

// BypassLargeDiff renders a diff held back for its size, with the whole
// file as context or with limited context.
type BypassLargeDiff struct {
	Full bool
}

func (BypassLargeDiff) isIntent() {}

type LoadBlame struct{}

func (LoadBlame) isIntent() {}

type Copy struct{}

func (Copy) isIntent() {}

type ToggleViewMode struct{}

func (ToggleViewMode) isIntent() {}
