package intents

import "github.com/idursun/jjreview/internal/config"

type Quit struct{}

func (Quit) isIntent() {}

// ToggleFocus moves the keyboard focus between the file list and the diffs.
type ToggleFocus struct{}

func (ToggleFocus) isIntent() {}

var actions = map[string]map[string]Intent{
	config.ScopeGlobal: {
		"quit":         Quit{},
		"toggle_focus": ToggleFocus{},
	},
	config.ScopeDiff: {
		"up":             CursorMove{Kind: CursorUp},
		"down":           CursorMove{Kind: CursorDown},
		"left":           CursorMove{Kind: CursorLeft},
		"right":          CursorMove{Kind: CursorRight},
		"next_chunk":     CursorMove{Kind: CursorNextChunk},
		"prev_chunk":     CursorMove{Kind: CursorPrevChunk},
		"first_chunk":    CursorMove{Kind: CursorFirstChunk},
		"last_chunk":     CursorMove{Kind: CursorLastChunk},
		"next_thread":    CursorMove{Kind: CursorNextThread},
		"prev_thread":    CursorMove{Kind: CursorPrevThread},
		"comment":        CreateComment{},
		"expand_all":     ExpandAll{},
		"bypass_full":    BypassLargeDiff{Full: true},
		"bypass_limited": BypassLargeDiff{},
		"blame":          LoadBlame{},
		"copy":           Copy{},
		"toggle_view":    ToggleViewMode{},
	},
	config.ScopeFiles: {
		"up":           FilesNavigate{Delta: -1},
		"down":         FilesNavigate{Delta: 1},
		"open":         FilesOpen{},
		"filter_files": FilesFilter{},
	},
}

// ForAction returns the intent a bound action triggers in scope.
func ForAction(scope, action string) (Intent, bool) {
	intent, ok := actions[scope][action]
	return intent, ok
}
