package intents

import tea "github.com/charmbracelet/bubbletea"

// Intent represents a high-level action the viewer can perform.
// It decouples inputs (keyboard/mouse) from the actual capability.
type Intent interface {
	isIntent()
}

func Invoke(intent Intent) tea.Cmd {
	return func() tea.Msg {
		return intent
	}
}
