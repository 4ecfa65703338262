package common

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	profileOnce sync.Once
	profile     termenv.Profile
)

// ColorProfile returns the colour profile of the terminal, detected once per
// process.
func ColorProfile() termenv.Profile {
	profileOnce.Do(func() {
		profile = termenv.EnvColorProfile()
		lipgloss.SetColorProfile(profile)
	})
	return profile
}

// SetColorProfile overrides detection. Tests use termenv.Ascii to get
// unstyled output.
func SetColorProfile(p termenv.Profile) {
	profileOnce.Do(func() {})
	profile = p
	lipgloss.SetColorProfile(p)
}
