package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault(t *testing.T) {
	config, err := LoadDefault()
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	assert.Equal(t, SideBySide, config.Diff.ViewMode)
	assert.Equal(t, IgnoreNone, config.Diff.IgnoreWhitespace)
	assert.Equal(t, 30, config.UI.TargetFrameRate)
	assert.Equal(t, 200*time.Millisecond, GetTokenHighlightDelay(config))
	assert.Contains(t, config.UI.Colors, "token-highlight")
	assert.Equal(t, []string{"n"}, config.KeysFor(ScopeDiff, "next_chunk"))
}

func TestLoad_DiffPreferences(t *testing.T) {
	content := `
[diff]
tab_size = 4
context = -1
ignore_whitespace = "IGNORE_ALL"
view_mode = "UNIFIED_DIFF"
`
	config := &Config{}
	err := config.Load(content)
	assert.NoError(t, err)
	assert.Equal(t, 4, config.Diff.TabSize)
	assert.Equal(t, FullContext, config.Diff.Context)
	assert.Equal(t, IgnoreAll, config.Diff.IgnoreWhitespace)
	assert.Equal(t, Unified, config.Diff.ViewMode)
	assert.NoError(t, config.Diff.Validate())
}

func TestDiffPreferences_Validate(t *testing.T) {
	valid := DiffPreferences{TabSize: 8, Context: 10, IgnoreWhitespace: IgnoreNone, ViewMode: SideBySide}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(p *DiffPreferences)
	}{
		{"zero tab size", func(p *DiffPreferences) { p.TabSize = 0 }},
		{"context below whole file", func(p *DiffPreferences) { p.Context = -2 }},
		{"unknown whitespace mode", func(p *DiffPreferences) { p.IgnoreWhitespace = "IGNORE_SOME" }},
		{"unknown view mode", func(p *DiffPreferences) { p.ViewMode = "STACKED" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.modify(&p)
			err := p.Validate()
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestDiffPreferences_NeedsRefetch(t *testing.T) {
	base := DiffPreferences{TabSize: 8, Context: 10, IgnoreWhitespace: IgnoreNone, ViewMode: SideBySide}

	rendering := base
	rendering.TabSize = 2
	rendering.ViewMode = Unified
	assert.False(t, base.NeedsRefetch(rendering))

	context := base
	context.Context = FullContext
	assert.True(t, base.NeedsRefetch(context))

	whitespace := base
	whitespace.IgnoreWhitespace = IgnoreTrailing
	assert.True(t, base.NeedsRefetch(whitespace))
}

func TestLoad_FlashMessageDisplaySeconds(t *testing.T) {
	content := `
[ui]
flash_message_display_seconds = 10
`
	config := &Config{}
	err := config.Load(content)
	assert.NoError(t, err)
	assert.Equal(t, 10, config.UI.FlashMessageDisplaySeconds)
	assert.Equal(t, 10*time.Second, GetExpiringFlashMessageTimeout(config))
}

func TestGetTokenHighlightDelay(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, GetTokenHighlightDelay(nil))
	assert.Equal(t, 200*time.Millisecond, GetTokenHighlightDelay(&Config{}))

	config := &Config{UI: UIConfig{TokenHighlightDelayMs: 50}}
	assert.Equal(t, 50*time.Millisecond, GetTokenHighlightDelay(config))
}

func TestGetReloadDebounce(t *testing.T) {
	assert.Equal(t, time.Duration(0), GetReloadDebounce(nil))
	assert.Equal(t, time.Duration(0), GetReloadDebounce(&Config{UI: UIConfig{ReloadDebounceMs: -5}}))
	assert.Equal(t, 50*time.Millisecond, GetReloadDebounce(&Config{UI: UIConfig{ReloadDebounceMs: 50}}))
}

func TestLoad_Colors_StringAndObject(t *testing.T) {
	content := `
[ui.colors]
simple = "red"
complex = { fg = "blue", bg = "white", bold = true }
`
	config := &Config{}
	err := config.Load(content)
	assert.NoError(t, err)
	assert.Len(t, config.UI.Colors, 2)

	assert.Equal(t, "red", config.UI.Colors["simple"].Fg)
	assert.Equal(t, "", config.UI.Colors["simple"].Bg)
	assert.Nil(t, config.UI.Colors["simple"].Bold)

	assert.Equal(t, "blue", config.UI.Colors["complex"].Fg)
	assert.Equal(t, "white", config.UI.Colors["complex"].Bg)
	if assert.NotNil(t, config.UI.Colors["complex"].Bold) {
		assert.True(t, *config.UI.Colors["complex"].Bold)
	}
}

func TestLoad_Colors_ExplicitFalsePreserved(t *testing.T) {
	content := `
[ui.colors]
"token-highlight" = { underline = false }
`
	config := &Config{}
	err := config.Load(content)
	assert.NoError(t, err)
	if assert.NotNil(t, config.UI.Colors["token-highlight"].Underline) {
		assert.False(t, *config.UI.Colors["token-highlight"].Underline)
	}
}

func TestLoad_Colors_RejectsUnknownAttribute(t *testing.T) {
	content := `
[ui.colors]
bad = { blink = true }
`
	config := &Config{}
	assert.Error(t, config.Load(content))
}
