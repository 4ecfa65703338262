package config

import (
	"embed"
	"errors"
	"fmt"
	"time"
)

//go:embed default/*.toml
var configFS embed.FS

var ErrInvalidConfig = errors.New("invalid config")

// Current is the configuration the running program was started with.
var Current = &Config{}

type WhitespaceMode string

const (
	IgnoreNone               WhitespaceMode = "IGNORE_NONE"
	IgnoreTrailing           WhitespaceMode = "IGNORE_TRAILING"
	IgnoreLeadingAndTrailing WhitespaceMode = "IGNORE_LEADING_AND_TRAILING"
	IgnoreAll                WhitespaceMode = "IGNORE_ALL"
)

type ViewMode string

const (
	SideBySide ViewMode = "SIDE_BY_SIDE"
	Unified    ViewMode = "UNIFIED_DIFF"
)

// Bypass context values offered when a diff is too large to render with
// whole file context.
const (
	FullContext    = -1
	LimitedContext = 10
)

type Config struct {
	Diff     DiffPreferences `toml:"diff"`
	UI       UIConfig        `toml:"ui"`
	Git      GitConfig       `toml:"git"`
	Bindings []BindingConfig `toml:"bindings"`
}

type DiffPreferences struct {
	TabSize                int            `toml:"tab_size"`
	LineLength             int            `toml:"line_length"`
	FontSize               int            `toml:"font_size"`
	Context                int            `toml:"context"`
	IgnoreWhitespace       WhitespaceMode `toml:"ignore_whitespace"`
	SyntaxHighlighting     bool           `toml:"syntax_highlighting"`
	ShowTabs               bool           `toml:"show_tabs"`
	ShowWhitespaceErrors   bool           `toml:"show_whitespace_errors"`
	ManualReview           bool           `toml:"manual_review"`
	NumLinesRenderedAtOnce int            `toml:"num_lines_rendered_at_once"`
	ViewMode               ViewMode       `toml:"view_mode"`
}

// NeedsRefetch reports whether switching from p to next changes the diff
// content itself rather than only how it is rendered.
func (p DiffPreferences) NeedsRefetch(next DiffPreferences) bool {
	return p.Context != next.Context || p.IgnoreWhitespace != next.IgnoreWhitespace
}

func (p DiffPreferences) Validate() error {
	if p.TabSize <= 0 {
		return fmt.Errorf("%w: diff.tab_size must be positive, got %d", ErrInvalidConfig, p.TabSize)
	}
	if p.Context < FullContext {
		return fmt.Errorf("%w: diff.context must be -1 or greater, got %d", ErrInvalidConfig, p.Context)
	}
	switch p.IgnoreWhitespace {
	case IgnoreNone, IgnoreTrailing, IgnoreLeadingAndTrailing, IgnoreAll:
	default:
		return fmt.Errorf("%w: unknown diff.ignore_whitespace %q", ErrInvalidConfig, p.IgnoreWhitespace)
	}
	switch p.ViewMode {
	case SideBySide, Unified:
	default:
		return fmt.Errorf("%w: unknown diff.view_mode %q", ErrInvalidConfig, p.ViewMode)
	}
	return nil
}

type UIConfig struct {
	FlashMessageDisplaySeconds int              `toml:"flash_message_display_seconds"`
	TargetFrameRate            int              `toml:"target_frame_rate"`
	InitialRenderCount         int              `toml:"initial_render_count"`
	TokenHighlightDelayMs      int              `toml:"token_highlight_delay_ms"`
	ReloadDebounceMs           int              `toml:"reload_debounce_ms"`
	FileListWidth              int              `toml:"file_list_width"`
	Colors                     map[string]Color `toml:"colors"`
}

type GitConfig struct {
	// Remote is used to build commit links for blame entries.
	Remote string `toml:"remote"`
}

// Color is a style entry; it can be written as a plain colour string or as a
// table.
type Color struct {
	Fg            string `toml:"fg"`
	Bg            string `toml:"bg"`
	Bold          *bool  `toml:"bold"`
	Italic        *bool  `toml:"italic"`
	Underline     *bool  `toml:"underline"`
	Strikethrough *bool  `toml:"strikethrough"`
	Reverse       *bool  `toml:"reverse"`
}

func (c *Color) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		*c = Color{Fg: v}
		return nil
	case map[string]any:
		out := Color{}
		for key, raw := range v {
			switch key {
			case "fg", "bg":
				s, ok := raw.(string)
				if !ok {
					return fmt.Errorf("%s: expected string, got %T", key, raw)
				}
				if key == "fg" {
					out.Fg = s
				} else {
					out.Bg = s
				}
			case "bold", "italic", "underline", "strikethrough", "reverse":
				b, ok := raw.(bool)
				if !ok {
					return fmt.Errorf("%s: expected bool, got %T", key, raw)
				}
				switch key {
				case "bold":
					out.Bold = &b
				case "italic":
					out.Italic = &b
				case "underline":
					out.Underline = &b
				case "strikethrough":
					out.Strikethrough = &b
				case "reverse":
					out.Reverse = &b
				}
			default:
				return fmt.Errorf("unknown colour attribute %q", key)
			}
		}
		*c = out
		return nil
	default:
		return fmt.Errorf("expected string or table for colour, got %T", value)
	}
}

func GetExpiringFlashMessageTimeout(c *Config) time.Duration {
	if c == nil || c.UI.FlashMessageDisplaySeconds <= 0 {
		return 0
	}
	return time.Duration(c.UI.FlashMessageDisplaySeconds) * time.Second
}

func GetTokenHighlightDelay(c *Config) time.Duration {
	if c == nil || c.UI.TokenHighlightDelayMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(c.UI.TokenHighlightDelayMs) * time.Millisecond
}

func GetReloadDebounce(c *Config) time.Duration {
	if c == nil || c.UI.ReloadDebounceMs < 0 {
		return 0
	}
	return time.Duration(c.UI.ReloadDebounceMs) * time.Millisecond
}
