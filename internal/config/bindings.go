package config

import (
	"fmt"
	"slices"
	"strings"
)

// StringList allows TOML values to be specified as a string or array of strings.
type StringList []string

func (l *StringList) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		*l = StringList{v}
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected string in list, got %T", item)
			}
			out = append(out, s)
		}
		*l = StringList(out)
		return nil
	default:
		return fmt.Errorf("expected string or list of strings, got %T", value)
	}
}

type BindingConfig struct {
	Action string     `toml:"action"`
	Key    StringList `toml:"key"`
	Scope  string     `toml:"scope"`
}

const (
	ScopeGlobal = "global"
	ScopeDiff   = "diff"
	ScopeFiles  = "files"
)

// Actions lists the action names bindings may refer to, per scope.
var Actions = map[string][]string{
	ScopeGlobal: {"quit", "toggle_focus"},
	ScopeDiff: {
		"up", "down", "left", "right",
		"next_chunk", "prev_chunk", "first_chunk", "last_chunk",
		"next_thread", "prev_thread", "comment", "expand_all",
		"bypass_full", "bypass_limited", "blame", "copy", "toggle_view",
	},
	ScopeFiles: {"up", "down", "open", "filter_files"},
}

// KeysFor returns the keys bound to action in scope.
func (c *Config) KeysFor(scope, action string) []string {
	var keys []string
	for _, b := range c.Bindings {
		if b.Scope == scope && b.Action == action {
			keys = append(keys, b.Key...)
		}
	}
	return keys
}

func validateBindings(bindings []BindingConfig) error {
	for i, b := range bindings {
		scope := strings.TrimSpace(b.Scope)
		actions, ok := Actions[scope]
		if !ok {
			return fmt.Errorf("%w: bindings[%d]: unknown scope %q", ErrInvalidConfig, i, b.Scope)
		}
		if !slices.Contains(actions, b.Action) {
			return fmt.Errorf("%w: bindings[%d]: unknown action %q in scope %q", ErrInvalidConfig, i, b.Action, scope)
		}
		if len(b.Key) == 0 {
			return fmt.Errorf("%w: bindings[%d]: action %q has no keys", ErrInvalidConfig, i, b.Action)
		}
	}
	return nil
}

func mergeBindings(base []BindingConfig, overlay []BindingConfig) []BindingConfig {
	merged := append([]BindingConfig(nil), base...)
	for _, userBinding := range overlay {
		merged = removeShadowedBindings(merged, userBinding)
		merged = append(merged, userBinding)
	}
	return merged
}

// removeShadowedBindings drops keys of existing bindings in the same scope
// that the user binding takes over.
func removeShadowedBindings(existing []BindingConfig, user BindingConfig) []BindingConfig {
	scope := strings.TrimSpace(user.Scope)
	if scope == "" || len(user.Key) == 0 {
		return existing
	}

	userKeys := make(map[string]struct{}, len(user.Key))
	for _, key := range user.Key {
		userKeys[key] = struct{}{}
	}

	filtered := make([]BindingConfig, 0, len(existing))
	for _, binding := range existing {
		if strings.TrimSpace(binding.Scope) != scope {
			filtered = append(filtered, binding)
			continue
		}
		kept := make([]string, 0, len(binding.Key))
		for _, key := range binding.Key {
			if _, shadowed := userKeys[key]; shadowed {
				continue
			}
			kept = append(kept, key)
		}
		if len(kept) == 0 {
			continue
		}
		binding.Key = kept
		filtered = append(filtered, binding)
	}
	return filtered
}
