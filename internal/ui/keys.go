package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/idursun/jjreview/internal/config"
	"github.com/idursun/jjreview/internal/ui/intents"
)

type binding struct {
	scope  string
	key    key.Binding
	intent intents.Intent
}

var scopes = []string{config.ScopeGlobal, config.ScopeDiff, config.ScopeFiles}

func newBindings(c *config.Config) []binding {
	var bindings []binding
	for _, scope := range scopes {
		for _, action := range config.Actions[scope] {
			keys := c.KeysFor(scope, action)
			intent, ok := intents.ForAction(scope, action)
			if len(keys) == 0 || !ok {
				continue
			}
			bindings = append(bindings, binding{
				scope:  scope,
				key:    key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], action)),
				intent: intent,
			})
		}
	}
	return bindings
}

// match returns the intent bound to msg, trying scopes in order.
func match(bindings []binding, msg tea.KeyMsg, scopes ...string) (intents.Intent, bool) {
	for _, scope := range scopes {
		for _, b := range bindings {
			if b.scope == scope && key.Matches(msg, b.key) {
				return b.intent, true
			}
		}
	}
	return nil, false
}
