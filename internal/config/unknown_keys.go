package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// UnknownKeyWarnings reports keys of content that no setting reads. Only the
// outermost unknown key of a table is reported.
func UnknownKeyWarnings(content string) []string {
	var decoded Config
	md, err := toml.Decode(content, &decoded)
	if err != nil {
		return nil
	}

	unknown := make(map[string]bool)
	for _, key := range md.Undecoded() {
		unknown[key.String()] = true
	}
	var warnings []string
	for _, key := range md.Undecoded() {
		if hasUnknownParent(key, unknown) {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("unknown config key %s is ignored", key))
	}
	return warnings
}

func hasUnknownParent(key toml.Key, unknown map[string]bool) bool {
	for i := 1; i < len(key); i++ {
		if unknown[strings.Join(key[:i], ".")] {
			return true
		}
	}
	return false
}
