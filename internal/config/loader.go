package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

type mergeOverlay struct {
	Bindings []BindingConfig `toml:"bindings"`
}

func getConfigFilePath() string {
	var configDirs []string

	// useful during development or other non-standard setups.
	if dir := os.Getenv("JJREVIEW_CONFIG_DIR"); dir != "" {
		if s, err := os.Stat(dir); err == nil && s.IsDir() {
			return filepath.Join(dir, "config.toml")
		}
	}

	// os.UserConfigDir() already does this for linux leaving darwin to handle
	if runtime.GOOS == "darwin" {
		configDirs = append(configDirs, path.Join(os.Getenv("HOME"), ".config"))
		xdgConfigDir := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigDir != "" {
			configDirs = append(configDirs, xdgConfigDir)
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		configDirs = append(configDirs, configDir)
	}

	for _, dir := range configDirs {
		configPath := filepath.Join(dir, "jjreview", "config.toml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	if len(configDirs) > 0 {
		return filepath.Join(configDirs[0], "jjreview", "config.toml")
	}
	return ""
}

func GetConfigDir() string {
	configFile := getConfigFilePath()
	if configFile == "" {
		return ""
	}
	return filepath.Dir(configFile)
}

// LoadDefault returns the embedded default configuration.
func LoadDefault() (*Config, error) {
	config := &Config{}
	for _, name := range []string{"default/config.toml", "default/bindings.toml"} {
		data, err := configFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading embedded %s: %w", name, err)
		}
		if err := config.Load(string(data)); err != nil {
			return nil, fmt.Errorf("loading embedded %s: %w", name, err)
		}
	}
	return config, nil
}

// Load decodes data on top of the current values. Bindings are merged: a
// user binding takes its keys away from the bindings of the same scope.
func (c *Config) Load(data string) error {
	baseBindings := append([]BindingConfig(nil), c.Bindings...)

	metadata, err := toml.Decode(data, c)
	if err != nil {
		return err
	}

	// Decode bindings into a fresh struct so they are always read from the
	// file content, without carrying prior state.
	overlay := &mergeOverlay{}
	if _, err := toml.Decode(data, overlay); err != nil {
		return err
	}
	if metadata.IsDefined("bindings") {
		c.Bindings = mergeBindings(baseBindings, overlay.Bindings)
	}

	return validateBindings(c.Bindings)
}

// Validate checks values a TOML decode cannot.
func (c *Config) Validate() error {
	if err := c.Diff.Validate(); err != nil {
		return err
	}
	return validateBindings(c.Bindings)
}

func LoadConfigFile() ([]byte, error) {
	configFile := getConfigFilePath()
	_, err := os.Stat(configFile)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// LoadFile reads the embedded defaults and applies the user configuration
// file on top when one exists. The file path can be overridden.
func LoadFile(override string) (*Config, []string, error) {
	config, err := LoadDefault()
	if err != nil {
		return nil, nil, err
	}

	var data []byte
	if override != "" {
		data, err = os.ReadFile(override)
	} else {
		data, err = LoadConfigFile()
		if os.IsNotExist(err) {
			return config, nil, config.Validate()
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content := string(data)
	warnings := UnknownKeyWarnings(content)
	if err := config.Load(content); err != nil {
		return nil, warnings, fmt.Errorf("loading config: %w", err)
	}
	return config, warnings, config.Validate()
}
