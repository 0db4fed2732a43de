package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/peermark/internal/banner"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".peermark"

// XDGConfigFile is the file name looked up inside XDGConfigDir.
const XDGConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// ServiceFile holds lookup service overrides.
type ServiceFile struct {
	URL           string `yaml:"url,omitempty" toml:"url,omitempty"`
	ClientTag     string `yaml:"clientTag,omitempty" toml:"clientTag,omitempty"`
	ClientVersion string `yaml:"clientVersion,omitempty" toml:"clientVersion,omitempty"`
}

// File represents the structure of the .peermark configuration file.
type File struct {
	// Service overrides the lookup service settings.
	Service ServiceFile `yaml:"service,omitempty" toml:"service,omitempty"`

	// Selectors replaces the ordered candidate container selector list.
	Selectors []string `yaml:"selectors,omitempty" toml:"selectors,omitempty"`

	// Shims maps a hostname to the style shims applied around the banner.
	// Entries replace the built-in shims for the same host.
	Shims banner.ShimTable `yaml:"shims,omitempty" toml:"shims,omitempty"`
}

// LoadConfigFile loads a configuration file. Files with a .toml extension
// are decoded as TOML, everything else as YAML.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	for i, s := range cf.Selectors {
		cf.Selectors[i] = strings.TrimSpace(s)
	}
	cf.Selectors = compact(cf.Selectors)

	return &cf, nil
}

// compact drops empty strings in place.
func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .peermark in the current directory
// 3. Look for .peermark in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}
