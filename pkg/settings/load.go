package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a settings file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// searchNames are probed, in order, inside the XDG config directories.
var searchNames = []string{
	"mdgen/settings.json",
	"mdgen/settings.yaml",
	"mdgen/settings.yml",
	"mdgen/settings.toml",
}

// FormatFor picks the settings format from a file extension, defaulting to
// JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Parse decodes raw settings over the defaults.
func Parse(raw []byte, format Format) (Settings, error) {
	s := Default()
	if len(bytes.TrimSpace(raw)) == 0 {
		return s, nil
	}

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(raw, &s)
	case FormatTOML:
		_, err = toml.Decode(string(raw), &s)
	case FormatJSON, "":
		err = json.Unmarshal(raw, &s)
	default:
		return Settings{}, fmt.Errorf("settings: unsupported format %q", format)
	}
	if err != nil {
		return Settings{}, fmt.Errorf("settings: parse %s: %w", format, err)
	}
	if s.ItemSeparator == "" {
		s.ItemSeparator = DefaultItemSeparator
	}
	if s.Engine == "" {
		s.Engine = EnginePongo2
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadFile reads and parses a settings file.
func LoadFile(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: read %s: %w", path, err)
	}
	s, err := Parse(raw, FormatFor(path))
	if err != nil {
		return Settings{}, fmt.Errorf("%w (file %s)", err, path)
	}
	return s, nil
}

// Discover returns the first settings file found in the XDG config
// directories.
func Discover() (string, bool) {
	for _, name := range searchNames {
		path, err := xdg.SearchConfigFile(name)
		if err == nil && path != "" {
			return path, true
		}
	}
	return "", false
}

// Load reads the settings at path. An empty path falls back to Discover and
// then to the defaults. The returned string names the file that was used, if
// any.
func Load(path string) (Settings, string, error) {
	if path == "" {
		discovered, ok := Discover()
		if !ok {
			return Default(), "", nil
		}
		path = discovered
	}

	s, err := LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, path, fmt.Errorf("settings: file not found: %s", path)
		}
		return Settings{}, path, err
	}
	return s, path, nil
}
