// Package settings holds the note generation settings: how records are
// named, where notes are written and which template engine renders them.
// Settings files may be JSON, YAML or TOML; fields that are absent keep their
// defaults.
package settings

import (
	"fmt"
	"strings"
)

// Template engines understood by the render pipeline.
const (
	EnginePongo2 = "pongo2"
	EngineText   = "text"
)

// DefaultItemSeparator joins notes rendered into a single output file.
const DefaultItemSeparator = "\n\n---\n\n"

// Settings configures note naming and output layout.
type Settings struct {
	// JSONName is the record field (dotted path) or inline template used to
	// name each note.
	JSONName string `json:"json_name" yaml:"json_name" toml:"json_name" jsonschema:"description=Record field or inline template used to name notes,default=name"`

	// JSONNamePath keeps path separators in note names so notes can land in
	// subdirectories.
	JSONNamePath bool `json:"json_name_path" yaml:"json_name_path" toml:"json_name_path" jsonschema:"description=Allow path separators in note names"`

	// FolderName is the output directory used when no output is given.
	FolderName string `json:"folder_name" yaml:"folder_name" toml:"folder_name" jsonschema:"description=Output folder for generated notes,default=JSON2MD"`

	// TopField selects the nested field that holds the records.
	TopField string `json:"top_field" yaml:"top_field" toml:"top_field" jsonschema:"description=Dotted path of the field holding the records"`

	NotePrefix string `json:"note_prefix" yaml:"note_prefix" toml:"note_prefix" jsonschema:"description=Prefix added to every note name"`
	NoteSuffix string `json:"note_suffix" yaml:"note_suffix" toml:"note_suffix" jsonschema:"description=Suffix added to every note name"`

	// ForceArray renders a top-level object as a single record instead of
	// iterating over its values.
	ForceArray bool `json:"force_array" yaml:"force_array" toml:"force_array" jsonschema:"description=Treat a top-level object as one record,default=true"`

	// UniqueNames avoids overwriting notes that already exist on disk.
	UniqueNames bool `json:"unique_names" yaml:"unique_names" toml:"unique_names" jsonschema:"description=Append a counter instead of overwriting existing notes"`

	Engine        string `json:"engine" yaml:"engine" toml:"engine" jsonschema:"description=Template engine,enum=pongo2,enum=text,default=pongo2"`
	ItemSeparator string `json:"item_separator" yaml:"item_separator" toml:"item_separator" jsonschema:"description=Separator between notes in single-file output"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		JSONName:      "name",
		FolderName:    "JSON2MD",
		ForceArray:    true,
		Engine:        EnginePongo2,
		ItemSeparator: DefaultItemSeparator,
	}
}

// IsTemplateName reports whether JSONName is an inline template rather than
// a field path.
func (s Settings) IsTemplateName() bool {
	return strings.Contains(s.JSONName, "{{")
}

// Validate checks enumerated fields.
func (s Settings) Validate() error {
	switch s.Engine {
	case EnginePongo2, EngineText:
	default:
		return fmt.Errorf("settings: unknown engine %q (want %q or %q)", s.Engine, EnginePongo2, EngineText)
	}
	if strings.TrimSpace(s.FolderName) == "" {
		return fmt.Errorf("settings: folder_name is required")
	}
	return nil
}
