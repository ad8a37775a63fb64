package output

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-mdgen/pkg/data"
	"github.com/goliatone/go-mdgen/pkg/settings"
)

// Mode selects between one combined note and one note per record.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

// SplitMode controls how multi-file note names are derived.
type SplitMode string

const (
	// SplitIndex names notes <dirstem>_<index>.
	SplitIndex SplitMode = "index"
	// SplitTemplate renders an inline template against each record.
	SplitTemplate SplitMode = "template"
	// SplitPath reads a dotted field path from each record.
	SplitPath SplitMode = "path"
)

// SplitConfig overrides per-record naming in multi-file mode.
type SplitConfig struct {
	Mode     SplitMode
	Template string
}

// ParseSplit interprets the --split argument: empty selects index mode, text
// containing "{{" or "{%" selects template mode and anything else is a field
// path. A nil argument means no split override.
func ParseSplit(arg *string) *SplitConfig {
	if arg == nil {
		return nil
	}
	raw := strings.TrimSpace(*arg)
	switch {
	case raw == "":
		return &SplitConfig{Mode: SplitIndex}
	case strings.Contains(raw, "{{") || strings.Contains(raw, "{%"):
		return &SplitConfig{Mode: SplitTemplate, Template: raw}
	default:
		return &SplitConfig{Mode: SplitPath, Template: raw}
	}
}

// Strategy is the resolved output layout. Path is set in single mode, Dir and
// Split in multi mode.
type Strategy struct {
	Mode  Mode
	Path  string
	Dir   string
	Split *SplitConfig
}

// Single reports whether all notes go into one file.
func (s Strategy) Single() bool {
	return s.Mode == ModeSingle
}

// Stem is the base name used by index naming: the output directory name
// without extension, or "output" when it has none.
func (s Strategy) Stem() string {
	base := filepath.Base(filepath.Clean(s.Dir))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "output"
	}
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Plan resolves the output layout from the --output and --split arguments,
// the decoded data and the settings. It does not touch the filesystem beyond
// checking whether an explicit output is an existing directory.
func Plan(out string, split *string, doc any, s settings.Settings) Strategy {
	cfg := ParseSplit(split)

	if out != "" {
		if isDirTarget(out) {
			return Strategy{Mode: ModeMulti, Dir: out, Split: cfg}
		}
		return Strategy{Mode: ModeSingle, Path: out}
	}

	if items, ok := doc.([]any); ok && len(items) == 1 {
		name := "output"
		if !s.IsTemplateName() {
			if value, ok := data.LookupString(items[0], s.JSONName, nil); ok {
				name = value
			}
		}
		filename := s.NotePrefix + SanitizeFilename(name, s.JSONNamePath) + s.NoteSuffix + Extension
		return Strategy{Mode: ModeSingle, Path: filename}
	}

	return Strategy{Mode: ModeMulti, Dir: s.FolderName, Split: cfg}
}

func isDirTarget(out string) bool {
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return true
	}
	if strings.HasSuffix(out, "/") || strings.HasSuffix(out, `\`) {
		return true
	}
	base := filepath.Base(out)
	return filepath.Ext(base) == "" && base != "." && base != string(filepath.Separator)
}
