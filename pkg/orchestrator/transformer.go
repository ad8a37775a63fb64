package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-mdgen/pkg/data"
)

// Transformer mutates a record context before it is named and rendered.
type Transformer interface {
	Transform(ctx context.Context, record map[string]any) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, record map[string]any) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, record map[string]any) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, record)
}

// PresetTransformer applies declarative record patches. The document is JSON
// or YAML:
//
//	rename:
//	  ttl: title
//	drop: [secret]
//	defaults:
//	  status: draft
//
// Renames run first, then drops, then defaults fill keys that are missing or
// null.
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Rename   map[string]string `yaml:"rename" json:"rename"`
	Drop     []string          `yaml:"drop" json:"drop"`
	Defaults map[string]any    `yaml:"defaults" json:"defaults"`
}

// NewPresetTransformer constructs a transformer from raw JSON or YAML bytes.
func NewPresetTransformer(raw []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	if normalized, ok := data.Normalize(document.Defaults).(map[string]any); ok {
		document.Defaults = normalized
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(raw)
}

// Transform applies the patches onto record.
func (t *PresetTransformer) Transform(ctx context.Context, record map[string]any) error {
	if record == nil {
		return errors.New("preset transformer: record is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for from, to := range t.document.Rename {
		value, ok := record[from]
		if !ok || strings.TrimSpace(to) == "" {
			continue
		}
		delete(record, from)
		record[strings.TrimSpace(to)] = value
	}
	for _, key := range t.document.Drop {
		delete(record, key)
	}
	for key, value := range t.document.Defaults {
		if current, ok := record[key]; !ok || current == nil {
			record[key] = value
		}
	}
	return nil
}
