package output

import (
	"fmt"

	"github.com/goliatone/go-mdgen/pkg/data"
	"github.com/goliatone/go-mdgen/pkg/settings"
)

// RenderFunc renders an inline template against a record. The orchestrator
// passes the active engine's RenderString.
type RenderFunc func(template string, data any) (string, error)

// Namer derives note names from records.
type Namer struct {
	settings settings.Settings
	render   RenderFunc
}

// NewNamer builds a Namer. render may be nil when no inline templates are in
// use; template names then fall back to the index naming.
func NewNamer(s settings.Settings, render RenderFunc) *Namer {
	return &Namer{settings: s, render: render}
}

// FileName returns the multi-file note name for the record at idx, with the
// prefix and suffix applied and unsafe characters replaced. The ".md"
// extension is added by the Writer.
func (n *Namer) FileName(item any, idx int, strategy Strategy) (string, error) {
	var (
		name string
		err  error
	)

	split := strategy.Split
	switch {
	case split == nil:
		name, err = n.fromSettings(item, idx)
	case split.Mode == SplitIndex:
		name = fmt.Sprintf("%s_%d", strategy.Stem(), idx)
	case split.Mode == SplitTemplate:
		name, err = n.renderName(split.Template, item)
	default:
		value, ok := data.LookupString(item, split.Template, nil)
		if !ok {
			value = fmt.Sprintf("%s_%d", strategy.Stem(), idx)
		}
		name = value
	}
	if err != nil {
		return "", err
	}

	return n.settings.NotePrefix + SanitizeFilename(name, n.settings.JSONNamePath) + n.settings.NoteSuffix, nil
}

// NoteName returns the name exposed to templates as _note_name_ in
// single-file mode. Render errors fall back to an empty name. Field lookups
// may use "@path" to read from root.
func (n *Namer) NoteName(ctx map[string]any, root any, idx int) string {
	if n.settings.IsTemplateName() {
		name, err := n.renderName(n.settings.JSONName, ctx)
		if err != nil {
			return ""
		}
		return name
	}
	if value, ok := data.LookupString(ctx, n.settings.JSONName, root); ok {
		return value
	}
	return fmt.Sprintf("item_%d", idx)
}

func (n *Namer) fromSettings(item any, idx int) (string, error) {
	if n.settings.IsTemplateName() {
		return n.renderName(n.settings.JSONName, item)
	}
	if value, ok := data.LookupString(item, n.settings.JSONName, nil); ok {
		return value, nil
	}
	return fmt.Sprintf("item_%d", idx), nil
}

func (n *Namer) renderName(tmpl string, item any) (string, error) {
	if n.render == nil {
		return "", fmt.Errorf("output: no renderer for name template %q", tmpl)
	}
	name, err := n.render(tmpl, item)
	if err != nil {
		return "", fmt.Errorf("output: render name template %q: %w", tmpl, err)
	}
	return name, nil
}
