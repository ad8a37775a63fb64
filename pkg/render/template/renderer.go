package template

import (
	"io"
	"strings"

	"github.com/goliatone/go-mdgen/pkg/helpers"
)

// TemplateRenderer is the seam between the note pipeline and a concrete
// template engine.
type TemplateRenderer interface {
	// Render treats name as inline template content when it contains template
	// delimiters, otherwise as the name of a registered or loadable template.
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	// RegisterTemplate compiles content once so it can be rendered by name.
	RegisterTemplate(name, content string) error
	RegisterHelper(name string, fn helpers.Func) error
	GlobalContext(data any) error
}

// IsTemplateContent reports whether s contains template delimiters.
func IsTemplateContent(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%")
}

// WriteAll copies a rendered result to every writer.
func WriteAll(rendered string, out []io.Writer) error {
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return err
		}
	}
	return nil
}
