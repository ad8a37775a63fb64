// Package text renders templates with the standard text/template package and
// the same helper set as the pongo2 engine. Output is never HTML escaped.
package text

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	gotemplate "text/template"

	"github.com/goliatone/go-mdgen/pkg/helpers"
	"github.com/goliatone/go-mdgen/pkg/render/template"
)

// Option configures the engine.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extension  string
	helpers    *helpers.Registry
	funcs      gotemplate.FuncMap
	globalData map[string]any
	missingKey string
}

// WithBaseDir resolves template names relative to dir.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from files.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension appends ext to template names that lack it.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithHelpers installs every helper of the registry into the FuncMap.
func WithHelpers(registry *helpers.Registry) Option {
	return func(cfg *config) {
		cfg.helpers = registry
	}
}

// WithTemplateFunc adds raw template functions.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(cfg *config) {
		if cfg.funcs == nil {
			cfg.funcs = gotemplate.FuncMap{}
		}
		for name, fn := range funcs {
			cfg.funcs[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobalData seeds values merged under every render context.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		maps.Copy(cfg.globalData, data)
	}
}

// WithStrictKeys makes a missing map key an execution error instead of
// rendering "<no value>".
func WithStrictKeys() Option {
	return func(cfg *config) {
		cfg.missingKey = "missingkey=error"
	}
}

// Engine satisfies template.TemplateRenderer with text/template.
type Engine struct {
	mu sync.RWMutex

	root     *gotemplate.Template
	funcs    gotemplate.FuncMap
	globals  map[string]any
	files    fs.FS
	baseDir  string
	ext      string
	option   string
	compiled map[string]*gotemplate.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an engine.
func New(options ...Option) (*Engine, error) {
	cfg := &config{missingKey: "missingkey=default"}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	funcs := gotemplate.FuncMap{}
	if cfg.helpers != nil {
		maps.Copy(funcs, cfg.helpers.FuncMap())
	}
	maps.Copy(funcs, cfg.funcs)

	e := &Engine{
		root:     gotemplate.New("mdgen").Option(cfg.missingKey).Funcs(funcs),
		funcs:    funcs,
		globals:  map[string]any{},
		files:    cfg.templates,
		baseDir:  cfg.baseDir,
		ext:      cfg.extension,
		option:   cfg.missingKey,
		compiled: map[string]*gotemplate.Template{},
	}
	if err := e.GlobalContext(cfg.globalData); err != nil {
		return nil, err
	}
	return e, nil
}

// Render dispatches on whether name looks like template content.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	if template.IsTemplateContent(name) {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

// RenderTemplate executes a registered template, loading it from disk or the
// configured fs.FS on first use.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil {
		return "", errors.New("text: engine is nil")
	}
	tmpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, name, data, out)
}

// RenderString parses templateContent and executes it once.
func (e *Engine) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	if e == nil {
		return "", errors.New("text: engine is nil")
	}

	e.mu.RLock()
	tmpl, err := gotemplate.New("inline").Option(e.option).Funcs(e.funcs).Parse(templateContent)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("text: parse template string: %w", err)
	}
	return e.execute(tmpl, "", data, out)
}

// RegisterTemplate parses content under name. Templates registered this way
// can reference each other through {{template "name" .}}.
func (e *Engine) RegisterTemplate(name, content string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("text: template name is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tmpl, err := e.root.New(name).Parse(content)
	if err != nil {
		return fmt.Errorf("text: compile template %q: %w", name, err)
	}
	e.compiled[name] = tmpl
	return nil
}

// RegisterHelper makes fn callable from templates parsed after this call.
func (e *Engine) RegisterHelper(name string, fn helpers.Func) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return errors.New("text: helper name and function required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.funcs[trimmed] = fn
	e.root.Funcs(gotemplate.FuncMap{trimmed: fn})
	return nil
}

// GlobalContext merges map data into the values visible to every render.
func (e *Engine) GlobalContext(data any) error {
	if data == nil {
		return nil
	}
	values, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("text: global context must be a map, got %T", data)
	}

	e.mu.Lock()
	maps.Copy(e.globals, values)
	e.mu.Unlock()
	return nil
}

func (e *Engine) lookup(name string) (*gotemplate.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.compiled[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	path := name
	if e.ext != "" && !strings.HasSuffix(path, e.ext) {
		path += e.ext
	}

	e.mu.RLock()
	tmpl, ok = e.compiled[path]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	content, err := e.read(path)
	if err != nil {
		return nil, fmt.Errorf("text: load template %q: %w", path, err)
	}
	if err := e.RegisterTemplate(path, string(content)); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.compiled[path], nil
}

func (e *Engine) read(path string) ([]byte, error) {
	if e.files != nil {
		content, err := fs.ReadFile(e.files, filepath.ToSlash(path))
		if err == nil || e.baseDir == "" {
			return content, err
		}
	}
	if e.baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(e.baseDir, path)
	}
	return os.ReadFile(path)
}

func (e *Engine) execute(tmpl *gotemplate.Template, name string, data any, out []io.Writer) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, e.context(data)); err != nil {
		if name == "" {
			return "", fmt.Errorf("text: execute template string: %w", err)
		}
		return "", fmt.Errorf("text: execute template %q: %w", name, err)
	}

	rendered := buf.String()
	if err := template.WriteAll(rendered, out); err != nil {
		return "", err
	}
	return rendered, nil
}

// context overlays map data on the globals. Non-map data is passed through
// untouched so templates can range over arrays with {{range .}}.
func (e *Engine) context(data any) any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if data == nil {
		return maps.Clone(e.globals)
	}
	values, ok := data.(map[string]any)
	if !ok {
		return data
	}
	if len(e.globals) == 0 {
		return values
	}
	merged := maps.Clone(e.globals)
	maps.Copy(merged, values)
	return merged
}
