package pongo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-mdgen/pkg/helpers"
	"github.com/goliatone/go-mdgen/pkg/render/template"
)

// Option configures the pongo2 engine before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extension  string
	helpers    *helpers.Registry
	templateFn map[string]any
	globalData map[string]any
	autoescape *bool
}

// WithBaseDir loads templates from a base directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension appends ext to template names passed to RenderTemplate that
// do not already carry it.
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

// WithHelpers exposes every helper in the registry to templates, both as a
// global function ({{ upper(title) }}) and, when pongo2 has no filter of the
// same name yet, as a filter ({{ title|wrap }}).
func WithHelpers(registry *helpers.Registry) Option {
	return func(cfg *config) {
		cfg.helpers = registry
	}
}

// WithTemplateFunc registers raw pongo2 filters or global callables.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.templateFn == nil {
			cfg.templateFn = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.templateFn[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobalData seeds global context values available to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithAutoescape toggles HTML escaping of printed values. pongo2 keeps this
// switch process wide, so the last engine constructed with the option wins.
func WithAutoescape(enabled bool) Option {
	return func(cfg *config) {
		cfg.autoescape = &enabled
	}
}

// Engine satisfies template.TemplateRenderer using a pongo2 template set.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	filters     map[string]helpers.Func
	tplExt      string
}

// pongo2 keeps filters in one process wide table. Helper filters are
// registered there once per name and dispatch to the engine that is
// executing, so engines with different registries never share a helper.
var (
	filterMu   sync.Mutex
	dispatched = map[string]bool{}

	execMu sync.Mutex
	active map[string]helpers.Func
)

var _ template.TemplateRenderer = (*Engine)(nil)

// New constructs an Engine using the provided configuration options. Without
// a base dir or fs.FS, files resolve relative to the working directory.
func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("pongo: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	if len(loaders) == 0 {
		loader, err := pongo2.NewLocalFileSystemLoader("")
		if err != nil {
			return nil, fmt.Errorf("pongo: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}

	if cfg.autoescape != nil {
		pongo2.SetAutoescape(*cfg.autoescape)
	}

	engine := &Engine{
		templateSet: pongo2.NewSet("mdgen", loaders...),
		templates:   make(map[string]*pongo2.Template),
		filters:     make(map[string]helpers.Func),
		tplExt:      cfg.extension,
	}

	if err := engine.GlobalContext(cfg.globalData); err != nil {
		return nil, fmt.Errorf("pongo: apply global data: %w", err)
	}
	if cfg.helpers != nil {
		for _, name := range cfg.helpers.List() {
			fn, err := cfg.helpers.Get(name)
			if err != nil {
				return nil, fmt.Errorf("pongo: resolve helper %q: %w", name, err)
			}
			if err := engine.RegisterHelper(name, fn); err != nil {
				return nil, fmt.Errorf("pongo: register helper %q: %w", name, err)
			}
		}
	}
	for name, fn := range cfg.templateFn {
		if err := engine.registerTemplateFunc(name, fn); err != nil {
			return nil, fmt.Errorf("pongo: register template func %q: %w", name, err)
		}
	}

	return engine, nil
}

// Render dispatches to RenderString for inline content and RenderTemplate
// otherwise.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	if template.IsTemplateContent(name) {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

// RenderTemplate renders a registered template, or loads it from the
// configured loaders on first use.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: engine is nil")
	}

	tmpl, err := e.getTemplate(name)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, name, data, out)
}

// RenderString parses and renders inline template content.
func (e *Engine) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: engine is nil")
	}

	tmpl, err := e.templateSet.FromString(templateContent)
	if err != nil {
		return "", fmt.Errorf("pongo: parse template string: %w", err)
	}
	return e.execute(tmpl, "", data, out)
}

// RegisterTemplate compiles content under name.
func (e *Engine) RegisterTemplate(name, content string) error {
	if e == nil || e.templateSet == nil {
		return errors.New("pongo: engine is nil")
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("pongo: template name is required")
	}

	tmpl, err := e.templateSet.FromString(content)
	if err != nil {
		return fmt.Errorf("pongo: compile template %q: %w", name, err)
	}

	e.mu.Lock()
	e.templates[name] = tmpl
	e.mu.Unlock()
	return nil
}

// RegisterHelper exposes fn as a global callable and as a filter, unless a
// built-in pongo2 filter already owns the name ("upper").
func (e *Engine) RegisterHelper(name string, fn helpers.Func) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return errors.New("pongo: helper name and function required")
	}

	filterMu.Lock()
	owned := dispatched[trimmed]
	if !owned && !pongo2.FilterExists(trimmed) {
		if err := pongo2.RegisterFilter(trimmed, dispatchFilter(trimmed)); err != nil {
			filterMu.Unlock()
			return fmt.Errorf("pongo: register filter %q: %w", trimmed, err)
		}
		dispatched[trimmed] = true
		owned = true
	}
	filterMu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals[trimmed] = callable(fn)
	if owned {
		e.filters[trimmed] = fn
	}
	return nil
}

// RegisterFilter registers a pongo2 filter backed by a plain Go function.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("pongo: filter name and function required")
	}

	wrapped := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		result, err := fn(interfaceOf(in), interfaceOf(param))
		if err != nil {
			return nil, &pongo2.Error{Sender: "custom_filter", OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}

	if pongo2.FilterExists(name) {
		return fmt.Errorf("pongo: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, wrapped)
}

// GlobalContext seeds global data on the template set.
func (e *Engine) GlobalContext(data any) error {
	if e == nil || e.templateSet == nil {
		return errors.New("pongo: engine is nil")
	}
	if data == nil {
		return nil
	}

	globalCtx, err := convertToContext(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals.Update(globalCtx)
	return nil
}

func (e *Engine) execute(tmpl *pongo2.Template, name string, data any, out []io.Writer) (string, error) {
	viewContext, err := convertToContext(data)
	if err != nil {
		return "", fmt.Errorf("pongo: convert data: %w", err)
	}

	var buf bytes.Buffer

	execMu.Lock()
	e.mu.RLock()
	active = e.filters
	err = tmpl.ExecuteWriter(viewContext, &buf)
	active = nil
	e.mu.RUnlock()
	execMu.Unlock()

	if err != nil {
		if name == "" {
			return "", fmt.Errorf("pongo: execute template string: %w", err)
		}
		return "", fmt.Errorf("pongo: execute template %q: %w", name, err)
	}

	rendered := buf.String()
	if err := template.WriteAll(rendered, out); err != nil {
		return "", err
	}
	return rendered, nil
}

func (e *Engine) registerTemplateFunc(name string, fn any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return nil
	}

	if filterFn, ok := fn.(pongo2.FilterFunction); ok {
		if pongo2.FilterExists(trimmed) {
			return nil
		}
		return pongo2.RegisterFilter(trimmed, filterFn)
	}

	if !isCallable(fn) {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals[trimmed] = fn
	return nil
}

func (e *Engine) getTemplate(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.templates[name]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	templatePath := name
	if e.tplExt != "" && !strings.HasSuffix(templatePath, e.tplExt) {
		templatePath += e.tplExt
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[templatePath]; ok {
		return tmpl, nil
	}

	tmpl, err := e.templateSet.FromFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("pongo: load template %q: %w", templatePath, err)
	}

	e.templates[templatePath] = tmpl
	return tmpl, nil
}

// callable adapts a helper to pongo2's function call convention. Arguments
// arrive as *pongo2.Value so undefined variables reach the helper as nil
// instead of failing the call.
func callable(fn helpers.Func) func(args ...*pongo2.Value) *pongo2.Value {
	return func(args ...*pongo2.Value) *pongo2.Value {
		values := make([]any, len(args))
		for i, arg := range args {
			values[i] = interfaceOf(arg)
		}
		return pongo2.AsValue(fn(values...))
	}
}

// dispatchFilter resolves name against the helpers of the executing engine.
// It runs with execMu held by execute.
func dispatchFilter(name string) pongo2.FilterFunction {
	return func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		fn, ok := active[name]
		if !ok {
			return nil, &pongo2.Error{
				Sender:    "filter:" + name,
				OrigError: fmt.Errorf("pongo: helper %q is not registered on this engine", name),
			}
		}
		args := []any{interfaceOf(in)}
		if p := interfaceOf(param); p != nil {
			args = append(args, p)
		}
		return pongo2.AsValue(fn(args...)), nil
	}
}

func interfaceOf(v *pongo2.Value) any {
	if v == nil {
		return nil
	}
	return v.Interface()
}

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}

func convertToContext(data any) (pongo2.Context, error) {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return convertMapToContext(map[string]any(v))
	case map[string]any:
		return convertMapToContext(v)
	default:
		m, err := jsonToMap(v)
		if err != nil {
			return nil, err
		}
		return convertMapToContext(m)
	}
}

// convertMapToContext drops top-level keys pongo2 rejects as identifiers
// ("first name", "x-id"). Nested keys are not checked by pongo2 and are kept.
func convertMapToContext(in map[string]any) (pongo2.Context, error) {
	out := make(pongo2.Context, len(in))
	for key, value := range in {
		key = strings.TrimSpace(key)
		if !validIdentifier(key) {
			continue
		}
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func validIdentifier(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// convertValue normalises nested data so pongo2 sees only maps, slices and
// scalars. Numbers are reduced to integers or their shortest decimal text
// since pongo2 prints floats with six fixed decimals.
func convertValue(value any) (any, error) {
	if value == nil || isCallable(value) {
		return value, nil
	}

	switch v := value.(type) {
	case string, bool, int, int64, int32, int16, int8, uint, uint64, uint32, uint16, uint8:
		return v, nil
	case float64:
		return convertFloat(v), nil
	case float32:
		return convertFloat(float64(v)), nil
	case json.Number:
		return convertNumber(v), nil
	case pongo2.Context:
		return convertMap(map[string]any(v))
	case map[string]any:
		return convertMap(v)
	case []any:
		return convertSlice(v)
	default:
		raw, err := jsonToAny(v)
		if err != nil {
			return nil, err
		}
		switch decoded := raw.(type) {
		case map[string]any:
			return convertMap(decoded)
		case []any:
			return convertSlice(decoded)
		case json.Number:
			return convertNumber(decoded), nil
		default:
			return decoded, nil
		}
	}
}

// maxExactInt is the largest integer a float64 holds without rounding.
const maxExactInt = 1 << 53

func convertFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) <= maxExactInt {
		return int64(f)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// convertNumber keeps integers that fit int64 as numbers. Larger integers
// and decimals stay as their literal text so no digits are lost.
func convertNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) <= maxExactInt {
		return int64(f)
	}
	return n.String()
}

func convertMap(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for key, value := range in {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func convertSlice(in []any) ([]any, error) {
	out := make([]any, 0, len(in))
	for _, value := range in {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func jsonToMap(v any) (map[string]any, error) {
	out := map[string]any{}
	if err := jsonRoundTrip(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func jsonToAny(v any) (any, error) {
	var out any
	if err := jsonRoundTrip(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func jsonRoundTrip(v any, target any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(target)
}
