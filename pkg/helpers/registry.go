package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"text/template"
)

// Built-in helper names.
const (
	NameUpper        = "upper"
	NameRepeat       = "repeat"
	NameWrap         = "wrap"
	NameReplaceRegex = "replaceRegex"
	NameTableRegex   = "tableRegex"
	NameStripHTML    = "stripHTML"
)

// Func is the uniform helper signature shared by every template engine.
// Helpers never fail; they coerce their arguments instead.
type Func func(args ...any) string

// Option configures a Registry.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	builtins bool
}

// WithLogger traces every helper call at debug level on the given logger.
// Invalid regular expressions are reported at warn level.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithoutBuiltins returns an empty registry.
func WithoutBuiltins() Option {
	return func(cfg *config) {
		cfg.builtins = false
	}
}

// Registry stores helpers by name. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	helpers map[string]Func
	logger  *slog.Logger
}

// NewRegistry creates a registry with the built-in helpers registered.
func NewRegistry(options ...Option) *Registry {
	cfg := &config{builtins: true}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	r := &Registry{
		helpers: make(map[string]Func),
		logger:  cfg.logger,
	}
	if cfg.builtins {
		r.registerBuiltins()
	}
	return r
}

// Register adds a helper. Duplicate names return an error.
func (r *Registry) Register(name string, fn Func) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("helpers: helper name is required")
	}
	if fn == nil {
		return fmt.Errorf("helpers: helper %q function is required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.helpers[name]; exists {
		return fmt.Errorf("helpers: helper %q already registered", name)
	}
	r.helpers[name] = r.traced(name, fn)
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(name string, fn Func) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Replace registers fn under name, overriding any existing helper.
func (r *Registry) Replace(name string, fn Func) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return fmt.Errorf("helpers: helper name and function required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.helpers[name] = r.traced(name, fn)
	return nil
}

// Get retrieves a helper by name.
func (r *Registry) Get(name string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.helpers[name]
	if !ok {
		return nil, fmt.Errorf("helpers: helper %q not found", name)
	}
	return fn, nil
}

// Has reports whether a helper is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.helpers[name]
	return ok
}

// List returns the sorted helper names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.helpers))
	for name := range r.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes the named helper.
func (r *Registry) Call(name string, args ...any) (string, error) {
	fn, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return fn(args...), nil
}

// FuncMap exposes the helpers to text/template and html/template.
func (r *Registry) FuncMap() template.FuncMap {
	r.mu.RLock()
	defer r.mu.RUnlock()

	funcs := make(template.FuncMap, len(r.helpers))
	for name, fn := range r.helpers {
		funcs[name] = fn
	}
	return funcs
}

func (r *Registry) registerBuiltins() {
	r.MustRegister(NameUpper, func(args ...any) string {
		return Upper(arg(args, 0))
	})
	r.MustRegister(NameRepeat, func(args ...any) string {
		return Repeat(arg(args, 0), arg(args, 1))
	})
	r.MustRegister(NameWrap, func(args ...any) string {
		return Wrap(arg(args, 0))
	})
	r.MustRegister(NameStripHTML, func(args ...any) string {
		return StripHTML(arg(args, 0))
	})
	r.MustRegister(NameReplaceRegex, func(args ...any) string {
		if len(args) != 3 {
			return ""
		}
		out, err := replaceRegex(String(args[0]), String(args[1]), String(args[2]))
		r.warn(NameReplaceRegex, err)
		return out
	})
	r.MustRegister(NameTableRegex, func(args ...any) string {
		out, err := tableRegex(args...)
		r.warn(NameTableRegex, err)
		return out
	})
}

func (r *Registry) traced(name string, fn Func) Func {
	if r.logger == nil {
		return fn
	}
	logger := r.logger
	return func(args ...any) string {
		if logger.Enabled(context.Background(), slog.LevelDebug) {
			logger.Debug("helper call", slog.String("helper", name), slog.Any("args", describeArgs(args)))
		}
		return fn(args...)
	}
}

func (r *Registry) warn(name string, err error) {
	if err == nil || r.logger == nil {
		return
	}
	r.logger.Warn("helper argument ignored", slog.String("helper", name), slog.Any("error", err))
}

func arg(args []any, idx int) any {
	if idx < len(args) {
		return args[idx]
	}
	return nil
}

func describeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = unwrap(a)
	}
	return out
}
