package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"
	"time"

	internalLoader "github.com/goliatone/go-mdgen/internal/data/loader"
	"github.com/goliatone/go-mdgen/pkg/data"
	"github.com/goliatone/go-mdgen/pkg/helpers"
	"github.com/goliatone/go-mdgen/pkg/output"
	"github.com/goliatone/go-mdgen/pkg/render/template"
	"github.com/goliatone/go-mdgen/pkg/render/template/pongo"
	"github.com/goliatone/go-mdgen/pkg/render/template/text"
	"github.com/goliatone/go-mdgen/pkg/settings"
)

// Context keys added to every record before rendering.
const (
	KeySourceIndex    = "SourceIndex"
	KeyDataRoot       = "dataRoot"
	KeySourceFilename = "SourceFilename"
	KeyNoteName       = "_note_name_"
)

const (
	noteTemplateName   = "mdgen:note"
	defaultHTTPTimeout = 30 * time.Second
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom data loader.
func WithLoader(loader data.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithEngine injects a template engine, bypassing the engine named in the
// settings.
func WithEngine(engine template.TemplateRenderer) Option {
	return func(o *Orchestrator) {
		o.engine = engine
	}
}

// WithHelpers sets the helper registry exposed to the default engines.
func WithHelpers(registry *helpers.Registry) Option {
	return func(o *Orchestrator) {
		o.helpers = registry
	}
}

// WithLogger sets the logger for pipeline diagnostics and helper traces.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithWriter injects the output writer.
func WithWriter(writer *output.Writer) Option {
	return func(o *Orchestrator) {
		o.writer = writer
	}
}

// WithSettings replaces the default settings.
func WithSettings(s settings.Settings) Option {
	return func(o *Orchestrator) {
		o.settings = s
	}
}

// WithTransformer registers a Transformer applied to every record context
// before naming and rendering.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.transformers = append(o.transformers, t)
		}
	}
}

// Orchestrator runs the load, decode, select, name, render and write pipeline.
type Orchestrator struct {
	loader       data.Loader
	engine       template.TemplateRenderer
	helpers      *helpers.Registry
	logger       *slog.Logger
	writer       *output.Writer
	settings     settings.Settings
	transformers []Transformer

	initialiseErr   error
	defaultsApplied bool
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{settings: settings.Default()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one generation run.
type Request struct {
	// Source identifies the data document. Optional when Document is set.
	Source data.Source

	// Document bypasses the loader.
	Document *data.Document

	// Template is the path or URL of the template file. Ignored when
	// TemplateSource is set.
	Template string

	// TemplateSource holds inline template content.
	TemplateSource string

	// Output is the --output argument: a file, a directory, or empty to infer
	// the layout from the data.
	Output string

	// Split is the --split argument. Nil disables it; an empty string selects
	// index naming.
	Split *string
}

// Result summarises a generation run.
type Result struct {
	Mode     output.Mode
	Strategy output.Strategy
	Files    []output.Entry
	// Items counts the records rendered.
	Items int
	// Skipped counts records without an object shape or with an empty name.
	Skipped int
	Bytes   int
}

// Generate renders every record of the request's data with its template and
// writes the notes according to the planned output strategy.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := o.initialiseErr; err != nil {
		return Result{}, err
	}

	doc, err := o.resolveDocument(ctx, req)
	if err != nil {
		return Result{}, err
	}
	root, err := data.Decode(doc)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: decode %s: %w", doc.Location(), err)
	}

	if err := o.prepareTemplate(ctx, req); err != nil {
		return Result{}, err
	}

	s := o.settings
	target, err := data.Select(root, s.TopField)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: select records: %w", err)
	}

	strategy := output.Plan(req.Output, req.Split, root, s)
	namer := output.NewNamer(s, func(tmpl string, item any) (string, error) {
		return o.engine.RenderString(tmpl, item)
	})
	sourceName := data.BaseName(doc.Source())

	o.logger.Info("converting",
		slog.String("source", sourceName),
		slog.String("mode", string(strategy.Mode)),
	)

	result := Result{Mode: strategy.Mode, Strategy: strategy}
	var combined strings.Builder

	for idx, item := range data.Items(target, s.ForceArray) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		record, ok := item.(map[string]any)
		if !ok {
			o.logger.Debug("skipping record without fields", slog.Int("index", idx))
			result.Skipped++
			continue
		}

		view := maps.Clone(record)
		view[KeySourceIndex] = idx
		view[KeyDataRoot] = root
		view[KeySourceFilename] = sourceName
		for _, t := range o.transformers {
			if err := t.Transform(ctx, view); err != nil {
				return result, fmt.Errorf("orchestrator: transform record %d: %w", idx, err)
			}
		}

		var name string
		if strategy.Single() {
			name = namer.NoteName(view, root, idx)
		} else {
			name, err = namer.FileName(view, idx, strategy)
			if err != nil {
				return result, fmt.Errorf("orchestrator: name record %d: %w", idx, err)
			}
			if name == "" {
				o.logger.Warn("skipping record with empty name", slog.Int("index", idx))
				result.Skipped++
				continue
			}
		}
		view[KeyNoteName] = name

		body, err := o.engine.Render(noteTemplateName, view)
		if err != nil {
			return result, fmt.Errorf("orchestrator: render record %d: %w", idx, err)
		}

		if strategy.Single() {
			if result.Items > 0 {
				combined.WriteString(s.ItemSeparator)
			}
			combined.WriteString(body)
			result.Items++
			o.logger.Debug("appended record", slog.Int("index", idx), slog.Int("bytes", len(body)))
			continue
		}

		entry, err := o.writer.WriteNote(ctx, strategy.Dir, name, body)
		if err != nil {
			return result, fmt.Errorf("orchestrator: write record %d: %w", idx, err)
		}
		result.Items++
		result.Bytes += entry.Bytes
		result.Files = append(result.Files, entry)
	}

	if strategy.Single() {
		if result.Items == 0 {
			o.logger.Warn("no records rendered", slog.String("path", strategy.Path))
		}
		entry, err := o.writer.WriteFile(ctx, strategy.Path, combined.String())
		if err != nil {
			return result, fmt.Errorf("orchestrator: write %s: %w", strategy.Path, err)
		}
		result.Bytes = entry.Bytes
		result.Files = append(result.Files, entry)
	}

	return result, nil
}

// Settings returns the settings in effect.
func (o *Orchestrator) Settings() settings.Settings {
	return o.settings
}

// Engine returns the template engine in use.
func (o *Orchestrator) Engine() template.TemplateRenderer {
	return o.engine
}

func (o *Orchestrator) resolveDocument(ctx context.Context, req Request) (data.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	if req.Source == nil {
		return data.Document{}, errors.New("orchestrator: source or document is required")
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return data.Document{}, fmt.Errorf("orchestrator: load data: %w", err)
	}
	return doc, nil
}

func (o *Orchestrator) prepareTemplate(ctx context.Context, req Request) error {
	content := req.TemplateSource
	if content == "" {
		if strings.TrimSpace(req.Template) == "" {
			return errors.New("orchestrator: template or template source is required")
		}
		src := data.ParseSource(req.Template)
		if src == nil {
			return fmt.Errorf("orchestrator: invalid template location %q", req.Template)
		}
		doc, err := o.loader.Load(ctx, src)
		if err != nil {
			return fmt.Errorf("orchestrator: load template: %w", err)
		}
		content = string(doc.Raw())
	}
	if err := o.engine.RegisterTemplate(noteTemplateName, content); err != nil {
		return fmt.Errorf("orchestrator: compile template: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.defaultsApplied {
		return
	}
	o.defaultsApplied = true

	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := o.settings.Validate(); err != nil {
		o.initialiseErr = fmt.Errorf("orchestrator: %w", err)
		return
	}
	if o.loader == nil {
		o.loader = internalLoader.New(data.NewLoaderOptions(data.WithHTTPFallback(defaultHTTPTimeout)))
	}
	if o.helpers == nil {
		o.helpers = helpers.NewRegistry(helpers.WithLogger(o.logger))
	}
	if o.writer == nil {
		o.writer = output.NewWriter(
			output.WithUniqueNames(o.settings.UniqueNames),
			output.WithAllowPaths(o.settings.JSONNamePath),
			output.WithWriterLogger(o.logger),
		)
	}
	if o.engine == nil {
		engine, err := NewEngine(o.settings.Engine, o.helpers)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default engine: %w", err)
			return
		}
		o.engine = engine
	}
}

// NewEngine builds the named template engine with the registry's helpers.
// Autoescaping is disabled since the output is Markdown.
func NewEngine(name string, registry *helpers.Registry) (template.TemplateRenderer, error) {
	switch name {
	case settings.EnginePongo2, "":
		return pongo.New(pongo.WithHelpers(registry), pongo.WithAutoescape(false))
	case settings.EngineText:
		return text.New(text.WithHelpers(registry))
	default:
		return nil, fmt.Errorf("unknown template engine %q", name)
	}
}
