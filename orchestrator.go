// Package mdgen renders Markdown notes from structured records. The root
// package re-exports the common entry points; see pkg/orchestrator for the
// full pipeline and pkg/helpers for the template helpers.
package mdgen

import (
	"context"

	"github.com/goliatone/go-mdgen/pkg/data"
	"github.com/goliatone/go-mdgen/pkg/orchestrator"
)

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// Result aliases orchestrator.Result.
type Result = orchestrator.Result

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Generate loads the data source, renders every record with the template at
// templatePath and writes the notes to output. An empty output infers the
// layout from the data and the settings.
func Generate(ctx context.Context, source data.Source, templatePath, output string, options ...orchestrator.Option) (Result, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Source:   source,
		Template: templatePath,
		Output:   output,
	})
}

// GenerateFromDocument renders a pre-loaded document with inline template
// content, bypassing the loader.
func GenerateFromDocument(ctx context.Context, doc data.Document, templateSource, output string, options ...orchestrator.Option) (Result, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Document:       &doc,
		TemplateSource: templateSource,
		Output:         output,
	})
}
