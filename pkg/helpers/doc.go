// Package helpers provides the text helpers exposed to Markdown templates
// (upper, repeat, wrap, replaceRegex, tableRegex, stripHTML).
//
// Every helper is total over its input: missing or malformed arguments are
// coerced to safe defaults instead of failing, so a template never aborts
// because a data field is absent. Coercion follows a "falsy" rule: nil, the
// empty string, numeric zero and false all become the empty string. Helpers
// hold no state and are safe for concurrent use.
//
// Helpers are collected in a Registry which engines consume either as a
// text/template FuncMap or through the pongo2 adapter in
// pkg/render/template/pongo:
//
//	reg := helpers.NewRegistry(helpers.WithLogger(logger))
//	tmpl := template.New("note").Funcs(reg.FuncMap())
//
// Note that Wrap is not idempotent: Wrap(Wrap(x)) adds a second pair of
// brackets.
package helpers
