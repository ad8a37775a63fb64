// Package template defines the engine-agnostic contract used to render notes.
// Implementations live in the pongo (pongo2, Django syntax) and text
// (text/template) subpackages; both expose the helpers registry to templates.
package template
