package mdgen

import "github.com/goliatone/go-mdgen/pkg/helpers"

// NewHelpers returns a helper registry with the built-in helpers (upper,
// repeat, wrap, replaceRegex, tableRegex, stripHTML) registered.
func NewHelpers(options ...helpers.Option) *helpers.Registry {
	return helpers.NewRegistry(options...)
}
