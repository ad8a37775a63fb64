package mdgen

import (
	internalLoader "github.com/goliatone/go-mdgen/internal/data/loader"
	"github.com/goliatone/go-mdgen/pkg/data"
)

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...data.LoaderOption) data.Loader {
	cfg := data.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}
