package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/goliatone/go-mdgen/pkg/data"
)

// Loader implements data.Loader by delegating to file, fs.FS, or HTTP
// strategies.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
}

var _ data.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options data.LoaderOptions) *Loader {
	timeout := options.RequestTimeout

	var httpClient *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		httpClient = &clone
	case options.AllowHTTPFallback:
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Loader{
		fs:        options.FileSystem,
		http:      httpClient,
		allowHTTP: httpClient != nil,
		timeout:   timeout,
	}
}

// Load fetches a document from the provided source and wraps it in a Document.
func (l *Loader) Load(ctx context.Context, src data.Source) (data.Document, error) {
	if src == nil {
		return data.Document{}, errors.New("data loader: source is nil")
	}

	var (
		raw []byte
		err error
	)

	switch src.Kind() {
	case data.SourceKindFile:
		raw, err = loadFile(ctx, src.Location())
	case data.SourceKindFS:
		raw, err = loadFromFS(ctx, l.fs, src.Location())
	case data.SourceKindURL:
		if !l.allowHTTP {
			return data.Document{}, errors.New("data loader: http support disabled")
		}
		raw, err = loadHTTP(ctx, l.http, src.Location(), l.timeout)
	default:
		err = fmt.Errorf("data loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return data.Document{}, fmt.Errorf("data loader: read %s: %w", src.Location(), err)
	}

	return data.NewDocument(src, raw)
}
