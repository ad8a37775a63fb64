package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Extension is appended to every note file name.
const Extension = ".md"

// Confirmer decides whether an existing file may be overwritten.
type Confirmer interface {
	ConfirmOverwrite(ctx context.Context, path string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, path string) (bool, error)

// ConfirmOverwrite implements Confirmer.
func (f ConfirmFunc) ConfirmOverwrite(ctx context.Context, path string) (bool, error) {
	return f(ctx, path)
}

// Entry describes one file handled by the Writer.
type Entry struct {
	Path    string
	Bytes   int
	Skipped bool
	DryRun  bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithUniqueNames also treats files already on disk as taken, so existing
// notes are never overwritten.
func WithUniqueNames(enabled bool) WriterOption {
	return func(w *Writer) {
		w.unique = enabled
	}
}

// WithAllowPaths keeps "/" in note names.
func WithAllowPaths(enabled bool) WriterOption {
	return func(w *Writer) {
		w.allowPaths = enabled
	}
}

// WithConfirmer asks c before overwriting an existing file.
func WithConfirmer(c Confirmer) WriterOption {
	return func(w *Writer) {
		w.confirm = c
	}
}

// WithDryRun prints a line diff of every pending change to out instead of
// writing files.
func WithDryRun(out io.Writer) WriterOption {
	return func(w *Writer) {
		w.dryRun = out
	}
}

// WithWriterLogger sets the logger used for per-file reports.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Writer persists rendered notes. Names handed out in one run never collide:
// a repeated name gets a numeric suffix (name1, name2, ...).
type Writer struct {
	mu         sync.Mutex
	seen       map[string]struct{}
	unique     bool
	allowPaths bool
	confirm    Confirmer
	dryRun     io.Writer
	logger     *slog.Logger
}

// NewWriter builds a Writer.
func NewWriter(options ...WriterOption) *Writer {
	w := &Writer{
		seen:   make(map[string]struct{}),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Reset forgets the names handed out so far. Watch mode calls it before each
// regeneration.
func (w *Writer) Reset() {
	w.mu.Lock()
	w.seen = make(map[string]struct{})
	w.mu.Unlock()
}

// WriteNote writes body as a note named name inside dir.
func (w *Writer) WriteNote(ctx context.Context, dir, name, body string) (Entry, error) {
	safe := strings.TrimSuffix(SanitizeFilename(name, w.allowPaths), Extension)
	path := w.claim(dir, safe)
	return w.commit(ctx, path, body)
}

// WriteFile writes body to path as is.
func (w *Writer) WriteFile(ctx context.Context, path, body string) (Entry, error) {
	return w.commit(ctx, path, body)
}

func (w *Writer) claim(dir, base string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	candidate := filepath.Join(dir, base+Extension)
	for n := 1; w.taken(candidate); n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s%d%s", base, n, Extension))
	}
	w.seen[candidate] = struct{}{}
	return candidate
}

func (w *Writer) taken(path string) bool {
	if _, ok := w.seen[path]; ok {
		return true
	}
	if !w.unique {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func (w *Writer) commit(ctx context.Context, path, body string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	entry := Entry{Path: path, Bytes: len(body)}

	existing, err := os.ReadFile(path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return entry, fmt.Errorf("output: read %s: %w", path, err)
	}

	if w.dryRun != nil {
		entry.DryRun = true
		return entry, w.printDiff(path, string(existing), body, exists)
	}

	if exists && w.confirm != nil && string(existing) != body {
		ok, err := w.confirm.ConfirmOverwrite(ctx, path)
		if err != nil {
			return entry, err
		}
		if !ok {
			entry.Skipped = true
			w.logger.Info("skipped existing file", slog.String("path", path))
			return entry, nil
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return entry, fmt.Errorf("output: create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return entry, fmt.Errorf("output: write %s: %w", path, err)
	}
	w.logger.Debug("wrote file", slog.String("path", path), slog.Int("bytes", len(body)))
	return entry, nil
}

func (w *Writer) printDiff(path, before, after string, exists bool) error {
	header := "--- " + path + "\n+++ " + path + "\n"
	if !exists {
		header = "--- /dev/null\n+++ " + path + "\n"
	}

	var b strings.Builder
	b.WriteString(header)
	for _, line := range DiffLines(before, after) {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := io.WriteString(w.dryRun, b.String())
	return err
}

// DiffLines returns a line-oriented diff of before and after. Each line is
// prefixed with "+", "-" or " ".
func DiffLines(before, after string) []string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []string
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		if d.Text == "" {
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out = append(out, prefix+line)
		}
	}
	return out
}
