package output

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mdgen/pkg/settings"
)

func strptr(s string) *string { return &s }

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in         string
		allowPaths bool
		want       string
	}{
		{in: `a<b>c:d"e`, want: "a_b_c_d_e"},
		{in: `x\y|z?w*`, want: "x_y_z_w_"},
		{in: "dir/name", want: "dir_name"},
		{in: "dir/name", allowPaths: true, want: "dir/name"},
		{in: "plain name.v1", want: "plain name.v1"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in, tt.allowPaths); got != tt.want {
			t.Fatalf("SanitizeFilename(%q, %v) = %q, want %q", tt.in, tt.allowPaths, got, tt.want)
		}
	}
}

func TestParseSplit(t *testing.T) {
	if ParseSplit(nil) != nil {
		t.Fatalf("nil split should stay nil")
	}
	tests := []struct {
		arg  string
		want SplitConfig
	}{
		{arg: "", want: SplitConfig{Mode: SplitIndex}},
		{arg: "{{ title }}", want: SplitConfig{Mode: SplitTemplate, Template: "{{ title }}"}},
		{arg: "meta.slug", want: SplitConfig{Mode: SplitPath, Template: "meta.slug"}},
	}
	for _, tt := range tests {
		got := ParseSplit(strptr(tt.arg))
		if diff := cmp.Diff(tt.want, *got); diff != "" {
			t.Fatalf("ParseSplit(%q) mismatch (-want +got):\n%s", tt.arg, diff)
		}
	}
}

func TestPlan(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "notes.d")
	if err := os.Mkdir(existing, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	s := settings.Default()
	s.NotePrefix = "pre-"
	s.NoteSuffix = "-suf"

	templated := settings.Default()
	templated.JSONName = "{{ title }}"

	one := []any{map[string]any{"name": "a/b"}}
	many := []any{map[string]any{"name": "a"}, map[string]any{"name": "b"}}

	tests := []struct {
		name     string
		out      string
		split    *string
		data     any
		settings settings.Settings
		want     Strategy
	}{
		{name: "explicit file", out: "out/all.md", data: many, settings: s, want: Strategy{Mode: ModeSingle, Path: "out/all.md"}},
		{name: "trailing slash", out: "out/", data: one, settings: s, want: Strategy{Mode: ModeMulti, Dir: "out/"}},
		{name: "no extension", out: "notes", split: strptr(""), data: one, settings: s, want: Strategy{Mode: ModeMulti, Dir: "notes", Split: &SplitConfig{Mode: SplitIndex}}},
		{name: "existing directory with dot", out: existing, data: one, settings: s, want: Strategy{Mode: ModeMulti, Dir: existing}},
		{name: "single record", data: one, settings: s, want: Strategy{Mode: ModeSingle, Path: "pre-a_b-suf.md"}},
		{name: "single record templated name", data: one, settings: templated, want: Strategy{Mode: ModeSingle, Path: "output.md"}},
		{name: "single record missing name", data: []any{map[string]any{}}, settings: settings.Default(), want: Strategy{Mode: ModeSingle, Path: "output.md"}},
		{name: "many records", data: many, settings: s, want: Strategy{Mode: ModeMulti, Dir: "JSON2MD"}},
		{name: "object", data: map[string]any{"name": "x"}, settings: s, want: Strategy{Mode: ModeMulti, Dir: "JSON2MD"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.out, tt.split, tt.data, tt.settings)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Plan mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStrategy_Stem(t *testing.T) {
	tests := map[string]string{
		"JSON2MD":     "JSON2MD",
		"out/notes.d": "notes",
		"out/notes/":  "notes",
		".":           "output",
		"":            "output",
	}
	for dir, want := range tests {
		if got := (Strategy{Dir: dir}).Stem(); got != want {
			t.Fatalf("Stem(%q) = %q, want %q", dir, got, want)
		}
	}
}

func TestNamer_FileName(t *testing.T) {
	render := func(tmpl string, data any) (string, error) {
		item := data.(map[string]any)
		return strings.ReplaceAll(tmpl, "{{ title }}", item["title"].(string)), nil
	}
	item := map[string]any{"name": "Ada", "title": "Notes: One", "meta": map[string]any{"slug": "ada-l"}}
	dir := Strategy{Mode: ModeMulti, Dir: "people"}

	s := settings.Default()
	s.NotePrefix = "p_"

	templated := settings.Default()
	templated.JSONName = "{{ title }}"

	tests := []struct {
		name     string
		settings settings.Settings
		split    *SplitConfig
		item     any
		want     string
	}{
		{name: "json name field", settings: s, item: item, want: "p_Ada"},
		{name: "json name missing", settings: s, item: map[string]any{}, want: "p_item_3"},
		{name: "json name template", settings: templated, item: item, want: "Notes_ One"},
		{name: "index split", settings: s, split: &SplitConfig{Mode: SplitIndex}, item: item, want: "p_people_3"},
		{name: "template split", settings: s, split: &SplitConfig{Mode: SplitTemplate, Template: "x-{{ title }}"}, item: item, want: "p_x-Notes_ One"},
		{name: "path split", settings: s, split: &SplitConfig{Mode: SplitPath, Template: "meta.slug"}, item: item, want: "p_ada-l"},
		{name: "path split missing", settings: s, split: &SplitConfig{Mode: SplitPath, Template: "meta.none"}, item: item, want: "p_people_3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy := dir
			strategy.Split = tt.split
			got, err := NewNamer(tt.settings, render).FileName(tt.item, 3, strategy)
			if err != nil {
				t.Fatalf("FileName: %v", err)
			}
			if got != tt.want {
				t.Fatalf("FileName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNamer_TemplateErrors(t *testing.T) {
	templated := settings.Default()
	templated.JSONName = "{{ broken"

	failing := func(string, any) (string, error) { return "", errors.New("parse error") }
	namer := NewNamer(templated, failing)

	if _, err := namer.FileName(map[string]any{}, 0, Strategy{Mode: ModeMulti, Dir: "x"}); err == nil {
		t.Fatalf("expected render error")
	}
	if got := namer.NoteName(map[string]any{}, nil, 0); got != "" {
		t.Fatalf("NoteName on render error = %q, want empty", got)
	}
}

func TestNamer_NoteName(t *testing.T) {
	s := settings.Default()
	namer := NewNamer(s, nil)

	if got := namer.NoteName(map[string]any{"name": "Ada"}, nil, 0); got != "Ada" {
		t.Fatalf("NoteName = %q", got)
	}
	if got := namer.NoteName(map[string]any{}, nil, 4); got != "item_4" {
		t.Fatalf("NoteName fallback = %q", got)
	}

	s.JSONName = "@meta.title"
	root := map[string]any{"meta": map[string]any{"title": "Root"}}
	if got := NewNamer(s, nil).NoteName(map[string]any{}, root, 0); got != "Root" {
		t.Fatalf("NoteName from root = %q", got)
	}
}

func TestWriter_CollisionsWithinRun(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter()
	ctx := context.Background()

	var paths []string
	for _, body := range []string{"one", "two", "three"} {
		entry, err := w.WriteNote(ctx, dir, "note", body)
		if err != nil {
			t.Fatalf("WriteNote: %v", err)
		}
		paths = append(paths, filepath.Base(entry.Path))
	}

	want := []string{"note.md", "note1.md", "note2.md"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	assertFile(t, filepath.Join(dir, "note1.md"), "two")
}

func TestWriter_KeepsDotsAndAvoidsDoubleExtension(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter()

	entry, err := w.WriteNote(context.Background(), dir, "v1.2", "x")
	if err != nil {
		t.Fatalf("WriteNote: %v", err)
	}
	if filepath.Base(entry.Path) != "v1.2.md" {
		t.Fatalf("unexpected path %s", entry.Path)
	}

	entry, err = w.WriteNote(context.Background(), dir, "ready.md", "x")
	if err != nil {
		t.Fatalf("WriteNote: %v", err)
	}
	if filepath.Base(entry.Path) != "ready.md" {
		t.Fatalf("unexpected path %s", entry.Path)
	}
}

func TestWriter_UniqueNamesAvoidsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "note.md"), []byte("old"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	overwrite := NewWriter()
	entry, err := overwrite.WriteNote(context.Background(), dir, "note", "new")
	if err != nil {
		t.Fatalf("WriteNote: %v", err)
	}
	if filepath.Base(entry.Path) != "note.md" {
		t.Fatalf("expected overwrite, got %s", entry.Path)
	}

	unique := NewWriter(WithUniqueNames(true))
	entry, err = unique.WriteNote(context.Background(), dir, "note", "newer")
	if err != nil {
		t.Fatalf("WriteNote: %v", err)
	}
	if filepath.Base(entry.Path) != "note1.md" {
		t.Fatalf("expected note1.md, got %s", entry.Path)
	}
	assertFile(t, filepath.Join(dir, "note.md"), "new")
}

func TestWriter_SubdirectoriesWithPaths(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WithAllowPaths(true))

	entry, err := w.WriteNote(context.Background(), dir, "people/ada", "x")
	if err != nil {
		t.Fatalf("WriteNote: %v", err)
	}
	if entry.Path != filepath.Join(dir, "people", "ada.md") {
		t.Fatalf("unexpected path %s", entry.Path)
	}
	assertFile(t, entry.Path, "x")
}

func TestWriter_Confirmer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "all.md")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var asked []string
	deny := ConfirmFunc(func(_ context.Context, p string) (bool, error) {
		asked = append(asked, p)
		return false, nil
	})
	entry, err := NewWriter(WithConfirmer(deny)).WriteFile(context.Background(), path, "new")
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !entry.Skipped || len(asked) != 1 {
		t.Fatalf("expected a skipped write after one prompt, got %+v asked=%v", entry, asked)
	}
	assertFile(t, path, "old")

	allow := ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
	if _, err := NewWriter(WithConfirmer(allow)).WriteFile(context.Background(), path, "new"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	assertFile(t, path, "new")

	aborted := errors.New("aborted")
	fail := ConfirmFunc(func(context.Context, string) (bool, error) { return false, aborted })
	if _, err := NewWriter(WithConfirmer(fail)).WriteFile(context.Background(), path, "newer"); !errors.Is(err, aborted) {
		t.Fatalf("expected aborted error, got %v", err)
	}
}

func TestWriter_DryRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "all.md")
	if err := os.WriteFile(path, []byte("keep\nold\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var buf bytes.Buffer
	w := NewWriter(WithDryRun(&buf))
	entry, err := w.WriteFile(context.Background(), path, "keep\nnew\n")
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !entry.DryRun {
		t.Fatalf("expected dry-run entry")
	}
	assertFile(t, path, "keep\nold\n")

	out := buf.String()
	for _, want := range []string{"--- " + path, " keep", "-old", "+new"} {
		if !strings.Contains(out, want) {
			t.Fatalf("diff output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	fresh := filepath.Join(dir, "fresh.md")
	if _, err := w.WriteFile(context.Background(), fresh, "hello"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !strings.Contains(buf.String(), "--- /dev/null") || !strings.Contains(buf.String(), "+hello") {
		t.Fatalf("unexpected diff for new file:\n%s", buf.String())
	}
	if _, err := os.Stat(fresh); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create %s", fresh)
	}
}

func TestWriter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewWriter().WriteFile(ctx, filepath.Join(t.TempDir(), "x.md"), "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func assertFile(t *testing.T, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if string(got) != want {
		t.Fatalf("%s = %q, want %q", path, got, want)
	}
}
