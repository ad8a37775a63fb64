package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fixture struct {
	dir      string
	data     string
	template string
	settings string
}

func newFixture(t *testing.T, data, template, settings string) fixture {
	t.Helper()

	dir := t.TempDir()
	f := fixture{
		dir:      dir,
		data:     filepath.Join(dir, "people.json"),
		template: filepath.Join(dir, "note.md"),
		settings: filepath.Join(dir, "settings.yaml"),
	}
	for path, content := range map[string]string{f.data: data, f.template: template, f.settings: settings} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return f
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_MultiFile(t *testing.T) {
	f := newFixture(t,
		`[{"name":"Ada","tags":"  math "},{"name":"Alan","tags":""}]`,
		"{{ upper(name) }} {{ wrap(tags) }} {{ repeat(\"*\", 2) }}",
		"note_prefix: \"p-\"\n",
	)
	out := filepath.Join(f.dir, "notes")

	code, stdout, stderr := runCLI(t, "-s", f.settings, "-o", out, f.data, f.template)
	if code != exitOK {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr)
	}

	for name, want := range map[string]string{
		"p-Ada.md":  "ADA [math] **",
		"p-Alan.md": "ALAN [] **",
	} {
		got, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(got) != want {
			t.Fatalf("%s = %q, want %q", name, got, want)
		}
	}
	if !strings.Contains(stdout, "Created: "+filepath.Join(out, "p-Ada.md")) || !strings.HasSuffix(stdout, "Import Finished.\n") {
		t.Fatalf("unexpected stdout:\n%s", stdout)
	}
}

func TestRun_SingleFileWithTextEngine(t *testing.T) {
	f := newFixture(t,
		`{"items":[{"name":"a"},{"name":"b"}]}`,
		"{{.name}}",
		"top_field: items\nitem_separator: \"|\"\n",
	)
	out := filepath.Join(f.dir, "all.md")

	code, stdout, stderr := runCLI(t, "-s", f.settings, "-e", "text", "-o", out, f.data, f.template)
	if code != exitOK {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "a|b" {
		t.Fatalf("output = %q", got)
	}
	if !strings.Contains(stdout, "(2 items, 3 bytes)") || strings.Contains(stdout, "Import Finished.") {
		t.Fatalf("unexpected stdout:\n%s", stdout)
	}
}

func TestRun_SplitIndexWithoutValue(t *testing.T) {
	f := newFixture(t, `[{"name":"a"},{"name":"b"}]`, "{{ name }}", "{}\n")
	out := filepath.Join(f.dir, "parts")

	code, _, stderr := runCLI(t, "-s", f.settings, "-o", out, "-x", f.data, f.template)
	if code != exitOK {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr)
	}
	for _, name := range []string{"parts_0.md", "parts_1.md"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestRun_SplitFieldPath(t *testing.T) {
	f := newFixture(t, `[{"meta":{"slug":"one"}},{"meta":{"slug":"two"}}]`, "x", "{}\n")
	out := filepath.Join(f.dir, "slugs")

	code, _, stderr := runCLI(t, "-s", f.settings, "-o", out, "--split=meta.slug", f.data, f.template)
	if code != exitOK {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr)
	}
	for _, name := range []string{"one.md", "two.md"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(t, `[{"name":"a"},{"name":"b"}]`, "hi {{ name }}", "{}\n")
	out := filepath.Join(f.dir, "notes")

	code, stdout, stderr := runCLI(t, "-s", f.settings, "-o", out, "--dry-run", f.data, f.template)
	if code != exitOK {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("dry run created %s", out)
	}
	if !strings.Contains(stdout, "+hi a") || strings.Contains(stdout, "Created:") {
		t.Fatalf("unexpected stdout:\n%s", stdout)
	}
}

func TestRun_VerboseTracesHelpers(t *testing.T) {
	f := newFixture(t, `[{"name":"a"}]`, "{{ upper(name) }}", "{}\n")

	code, _, stderr := runCLI(t, "-v", "-s", f.settings, "-o", filepath.Join(f.dir, "x.md"), f.data, f.template)
	if code != exitOK {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr)
	}
	if !strings.Contains(stderr, "helper call") || !strings.Contains(stderr, "helper=upper") {
		t.Fatalf("expected helper trace in stderr:\n%s", stderr)
	}
}

func TestRun_Errors(t *testing.T) {
	f := newFixture(t, `[{"name":"a"}]`, "x", "{}\n")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "missing arguments", args: []string{f.data}, code: exitUsage},
		{name: "unknown flag", args: []string{"--nope", f.data, f.template}, code: exitUsage},
		{name: "yes and interactive", args: []string{"-y", "-i", f.data, f.template}, code: exitUsage},
		{name: "missing data file", args: []string{"-s", f.settings, filepath.Join(f.dir, "none.json"), f.template}, code: exitError},
		{name: "missing template", args: []string{"-s", f.settings, f.data, filepath.Join(f.dir, "none.md")}, code: exitError},
		{name: "missing settings", args: []string{"-s", filepath.Join(f.dir, "none.yaml"), f.data, f.template}, code: exitError},
		{name: "bad engine", args: []string{"-s", f.settings, "-e", "handlebars", f.data, f.template}, code: exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			if code != tt.code {
				t.Fatalf("exit %d, want %d", code, tt.code)
			}
		})
	}
}

func TestRun_InfoFlags(t *testing.T) {
	code, stdout, _ := runCLI(t, "--version")
	if code != exitOK || !strings.HasPrefix(stdout, "mdgen ") {
		t.Fatalf("version: exit %d, stdout %q", code, stdout)
	}

	code, stdout, _ = runCLI(t, "--settings-schema")
	if code != exitOK || !strings.Contains(stdout, `"json_name"`) || !strings.Contains(stdout, "mdgen settings") {
		t.Fatalf("schema: exit %d, stdout %q", code, stdout)
	}

	code, stdout, _ = runCLI(t, "--help")
	if code != exitOK || !strings.Contains(stdout, "--split") || !strings.Contains(stdout, "--split=VALUE") {
		t.Fatalf("help: exit %d, stdout %q", code, stdout)
	}
}
