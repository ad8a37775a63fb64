package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// splitIndexMarker is what --split holds when given without a value. It trims
// to the empty string, which selects index naming.
const splitIndexMarker = " "

type options struct {
	output         string
	settingsPath   string
	verbose        bool
	split          *string
	engine         string
	watch          bool
	dryRun         bool
	yes            bool
	interactive    bool
	settingsSchema bool
	version        bool
	help           bool

	dataFile     string
	templateFile string
}

func parseFlags(args []string, stderr io.Writer) (options, *pflag.FlagSet, error) {
	var opts options
	var split string

	flags := pflag.NewFlagSet("mdgen", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.output, "output", "o", "", "Output file (single note) or directory (one note per record)")
	flags.StringVarP(&opts.settingsPath, "settings", "s", "", "Settings file (JSON, YAML or TOML)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output, including helper traces")
	flags.StringVarP(&split, "split", "x", "", "Split into one note per record; pass a field path or name template as --split=VALUE (-x alone selects index naming)")
	flags.Lookup("split").NoOptDefVal = splitIndexMarker
	flags.StringVarP(&opts.engine, "engine", "e", "", "Template engine: pongo2 or text")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "Regenerate when the data or template file changes")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print a diff instead of writing files")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Overwrite existing files without asking")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "Ask before overwriting existing files")
	flags.BoolVar(&opts.settingsSchema, "settings-schema", false, "Print the settings JSON Schema and exit")
	flags.BoolVar(&opts.version, "version", false, "Print the version and exit")
	flags.BoolVarP(&opts.help, "help", "h", false, "Show help")
	flags.SortFlags = false
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: mdgen [flags] DATA_FILE TEMPLATE_FILE\n\nFlags:\n%s", flags.FlagUsages())
	}

	if err := flags.Parse(args); err != nil {
		return opts, flags, err
	}
	if flags.Changed("split") {
		opts.split = &split
	}
	if opts.help || opts.version || opts.settingsSchema {
		return opts, flags, nil
	}

	rest := flags.Args()
	if len(rest) != 2 {
		return opts, flags, fmt.Errorf("expected DATA_FILE and TEMPLATE_FILE, got %d argument(s)", len(rest))
	}
	opts.dataFile = strings.TrimSpace(rest[0])
	opts.templateFile = strings.TrimSpace(rest[1])
	if opts.yes && opts.interactive {
		return opts, flags, fmt.Errorf("--yes and --interactive are mutually exclusive")
	}
	return opts, flags, nil
}
