package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/goliatone/go-mdgen/internal/prompt"
	"github.com/goliatone/go-mdgen/internal/watch"
	"github.com/goliatone/go-mdgen/pkg/data"
	"github.com/goliatone/go-mdgen/pkg/orchestrator"
	"github.com/goliatone/go-mdgen/pkg/output"
	"github.com/goliatone/go-mdgen/pkg/settings"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, flags, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			flags.Usage()
		}
		return exitUsage
	}

	switch {
	case opts.help:
		fmt.Fprintf(stdout, "Usage: mdgen [flags] DATA_FILE TEMPLATE_FILE\n\nFlags:\n%s", flags.FlagUsages())
		return exitOK
	case opts.version:
		fmt.Fprintf(stdout, "mdgen %s\n", version)
		return exitOK
	case opts.settingsSchema:
		schema, err := settings.Schema()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
		fmt.Fprintln(stdout, string(schema))
		return exitOK
	}

	logger := newLogger(stderr, opts.verbose)

	app, err := newApp(opts, logger, stdout)
	if err != nil {
		logger.Error("setup failed", slog.Any("error", err))
		return exitError
	}

	if err := app.generate(ctx); err != nil {
		logger.Error("generation failed", slog.Any("error", err))
		if !opts.watch || errors.Is(err, prompt.ErrAborted) {
			return exitError
		}
	}

	if !opts.watch {
		return exitOK
	}

	paths := app.watchPaths()
	logger.Info("watching for changes", slog.Any("paths", paths))
	if err := watch.Run(ctx, paths, watch.DefaultDebounce, logger, app.generate); err != nil {
		logger.Error("watch failed", slog.Any("error", err))
		return exitError
	}
	return exitOK
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

type app struct {
	opts   options
	stdout io.Writer
	source data.Source
	orch   *orchestrator.Orchestrator
	writer *output.Writer
}

func newApp(opts options, logger *slog.Logger, stdout io.Writer) (*app, error) {
	s, usedPath, err := settings.Load(opts.settingsPath)
	if err != nil {
		return nil, err
	}
	if usedPath != "" {
		logger.Debug("settings loaded", slog.String("path", usedPath))
	}
	if opts.engine != "" {
		s.Engine = opts.engine
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	source := data.ParseSource(opts.dataFile)
	if source == nil {
		return nil, errors.New("data file is required")
	}
	if isLocal(opts.dataFile) {
		if _, err := os.Stat(opts.dataFile); err != nil {
			return nil, fmt.Errorf("data file not found: %s", opts.dataFile)
		}
	}
	if data.ParseSource(opts.templateFile) == nil {
		return nil, errors.New("template file is required")
	}
	if isLocal(opts.templateFile) {
		if _, err := os.Stat(opts.templateFile); err != nil {
			return nil, fmt.Errorf("template file not found: %s", opts.templateFile)
		}
	}

	writerOpts := []output.WriterOption{
		output.WithUniqueNames(s.UniqueNames),
		output.WithAllowPaths(s.JSONNamePath),
		output.WithWriterLogger(logger),
	}
	if opts.dryRun {
		writerOpts = append(writerOpts, output.WithDryRun(stdout))
	}
	if opts.interactive {
		writerOpts = append(writerOpts, output.WithConfirmer(
			prompt.NewOverwriteConfirmer(prompt.NewSurveyDriver(nil)),
		))
	}
	writer := output.NewWriter(writerOpts...)

	orch := orchestrator.New(
		orchestrator.WithSettings(s),
		orchestrator.WithLogger(logger),
		orchestrator.WithWriter(writer),
	)

	return &app{
		opts:   opts,
		stdout: stdout,
		source: source,
		orch:   orch,
		writer: writer,
	}, nil
}

func (a *app) generate(ctx context.Context) error {
	a.writer.Reset()

	result, err := a.orch.Generate(ctx, orchestrator.Request{
		Source:   a.source,
		Template: a.opts.templateFile,
		Output:   a.opts.output,
		Split:    a.opts.split,
	})
	a.report(result)
	if err != nil {
		return err
	}

	if result.Mode == output.ModeMulti && !a.opts.dryRun {
		fmt.Fprintln(a.stdout, "Import Finished.")
	}
	return nil
}

func (a *app) report(result orchestrator.Result) {
	for _, entry := range result.Files {
		switch {
		case entry.DryRun:
			continue
		case entry.Skipped:
			fmt.Fprintf(a.stdout, "Skipped: %s\n", entry.Path)
		case result.Mode == output.ModeSingle:
			fmt.Fprintf(a.stdout, "Created: %s (%d items, %d bytes)\n", entry.Path, result.Items, entry.Bytes)
		default:
			fmt.Fprintf(a.stdout, "Created: %s\n", entry.Path)
		}
	}
}

// watchPaths lists the local data and template files. Settings are read once
// at startup.
func (a *app) watchPaths() []string {
	var paths []string
	if isLocal(a.opts.dataFile) {
		paths = append(paths, a.opts.dataFile)
	}
	if isLocal(a.opts.templateFile) {
		paths = append(paths, a.opts.templateFile)
	}
	return paths
}

func isLocal(raw string) bool {
	src := data.ParseSource(raw)
	return src != nil && src.Kind() == data.SourceKindFile
}
