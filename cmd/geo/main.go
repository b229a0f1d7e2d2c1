package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/geo-optimizer/geo/internal/pkg/utils"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// Wraps errors that come from bad flags or bad input rather than from the site.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

const usage = `GEO Optimizer: make websites citable by AI search engines.

Usage:
  geo audit  --url URL [--format text|json|github] [--output FILE] [--config FILE]
  geo llms   --base-url URL [--sitemap URL] [--output FILE] [--fetch-titles]
  geo schema --analyze --file FILE | --type TYPE [--inject --file FILE]
  geo version

Run "geo <command> -h" for the flags of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	var err error
	switch args[0] {
	case "audit":
		err = runAudit(ctx, args[1:], stdout, stderr)
	case "llms":
		err = runLlms(ctx, args[1:], stdout, stderr)
	case "schema":
		err = runSchema(args[1:], stdout, stderr)
	case "version", "--version":
		fmt.Fprintf(stdout, "geo %s\n", version)
		return exitOK
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}
	return exitCode(err, stderr)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	var ue usageError
	switch {
	case errors.As(err, &ue),
		errors.Is(err, utils.ErrInvalidURL),
		errors.Is(err, utils.ErrUnsupportedScheme),
		errors.Is(err, utils.ErrPrivateTarget),
		errors.Is(err, utils.ErrUnsafePath):
		return exitUsage
	}
	return exitFailure
}

// Installs the text handler on stderr; Info with verbose, Warn otherwise.
func setupLogging(stderr io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
}

// Checks if w is a terminal that can take colour codes.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Writes to the named file, or to stdout when name is empty.
func writeOutput(name string, stdout io.Writer, write func(w io.Writer) error) error {
	if name == "" {
		return write(stdout)
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
