package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/idelchi/filestat/internal/config"
	"github.com/idelchi/filestat/internal/filestat"
	"github.com/idelchi/filestat/internal/source"
)

// streams are the standard streams of one invocation.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// newLogger writes human-readable log lines to w.
func newLogger(w io.Writer, cfg config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    cfg.NoColor || !isTerminal(w),
		TimeFormat: time.TimeOnly,
	}

	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

// newSource reads paths from a directory walk if configured, from in otherwise.
func newSource(cfg config.Config, in io.Reader, log zerolog.Logger) (filestat.Source, error) {
	if cfg.Walk == "" {
		return source.NewLines(in, cfg.Null), nil
	}

	excludes, err := source.CompilePatterns(cfg.Excludes)
	if err != nil {
		return nil, err
	}

	return source.Walk{Root: cfg.Walk, Depth: cfg.Depth, Excludes: excludes, Logger: log}, nil
}

func logic(ctx context.Context, mode filestat.Mode, cfg config.Config, std streams) error {
	log := newLogger(std.err, cfg)

	if cfg.File != "" {
		log.Debug().Str("path", cfg.File).Msg("using configuration file")
	}

	src, err := newSource(cfg, std.in, log)
	if err != nil {
		return err
	}

	enableProgress := cfg.Output != "json" &&
		!cfg.Debug &&
		!cfg.NoProgress &&
		isTerminal(std.err)

	// Simple progress callback that prints directly to stderr
	var progressHook func(filestat.Progress)

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(std.err, "\033[?25l")
		defer fmt.Fprint(std.err, "\033[?25h")

		progressHook = func(p filestat.Progress) {
			msg := fmt.Sprintf("Classifying… %d paths (%d queued), %s",
				p.Classified, p.Pushed-p.Classified, humanize.IBytes(p.Bytes))
			fmt.Fprintf(std.err, "\r\033[2K%s\r", msg)
		}
	}

	result, err := filestat.Run(ctx, filestat.Options{
		Mode:         mode,
		Workers:      cfg.Workers,
		PollInterval: cfg.Poll,
		MaxRead:      cfg.MaxRead,
		Logger:       log,
	}, src, progressHook)

	// Clear the status line
	if enableProgress {
		fmt.Fprint(std.err, "\r\033[2K\r")
	}

	if result == nil {
		return err
	}

	if err != nil {
		log.Error().Err(err).Msg("input ended early, reporting partial results")
	}

	var printErr error

	switch cfg.Output {
	case "json":
		printErr = PrintJSON(result, std.out)
	default:
		printErr = PrintTable(result, std.out, !cfg.NoColor && isTerminal(std.out))
	}

	if err != nil {
		return err
	}

	return printErr
}
