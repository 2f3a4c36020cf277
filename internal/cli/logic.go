package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/idelchi/linestat/internal/linestat"
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func logic(ctx context.Context, options linestat.Options, stdout, stderr io.Writer) error {
	table := strings.ToLower(options.Output) == "table"
	enableProgress := table && !options.Debug && isTerminal(stderr)

	// Simple progress callback that prints directly to stderr
	var progressHook func(files, lines int64)

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(stderr, "\033[?25l")
		defer fmt.Fprint(stderr, "\033[?25h")

		progressHook = func(files, lines int64) {
			msg := fmt.Sprintf("Scanning… %d files, %s lines", files, humanize.Comma(lines))
			fmt.Fprintf(stderr, "\r\033[2K%s\r", msg)
		}
	}

	report := func() error {
		stats, err := linestat.Run(ctx, options, progressHook)

		// Clear the status line
		if enableProgress {
			fmt.Fprint(stderr, "\r\033[2K\r")
		}

		if err != nil {
			return err
		}

		return Print(stats, options, stdout)
	}

	if err := report(); err != nil {
		return err
	}

	if !options.Watch {
		return nil
	}

	return watch(ctx, options, report, stdout, stderr)
}

// watch re-runs report on every settled change until ctx is done.
func watch(ctx context.Context, options linestat.Options, report func() error, stdout, stderr io.Writer) error {
	watcher, err := linestat.NewWatcher(options.Dirs())
	if err != nil {
		return err
	}
	defer watcher.Close()

	if len(watcher.Dirs()) == 0 {
		fmt.Fprintln(stderr, "No existing directories to watch")

		return nil
	}

	clearScreen := strings.ToLower(options.Output) == "table" && isTerminal(stdout)

	fmt.Fprintf(stderr, "Watching %d directories, press Ctrl+C to stop\n", len(watcher.Dirs()))

	return watcher.Run(ctx, linestat.DefaultDebounce, func() {
		if clearScreen {
			fmt.Fprint(stdout, "\033[H\033[2J")
		}

		if err := report(); err != nil && ctx.Err() == nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
	})
}
