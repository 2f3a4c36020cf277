package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/idelchi/linestat/internal/config"
	"github.com/idelchi/linestat/internal/starter"
)

// DefaultTitle is the report title used for directories given on the command line.
const DefaultTitle = "LINE COUNT"

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// flags holds the raw command-line flag values.
type flags struct {
	config     string
	root       string
	title      string
	extensions []string
	depth      int
	excludes   []string
	output     string
	layout     string
	watch      bool
	debug      bool
	version    bool
	init       bool
}

func (f *flags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.config, "config", "c", config.DefaultPath, "Config file (missing file = built-in targets)")
	fs.StringVarP(&f.root, "root", "r", ".", "Directory targets are relative to")
	fs.StringVarP(&f.title, "title", "t", "", "Report title")
	fs.StringSliceVarP(
		&f.extensions,
		"ext",
		"x",
		config.SourceExtensions,
		"File extensions to count (e.g., .c,.h). Applies to every target",
	)
	fs.IntVarP(&f.depth, "depth", "d", 1, "Maximum depth of counted files (1=direct children, -1=unlimited)")
	fs.StringSliceVarP(&f.excludes, "exclude", "e", nil, "Regex patterns to exclude")
	fs.StringVarP(&f.output, "output", "o", "table", "Output format: table, json, markdown or html")
	fs.StringVar(&f.layout, "layout", "auto", "Table layout: auto, flat or sections")
	fs.BoolVarP(&f.watch, "watch", "w", false, "Re-run the report when target directories change")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug output")
	fs.BoolVarP(&f.version, "version", "v", false, "Show version and exit")
	fs.BoolVarP(&f.init, "init", "i", false, "Output a starter config file")

	fs.SortFlags = false
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "linestat [flags] [dir...]",
		Short: "Count lines in source files by directory and extension",
		Long: heredoc.Doc(`
			linestat counts lines in source files and reports them per directory,
			per extension and in total.

			Without arguments the targets come from the config file, or from the
			built-in first-party source directories when there is none.

			Positional Arguments:
			  dir                    Directories to scan instead of the configured targets.
			                         Each is scanned with the --ext and --depth flags.

			Layouts:
			  flat       one table of all files with their extension.
			  sections   one table per directory with subtotals.
			  auto       flat for a single directory, sections otherwise.

			Files that cannot be read count as zero lines and missing directories
			contribute nothing. Neither is reported as an error.
		`),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, &f, args)
		},
	}

	f.register(cmd.Flags())

	return cmd
}

// Execute runs the CLI with the process arguments.
// Cancelling ctx stops a scan or watch in progress.
func (c CLI) Execute(ctx context.Context) error {
	return c.Command().ExecuteContext(ctx)
}

func (c CLI) run(cmd *cobra.Command, f *flags, args []string) error {
	out := cmd.OutOrStdout()

	if f.version {
		fmt.Fprintln(out, c.version)

		return nil
	}

	fs := cmd.Flags()

	if fs.Changed("config") {
		if _, err := os.Stat(f.config); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}

	if f.depth < -1 {
		return errors.New("depth cannot be less than -1")
	}

	apply(fs, f, cfg, args)

	if err := cfg.Validate(); err != nil {
		return err
	}

	if f.init {
		rendered, err := starter.Render(cfg)
		if err != nil {
			return fmt.Errorf("rendering starter config: %w", err)
		}

		fmt.Fprint(out, rendered)

		return nil
	}

	options := cfg.Options()
	options.Debug = f.debug
	options.DebugWriter = cmd.ErrOrStderr()
	options.Watch = f.watch

	return logic(cmd.Context(), options, out, cmd.ErrOrStderr())
}

// apply overlays explicitly set flags and positional directories onto cfg.
func apply(fs *pflag.FlagSet, f *flags, cfg *config.Config, args []string) {
	if fs.Changed("root") {
		cfg.Root = f.root
	}

	if fs.Changed("output") {
		cfg.Output = f.output
	}

	if fs.Changed("layout") {
		cfg.Layout = f.layout
	}

	if fs.Changed("exclude") {
		cfg.Excludes = f.excludes
	}

	if len(args) > 0 {
		if !fs.Changed("root") {
			cfg.Root = "."
		}

		cfg.Title = DefaultTitle
		cfg.Targets = make([]config.Target, 0, len(args))

		for _, dir := range args {
			cfg.Targets = append(cfg.Targets, config.Target{
				Dir:        dir,
				Extensions: f.extensions,
				Depth:      f.depth,
			})
		}
	} else {
		for i := range cfg.Targets {
			if fs.Changed("ext") {
				cfg.Targets[i].Extensions = f.extensions
			}

			if fs.Changed("depth") {
				cfg.Targets[i].Depth = f.depth
			}
		}
	}

	if fs.Changed("title") {
		cfg.Title = f.title
	}
}
