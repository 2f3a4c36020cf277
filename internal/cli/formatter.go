package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/idelchi/linestat/internal/linestat"
)

// BannerWidth is the width of the "=" banner lines.
const BannerWidth = 70

//nolint:gochecknoglobals // Color scheme
var (
	bannerColor  = color.New(color.Bold)
	sectionColor = color.New(color.FgCyan, color.Bold)
	totalColor   = color.New(color.FgGreen, color.Bold)
	missingColor = color.New(color.FgYellow)
)

// Print writes stats in the output format selected by options.
func Print(stats *linestat.Stats, options linestat.Options, writer io.Writer) error {
	switch strings.ToLower(options.Output) {
	case "json":
		return PrintJSON(stats, writer)
	case "markdown":
		return PrintMarkdown(stats, writer)
	case "html":
		return PrintHTML(stats, writer)
	case "table", "":
		return PrintTable(stats, options.Layout, writer)
	default:
		return fmt.Errorf("unknown output format: %s", options.Output)
	}
}

// PrintJSON outputs statistics in JSON format.
func PrintJSON(stats *linestat.Stats, writer io.Writer) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// resolveLayout maps "auto" to a concrete layout for the number of sections.
func resolveLayout(layout string, sections int) string {
	switch strings.ToLower(layout) {
	case "flat":
		return "flat"
	case "sections":
		return "sections"
	default:
		if sections == 1 {
			return "flat"
		}

		return "sections"
	}
}

// plural formats n with a singular or plural noun.
func plural(n int64, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%s %s", humanize.Comma(n), noun)
	}

	return fmt.Sprintf("%s %ss", humanize.Comma(n), noun)
}

// summary formats a file and line count pair.
func summary(files, lines int64) string {
	return plural(files, "file") + ", " + plural(lines, "line")
}

func title(stats *linestat.Stats) string {
	if stats.Title == "" {
		return DefaultTitle
	}

	return stats.Title
}

// PrintTable outputs statistics in human-readable fixed-width format.
func PrintTable(stats *linestat.Stats, layout string, writer io.Writer) error {
	w := bufio.NewWriter(writer)
	banner := strings.Repeat("=", BannerWidth)

	if resolveLayout(layout, len(stats.Sections)) == "flat" {
		printFlat(w, stats, banner)
	} else {
		printSections(w, stats, banner)
	}

	return w.Flush()
}

func printFlat(w io.Writer, stats *linestat.Stats, banner string) {
	rule := strings.Repeat("-", 63)

	bannerColor.Fprintln(w, banner)
	bannerColor.Fprintln(w, title(stats))

	for _, sec := range stats.Sections {
		if sec.Missing {
			missingColor.Fprintf(w, "Directory: %s (not found)\n", sec.Dir)
		} else {
			fmt.Fprintf(w, "Directory: %s\n", sec.Dir)
		}
	}

	bannerColor.Fprintln(w, banner)

	fmt.Fprintf(w, "\n%-45s %-6s %10s\n", "File", "Ext", "Lines")
	fmt.Fprintln(w, rule)

	for _, sec := range stats.Sections {
		for _, f := range sec.Files {
			name := f.Name
			if len(stats.Sections) > 1 {
				name = f.Path
			}

			fmt.Fprintf(w, "%-45s %-6s %10s\n", name, f.Ext, humanize.Comma(f.Lines))
		}
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-45s %-6s %10s\n", "TOTAL", "", humanize.Comma(stats.TotalLines))

	fmt.Fprint(w, "\n### BY EXTENSION ###\n\n")
	printExtensions(w, stats, "")

	fmt.Fprintln(w)
	bannerColor.Fprintln(w, banner)
	totalColor.Fprintf(w, "TOTAL: %s\n", summary(stats.FileCount, stats.TotalLines))
	bannerColor.Fprintln(w, banner)
}

func printSections(w io.Writer, stats *linestat.Stats, banner string) {
	bannerColor.Fprintln(w, banner)
	bannerColor.Fprintln(w, title(stats))
	bannerColor.Fprintln(w, banner)

	for _, sec := range stats.Sections {
		if sec.FileCount == 0 {
			continue
		}

		sectionColor.Fprintf(w, "\n[ %s ]  (%s)\n", sec.Label, summary(int64(sec.FileCount), sec.Lines))
		fmt.Fprintf(w, "  %-55s %8s\n", "File", "Lines")
		fmt.Fprintf(w, "  %s %s\n", strings.Repeat("-", 55), strings.Repeat("-", 8))

		for _, f := range sec.Files {
			fmt.Fprintf(w, "  %-55s %8s\n", f.Name, humanize.Comma(f.Lines))
		}
	}

	fmt.Fprintln(w)
	bannerColor.Fprintln(w, banner)
	fmt.Fprintln(w, "BY EXTENSION:")
	printExtensions(w, stats, "  ")

	totalColor.Fprintf(w, "\nGRAND TOTAL: %s\n", summary(stats.FileCount, stats.TotalLines))
	bannerColor.Fprintln(w, banner)
}

// printExtensions writes one line per extension, in extension order.
func printExtensions(w io.Writer, stats *linestat.Stats, indent string) {
	for _, ext := range stats.Extensions() {
		extStat := stats.ExtStats[ext]
		fmt.Fprintf(w, "%s%s: %s, %s\n",
			indent, ext, plural(int64(extStat.Count), "file"), plural(extStat.Lines, "line"))
	}
}
