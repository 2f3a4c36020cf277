package cli

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/idelchi/linestat/internal/linestat"
)

// cell escapes text for use inside a markdown table cell.
func cell(s string) string {
	return strings.NewReplacer(`\`, `\\`, "|", `\|`).Replace(s)
}

// renderMarkdown builds the markdown report.
func renderMarkdown(stats *linestat.Stats) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n", title(stats))

	for _, sec := range stats.Sections {
		if sec.FileCount == 0 {
			continue
		}

		fmt.Fprintf(&b, "\n## %s\n\n%s\n\n", sec.Label, summary(int64(sec.FileCount), sec.Lines))
		b.WriteString("| File | Ext | Lines |\n|---|---|---:|\n")

		for _, f := range sec.Files {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(f.Name), cell(f.Ext), humanize.Comma(f.Lines))
		}
	}

	b.WriteString("\n## By extension\n\n")

	if len(stats.ExtStats) > 0 {
		b.WriteString("| Ext | Files | Lines |\n|---|---:|---:|\n")

		for _, ext := range stats.Extensions() {
			extStat := stats.ExtStats[ext]
			fmt.Fprintf(&b, "| %s | %s | %s |\n",
				cell(ext), humanize.Comma(int64(extStat.Count)), humanize.Comma(extStat.Lines))
		}

		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "**Grand total:** %s\n", summary(stats.FileCount, stats.TotalLines))

	return b.Bytes()
}

// PrintMarkdown outputs statistics as a markdown document.
func PrintMarkdown(stats *linestat.Stats, writer io.Writer) error {
	_, err := writer.Write(renderMarkdown(stats))

	return err
}

// PrintHTML outputs statistics as an HTML page rendered from the markdown report.
func PrintHTML(stats *linestat.Stats, writer io.Writer) error {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert(renderMarkdown(stats), &body); err != nil {
		return fmt.Errorf("rendering HTML output: %w", err)
	}

	_, err := fmt.Fprintf(writer,
		"<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(title(stats)), body.String())

	return err
}
