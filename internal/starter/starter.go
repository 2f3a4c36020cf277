// Package starter renders the commented starter configuration file.
package starter

import (
	"bytes"
	_ "embed"
	"strconv"
	"strings"
	"text/template"

	"github.com/idelchi/linestat/internal/config"
)

// Template contains the starter configuration template.
//
//go:embed linestat.yaml.tmpl
var Template string

// Render renders the starter configuration for cfg.
func Render(cfg *config.Config) (string, error) {
	tmpl, err := template.New("linestat.yaml").Funcs(template.FuncMap{
		"quote": strconv.Quote,
		"join": func(exts []string) string {
			return strings.Join(exts, ", ")
		},
	}).Parse(Template)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return "", err
	}

	return buf.String(), nil
}
