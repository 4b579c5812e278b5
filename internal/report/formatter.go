// Package report renders pipeline run reports for humans and machines.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/autocheck/internal/pipeline"
)

// OutputFormat represents the format for run output
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatTOML  OutputFormat = "toml"
	FormatJUnit OutputFormat = "junit"
	// Concise is a one-line-per-item summary ideal for hook logs
	FormatConcise OutputFormat = "concise"
)

// Formats lists the supported output formats in help order.
func Formats() []OutputFormat {
	return []OutputFormat{FormatText, FormatConcise, FormatJSON, FormatYAML, FormatTOML, FormatJUnit}
}

// ParseFormat resolves a user supplied format name.
func ParseFormat(name string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return FormatText, nil
	}
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s", name)
}

// Formatter renders reports in one format.
type Formatter struct {
	format OutputFormat
	color  bool
	width  int
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithColor enables ANSI colors in text output. NO_COLOR always wins.
func WithColor(enabled bool) Option {
	return func(f *Formatter) { f.color = enabled }
}

// WithWidth caps the path column of text output.
func WithWidth(width int) Option {
	return func(f *Formatter) { f.width = width }
}

// NewFormatter creates a new report formatter
func NewFormatter(format OutputFormat, opts ...Option) *Formatter {
	f := &Formatter{format: format, width: 60}
	for _, o := range opts {
		o(f)
	}
	if os.Getenv("NO_COLOR") != "" {
		f.color = false
	}
	return f
}

// Write renders r to w.
func (f *Formatter) Write(w io.Writer, r *pipeline.Report) error {
	out, err := f.Format(r)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Format renders r according to the configured format.
func (f *Formatter) Format(r *pipeline.Report) (string, error) {
	if r == nil {
		return "", fmt.Errorf("nil report")
	}
	switch f.format {
	case FormatText, "":
		return f.formatText(r), nil
	case FormatConcise:
		return f.formatConcise(r), nil
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
		}
		return string(data) + "\n", nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return "", fmt.Errorf("failed to marshal report to YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", err
		}
		return buf.String(), nil
	case FormatTOML:
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(r); err != nil {
			return "", fmt.Errorf("failed to marshal report to TOML: %w", err)
		}
		return buf.String(), nil
	case FormatJUnit:
		return formatJUnit(r)
	default:
		return "", fmt.Errorf("unsupported format: %s", f.format)
	}
}

func (f *Formatter) paint(code, s string) string {
	if !f.color {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func (f *Formatter) status(s pipeline.Status) string {
	switch s {
	case pipeline.StatusChanged:
		return f.paint("33", string(s))
	case pipeline.StatusFailed:
		return f.paint("31", string(s))
	default:
		return f.paint("32", string(s))
	}
}

// failingItems returns the items that failed or carry check failures,
// sorted by path.
func failingItems(r *pipeline.Report) []pipeline.ItemResult {
	var out []pipeline.ItemResult
	for _, it := range r.Items {
		if it.Status == pipeline.StatusFailed || len(it.Failures) > 0 {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
