package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatYAML outputs as YAML (default)
	FormatYAML OutputFormat = "yaml"
	// FormatJSON outputs as indented JSON
	FormatJSON OutputFormat = "json"
	// FormatRaw writes strings and bytes as is, anything else as YAML
	FormatRaw OutputFormat = "raw"
	// FormatPretty is rendered by the caller with Styles
	FormatPretty OutputFormat = "pretty"
)

// ParseFormat validates a format name. Empty means YAML.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case "":
		return FormatYAML, nil
	case FormatYAML, FormatJSON, FormatRaw, FormatPretty:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// OutputOptions configures output behavior
type OutputOptions struct {
	// Format is the output format (yaml, json, raw)
	Format OutputFormat

	// File is the output file path (empty for Writer or stdout)
	File string

	// Indent is the indentation for JSON output
	Indent string

	// Writer is an optional custom writer (overrides File)
	Writer io.Writer
}

// Output writes the result to the configured destination
func Output(result any, opts OutputOptions) error {
	var w io.Writer = os.Stdout

	if opts.Writer != nil {
		w = opts.Writer
	} else if opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return Encode(w, result, opts.Format, opts.Indent)
}

// Encode writes result to w in format.
func Encode(w io.Writer, result any, format OutputFormat, indent string) error {
	switch format {
	case FormatJSON:
		return outputJSON(w, result, indent)
	case FormatYAML, "":
		return outputYAML(w, result)
	case FormatRaw:
		return outputRaw(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func outputJSON(w io.Writer, result any, indent string) error {
	enc := json.NewEncoder(w)
	if indent == "" {
		indent = "  "
	}
	enc.SetIndent("", indent)
	return enc.Encode(result)
}

func outputYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func outputRaw(w io.Writer, result any) error {
	switch v := result.(type) {
	case []byte:
		_, err := w.Write(v)
		return err
	case string:
		_, err := io.WriteString(w, v)
		return err
	default:
		return outputYAML(w, result)
	}
}

// PrintSuccess prints a success message with checkmark
func PrintSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "✓ "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "ℹ "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "⚠ "+format+"\n", args...)
}
