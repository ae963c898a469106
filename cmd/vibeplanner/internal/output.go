package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatText is human-readable text output
	FormatText OutputFormat = "text"
	// FormatJSON is structured JSON output
	FormatJSON OutputFormat = "json"
	// FormatYAML is structured YAML output
	FormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat validates a format name.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (must be text, json or yaml)", s)
	}
}

// Field is one labelled value in a details view.
type Field struct {
	Label string
	Value string
}

// Formatter writes command results.
type Formatter interface {
	// PrintSuccess prints a success message
	PrintSuccess(message string) error
	// PrintTable prints a table with headers and rows
	PrintTable(headers []string, rows [][]string) error
	// PrintDetails prints a titled list of fields
	PrintDetails(title string, fields []Field) error
	// PrintData prints data in the formatter's structured encoding
	PrintData(data any) error
}

// TextFormatter implements Formatter for human-readable text output
type TextFormatter struct {
	writer io.Writer
	good   *color.Color
	header *color.Color
}

// NewTextFormatter creates a new TextFormatter writing to the given writer.
// Color is applied only when the writer is a terminal.
func NewTextFormatter(w io.Writer) *TextFormatter {
	if w == nil {
		w = os.Stdout
	}
	f := &TextFormatter{
		writer: w,
		good:   color.New(color.FgGreen),
		header: color.New(color.Bold),
	}
	if w != os.Stdout {
		f.good.DisableColor()
		f.header.DisableColor()
	}
	return f
}

// PrintSuccess prints a success message with a checkmark prefix
func (f *TextFormatter) PrintSuccess(message string) error {
	_, err := f.good.Fprintf(f.writer, "✓ %s\n", message)
	return err
}

// PrintTable prints a table using text/tabwriter for aligned columns
func (f *TextFormatter) PrintTable(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)

	headerLine := make([]string, len(headers))
	for i, h := range headers {
		headerLine[i] = strings.ToUpper(h)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(headerLine, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return tw.Flush()
}

// PrintDetails prints the title in bold followed by aligned label: value lines.
func (f *TextFormatter) PrintDetails(title string, fields []Field) error {
	if _, err := f.header.Fprintln(f.writer, title); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	for _, field := range fields {
		if _, err := fmt.Fprintf(tw, "  %s:\t%s\n", field.Label, field.Value); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// PrintData prints data as indented JSON.
func (f *TextFormatter) PrintData(data any) error {
	return NewJSONFormatter(f.writer).PrintData(data)
}

// JSONFormatter implements Formatter for structured JSON output
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSONFormatter writing to the given writer
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	if w == nil {
		w = os.Stdout
	}
	return &JSONFormatter{writer: w}
}

// PrintSuccess prints a success message as JSON
func (f *JSONFormatter) PrintSuccess(message string) error {
	return f.PrintData(map[string]any{
		"status":  "success",
		"message": message,
	})
}

// PrintTable prints rows as a list of header-keyed objects
func (f *JSONFormatter) PrintTable(headers []string, rows [][]string) error {
	return f.PrintData(tableRecords(headers, rows))
}

// PrintDetails prints fields as a label-keyed object
func (f *JSONFormatter) PrintDetails(_ string, fields []Field) error {
	return f.PrintData(detailsRecord(fields))
}

// PrintData prints arbitrary data as formatted JSON
func (f *JSONFormatter) PrintData(data any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// YAMLFormatter implements Formatter for YAML output
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAMLFormatter writing to the given writer
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	if w == nil {
		w = os.Stdout
	}
	return &YAMLFormatter{writer: w}
}

// PrintSuccess prints a success message as YAML
func (f *YAMLFormatter) PrintSuccess(message string) error {
	return f.PrintData(map[string]any{
		"status":  "success",
		"message": message,
	})
}

// PrintTable prints rows as a list of header-keyed mappings
func (f *YAMLFormatter) PrintTable(headers []string, rows [][]string) error {
	return f.PrintData(tableRecords(headers, rows))
}

// PrintDetails prints fields as a label-keyed mapping
func (f *YAMLFormatter) PrintDetails(_ string, fields []Field) error {
	return f.PrintData(detailsRecord(fields))
}

// PrintData prints arbitrary data as YAML
func (f *YAMLFormatter) PrintData(data any) error {
	encoder := yaml.NewEncoder(f.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

func tableRecords(headers []string, rows [][]string) []map[string]string {
	data := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(row) {
				record[header] = row[i]
			} else {
				record[header] = ""
			}
		}
		data = append(data, record)
	}
	return data
}

func detailsRecord(fields []Field) map[string]string {
	record := make(map[string]string, len(fields))
	for _, field := range fields {
		record[field.Label] = field.Value
	}
	return record
}

// NewFormatter creates a new Formatter based on the output format
func NewFormatter(format OutputFormat, w io.Writer) Formatter {
	if w == nil {
		w = os.Stdout
	}

	switch format {
	case FormatJSON:
		return NewJSONFormatter(w)
	case FormatYAML:
		return NewYAMLFormatter(w)
	default:
		return NewTextFormatter(w)
	}
}
