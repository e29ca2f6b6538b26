// Package output writes command results as text, JSON or a table.
package output

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/socialconnect/cli/pkg/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatText  OutputFormat = "text"
)

// GetOutputFormat returns the configured output format
func GetOutputFormat() OutputFormat {
	return ParseFormat(config.GetString("output.format"))
}

// ParseFormat maps a string to a format, defaulting to text
func ParseFormat(format string) OutputFormat {
	switch format {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

// ValidateOutputFormat checks if format is valid
func ValidateOutputFormat(format string) bool {
	return format == "json" || format == "table" || format == "text"
}

// Field is one labelled value of a record
type Field struct {
	Key   string
	Value interface{}
}

// Printer writes to Out in Format
type Printer struct {
	Out    io.Writer
	Format OutputFormat
}

// New returns a printer for out
func New(out io.Writer, format OutputFormat) *Printer {
	return &Printer{Out: out, Format: format}
}

// Stdout returns a printer for stdout in the configured format
func Stdout() *Printer {
	return New(color.Output, GetOutputFormat())
}

// IsJSON reports whether results should be emitted as JSON only
func (p *Printer) IsJSON() bool {
	return p.Format == FormatJSON
}

// JSON writes v as indented JSON
func (p *Printer) JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.Out, string(data))
	return err
}

// Result writes v as JSON when that format is selected and otherwise calls
// text, which renders the human-readable form.
func (p *Printer) Result(v interface{}, text func(p *Printer)) error {
	if p.IsJSON() {
		return p.JSON(v)
	}
	text(p)
	return nil
}

// List writes rows as a table for the table format, as JSON for json, and
// through text otherwise.
func (p *Printer) List(v interface{}, headers []string, rows [][]string, text func(p *Printer)) error {
	switch p.Format {
	case FormatJSON:
		return p.JSON(v)
	case FormatTable:
		p.Table(headers, rows)
		return nil
	default:
		text(p)
		return nil
	}
}

// Record writes ordered key/value pairs
func (p *Printer) Record(title string, fields []Field) error {
	switch p.Format {
	case FormatJSON:
		m := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			m[f.Key] = f.Value
		}
		return p.JSON(m)
	case FormatTable:
		rows := make([][]string, 0, len(fields))
		for _, f := range fields {
			rows = append(rows, []string{f.Key, fmt.Sprint(f.Value)})
		}
		p.Table([]string{"Field", "Value"}, rows)
		return nil
	default:
		if title != "" {
			color.New(color.Bold, color.Underline).Fprintln(p.Out, title)
		}
		bold := color.New(color.Bold)
		for _, f := range fields {
			bold.Fprint(p.Out, f.Key+": ")
			fmt.Fprintf(p.Out, "%v\n", f.Value)
		}
		return nil
	}
}

// Table writes an aligned table
func (p *Printer) Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)

	for i, h := range headers {
		bold.Fprint(w, h)
		if i < len(headers)-1 {
			fmt.Fprint(w, "\t")
		}
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			fmt.Fprint(w, cell)
			if i < len(row)-1 {
				fmt.Fprint(w, "\t")
			}
		}
		fmt.Fprintln(w)
	}

	w.Flush()
}

// Println writes a plain line
func (p *Printer) Println(a ...interface{}) {
	fmt.Fprintln(p.Out, a...)
}

// Printf writes formatted text
func (p *Printer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.Out, format, args...)
}

// Success prints a success message
func (p *Printer) Success(msg string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(p.Out, "✓ "+msg+"\n", args...)
}

// Info prints an info message
func (p *Printer) Info(msg string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(p.Out, msg+"\n", args...)
}

// Warning prints a warning message
func (p *Printer) Warning(msg string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(p.Out, "Warning: "+msg+"\n", args...)
}

// PrintError prints an error message to stderr
func PrintError(msg string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
}

// FormatAsJSON converts data to a compact JSON string
func FormatAsJSON(data interface{}) (string, error) {
	out, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
