package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/dl-alexandre/qrcgen/internal/types"
	"github.com/dl-alexandre/qrcgen/internal/utils"
)

const ruleWidth = 60

// OutputWriter renders the human report (table format) or a single JSON
// envelope (json format) on stdout.
type OutputWriter struct {
	w        io.Writer
	format   types.OutputFormat
	quiet    bool
	traceID  string
	warnings []types.CLIWarning
}

// NewOutputWriter creates a new output writer
func NewOutputWriter(w io.Writer, format types.OutputFormat, quiet bool, traceID string) *OutputWriter {
	return &OutputWriter{
		w:        w,
		format:   format,
		quiet:    quiet,
		traceID:  traceID,
		warnings: []types.CLIWarning{},
	}
}

func (o *OutputWriter) human() bool {
	return o.format != types.OutputFormatJSON
}

// Println writes an essential report line; shown even with --quiet.
func (o *OutputWriter) Println(format string, args ...interface{}) {
	if o.human() {
		fmt.Fprintf(o.w, format+"\n", args...)
	}
}

// Notice writes a non-essential report line.
func (o *OutputWriter) Notice(format string, args ...interface{}) {
	if o.human() && !o.quiet {
		fmt.Fprintf(o.w, format+"\n", args...)
	}
}

// Rule writes a horizontal rule.
func (o *OutputWriter) Rule() {
	o.Notice("%s", strings.Repeat("=", ruleWidth))
}

// Banner writes title between two rules.
func (o *OutputWriter) Banner(title string) {
	o.Rule()
	o.Notice("%s", title)
	o.Rule()
}

// AddWarning records a warning for the JSON envelope and prints it in the
// human report.
func (o *OutputWriter) AddWarning(code, message string) {
	o.warnings = append(o.warnings, types.CLIWarning{
		Code:     code,
		Message:  message,
		Severity: "warning",
	})
	o.Println("Warning: %s", message)
}

// Tree lists files grouped under a header for each directory change.
// files must be sorted.
func (o *OutputWriter) Tree(files []string) {
	if !o.human() || o.quiet {
		return
	}

	o.Notice("\nResource files found:")
	o.Rule()
	current := ""
	for i, f := range files {
		dir, name := path.Split(f)
		if i == 0 || dir != current {
			current = dir
			if dir == "" {
				dir = "./"
			}
			o.Notice("\n%s", dir)
		}
		o.Notice("  ├─ %s", name)
	}
	o.Rule()
}

// Table renders data as a borderless table.
func (o *OutputWriter) Table(data types.TableRenderable) {
	if !o.human() || o.quiet {
		return
	}

	renderer := data.AsTableRenderer()
	rows := renderer.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(o.w, renderer.EmptyMessage())
		return
	}

	fmt.Fprintln(o.w)
	table := tablewriter.NewWriter(o.w)
	table.SetHeader(renderer.Headers())
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}

// WriteSuccess emits the JSON envelope. The human report has already been
// streamed by the time this is called, so table format writes nothing.
func (o *OutputWriter) WriteSuccess(command string, data interface{}) error {
	if o.human() {
		return nil
	}
	return o.writeJSON(types.CLIOutput{
		SchemaVersion: utils.SchemaVersion,
		TraceID:       o.traceID,
		Command:       command,
		Data:          data,
		Warnings:      o.warnings,
		Errors:        []types.CLIError{},
	})
}

// WriteError reports a failure: an "Error:" line in table format, an
// envelope carrying data and the error in json format.
func (o *OutputWriter) WriteError(command string, data interface{}, cliErr types.CLIError) error {
	if o.human() {
		for _, w := range o.warnings {
			if w.Code == cliErr.Code {
				// already shown as a warning
				return nil
			}
		}
		o.Println("Error: %s", cliErr.Message)
		return nil
	}
	return o.writeJSON(types.CLIOutput{
		SchemaVersion: utils.SchemaVersion,
		TraceID:       o.traceID,
		Command:       command,
		Data:          data,
		Warnings:      o.warnings,
		Errors:        []types.CLIError{cliErr},
	})
}

func (o *OutputWriter) writeJSON(output types.CLIOutput) error {
	encoder := json.NewEncoder(o.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
