package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
)

// Printer handles all display output for the CLI.
type Printer struct {
	JSON    bool
	Verbose bool
	Writer  io.Writer
}

// NewPrinter creates a default Printer writing to stdout.
func NewPrinter(jsonMode, verbose bool) *Printer {
	return &Printer{JSON: jsonMode, Verbose: verbose, Writer: os.Stdout}
}

// FormatSize renders a byte count for humans ("1.5 KiB").
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// Report is the printable view of one inspected file.
type Report struct {
	File   string      `json:"file"`
	Format FormatID    `json:"format"`
	Size   int64       `json:"size"`
	Fields []MetaField `json:"fields"`
	Tags   []TagRow    `json:"tags,omitempty"`
}

// PrintReport renders a Report to the configured output. Tags are only
// shown when Verbose is set.
func (p *Printer) PrintReport(r Report) {
	if p.JSON {
		if !p.Verbose {
			r.Tags = nil
		}
		p.printJSON(r)
		return
	}
	fmt.Fprintf(p.Writer, "File  : %s\n", r.File)
	fmt.Fprintf(p.Writer, "Format: %s (%s)\n", r.Format, FormatSize(r.Size))
	if len(r.Fields) == 0 && len(r.Tags) == 0 {
		fmt.Fprintln(p.Writer, "(no metadata found)")
		return
	}
	fmt.Fprintln(p.Writer)

	for _, f := range r.Fields {
		fmt.Fprintf(p.Writer, "  %-16s %-7s %s\n", f.Label+":", "["+string(f.Risk)+"]", f.Value)
	}
	if len(r.Tags) == 0 {
		return
	}
	if !p.Verbose {
		fmt.Fprintf(p.Writer, "\n  (%d tags, use -all to list them)\n", len(r.Tags))
		return
	}
	fmt.Fprintf(p.Writer, "\n── all %d tags ──\n", len(r.Tags))
	for _, t := range r.Tags {
		fmt.Fprintf(p.Writer, "  %-30s %s\n", t.Key+":", t.Value)
	}
	fmt.Fprintln(p.Writer)
}

// PrintResult renders the outcome of one cleaning run.
func (p *Printer) PrintResult(name, outPath string, r *Result) {
	if p.JSON {
		p.printJSON(struct {
			File   string `json:"file"`
			Output string `json:"output"`
			*Result
		}{name, outPath, r})
		return
	}
	fmt.Fprintf(p.Writer, "✓ %s → %s\n", name, outPath)
	fmt.Fprintf(p.Writer, "  %s → %s (%s → %s)\n",
		r.OriginalFormat, r.OutputFormat, FormatSize(r.OriginalSize), FormatSize(r.CleanedSize))
	if len(r.Removed) > 0 {
		fmt.Fprintf(p.Writer, "  removed: %s\n", strings.Join(r.Removed, ", "))
	}
}

// PrintOptions lists the inferred preserve options for a file.
func (p *Printer) PrintOptions(name string, opts Options, applicable OptionSet) {
	if p.JSON || !p.Verbose {
		return
	}
	keys := applicable.Keys()
	if len(keys) == 0 {
		return
	}
	fmt.Fprintf(p.Writer, "%s:\n", name)
	for _, k := range keys {
		mark := " "
		if opts[k] {
			mark = "x"
		}
		fmt.Fprintf(p.Writer, "  [%s] %s\n", mark, OptionLabels[k])
	}
}

func (p *Printer) printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(p.Writer, string(b))
}

// PrintSuccess prints a success message.
func (p *Printer) PrintSuccess(msg string) {
	fmt.Fprintln(p.Writer, "✓ "+msg)
}

// PrintInfo prints an info line (suppressed in JSON mode).
func (p *Printer) PrintInfo(msg string) {
	if !p.JSON {
		fmt.Fprintln(p.Writer, msg)
	}
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, "✗ Error: "+msg)
}
