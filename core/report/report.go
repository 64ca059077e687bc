// Package report exports metadata findings as an XLSX workbook: a summary
// sheet with one row per file and a detail sheet per file.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/classify"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	maxSheetName  = 31
	invalidSheetC = `:\/?*[]`
)

// Entry is one file in the report. Result is nil for files not yet cleaned.
type Entry struct {
	File           string
	Format         core.FormatID
	Size           int64
	Classification classify.Classification
	Result         *core.Result
}

var summaryHeaders = []string{
	"File",
	"Format",
	"Size",
	"Curated Fields",
	"High Risk",
	"Tags",
	"Cleaned Size",
	"Removed",
}

// Write renders entries as a workbook to w.
func Write(w io.Writer, entries []Entry) error {
	f, err := build(entries)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// Bytes renders entries as a workbook in memory.
func Bytes(entries []Entry) ([]byte, error) {
	f, err := build(entries)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func build(entries []Entry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	writeRow(f, summarySheet, 1, toAny(summaryHeaders)...)
	used := map[string]bool{strings.ToLower(summarySheet): true}
	for i, e := range entries {
		high := 0
		for _, fld := range e.Classification.Fields {
			if fld.Risk == core.RiskHigh {
				high++
			}
		}
		cleaned, removed := "", ""
		if e.Result != nil {
			cleaned = core.FormatSize(e.Result.CleanedSize)
			removed = strings.Join(e.Result.Removed, ", ")
		}
		writeRow(f, summarySheet, i+2,
			e.File, string(e.Format), core.FormatSize(e.Size),
			len(e.Classification.Fields), high, len(e.Classification.All),
			cleaned, removed)

		name := sheetName(e.File, used)
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %q: %w", name, err)
		}
		writeDetail(f, name, e)
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 36)
	_ = f.SetColWidth(summarySheet, "B", "G", 14)
	_ = f.SetColWidth(summarySheet, "H", "H", 60)
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(summarySheet, 1, 1, style)
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeDetail(f *excelize.File, sheet string, e Entry) {
	row := 1
	writeRow(f, sheet, row, "Field", "Value", "Risk", "Category")
	for _, fld := range e.Classification.Fields {
		row++
		writeRow(f, sheet, row, fld.Label, fld.Value, string(fld.Risk), fld.Category)
	}
	if len(e.Classification.Fields) == 0 {
		row++
		writeRow(f, sheet, row, "(no curated fields)")
	}

	row += 2
	writeRow(f, sheet, row, "Tag", "Value")
	for _, t := range e.Classification.All {
		row++
		writeRow(f, sheet, row, t.Key, t.Value)
	}

	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "B", 60)
	_ = f.SetColWidth(sheet, "C", "D", 12)
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// sheetName derives a unique, Excel-legal sheet name from a file name.
func sheetName(file string, used map[string]bool) string {
	base := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidSheetC, r) {
			return '_'
		}
		return r
	}, file)
	base = strings.Trim(base, "' ")
	if base == "" {
		base = "file"
	}

	name := truncateRunes(base, maxSheetName)
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := " (" + strconv.Itoa(n) + ")"
		name = truncateRunes(base, maxSheetName-utf8.RuneCountInString(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
