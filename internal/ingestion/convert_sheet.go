package ingestion

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Preview defaults
const (
	DefaultMaxRows = 25
	DefaultMaxCols = 15
)

// Table is a bounded preview of a spreadsheet, one entry per sheet
type Table struct {
	Sheets []SheetPreview `json:"sheets"`
}

// SheetPreview holds the header, the first rows and numeric column stats
type SheetPreview struct {
	Name      string        `json:"name"`
	Headers   []string      `json:"headers"`
	Rows      [][]string    `json:"rows"`
	TotalRows int           `json:"total_rows"`
	TotalCols int           `json:"total_cols"`
	Stats     []ColumnStats `json:"numeric_stats,omitempty"`
}

// ColumnStats summarizes a numeric column over every body row
type ColumnStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Sum    float64 `json:"sum"`
}

// zipMagic opens every OOXML workbook.
var zipMagic = []byte("PK\x03\x04")

// SheetConverter previews .xlsx/.xlsm workbooks and .csv files
type SheetConverter struct {
	MaxRows int
	MaxCols int
}

// Name returns the converter name
func (c *SheetConverter) Name() string { return "sheet" }

// Extensions returns the workbook and CSV extensions
func (c *SheetConverter) Extensions() []string { return []string{".xlsx", ".xlsm", ".csv"} }

// AcceptsMIME matches CSV and spreadsheetml
func (c *SheetConverter) AcceptsMIME(mediaType string) bool {
	return mediaType == "text/csv" ||
		mediaType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Convert builds a per-sheet preview
func (c *SheetConverter) Convert(_ context.Context, name string, data []byte) Result {
	var (
		table *Table
		err   error
	)
	switch ext := extOf(name); {
	case ext == ".xlsx" || ext == ".xlsm", ext != ".csv" && bytes.HasPrefix(data, zipMagic):
		table, err = c.convertWorkbook(data)
	default:
		table, err = c.convertCSV(data)
	}
	if err != nil {
		return FailureResult(err.Error())
	}
	if len(table.Sheets) == 0 {
		return FailureResult("spreadsheet has no rows")
	}
	return TableResult(table)
}

func (c *SheetConverter) convertCSV(data []byte) (*Table, error) {
	r := csv.NewReader(strings.NewReader(EnsureUTF8(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}

	table := &Table{}
	if preview, ok := c.preview("csv", rows); ok {
		table.Sheets = append(table.Sheets, preview)
	}
	return table, nil
}

func (c *SheetConverter) convertWorkbook(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	table := &Table{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		if preview, ok := c.preview(sheet, rows); ok {
			table.Sheets = append(table.Sheets, preview)
		}
	}
	return table, nil
}

func (c *SheetConverter) limits() (int, int) {
	maxRows, maxCols := c.MaxRows, c.MaxCols
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if maxCols <= 0 {
		maxCols = DefaultMaxCols
	}
	return maxRows, maxCols
}

// preview treats the first non-empty row as the header. Returns false for a
// sheet with no content.
func (c *SheetConverter) preview(name string, rows [][]string) (SheetPreview, bool) {
	rows = dropEmptyRows(rows)
	if len(rows) == 0 {
		return SheetPreview{}, false
	}
	maxRows, maxCols := c.limits()

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	cols := min(width, maxCols)

	headers := make([]string, cols)
	for i := range headers {
		headers[i] = cell(rows[0], i)
		if headers[i] == "" {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
	}

	body := rows[1:]
	preview := SheetPreview{
		Name:      name,
		Headers:   headers,
		TotalRows: len(body),
		TotalCols: width,
	}
	for _, row := range body[:min(len(body), maxRows)] {
		out := make([]string, cols)
		for i := range out {
			out[i] = cell(row, i)
		}
		preview.Rows = append(preview.Rows, out)
	}
	for i, header := range headers {
		if stats, ok := numericStats(header, body, i); ok {
			preview.Stats = append(preview.Stats, stats)
		}
	}
	return preview, true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func dropEmptyRows(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// numericStats summarizes column i when most of its non-empty cells are numbers.
func numericStats(header string, body [][]string, i int) (ColumnStats, bool) {
	stats := ColumnStats{Column: header, Min: math.Inf(1), Max: math.Inf(-1)}
	nonEmpty := 0
	for _, row := range body {
		raw := cell(row, i)
		if raw == "" {
			continue
		}
		nonEmpty++
		v, ok := parseNumber(raw)
		if !ok {
			continue
		}
		stats.Count++
		stats.Sum += v
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
	}
	if stats.Count == 0 || stats.Count*2 < nonEmpty {
		return ColumnStats{}, false
	}
	stats.Mean = stats.Sum / float64(stats.Count)
	return stats, true
}

// parseNumber accepts thousands separators, currency and percent signs.
func parseNumber(s string) (float64, bool) {
	s = strings.NewReplacer(",", "", "$", "", "%", "", "€", "", "£", "").Replace(s)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Render formats the preview as plain text for the model.
func (t *Table) Render() string {
	if t == nil {
		return ""
	}
	var sb strings.Builder
	for i, s := range t.Sheets {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Sheet: %s (%d rows x %d columns, showing %d)\n", s.Name, s.TotalRows, s.TotalCols, len(s.Rows))
		sb.WriteString("Columns: " + strings.Join(s.Headers, " | "))
		for _, row := range s.Rows {
			sb.WriteString("\n" + strings.Join(row, " | "))
		}
		if len(s.Stats) > 0 {
			sb.WriteString("\nNumeric summary:")
			for _, st := range s.Stats {
				fmt.Fprintf(&sb, "\n- %s: count=%d min=%s max=%s mean=%s sum=%s",
					st.Column, st.Count, formatNumber(st.Min), formatNumber(st.Max), formatNumber(st.Mean), formatNumber(st.Sum))
			}
		}
	}
	return sb.String()
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
