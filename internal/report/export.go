package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/nicway1/truelog-cli/internal/model"
)

// Format is a supported export encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatExcel Format = "excel"
	FormatPrint Format = "print"
)

// Export is an encoded report ready to be written to disk.
type Export struct {
	Filename string
	Data     []byte
}

// ExportResult encodes a generated report in the requested format.
// Excel is a known downgrade: CSV bytes under a .xlsx name. Print renders
// a plain-text view, the terminal analogue of a browser print dialog.
func ExportResult(result *model.ReportResult, format Format) (*Export, error) {
	base := filenameBase(result.TemplateName)

	switch format {
	case FormatCSV:
		data, err := encodeCSV(result)
		if err != nil {
			return nil, err
		}
		return &Export{Filename: base + ".csv", Data: data}, nil

	case FormatJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding report json: %w", err)
		}
		return &Export{Filename: base + ".json", Data: data}, nil

	case FormatExcel:
		data, err := encodeCSV(result)
		if err != nil {
			return nil, err
		}
		return &Export{Filename: base + ".xlsx", Data: data}, nil

	case FormatPrint:
		return &Export{Filename: base + ".txt", Data: []byte(renderPrint(result))}, nil

	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// columnOrder returns the header columns: the server-provided column list
// when present, else the sorted keys of the first row (map iteration
// order is not stable, so the fallback sorts for determinism).
func columnOrder(result *model.ReportResult) []string {
	if len(result.Columns) > 0 {
		return result.Columns
	}
	if len(result.Rows) == 0 {
		return nil
	}
	keys := make([]string, 0, len(result.Rows[0]))
	for k := range result.Rows[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// encodeCSV renders header plus data rows. Cells containing a comma,
// quote, or newline are quoted with internal quotes doubled; an empty
// rows array yields a header-only (or empty) data section.
func encodeCSV(result *model.ReportResult) ([]byte, error) {
	columns := columnOrder(result)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if len(columns) > 0 {
		if err := w.Write(columns); err != nil {
			return nil, fmt.Errorf("writing csv header: %w", err)
		}
	}

	record := make([]string, len(columns))
	for _, row := range result.Rows {
		for i, col := range columns {
			record[i] = cellString(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// cellString renders one cell value. Numbers keep their JSON form, nil
// becomes an empty cell.
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		// JSON numbers decode as float64; render integers without a
		// trailing .0.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

// renderPrint produces the plain-text print view: title block plus an
// aligned column table.
func renderPrint(result *model.ReportResult) string {
	columns := columnOrder(result)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", result.TemplateName)
	fmt.Fprintf(&b, "Generated %s\n\n", result.GeneratedAt.Format("2006-01-02 15:04"))

	if len(columns) == 0 {
		b.WriteString("(no data)\n")
		return b.String()
	}

	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}
	cells := make([][]string, len(result.Rows))
	for r, row := range result.Rows {
		cells[r] = make([]string, len(columns))
		for i, col := range columns {
			cell := cellString(row[col])
			cells[r][i] = cell
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, col := range columns {
		fmt.Fprintf(&b, "%-*s  ", widths[i], col)
	}
	b.WriteString("\n")
	for i := range columns {
		b.WriteString(strings.Repeat("-", widths[i]) + "  ")
	}
	b.WriteString("\n")
	for _, row := range cells {
		for i, cell := range row {
			fmt.Fprintf(&b, "%-*s  ", widths[i], cell)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%d rows\n", len(result.Rows))
	return b.String()
}

// filenameBase slugs a template name into a safe file stem.
func filenameBase(name string) string {
	if name == "" {
		return "report"
	}
	slug := strings.ToLower(name)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "report"
	}
	return slug
}
