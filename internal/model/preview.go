package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// DefaultExportName is the file name of the fully calculated spreadsheet.
const DefaultExportName = "base_calculada_completa.xlsx"

// Row is one spreadsheet record as returned by the backend.
type Row map[string]any

// UploadSummary is what the backend reports after receiving both spreadsheets.
type UploadSummary struct {
	PreviewBenef []Row  `json:"preview_benef"`
	PreviewFicha []Row  `json:"preview_ficha"`
	Status       string `json:"status,omitempty"`
	RowsBenef    int    `json:"rows_benef"`
	RowsFicha    int    `json:"rows_ficha"`
}

// CalculationPreview is the simulated "Tempo de Programa" calculation over the first rows.
type CalculationPreview struct {
	ReferenceDate Date  `json:"ref_calculada"`
	Rows          []Row `json:"preview"`
	TotalRows     int   `json:"total_linhas,omitempty"`
}

// FormatValue renders a decoded JSON value the way it is shown and searched.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// FilterRows keeps the rows where any field contains query, ignoring case.
// An empty query returns rows as given. The input is never modified.
func FilterRows(rows []Row, query string) []Row {
	if query == "" {
		return rows
	}
	fold := cases.Fold()
	needle := fold.String(query)

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		for _, v := range row {
			if strings.Contains(fold.String(FormatValue(v)), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// ColumnsOf returns every column present in rows. Columns listed in preferred
// come first in that order; the rest follow alphabetically.
func ColumnsOf(rows []Row, preferred []string) []string {
	present := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			present[k] = true
		}
	}

	out := make([]string, 0, len(present))
	for _, c := range preferred {
		if present[c] {
			out = append(out, c)
			delete(present, c)
		}
	}
	rest := make([]string, 0, len(present))
	for c := range present {
		rest = append(rest, c)
	}
	sort.Strings(rest)
	return append(out, rest...)
}
