package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"ubp-service/internal/ubp/model"
	"ubp-service/internal/ubp/service"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

const baseName = "ubp_ergebnisse"

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

func (f Format) Filename() string { return baseName + "." + string(f) }

// Render строит файл выбранного формата.
func Render(f Format, res model.CalculationResults) ([]byte, error) {
	switch f {
	case FormatCSV:
		return BuildCSV(res)
	case FormatXLSX:
		return BuildXLSX(res)
	case FormatPDF:
		return BuildPDF(res)
	default:
		return nil, fmt.Errorf("unsupported export format: %q", f)
	}
}

// BuildCSV: таблица результатов в том же виде, что и на экране.
func BuildCSV(res model.CalculationResults) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(service.RowHeaders); err != nil {
		return nil, err
	}
	for _, r := range service.Rows(res) {
		vals := r.Values()
		rec := make([]string, len(vals))
		for i, v := range vals {
			rec[i] = cellString(v)
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// FormatNumber: тысячи через апостроф, как принято в CH: 1'234'567.
func FormatNumber(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(service.Round(v, 0), 'f', 0, 64)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('\'')
		}
		b.WriteRune(r)
	}
	if neg && s != "0" {
		return "-" + b.String()
	}
	return b.String()
}
