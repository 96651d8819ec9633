package fileio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Options — откуда читать таблицу.
type Options struct {
	Sheet     string // имя листа (xlsx/xls); пусто или нет такого — первый лист
	HeaderRow int    // строка заголовков, 1-based
}

// Table — строки под заголовком, ключи — заголовки колонок.
// Headers сохраняет порядок колонок как в файле.
type Table struct {
	Sheet   string
	Headers []string
	Records []map[string]string
}

// ErrHeaderRow: строка заголовков за пределами листа.
var ErrHeaderRow = errors.New("header row out of range")

// ReadTable выбирает парсер по расширению файла.
func ReadTable(r io.Reader, filename string, opt Options) (*Table, error) {
	if opt.HeaderRow <= 0 {
		opt.HeaderRow = 1
	}
	sheet, rows, err := ReadRows(r, filename, opt.Sheet)
	if err != nil {
		return nil, err
	}
	t := &Table{Sheet: sheet}
	if len(rows) == 0 {
		return t, nil
	}
	if opt.HeaderRow > len(rows) {
		return nil, fmt.Errorf("%w: row %d, sheet has %d rows", ErrHeaderRow, opt.HeaderRow, len(rows))
	}
	hdr := opt.HeaderRow - 1
	t.Headers = pickHeader(rows, hdr)
	t.Records = rowsToMaps(rows, t.Headers, hdr+1)
	return t, nil
}

// ReadRows возвращает сырые строки листа (AoA) и имя прочитанного листа.
func ReadRows(r io.Reader, filename, sheet string) (string, [][]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx", ".xlsm":
		return readXLSX(r, sheet)
	case ".xls":
		return readXLS(r, sheet)
	case ".csv":
		rows, err := readCSV(r)
		return "", rows, err
	default:
		return "", nil, fmt.Errorf("unsupported file: %s", filename)
	}
}

// pickHeader — берёт строку заголовков и подставляет Column N для пустых.
// Повторяющиеся заголовки получают суффикс " (2)", " (3)".
// idx 0-based и должен быть в пределах rows.
func pickHeader(rows [][]string, idx int) []string {
	h := rows[idx]
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	out := make([]string, width)
	seen := map[string]int{}
	for i := 0; i < width; i++ {
		v := ""
		if i < len(h) {
			v = normalizeCell(h[i])
		}
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		seen[v]++
		if n := seen[v]; n > 1 {
			v = fmt.Sprintf("%s (%d)", v, n)
		}
		out[i] = v
	}
	return out
}

// rowsToMaps — конвертирует AoA в []map по заголовкам начиная со строки start,
// пропуская полностью пустые строки.
func rowsToMaps(rows [][]string, headers []string, start int) []map[string]string {
	var out []map[string]string
	for r := start; r < len(rows); r++ {
		rec := rows[r]
		m := make(map[string]string, len(headers))
		empty := true
		for c := 0; c < len(headers); c++ {
			var v string
			if c < len(rec) {
				v = normalizeCell(rec[c])
			}
			if v != "" {
				empty = false
			}
			m[headers[c]] = v
		}
		if !empty {
			out = append(out, m)
		}
	}
	return out
}

// normalizeCell — NBSP/NNBSP в пробел, обрезка краёв.
func normalizeCell(s string) string {
	if s == "" {
		return s
	}
	s = strings.NewReplacer("\u00A0", " ", "\u202F", " ", "\r\n", " ", "\n", " ").Replace(s)
	return strings.TrimSpace(s)
}
