// Package oekobilanz reads the KBOB "Oekobilanzdaten im Baubereich" workbook,
// the reference database the material map points into.
package oekobilanz

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ubp-service/internal/fileio"
	"ubp-service/internal/utils"
)

const (
	// SheetName is the building-materials sheet of the workbook.
	SheetName = "Baumaterialien Matériaux"
	// Header spans rows 1-10; data starts at row 11.
	dataStartRow = 10

	colID         = 0
	colName       = 2
	colUnit       = 6
	colUBPTotal   = 7
	colUBPProduce = 8
	colUBPDispose = 9
)

// Material is one reference record. UBP figures are per Unit.
type Material struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Unit        string   `json:"unit"`
	UBPTotal    *float64 `json:"ubp_total"`
	UBPProduce  *float64 `json:"ubp_herstellung"`
	UBPDisposal *float64 `json:"ubp_entsorgung"`
}

type Catalog struct {
	source string
	order  []string
	byID   map[string]Material
}

// Open reads the workbook at path. A missing file yields (nil, nil).
func Open(path string) (*Catalog, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	c, err := Read(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("oekobilanz %s: %w", path, err)
	}
	c.source = path
	return c, nil
}

func Read(r io.Reader, filename string) (*Catalog, error) {
	_, rows, err := fileio.ReadRows(r, filename, SheetName)
	if err != nil {
		return nil, err
	}
	return Parse(rows), nil
}

// Parse builds the catalog from raw sheet rows. Rows without an id and
// category headers (ids without a '.') are skipped; later duplicates win.
func Parse(rows [][]string) *Catalog {
	c := &Catalog{byID: map[string]Material{}}
	for i := dataStartRow; i < len(rows); i++ {
		row := rows[i]
		id := strings.TrimSpace(at(row, colID))
		if id == "" || !strings.Contains(id, ".") {
			continue
		}
		m := Material{
			ID:          id,
			Name:        strings.TrimSpace(at(row, colName)),
			Unit:        strings.TrimSpace(at(row, colUnit)),
			UBPTotal:    num(at(row, colUBPTotal)),
			UBPProduce:  num(at(row, colUBPProduce)),
			UBPDisposal: num(at(row, colUBPDispose)),
		}
		if _, dup := c.byID[id]; !dup {
			c.order = append(c.order, id)
		}
		c.byID[id] = m
	}
	return c
}

func (c *Catalog) Source() string { return c.source }
func (c *Catalog) Len() int       { return len(c.order) }

func (c *Catalog) Lookup(id string) (Material, bool) {
	m, ok := c.byID[strings.TrimSpace(id)]
	return m, ok
}

// All returns the records in sheet order.
func (c *Catalog) All() []Material {
	out := make([]Material, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func at(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func num(s string) *float64 {
	v, ok := utils.ParseFloatDE(s)
	if !ok {
		return nil
	}
	return &v
}
