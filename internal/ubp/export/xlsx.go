package export

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"ubp-service/internal/ubp/model"
	"ubp-service/internal/ubp/service"
)

const (
	SheetResults   = "Ergebnisse"
	SheetSummary   = "Zusammenfassung"
	SheetUnmatched = "Nicht zugeordnet"
)

// BuildXLSX: лист результатов, сводка и несопоставленные позиции.
func BuildXLSX(res model.CalculationResults) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetUnmatched); err != nil {
		return nil, err
	}

	if err := writeRow(f, SheetResults, 1, toAny(service.RowHeaders)); err != nil {
		return nil, err
	}
	for i, r := range service.Rows(res) {
		if err := writeRow(f, SheetResults, i+2, r.Values()); err != nil {
			return nil, err
		}
	}

	sum := service.Summarize(res)
	summary := [][]any{
		{"Total UBP", sum.TotalUBP},
		{"Gesamtgewicht (kg)", sum.TotalWeightKg},
		{"Gesamtfläche (m²)", sum.TotalAreaM2},
		{"Bauteile zugeordnet", sum.ComponentsMatched},
		{"Bauteile total", sum.ComponentsTotal},
		{"Trefferquote (%)", sum.MatchRate},
		{"Nicht zugeordnet", sum.UnmatchedCount},
		{},
		{"Material (Oeko)", "UBP", "Gewicht (kg)", "Anzahl"},
	}
	for _, b := range service.SortedMaterials(res) {
		summary = append(summary, []any{b.Name, service.Round(b.UBP, 0), service.Round(b.Quantity, 2), b.Count})
	}
	summary = append(summary, []any{}, []any{"Beschichtung (Oeko)", "UBP", "Fläche (m²)", "Anzahl"})
	for _, b := range service.SortedCoatings(res) {
		summary = append(summary, []any{b.Name, service.Round(b.UBP, 0), service.Round(b.Quantity, 2), b.Count})
	}
	for i, row := range summary {
		if err := writeRow(f, SheetSummary, i+1, row); err != nil {
			return nil, err
		}
	}

	if err := writeRow(f, SheetUnmatched, 1, []any{"Pos", "Material", "Typ", "Gewicht (kg)", "Grund"}); err != nil {
		return nil, err
	}
	for i, u := range res.Unmatched {
		row := []any{u.Pos, u.Material, u.Type, service.Round(u.WeightKg, 2), string(u.Reason)}
		if err := writeRow(f, SheetUnmatched, i+2, row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, vals []any) error {
	if len(vals) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &vals)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
