package service_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"

	"ubp-service/internal/fileio"
	"ubp-service/internal/ubp/service"
)

var mengenlisteHeader = []any{
	"Pos.", "Anzahl", "Bezeichnung", "Material", "Typ", "Beschichtung", "Länge (mm)", "Fl. (m²)", "Ges.gew.",
}

// mengenlisteXLSX builds a HiCAD-style export: title block on top, header on row 8.
func mengenlisteXLSX(t *testing.T, sheet string, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))

	require.NoError(t, f.SetCellValue(sheet, "A1", "Mengenliste"))
	require.NoError(t, f.SetCellValue(sheet, "A3", "Projekt: Halle 3"))
	require.NoError(t, f.SetSheetRow(sheet, "A8", &mengenlisteHeader))
	for i, r := range rows {
		r := r
		require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", 9+i), &r))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestToRecords(t *testing.T) {
	tbl := &fileio.Table{
		Headers: []string{"Pos.", "Anzahl", "Bezeichnung", "Material", "Typ", "Beschichtung", "Fl. (m²)", "Ges.gew."},
		Records: []map[string]string{
			{"Pos.": "1", "Anzahl": "2", "Bezeichnung": "UPE 300", "Material": "S235JR", "Typ": "U - Profile", "Beschichtung": "feuerverzinkt", "Fl. (m²)": "2,5", "Ges.gew.": "1'234,5"},
			{"Pos.": "", "Bezeichnung": "Summe", "Ges.gew.": "1234,5"},
			{"Pos.": "2", "Bezeichnung": "M8x20", "Typ": "Sechskantschrauben", "Fl. (m²)": "", "Ges.gew.": "n/a"},
		},
	}

	recs, stats, err := service.ToRecords(tbl, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, 1.0, recs[0].Pos)
	assert.Equal(t, 2, recs[0].Count)
	assert.Equal(t, "S235JR", recs[0].Material)
	assert.Equal(t, 1234.5, recs[0].WeightKg)
	assert.Equal(t, 2.5, recs[0].AreaM2)

	assert.Equal(t, 1, recs[1].Count, "count defaults to 1")
	assert.Zero(t, recs[1].WeightKg)
	assert.Zero(t, recs[1].AreaM2)

	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, map[string]int{"ges_gewicht_kg": 1}, stats.InvalidNumbers)
}

func TestToRecords_NonNumericPosKept(t *testing.T) {
	tbl := &fileio.Table{
		Headers: []string{"Pos.", "Anzahl", "Material", "Ges.gew."},
		Records: []map[string]string{
			{"Pos.": "A-Teil", "Anzahl": "3", "Material": "S235JR", "Ges.gew.": "4"},
			{"Pos.": "Summe", "Ges.gew.": "4"},
		},
	}

	recs, stats, err := service.ToRecords(tbl, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Zero(t, recs[0].Pos)
	assert.Equal(t, 3, recs[0].Count)
	assert.Equal(t, 4.0, recs[0].WeightKg)
	assert.Zero(t, stats.Skipped)
	assert.Equal(t, map[string]int{"pos": 2}, stats.InvalidNumbers)
}

func TestToRecords_CountOutOfRange(t *testing.T) {
	tbl := &fileio.Table{
		Headers: []string{"Pos.", "Anzahl", "Ges.gew."},
		Records: []map[string]string{
			{"Pos.": "1", "Anzahl": "1e30", "Ges.gew.": "1"},
			{"Pos.": "2", "Anzahl": "-1e30", "Ges.gew.": "1"},
			{"Pos.": "3", "Anzahl": "viele", "Ges.gew.": "1"},
			{"Pos.": "4", "Anzahl": "12", "Ges.gew.": "1"},
		},
	}

	recs, stats, err := service.ToRecords(tbl, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, recs, 4)

	assert.Equal(t, 1, recs[0].Count)
	assert.Equal(t, 1, recs[1].Count)
	assert.Equal(t, 1, recs[2].Count)
	assert.Equal(t, 12, recs[3].Count)
	assert.Equal(t, map[string]int{"anzahl": 3}, stats.InvalidNumbers)
}

func TestToRecords_HeaderVariants(t *testing.T) {
	tbl := &fileio.Table{
		Headers: []string{"Position", "Material ", "Fläche (m²)", "Gesamtgewicht [kg]"},
		Records: []map[string]string{
			{"Position": "10", "Material ": "S355J2", "Fläche (m²)": "1.5", "Gesamtgewicht [kg]": "12,25"},
		},
	}

	recs, _, err := service.ToRecords(tbl, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 10.0, recs[0].Pos)
	assert.Equal(t, "S355J2", recs[0].Material)
	assert.Equal(t, 1.5, recs[0].AreaM2)
	assert.Equal(t, 12.25, recs[0].WeightKg)
}

func TestToRecords_MissingPosColumn(t *testing.T) {
	tbl := &fileio.Table{
		Headers: []string{"Material", "Ges.gew."},
		Records: []map[string]string{{"Material": "S235JR", "Ges.gew.": "1"}},
	}

	_, _, err := service.ToRecords(tbl, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrMissingColumn))
}

func TestToRecords_Empty(t *testing.T) {
	recs, stats, err := service.ToRecords(&fileio.Table{}, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
	assert.Zero(t, stats.Rows)
}

func TestCalculator_Run_XLSX(t *testing.T) {
	data := mengenlisteXLSX(t, "Mengenliste",
		[]any{1, 2, "UPE 300", "S235JR", "U - Profile", "feuerverzinkt", 6000, 2, 100},
		[]any{2, 1, "Blech 5mm", "S235JR", "Bleche", "", 1000, 1, 10},
		[]any{3, 8, "M8x20", "", "Sechskantschrauben", "", "", "", 0.5},
		[]any{"", "", "Summe", "", "", "", "", 3, 110.5},
	)
	c := newCalculator(t)

	run, err := c.Run(bytes.NewReader(data), "Halle3.xlsx", fileio.Options{Sheet: "Mengenliste", HeaderRow: 8})
	require.NoError(t, err)

	assert.Equal(t, "Halle3.xlsx", run.File)
	assert.Equal(t, "Mengenliste", run.Sheet)
	assert.Equal(t, 3, run.Parse.Rows)
	assert.Equal(t, 1, run.Parse.Skipped)

	res := run.Results
	require.Len(t, res.Components, 3)
	assert.Equal(t, 3, res.ComponentsMatched)
	assert.InDelta(t, 224000+5140+28300+3710, res.TotalUBP, 1e-6)
}

func TestCalculator_Run_CSV(t *testing.T) {
	csv := strings.Join([]string{
		"Pos.;Anzahl;Bezeichnung;Material;Typ;Beschichtung;Fl. (m²);Ges.gew.",
		"1;1;UPE 300;S235JR;U - Profile;;0;1'000,0",
		"2;1;Platte;Holz;;;;3,5",
	}, "\n")
	c := newCalculator(t)

	run, err := c.Run(strings.NewReader(csv), "liste.csv", fileio.Options{HeaderRow: 1})
	require.NoError(t, err)

	res := run.Results
	require.Len(t, res.Components, 2)
	assert.InDelta(t, 2240000, res.TotalUBP, 1e-6)
	assert.Equal(t, 1, res.ComponentsMatched)
	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, "Holz", res.Unmatched[0].Material)
}

func TestCalculator_Run_Errors(t *testing.T) {
	c := newCalculator(t)

	_, err := c.Run(strings.NewReader("x"), "liste.pdf", fileio.Options{})
	assert.Error(t, err)

	_, err = c.Run(strings.NewReader("Material;Ges.gew.\nS235JR;1\n"), "liste.csv", fileio.Options{HeaderRow: 1})
	assert.ErrorIs(t, err, service.ErrMissingColumn)
}
