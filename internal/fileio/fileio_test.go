package fileio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestDetectComma(t *testing.T) {
	assert.Equal(t, ';', detectComma([]byte("Pos.;Material;Typ\n1;S235JR;x")))
	assert.Equal(t, '\t', detectComma([]byte("Pos.\tMaterial\tTyp")))
	assert.Equal(t, ',', detectComma([]byte("Pos.,Material,Typ")))
	assert.Equal(t, ',', detectComma(nil))
}

func TestReadTable_CSV(t *testing.T) {
	in := "\uFEFFPos.;Material;;Material\n1;S235JR;x;dup\n;;;\n2; EPDM ;;\n"

	tbl, err := ReadTable(strings.NewReader(in), "liste.CSV", Options{HeaderRow: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"Pos.", "Material", "Column 3", "Material (2)"}, tbl.Headers)
	require.Len(t, tbl.Records, 2, "blank row dropped")
	assert.Equal(t, "S235JR", tbl.Records[0]["Material"])
	assert.Equal(t, "dup", tbl.Records[0]["Material (2)"])
	assert.Equal(t, "EPDM", tbl.Records[1]["Material"])
}

func TestReadTable_CSVWindows1252(t *testing.T) {
	src := "Pos.;Bezeichnung;Fläche\n1;Türzarge für Öffnung, geschweißt;2,5\n2;Geländer mit Ständer und Füllung;1,0\n3;Schließblech für Außentür;0,5\n"
	enc, err := charmap.Windows1252.NewEncoder().String(src)
	require.NoError(t, err)

	tbl, err := ReadTable(strings.NewReader(enc), "liste.csv", Options{HeaderRow: 1})
	require.NoError(t, err)

	require.Len(t, tbl.Records, 3)
	assert.Equal(t, "Türzarge für Öffnung, geschweißt", tbl.Records[0]["Bezeichnung"])
	assert.Equal(t, "2,5", tbl.Records[0]["Fläche"])
}

func TestReadTable_HeaderRowOutOfRange(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader("a,b\n1,2\n"), "x.csv", Options{HeaderRow: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Headers)
	assert.Len(t, tbl.Records, 1)

	tbl, err = ReadTable(strings.NewReader("a,b\n1,2\n"), "x.csv", Options{HeaderRow: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, tbl.Headers)
	assert.Empty(t, tbl.Records)

	_, err = ReadTable(strings.NewReader("a,b\n1,2\n"), "x.csv", Options{HeaderRow: 8})
	assert.ErrorIs(t, err, ErrHeaderRow)
}

func TestReadTable_Unsupported(t *testing.T) {
	_, err := ReadTable(strings.NewReader(""), "liste.ods", Options{})
	assert.Error(t, err)
}

func xlsxWithSheets(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Deckblatt"))
	_, err := f.NewSheet("Mengenliste")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Mengenliste", "A2", "Pos."))
	require.NoError(t, f.SetCellValue("Mengenliste", "B2", "Material"))
	require.NoError(t, f.SetCellValue("Mengenliste", "A3", 1))
	require.NoError(t, f.SetCellValue("Mengenliste", "B3", "S235JR"))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadTable_XLSXSheet(t *testing.T) {
	data := xlsxWithSheets(t)

	tbl, err := ReadTable(bytes.NewReader(data), "liste.xlsx", Options{Sheet: "Mengenliste", HeaderRow: 2})
	require.NoError(t, err)
	assert.Equal(t, "Mengenliste", tbl.Sheet)
	assert.Equal(t, []string{"Pos.", "Material"}, tbl.Headers)
	require.Len(t, tbl.Records, 1)
	assert.Equal(t, "1", tbl.Records[0]["Pos."])
	assert.Equal(t, "S235JR", tbl.Records[0]["Material"])
}

func TestReadTable_XLSXUnknownSheetFallsBackToFirst(t *testing.T) {
	data := xlsxWithSheets(t)

	sheet, rows, err := ReadRows(bytes.NewReader(data), "liste.xlsx", "Stückliste")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", sheet)
	assert.Equal(t, [][]string{{"Deckblatt"}}, rows)
}

func TestNormalizeCell(t *testing.T) {
	assert.Equal(t, "Fl. (m²)", normalizeCell(" Fl. (m²) "))
	assert.Equal(t, "Ges. gew.", normalizeCell("Ges.\r\ngew."))
	assert.Equal(t, "", normalizeCell(""))
}
