package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"ubp-service/internal/ubp/model"
	"ubp-service/internal/ubp/service"
)

const pdfTopN = 15

// BuildPDF renders a short report: summary, buckets and the top components.
func BuildPDF(res model.CalculationResults) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252: Umlaute, ²
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, tr("Umweltbelastung (UBP)"))
	pdf.Ln(10)

	sum := service.Summarize(res)
	pdf.SetFont("Arial", "", 10)
	lines := []string{
		fmt.Sprintf("Total UBP: %s", FormatNumber(sum.TotalUBP)),
		fmt.Sprintf("Gesamtgewicht: %.2f kg", sum.TotalWeightKg),
		fmt.Sprintf("Gesamtfläche: %.2f m²", sum.TotalAreaM2),
		fmt.Sprintf("Trefferquote: %.1f%% (%d von %d)", sum.MatchRate, sum.ComponentsMatched, sum.ComponentsTotal),
		fmt.Sprintf("Nicht zugeordnet: %d", sum.UnmatchedCount),
	}
	for _, l := range lines {
		pdf.Cell(0, 6, tr(l))
		pdf.Ln(5)
	}

	bucketTable(pdf, tr, "UBP nach Basismaterial", "Gewicht (kg)", service.SortedMaterials(res))
	bucketTable(pdf, tr, "UBP nach Beschichtung", "Fläche (m²)", service.SortedCoatings(res))

	top := service.TopN(res, pdfTopN)
	if len(top) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 6, tr(fmt.Sprintf("Top %d Bauteile nach UBP", len(top))))
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(15, 6, "Pos", "1", 0, "C", false, 0, "")
		pdf.CellFormat(75, 6, "Bezeichnung", "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, "Material", "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, "UBP", "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, "Kumuliert %", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		for _, c := range top {
			pdf.CellFormat(15, 6, fmt.Sprintf("%g", c.Pos), "1", 0, "R", false, 0, "")
			pdf.CellFormat(75, 6, tr(truncate(c.Description, 40)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(35, 6, tr(truncate(c.Material, 18)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(35, 6, FormatNumber(c.UBPTotal), "1", 0, "R", false, 0, "")
			pdf.CellFormat(25, 6, fmt.Sprintf("%.1f", c.CumulativePct), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func bucketTable(pdf *gofpdf.Fpdf, tr func(string) string, title, qtyLabel string, buckets []service.Bucket) {
	if len(buckets) == 0 {
		return
	}
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, tr(title))
	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(90, 6, "Oekobilanz", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "UBP", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, tr(qtyLabel), "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Anzahl", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, b := range buckets {
		pdf.CellFormat(90, 6, tr(truncate(b.Name, 50)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, FormatNumber(b.UBP), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", b.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", b.Count), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
