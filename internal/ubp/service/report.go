package service

import (
	"math"
	"sort"

	"ubp-service/internal/ubp/model"
)

// Row: плоская строка для таблицы/экспорта.
type Row struct {
	Pos             float64 `json:"pos"`
	Count           int     `json:"anzahl"`
	Description     string  `json:"bezeichnung"`
	Material        string  `json:"material"`
	Type            string  `json:"typ"`
	Coating         string  `json:"beschichtung"`
	WeightKg        float64 `json:"gewicht_kg"`
	AreaM2          float64 `json:"flaeche_m2"`
	MaterialOeko    string  `json:"material_oeko"`
	CoatingOeko     string  `json:"beschichtung_oeko"`
	UBPMaterial     float64 `json:"ubp_material"`
	UBPCoating      float64 `json:"ubp_beschichtung"`
	UBPTotal        float64 `json:"ubp_total"`
	MaterialMatched bool    `json:"zugeordnet"`
}

// RowHeaders: заголовки колонок в порядке Row.Values.
var RowHeaders = []string{
	"Pos", "Anzahl", "Bezeichnung", "Material", "Typ", "Beschichtung",
	"Gewicht (kg)", "Fläche (m²)", "Material (Oeko)", "Beschichtung (Oeko)",
	"UBP Material", "UBP Beschichtung", "UBP Total", "Zugeordnet",
}

// Values возвращает ячейки строки в порядке RowHeaders.
func (r Row) Values() []any {
	return []any{
		r.Pos, r.Count, r.Description, r.Material, r.Type, r.Coating,
		r.WeightKg, r.AreaM2, r.MaterialOeko, r.CoatingOeko,
		r.UBPMaterial, r.UBPCoating, r.UBPTotal, JaNein(r.MaterialMatched),
	}
}

func JaNein(b bool) string {
	if b {
		return "Ja"
	}
	return "Nein"
}

func Rows(res model.CalculationResults) []Row {
	out := make([]Row, 0, len(res.Components))
	for _, c := range res.Components {
		out = append(out, Row{
			Pos:             c.Pos,
			Count:           c.Count,
			Description:     c.Description,
			Material:        c.Material,
			Type:            c.Type,
			Coating:         c.Coating,
			WeightKg:        Round(c.WeightKg, 2),
			AreaM2:          Round(c.AreaM2, 2),
			MaterialOeko:    dash(c.MaterialOekoName),
			CoatingOeko:     dash(c.CoatingOekoName),
			UBPMaterial:     Round(c.UBPMaterial, 0),
			UBPCoating:      Round(c.UBPCoating, 0),
			UBPTotal:        Round(c.UBPTotal, 0),
			MaterialMatched: c.MaterialMatched,
		})
	}
	return out
}

type MaterialSummary struct {
	UBP      float64 `json:"ubp"`
	WeightKg float64 `json:"weight_kg"`
}

type CoatingSummary struct {
	UBP    float64 `json:"ubp"`
	AreaM2 float64 `json:"area_m2"`
}

// Summary: шапка дашборда. MatchRate в процентах.
type Summary struct {
	TotalUBP          float64                    `json:"total_ubp"`
	TotalWeightKg     float64                    `json:"total_weight_kg"`
	TotalAreaM2       float64                    `json:"total_area_m2"`
	ComponentsMatched int                        `json:"components_matched"`
	ComponentsTotal   int                        `json:"components_total"`
	MatchRate         float64                    `json:"match_rate"`
	ByMaterial        map[string]MaterialSummary `json:"by_material"`
	ByCoating         map[string]CoatingSummary  `json:"by_coating"`
	UnmatchedCount    int                        `json:"unmatched_count"`
}

func Summarize(res model.CalculationResults) Summary {
	s := Summary{
		TotalUBP:          Round(res.TotalUBP, 0),
		TotalWeightKg:     Round(res.TotalWeightKg, 2),
		TotalAreaM2:       Round(res.TotalAreaM2, 2),
		ComponentsMatched: res.ComponentsMatched,
		ComponentsTotal:   res.ComponentsTotal,
		MatchRate:         Round(res.MatchRate*100, 1),
		ByMaterial:        make(map[string]MaterialSummary, len(res.ByMaterial)),
		ByCoating:         make(map[string]CoatingSummary, len(res.ByCoating)),
		UnmatchedCount:    len(res.Unmatched),
	}
	for k, v := range res.ByMaterial {
		s.ByMaterial[k] = MaterialSummary{UBP: Round(v.UBP, 0), WeightKg: Round(v.WeightKg, 2)}
	}
	for k, v := range res.ByCoating {
		s.ByCoating[k] = CoatingSummary{UBP: Round(v.UBP, 0), AreaM2: Round(v.AreaM2, 2)}
	}
	return s
}

// RankedComponent: компонент в Парето-списке.
type RankedComponent struct {
	model.ComponentResult
	CumulativePct float64 `json:"cumulative_pct"`
}

// TopN сортирует КОПИЮ компонентов по UBP (убыв.) и режет до n.
// n <= 0: без ограничения.
func TopN(res model.CalculationResults, n int) []RankedComponent {
	cp := make([]model.ComponentResult, len(res.Components))
	copy(cp, res.Components)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].UBPTotal > cp[j].UBPTotal })
	if n > 0 && n < len(cp) {
		cp = cp[:n]
	}
	out := make([]RankedComponent, 0, len(cp))
	running := 0.0
	for _, c := range cp {
		running += c.UBPTotal
		pct := 0.0
		if res.TotalUBP > 0 {
			pct = running / res.TotalUBP * 100
		}
		out = append(out, RankedComponent{ComponentResult: c, CumulativePct: pct})
	}
	return out
}

// UnmatchedGroup: несопоставленные позиции, сгруппированные по коду материала.
type UnmatchedGroup struct {
	Material string  `json:"material"`
	Count    int     `json:"anzahl"`
	WeightKg float64 `json:"gewicht_kg"`
}

func UnmatchedByMaterial(res model.CalculationResults) []UnmatchedGroup {
	idx := map[string]int{}
	var out []UnmatchedGroup
	for _, u := range res.Unmatched {
		i, ok := idx[u.Material]
		if !ok {
			i = len(out)
			idx[u.Material] = i
			out = append(out, UnmatchedGroup{Material: u.Material})
		}
		out[i].Count++
		out[i].WeightKg += u.WeightKg
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Material < out[j].Material
	})
	return out
}

// Bucket: строка для диаграмм "по материалу"/"по покрытию".
type Bucket struct {
	Name     string  `json:"name"`
	UBP      float64 `json:"ubp"`
	Quantity float64 `json:"quantity"` // кг для материалов, м² для покрытий
	Count    int     `json:"count"`
}

func SortedMaterials(res model.CalculationResults) []Bucket {
	out := make([]Bucket, 0, len(res.ByMaterial))
	for k, v := range res.ByMaterial {
		out = append(out, Bucket{Name: k, UBP: v.UBP, Quantity: v.WeightKg, Count: v.Count})
	}
	sortBuckets(out)
	return out
}

func SortedCoatings(res model.CalculationResults) []Bucket {
	out := make([]Bucket, 0, len(res.ByCoating))
	for k, v := range res.ByCoating {
		out = append(out, Bucket{Name: k, UBP: v.UBP, Quantity: v.AreaM2, Count: v.Count})
	}
	sortBuckets(out)
	return out
}

func SortedTypes(res model.CalculationResults) []Bucket {
	out := make([]Bucket, 0, len(res.ByType))
	for k, v := range res.ByType {
		out = append(out, Bucket{Name: k, UBP: v.UBP, Count: v.Count})
	}
	sortBuckets(out)
	return out
}

// по UBP убыв., при равенстве по имени
func sortBuckets(b []Bucket) {
	sort.Slice(b, func(i, j int) bool {
		if b[i].UBP != b[j].UBP {
			return b[i].UBP > b[j].UBP
		}
		return b[i].Name < b[j].Name
	})
}

// Round: округление half away from zero до places знаков.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
