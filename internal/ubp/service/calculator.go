package service

import (
	"math"

	"github.com/rs/zerolog"

	"ubp-service/internal/ubp/model"
)

const unknownBucket = "Unknown"

// Calculator считает UBP по компонентам и сворачивает агрегаты.
type Calculator struct {
	matcher *Matcher
	log     zerolog.Logger
}

func NewCalculator(m *Matcher, logger zerolog.Logger) *Calculator {
	if m == nil {
		m = NewMatcher(nil)
	}
	return &Calculator{matcher: m, log: logger}
}

func (c *Calculator) Matcher() *Matcher { return c.matcher }

// Calculate: один прогон. Порядок компонентов сохраняется,
// результат создаётся заново на каждый вызов.
func (c *Calculator) Calculate(records []model.ComponentRecord) model.CalculationResults {
	res := model.CalculationResults{
		Components:      make([]model.ComponentResult, 0, len(records)),
		ComponentsTotal: len(records),
		ByMaterial:      map[string]model.MaterialBucket{},
		ByCoating:       map[string]model.CoatingBucket{},
		ByType:          map[string]model.TypeBucket{},
		Unmatched:       []model.UnmatchedItem{},
	}

	for _, rec := range records {
		cr := c.component(rec)
		res.Components = append(res.Components, cr)

		res.TotalUBP += cr.UBPTotal
		res.TotalWeightKg += cr.WeightKg
		res.TotalAreaM2 += cr.AreaM2

		if cr.MaterialMatched {
			res.ComponentsMatched++

			name := orUnknown(cr.MaterialOekoName)
			mb := res.ByMaterial[name]
			mb.UBP += cr.UBPMaterial
			mb.WeightKg += cr.WeightKg
			mb.Count++
			res.ByMaterial[name] = mb

			typ := orUnknown(cr.Type)
			tb := res.ByType[typ]
			tb.UBP += cr.UBPTotal
			tb.Count++
			res.ByType[typ] = tb
		} else {
			res.Unmatched = append(res.Unmatched, model.UnmatchedItem{
				Pos:      cr.Pos,
				Material: cr.Material,
				Type:     cr.Type,
				WeightKg: cr.WeightKg,
				Reason:   cr.UnmatchedReason,
			})
		}

		if cr.CoatingMatched {
			name := orUnknown(cr.CoatingOekoName)
			cb := res.ByCoating[name]
			cb.UBP += cr.UBPCoating
			cb.AreaM2 += cr.AreaM2
			cb.Count++
			res.ByCoating[name] = cb
		}
	}

	if res.ComponentsTotal > 0 {
		res.MatchRate = float64(res.ComponentsMatched) / float64(res.ComponentsTotal)
	}
	return res
}

func (c *Calculator) component(rec model.ComponentRecord) model.ComponentResult {
	weight := c.sanitize(rec.WeightKg, rec.Pos, "ges_gewicht_kg")
	area := c.sanitize(rec.AreaM2, rec.Pos, "flaeche_m2")

	cr := model.ComponentResult{
		Pos:         rec.Pos,
		Count:       rec.Count,
		Description: rec.Description,
		Material:    rec.Material,
		Type:        rec.Type,
		Coating:     rec.Coating,
		WeightKg:    weight,
		AreaM2:      area,
	}

	mm := c.matcher.MatchMaterial(rec.Material, rec.Type, rec.Description)
	cr.MatchType = mm.MatchType
	if mm.Matched {
		cr.MaterialMatched = true
		cr.MaterialOekoName = mm.OekoName
		cr.MaterialUBPPerKg = mm.UBPPerKg
		cr.UBPMaterial = weight * mm.UBPPerKg
	} else {
		cr.UnmatchedReason = mm.Reason
	}

	cm := c.matcher.MatchCoating(rec.Coating, rec.Material)
	if cm.Matched {
		cr.CoatingMatched = true
		cr.CoatingOekoName = cm.OekoName
		cr.CoatingUBPPerM2 = cm.UBPPerM2
		cr.UBPCoating = area * cm.UBPPerM2
	}

	cr.UBPTotal = cr.UBPMaterial + cr.UBPCoating
	return cr
}

// sanitize: NaN/Inf от парсера -> 0 с предупреждением.
func (c *Calculator) sanitize(v, pos float64, field string) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		c.log.Warn().Float64("pos", pos).Str("field", field).Msg("non-numeric value, using 0")
		return 0
	}
	return v
}

func orUnknown(s string) string {
	if s == "" {
		return unknownBucket
	}
	return s
}
