package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"ubp-service/internal/fileio"
	"ubp-service/internal/ubp/model"
	"ubp-service/internal/utils"
)

// Колонки Mengenliste. Альтернативы через "|", первая основная.
const (
	ColPos         = "Pos.|Pos|Position"
	ColCount       = "Anzahl|Stk|Stück"
	ColDescription = "Bezeichnung"
	ColMaterial    = "Material"
	ColType        = "Typ"
	ColCoating     = "Beschichtung"
	ColArea        = "Fl. (m²)|Fläche (m²)|Fläche"
	ColWeight      = "Ges.gew.|Gesamtgewicht|Ges. Gewicht"
)

// ErrMissingColumn: в таблице нет обязательной колонки.
var ErrMissingColumn = errors.New("missing column")

// ParseStats: что отбросили/починили при разборе.
type ParseStats struct {
	Rows           int            `json:"rows"`
	Skipped        int            `json:"skipped"`
	InvalidNumbers map[string]int `json:"invalid_numbers,omitempty"`
}

type columns struct {
	pos, count, desc, material, typ, coating, area, weight string
}

// ToRecords превращает таблицу Mengenliste в записи компонентов.
// Строки с пустой позицией (шапки, пустые строки) пропускаются;
// нечисловая позиция даёт pos 0 и считается в InvalidNumbers.
// Неразбираемые вес/площадь дают 0.0, не NaN.
// Без колонки позиции таблица считается структурно неверной.
func ToRecords(t *fileio.Table, logger zerolog.Logger) ([]model.ComponentRecord, ParseStats, error) {
	stats := ParseStats{InvalidNumbers: map[string]int{}}
	if t == nil || len(t.Records) == 0 {
		return []model.ComponentRecord{}, stats, nil
	}
	cols := columns{
		pos:      resolveKey(t.Headers, ColPos),
		count:    resolveKey(t.Headers, ColCount),
		desc:     resolveKey(t.Headers, ColDescription),
		material: resolveKey(t.Headers, ColMaterial),
		typ:      resolveKey(t.Headers, ColType),
		coating:  resolveKey(t.Headers, ColCoating),
		area:     resolveKey(t.Headers, ColArea),
		weight:   resolveKey(t.Headers, ColWeight),
	}
	if cols.pos == "" {
		return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumn, primary(ColPos))
	}
	logger.Debug().
		Str("pos", cols.pos).Str("material", cols.material).Str("typ", cols.typ).
		Str("weight", cols.weight).Str("area", cols.area).
		Msg("mengenliste columns resolved")

	out := make([]model.ComponentRecord, 0, len(t.Records))
	for _, rec := range t.Records {
		rawPos := cell(rec, cols.pos)
		if rawPos == "" {
			stats.Skipped++
			continue
		}
		r := model.ComponentRecord{
			Count:       1,
			Description: cell(rec, cols.desc),
			Material:    cell(rec, cols.material),
			Type:        cell(rec, cols.typ),
			Coating:     cell(rec, cols.coating),
		}
		if pos, ok := utils.ParseFloatDE(rawPos); ok {
			r.Pos = pos
		} else {
			// позиция не число ("Summe", "A-Teil"): строку оставляем, pos = 0
			stats.InvalidNumbers["pos"]++
		}
		if n, ok := count(rec, cols.count, &stats); ok {
			r.Count = n
		}
		r.WeightKg = number(rec, cols.weight, "ges_gewicht_kg", &stats)
		r.AreaM2 = number(rec, cols.area, "flaeche_m2", &stats)
		out = append(out, r)
	}
	stats.Rows = len(out)
	for col, n := range stats.InvalidNumbers {
		logger.Warn().Str("column", col).Int("count", n).Msg("values could not be converted to numeric")
	}
	return out, stats, nil
}

func primary(want string) string {
	if i := strings.Index(want, "|"); i >= 0 {
		return want[:i]
	}
	return want
}

// maxCount: выше этого Anzahl считаем мусором.
const maxCount = 1_000_000_000

func count(rec map[string]string, key string, stats *ParseStats) (int, bool) {
	raw := cell(rec, key)
	if raw == "" {
		return 0, false
	}
	v, ok := utils.ParseFloatDE(raw)
	if !ok || v < -maxCount || v > maxCount {
		stats.InvalidNumbers["anzahl"]++
		return 0, false
	}
	return int(v), true
}

func number(rec map[string]string, key, name string, stats *ParseStats) float64 {
	raw := cell(rec, key)
	if raw == "" {
		return 0
	}
	v, ok := utils.ParseFloatDE(raw)
	if !ok {
		stats.InvalidNumbers[name]++
		return 0
	}
	return v
}

func cell(rec map[string]string, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSpace(rec[key])
}

var rxHeaderJunk = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// нормализуем имя колонки: нижний регистр, без служ.символов, ² -> 2
func normHeaderKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("\u00A0", " ", "²", "2", "ß", "ss").Replace(s)
	s = rxHeaderJunk.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveKey ищет реальный заголовок по желаемому имени ("a|b|c").
// Порядок: точное -> нормализованное точное -> вхождение (лучшее по длине).
// Заголовки перебираются по порядку колонок, так что результат детерминирован.
func resolveKey(headers []string, want string) string {
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}
	for _, a := range alts {
		for _, h := range headers {
			if h == a {
				return h
			}
		}
	}
	norm := make([]string, 0, len(alts))
	for _, a := range alts {
		if n := normHeaderKey(a); n != "" {
			norm = append(norm, n)
		}
	}
	for _, n := range norm {
		for _, h := range headers {
			if normHeaderKey(h) == n {
				return h
			}
		}
	}
	bestKey, bestScore := "", 0
	for _, h := range headers {
		nh := normHeaderKey(h)
		if nh == "" {
			continue
		}
		for _, n := range norm {
			if strings.Contains(nh, n) && len(n) > bestScore {
				bestScore, bestKey = len(n), h
			}
		}
	}
	return bestKey
}
