package service

import (
	"strings"

	"ubp-service/internal/ubp/mapping"
	"ubp-service/internal/ubp/model"
)

const categorySteelSheet = "steel_sheet"

// Matcher сопоставляет материал/покрытие записям Oekobilanz.
// Без состояния кроме store, безопасен для параллельного использования.
type Matcher struct {
	store *mapping.Store
}

func NewMatcher(store *mapping.Store) *Matcher {
	if store == nil {
		store = mapping.Empty()
	}
	return &Matcher{store: store}
}

func (m *Matcher) Store() *mapping.Store { return m.store }

// MatchMaterial: точное совпадение кода -> замена по типу (только сталь)
// -> fallback по типу/ключевым словам (только без кода) -> нет совпадения.
func (m *Matcher) MatchMaterial(material, typ, description string) model.MaterialMatch {
	material = strings.TrimSpace(material)
	typ = strings.TrimSpace(typ)
	description = strings.TrimSpace(description)

	if material == "" {
		if fb, ok := m.fallback(typ, description); ok {
			return fb
		}
		return model.MaterialMatch{MatchType: model.MatchNone, Reason: model.ReasonEmpty}
	}

	entry, ok := m.store.Material(material)
	if !ok {
		return model.MaterialMatch{
			MatchType:    model.MatchNone,
			Reason:       model.ReasonNoMapping,
			BaseCategory: Classify(material),
		}
	}

	base := Classify(material)
	if ov, ok := m.typeOverride(base, typ); ok {
		return model.MaterialMatch{
			Matched:      true,
			OekoID:       ov.OekoID,
			OekoName:     ov.OekoName,
			UBPPerKg:     ov.UBPPerKg,
			Category:     categorySteelSheet,
			BaseCategory: base,
			MatchType:    model.MatchTypeOverride,
		}
	}

	cat := entry.Category
	if cat == "" {
		cat = model.CategoryUnknown.String()
	}
	return model.MaterialMatch{
		Matched:      true,
		OekoID:       entry.OekoID,
		OekoName:     entry.OekoName,
		UBPPerKg:     entry.UBPPerKg,
		Category:     cat,
		BaseCategory: base,
		MatchType:    model.MatchExact,
	}
}

// typeOverride: правило срабатывает только для обычной стали.
// Правила для других категорий в таблице допустимы, но не применяются.
func (m *Matcher) typeOverride(base model.Category, typ string) (mapping.Entry, bool) {
	if typ == "" {
		return mapping.Entry{}, false
	}
	for _, rule := range m.store.TypeOverrides() {
		if !containsFold(typ, rule.TypeKey) {
			continue
		}
		if base == model.CategorySteel && rule.Category == model.CategorySteel {
			return rule.Entry, true
		}
	}
	return mapping.Entry{}, false
}

// fallback: для позиций без материала. Два этапа: крепёж (сначала тип,
// потом ключевые слова в описании), затем пластик (только описание).
// Прочие группы type_fallback в подборе не участвуют.
func (m *Matcher) fallback(typ, description string) (model.MaterialMatch, bool) {
	if fb, ok := m.store.Fallback(mapping.FallbackFasteners); ok {
		if anyFold(typ, fb.Types) || anyFold(description, fb.Keywords) {
			return fallbackMatch(fb), true
		}
	}
	if fb, ok := m.store.Fallback(mapping.FallbackPlastic); ok {
		if anyFold(description, fb.Keywords) {
			return fallbackMatch(fb), true
		}
	}
	return model.MaterialMatch{}, false
}

func fallbackMatch(fb mapping.Fallback) model.MaterialMatch {
	return model.MaterialMatch{
		Matched:   true,
		OekoID:    fb.Entry.OekoID,
		OekoName:  fb.Entry.OekoName,
		UBPPerKg:  fb.Entry.UBPPerKg,
		Category:  fb.Category,
		MatchType: model.MatchTypeFallback,
	}
}

func anyFold(s string, needles []string) bool {
	if s == "" {
		return false
	}
	for _, n := range needles {
		if containsFold(s, n) {
			return true
		}
	}
	return false
}

// MatchCoating: первое правило, чей ключ встречается в описании покрытия.
// Для алюминия берётся алюминиевая замена, если она задана.
func (m *Matcher) MatchCoating(coating, material string) model.CoatingMatch {
	if strings.TrimSpace(coating) == "" {
		return model.CoatingMatch{}
	}
	alu := IsAluminum(material)
	for _, rule := range m.store.Coatings() {
		if !containsFold(coating, rule.Key) {
			continue
		}
		if alu && rule.Aluminum != nil {
			return model.CoatingMatch{
				Matched:  true,
				OekoID:   rule.Aluminum.OekoID,
				OekoName: rule.Aluminum.OekoName,
				UBPPerM2: rule.Aluminum.UBPPerM2,
				Aluminum: true,
			}
		}
		return model.CoatingMatch{
			Matched:  true,
			OekoID:   rule.Entry.OekoID,
			OekoName: rule.Entry.OekoName,
			UBPPerM2: rule.Entry.UBPPerM2,
		}
	}
	return model.CoatingMatch{}
}
