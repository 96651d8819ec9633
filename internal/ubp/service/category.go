package service

import (
	"strings"

	"ubp-service/internal/ubp/model"
)

var (
	stainlessMarkers = []string{"X5CRNI"}
	aluminumKeywords = []string{"AL", "ALUMINIUM", "ALUMINUM", "LEICHTMETALL", "AW-6060", "AL99"}
	steelKeywords    = []string{"S235", "S355", "STAHL", "STEEL", "METALL ALLGEMEIN"}
)

// Classify определяет базовую категорию по коду материала.
//
// Нержавейка проверяется ПЕРВОЙ: "X5CrNi18-10" и "304" не должны попасть в
// steel/aluminum, иначе к ним применится замена на листовую сталь.
func Classify(code string) model.Category {
	up := strings.ToUpper(strings.TrimSpace(code))
	if up == "" {
		return model.CategoryUnknown
	}
	if up == "304" || containsAny(up, stainlessMarkers) {
		return model.CategoryStainlessSteel
	}
	if containsAny(up, aluminumKeywords) {
		return model.CategoryAluminum
	}
	if containsAny(up, steelKeywords) {
		return model.CategorySteel
	}
	return model.CategoryUnknown
}

// IsAluminum: тот же классификатор, что и для материалов.
func IsAluminum(code string) bool { return Classify(code) == model.CategoryAluminum }

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// containsFold: регистронезависимое вхождение подстроки. Пустой needle не совпадает.
func containsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
