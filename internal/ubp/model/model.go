package model

// Category: грубая классификация материала по его коду.
type Category int

const (
	CategoryUnknown Category = iota
	CategorySteel
	CategoryStainlessSteel
	CategoryAluminum
)

func (c Category) String() string {
	switch c {
	case CategorySteel:
		return "steel"
	case CategoryStainlessSteel:
		return "stainless_steel"
	case CategoryAluminum:
		return "aluminum"
	default:
		return "unknown"
	}
}

// ParseCategory принимает имена из конфигурации ("steel", "stainless_steel", ...).
func ParseCategory(s string) Category {
	switch s {
	case "steel":
		return CategorySteel
	case "stainless_steel", "stainless":
		return CategoryStainlessSteel
	case "aluminum", "aluminium":
		return CategoryAluminum
	default:
		return CategoryUnknown
	}
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// MatchType: откуда взялось совпадение материала (только для диагностики).
type MatchType string

const (
	MatchNone         MatchType = "none"
	MatchExact        MatchType = "exact"
	MatchTypeOverride MatchType = "type_override"
	MatchTypeFallback MatchType = "type_fallback"
)

// UnmatchedReason: почему материал не сопоставлен.
type UnmatchedReason string

const (
	ReasonNone      UnmatchedReason = ""
	ReasonEmpty     UnmatchedReason = "empty"
	ReasonNoMapping UnmatchedReason = "no_mapping"
)

// ComponentRecord: одна строка Mengenliste.
type ComponentRecord struct {
	Pos         float64 // номер позиции
	Count       int     // Anzahl
	Description string  // Bezeichnung
	Material    string
	Type        string // Typ
	Coating     string // Beschichtung
	WeightKg    float64 // Ges.gew.
	AreaM2      float64 // Fl. (m²)
}

type MaterialMatch struct {
	Matched      bool
	OekoID       string
	OekoName     string
	UBPPerKg     float64
	Category     string   // категория записи ("steel", "steel_sheet", "fastener", ...)
	BaseCategory Category // классификация кода материала
	MatchType    MatchType
	Reason       UnmatchedReason
}

type CoatingMatch struct {
	Matched  bool
	OekoID   string
	OekoName string
	UBPPerM2 float64
	Aluminum bool // применена алюминиевая замена
}

type ComponentResult struct {
	Pos         float64 `json:"pos"`
	Count       int     `json:"anzahl"`
	Description string  `json:"bezeichnung"`
	Material    string  `json:"material"`
	Type        string  `json:"typ"`
	Coating     string  `json:"beschichtung"`
	WeightKg    float64 `json:"ges_gewicht_kg"`
	AreaM2      float64 `json:"flaeche_m2"`

	MaterialMatched  bool      `json:"material_matched"`
	MaterialOekoName string    `json:"material_oeko_name,omitempty"`
	MaterialUBPPerKg float64   `json:"material_ubp_per_kg,omitempty"`
	MatchType        MatchType `json:"match_type"`

	CoatingMatched  bool    `json:"coating_matched"`
	CoatingOekoName string  `json:"coating_oeko_name,omitempty"`
	CoatingUBPPerM2 float64 `json:"coating_ubp_per_m2,omitempty"`

	UBPMaterial float64 `json:"ubp_material"`
	UBPCoating  float64 `json:"ubp_coating"`
	UBPTotal    float64 `json:"ubp_total"`

	UnmatchedReason UnmatchedReason `json:"unmatched_reason,omitempty"`
}

type MaterialBucket struct {
	UBP      float64 `json:"ubp"`
	WeightKg float64 `json:"weight_kg"`
	Count    int     `json:"count"`
}

type CoatingBucket struct {
	UBP    float64 `json:"ubp"`
	AreaM2 float64 `json:"area_m2"`
	Count  int     `json:"count"`
}

type TypeBucket struct {
	UBP   float64 `json:"ubp"`
	Count int     `json:"count"`
}

type UnmatchedItem struct {
	Pos      float64         `json:"pos"`
	Material string          `json:"material"`
	Type     string          `json:"typ"`
	WeightKg float64         `json:"weight_kg"`
	Reason   UnmatchedReason `json:"reason"`
}

// CalculationResults: итог одного прогона. После Calculate не меняется.
type CalculationResults struct {
	Components []ComponentResult `json:"components"`

	TotalUBP          float64 `json:"total_ubp"`
	TotalWeightKg     float64 `json:"total_weight_kg"`
	TotalAreaM2       float64 `json:"total_area_m2"`
	ComponentsMatched int     `json:"components_matched"`
	ComponentsTotal   int     `json:"components_total"`
	MatchRate         float64 `json:"match_rate"`

	ByMaterial map[string]MaterialBucket `json:"by_material"`
	ByCoating  map[string]CoatingBucket  `json:"by_coating"`
	ByType     map[string]TypeBucket     `json:"by_type"`
	Unmatched  []UnmatchedItem           `json:"unmatched"`
}
