// Package mapping holds the reference tables that resolve HiCAD material and
// coating descriptors to Oekobilanz impact factors.
//
// A Store is built once by Load or Parse and is read-only afterwards, so a
// single instance can serve any number of concurrent calculation runs.
package mapping

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"ubp-service/internal/ubp/model"
)

// ErrMalformed marks a mapping document whose sections have the wrong shape.
var ErrMalformed = errors.New("mapping: malformed document")

// Fallback groups the matcher evaluates. Other type_fallback groups are
// loaded and listed but never matched.
const (
	FallbackFasteners = "fasteners"
	FallbackPlastic   = "plastic"
)

// Entry is a per-kilogram reference record.
type Entry struct {
	OekoID   string  `json:"oeko_id"`
	OekoName string  `json:"oeko_name"`
	UBPPerKg float64 `json:"ubp_per_kg"`
	Category string  `json:"category,omitempty"`
}

// CoatingEntry is a per-square-meter reference record.
type CoatingEntry struct {
	OekoID   string  `json:"oeko_id"`
	OekoName string  `json:"oeko_name"`
	UBPPerM2 float64 `json:"ubp_per_m2"`
}

// MaterialItem is a material table row in configured order.
type MaterialItem struct {
	Code string `json:"code"`
	Entry
}

// TypeOverride replaces an exact material match when the component type
// contains TypeKey and the material classifies as Category.
type TypeOverride struct {
	TypeKey  string         `json:"type_key"`
	Category model.Category `json:"category"`
	Entry    Entry          `json:"entry"`
}

// Fallback supplies an entry for components without a material code.
type Fallback struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Types    []string `json:"types,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Entry    Entry    `json:"entry"`
}

// CoatingRule matches when Key occurs in the coating descriptor.
type CoatingRule struct {
	Key      string        `json:"key"`
	Entry    CoatingEntry  `json:"entry"`
	Aluminum *CoatingEntry `json:"aluminum,omitempty"`
}

type Store struct {
	source    string
	materials map[string]Entry
	order     []string
	overrides []TypeOverride
	fallbacks []Fallback
	coatings  []CoatingRule
}

// Empty returns a store without any rules; every lookup reports unmatched.
func Empty() *Store {
	return &Store{materials: map[string]Entry{}}
}

// Load reads the mapping document at path. A missing file is not an error:
// the empty store is returned so the service can run in degraded mode.
func Load(path string) (*Store, error) {
	if path == "" {
		return Empty(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s := Empty()
			s.source = path
			return s, nil
		}
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	s, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", path, err)
	}
	s.source = path
	return s, nil
}

// Source is the path the store was loaded from, "" for in-memory stores.
func (s *Store) Source() string { return s.source }

// Empty reports whether the store has no rules at all.
func (s *Store) Empty() bool {
	return len(s.materials) == 0 && len(s.overrides) == 0 &&
		len(s.fallbacks) == 0 && len(s.coatings) == 0
}

// Material looks up a material code verbatim.
func (s *Store) Material(code string) (Entry, bool) {
	e, ok := s.materials[code]
	return e, ok
}

func (s *Store) Materials() []MaterialItem {
	out := make([]MaterialItem, 0, len(s.order))
	for _, code := range s.order {
		out = append(out, MaterialItem{Code: code, Entry: s.materials[code]})
	}
	return out
}

func (s *Store) TypeOverrides() []TypeOverride { return slices.Clone(s.overrides) }
func (s *Store) Fallbacks() []Fallback         { return slices.Clone(s.fallbacks) }
func (s *Store) Coatings() []CoatingRule       { return slices.Clone(s.coatings) }

// Fallback returns the group with the given name.
func (s *Store) Fallback(name string) (Fallback, bool) {
	for _, fb := range s.fallbacks {
		if fb.Name == name {
			fb.Types = slices.Clone(fb.Types)
			fb.Keywords = slices.Clone(fb.Keywords)
			return fb, true
		}
	}
	return Fallback{}, false
}

type rawEntry struct {
	OekoID   string   `yaml:"oeko_id"`
	OekoName string   `yaml:"oeko_name"`
	UBPPerKg float64  `yaml:"ubp_per_kg"`
	UBPPerM2 float64  `yaml:"ubp_per_m2"`
	Category string   `yaml:"category"`
	Types    []string `yaml:"types"`
	Keywords []string `yaml:"keywords"`
}

func (r rawEntry) entry() Entry {
	return Entry{OekoID: r.OekoID, OekoName: r.OekoName, UBPPerKg: r.UBPPerKg, Category: r.Category}
}

func (r rawEntry) coating() CoatingEntry {
	return CoatingEntry{OekoID: r.OekoID, OekoName: r.OekoName, UBPPerM2: r.UBPPerM2}
}

type document struct {
	Materials       yaml.Node `yaml:"materials"`
	TypeOverrides   yaml.Node `yaml:"type_overrides"`
	TypeFallback    yaml.Node `yaml:"type_fallback"`
	Coatings        yaml.Node `yaml:"coatings"`
	CoatingAluminum yaml.Node `yaml:"coating_aluminum_override"`
}

// Parse builds a store from a YAML (or JSON) mapping document. Mapping keys
// keep the order they have in the document: rule evaluation relies on it.
func Parse(data []byte) (*Store, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	s := Empty()

	mats, err := pairs(&doc.Materials, "materials")
	if err != nil {
		return nil, err
	}
	for _, p := range mats {
		var r rawEntry
		if err := decode(p.val, &r, "materials", p.key); err != nil {
			return nil, err
		}
		if _, dup := s.materials[p.key]; !dup {
			s.order = append(s.order, p.key)
		}
		s.materials[p.key] = r.entry()
	}

	ovs, err := pairs(&doc.TypeOverrides, "type_overrides")
	if err != nil {
		return nil, err
	}
	for _, p := range ovs {
		cats, err := pairs(p.val, "type_overrides."+p.key)
		if err != nil {
			return nil, err
		}
		for _, c := range cats {
			var r rawEntry
			if err := decode(c.val, &r, "type_overrides."+p.key, c.key); err != nil {
				return nil, err
			}
			s.overrides = append(s.overrides, TypeOverride{
				TypeKey:  p.key,
				Category: model.ParseCategory(c.key),
				Entry:    r.entry(),
			})
		}
	}

	fbs, err := pairs(&doc.TypeFallback, "type_fallback")
	if err != nil {
		return nil, err
	}
	for _, p := range fbs {
		var r rawEntry
		if err := decode(p.val, &r, "type_fallback", p.key); err != nil {
			return nil, err
		}
		s.fallbacks = append(s.fallbacks, Fallback{
			Name:     p.key,
			Category: fallbackCategory(p.key, r.Category),
			Types:    r.Types,
			Keywords: r.Keywords,
			Entry:    r.entry(),
		})
	}
	s.fallbacks = orderFallbacks(s.fallbacks)

	alu := map[string]CoatingEntry{}
	aps, err := pairs(&doc.CoatingAluminum, "coating_aluminum_override")
	if err != nil {
		return nil, err
	}
	for _, p := range aps {
		var r rawEntry
		if err := decode(p.val, &r, "coating_aluminum_override", p.key); err != nil {
			return nil, err
		}
		alu[p.key] = r.coating()
	}

	cps, err := pairs(&doc.Coatings, "coatings")
	if err != nil {
		return nil, err
	}
	for _, p := range cps {
		var r rawEntry
		if err := decode(p.val, &r, "coatings", p.key); err != nil {
			return nil, err
		}
		rule := CoatingRule{Key: p.key, Entry: r.coating()}
		if a, ok := alu[p.key]; ok {
			rule.Aluminum = &a
		}
		s.coatings = append(s.coatings, rule)
	}
	return s, nil
}

type pair struct {
	key string
	val *yaml.Node
}

// pairs returns the key/value children of a mapping node in document order.
// Absent and null sections yield nothing.
func pairs(n *yaml.Node, section string) ([]pair, error) {
	if n == nil || n.Kind == 0 {
		return nil, nil
	}
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: section %q must be a mapping (line %d)", ErrMalformed, section, n.Line)
	}
	out := make([]pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, pair{key: n.Content[i].Value, val: n.Content[i+1]})
	}
	return out, nil
}

func decode(n *yaml.Node, out *rawEntry, section, key string) error {
	if n.Kind != yaml.MappingNode && !(n.Kind == yaml.AliasNode && n.Alias != nil) {
		return fmt.Errorf("%w: %s[%q] must be a mapping (line %d)", ErrMalformed, section, key, n.Line)
	}
	if err := n.Decode(out); err != nil {
		return fmt.Errorf("%w: %s[%q]: %v", ErrMalformed, section, key, err)
	}
	return nil
}

func fallbackCategory(name, configured string) string {
	switch {
	case configured != "":
		return configured
	case name == FallbackFasteners:
		return "fastener"
	default:
		return name
	}
}

// orderFallbacks puts fasteners first and plastic second; other groups keep
// their document order behind them.
func orderFallbacks(fbs []Fallback) []Fallback {
	rank := func(f Fallback) int {
		switch f.Name {
		case FallbackFasteners:
			return 0
		case FallbackPlastic:
			return 1
		default:
			return 2
		}
	}
	slices.SortStableFunc(fbs, func(a, b Fallback) int { return rank(a) - rank(b) })
	return fbs
}
