package mapping_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubp-service/internal/ubp/mapping"
	"ubp-service/internal/ubp/model"
)

const doc = `
materials:
  S235JR: {oeko_id: "06.012", oeko_name: "Stahlprofil, blank", ubp_per_kg: 2240, category: steel}
  "304": {oeko_id: "06.018", oeko_name: Chromnickelstahl, ubp_per_kg: 7890}
  EPDM: {oeko_id: "10.008", oeko_name: EPDM, ubp_per_kg: 4150}
type_overrides:
  Kantblech:
    aluminum: {oeko_id: "99.001", oeko_name: Inert, ubp_per_kg: 1}
    steel: {oeko_id: "06.016", oeko_name: "Stahlblech, blank", ubp_per_kg: 2830}
  Bleche:
    steel: {oeko_id: "06.016", oeko_name: "Stahlblech, blank", ubp_per_kg: 2830}
type_fallback:
  glass:
    oeko_id: "01.001"
    oeko_name: Flachglas
    ubp_per_kg: 1200
    keywords: [Glas]
  plastic:
    oeko_id: "10.012"
    oeko_name: Polypropylen PP
    ubp_per_kg: 2860
    keywords: [Kunststoff]
  fasteners:
    oeko_id: "06.014"
    oeko_name: Schrauben
    ubp_per_kg: 7420
    types: [Sechskantschrauben]
    keywords: [Schraube, Mutter]
coatings:
  verzinkt: {oeko_id: "06.026", oeko_name: Galvanisch verzinkt, ubp_per_m2: 1380}
  feuerverzinkt: {oeko_id: "06.025", oeko_name: Feuerverzinkung, ubp_per_m2: 2570}
coating_aluminum_override:
  feuerverzinkt: {oeko_id: "06.027", oeko_name: Verzinkung Aluminium, ubp_per_m2: 900}
`

func TestParse(t *testing.T) {
	st, err := mapping.Parse([]byte(doc))
	require.NoError(t, err)
	assert.False(t, st.Empty())
	assert.Empty(t, st.Source())

	e, ok := st.Material("S235JR")
	require.True(t, ok)
	assert.Equal(t, mapping.Entry{OekoID: "06.012", OekoName: "Stahlprofil, blank", UBPPerKg: 2240, Category: "steel"}, e)

	_, ok = st.Material("s235jr")
	assert.False(t, ok, "lookup is case-sensitive")
	_, ok = st.Material("304")
	assert.True(t, ok)

	codes := []string{}
	for _, m := range st.Materials() {
		codes = append(codes, m.Code)
	}
	assert.Equal(t, []string{"S235JR", "304", "EPDM"}, codes)
}

func TestParse_TypeOverridesKeepOrder(t *testing.T) {
	st, err := mapping.Parse([]byte(doc))
	require.NoError(t, err)

	ovs := st.TypeOverrides()
	require.Len(t, ovs, 3)
	assert.Equal(t, "Kantblech", ovs[0].TypeKey)
	assert.Equal(t, model.CategoryAluminum, ovs[0].Category)
	assert.Equal(t, "Kantblech", ovs[1].TypeKey)
	assert.Equal(t, model.CategorySteel, ovs[1].Category)
	assert.Equal(t, 2830.0, ovs[1].Entry.UBPPerKg)
	assert.Equal(t, "Bleche", ovs[2].TypeKey)
}

func TestParse_FallbackOrder(t *testing.T) {
	st, err := mapping.Parse([]byte(doc))
	require.NoError(t, err)

	fbs := st.Fallbacks()
	require.Len(t, fbs, 3)
	assert.Equal(t, "fasteners", fbs[0].Name)
	assert.Equal(t, "fastener", fbs[0].Category)
	assert.Equal(t, []string{"Sechskantschrauben"}, fbs[0].Types)
	assert.Equal(t, []string{"Schraube", "Mutter"}, fbs[0].Keywords)
	assert.Equal(t, "plastic", fbs[1].Name)
	assert.Equal(t, "plastic", fbs[1].Category)
	assert.Equal(t, "glass", fbs[2].Name)
}

func TestParse_Coatings(t *testing.T) {
	st, err := mapping.Parse([]byte(doc))
	require.NoError(t, err)

	cs := st.Coatings()
	require.Len(t, cs, 2)
	assert.Equal(t, "verzinkt", cs[0].Key)
	assert.Nil(t, cs[0].Aluminum)
	assert.Equal(t, "feuerverzinkt", cs[1].Key)
	require.NotNil(t, cs[1].Aluminum)
	assert.Equal(t, 900.0, cs[1].Aluminum.UBPPerM2)
	assert.Equal(t, 2570.0, cs[1].Entry.UBPPerM2)
}

func TestParse_AccessorsReturnCopies(t *testing.T) {
	st, err := mapping.Parse([]byte(doc))
	require.NoError(t, err)

	ovs := st.TypeOverrides()
	ovs[0].TypeKey = "changed"
	assert.Equal(t, "Kantblech", st.TypeOverrides()[0].TypeKey)
}

func TestParse_JSON(t *testing.T) {
	st, err := mapping.Parse([]byte(`{
  "materials": {"S355J2": {"oeko_id": "06.012", "oeko_name": "Stahlprofil", "ubp_per_kg": 2240}},
  "coatings": {"Pulverb": {"oeko_id": "06.031", "oeko_name": "Pulver", "ubp_per_m2": 1910}}
}`))
	require.NoError(t, err)

	e, ok := st.Material("S355J2")
	require.True(t, ok)
	assert.Equal(t, 2240.0, e.UBPPerKg)
	assert.Len(t, st.Coatings(), 1)
	assert.Empty(t, st.Fallbacks())
}

func TestParse_NullSections(t *testing.T) {
	st, err := mapping.Parse([]byte("materials:\ntype_overrides: ~\ncoatings: null\n"))
	require.NoError(t, err)
	assert.True(t, st.Empty())
}

func TestParse_Malformed(t *testing.T) {
	tests := map[string]string{
		"not yaml":          "materials: [unclosed",
		"section is a list": "materials:\n  - S235JR\n",
		"entry is scalar":   "materials:\n  S235JR: 2240\n",
		"bad number":        "materials:\n  S235JR: {ubp_per_kg: viel}\n",
		"override scalar":   "type_overrides:\n  Bleche: steel\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := mapping.Parse([]byte(in))
			require.Error(t, err)
			assert.ErrorIs(t, err, mapping.ErrMalformed)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "material_map.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	st, err := mapping.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, st.Source())
	assert.Len(t, st.Materials(), 3)
}

func TestLoad_MissingFileIsDegraded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	st, err := mapping.Load(path)
	require.NoError(t, err)
	assert.True(t, st.Empty())
	assert.Equal(t, path, st.Source())

	st, err = mapping.Load("")
	require.NoError(t, err)
	assert.True(t, st.Empty())
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("coatings: 5\n"), 0o600))

	_, err := mapping.Load(path)
	assert.ErrorIs(t, err, mapping.ErrMalformed)
}

func TestBundledMapping(t *testing.T) {
	st, err := mapping.Load(filepath.Join("..", "..", "..", "data", "material_map.yaml"))
	require.NoError(t, err)
	require.False(t, st.Empty())

	e, ok := st.Material("S235JR")
	require.True(t, ok)
	assert.Positive(t, e.UBPPerKg)
	assert.Equal(t, "fasteners", st.Fallbacks()[0].Name)
}
