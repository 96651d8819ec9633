package service_test

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"ubp-service/internal/ubp/mapping"
	"ubp-service/internal/ubp/service"
)

const fixtureMap = `
materials:
  S235JR:
    oeko_id: "06.012"
    oeko_name: Stahlprofil, blank
    ubp_per_kg: 2240
    category: steel
  X5CrNi18-10:
    oeko_id: "06.018"
    oeko_name: Chromnickelstahl
    ubp_per_kg: 7890
    category: stainless_steel
  "304":
    oeko_id: "06.018"
    oeko_name: Chromnickelstahl
    ubp_per_kg: 7890
    category: stainless_steel
  EN AW-6060:
    oeko_id: "06.002"
    oeko_name: Aluminiumprofil
    ubp_per_kg: 13000
    category: aluminum
  EPDM:
    oeko_id: "10.008"
    oeko_name: EPDM
    ubp_per_kg: 4150
type_overrides:
  Bleche:
    steel:
      oeko_id: "06.016"
      oeko_name: Stahlblech, blank
      ubp_per_kg: 2830
  Kantblech:
    aluminum:
      oeko_id: "99.001"
      oeko_name: Inert Aluminium
      ubp_per_kg: 1
    steel:
      oeko_id: "06.016"
      oeko_name: Stahlblech, blank
      ubp_per_kg: 2830
type_fallback:
  plastic:
    oeko_id: "10.012"
    oeko_name: Polypropylen PP
    ubp_per_kg: 2860
    keywords: [Kunststoff]
  fasteners:
    oeko_id: "06.014"
    oeko_name: Schrauben
    ubp_per_kg: 7420
    types: [Sechskantschrauben, Scheiben]
    keywords: [Schraube]
coatings:
  feuerverzinkt:
    oeko_id: "06.025"
    oeko_name: Feuerverzinkung
    ubp_per_m2: 2570
  verzinkt:
    oeko_id: "06.026"
    oeko_name: Galvanisch verzinkt
    ubp_per_m2: 1380
  Pulverb:
    oeko_id: "06.031"
    oeko_name: Pulverbeschichtung Stahl
    ubp_per_m2: 1910
coating_aluminum_override:
  feuerverzinkt:
    oeko_id: "06.027"
    oeko_name: Verzinkung Aluminium
    ubp_per_m2: 900
`

func fixtureStore(t *testing.T) *mapping.Store {
	t.Helper()
	st, err := mapping.Parse([]byte(fixtureMap))
	require.NoError(t, err)
	return st
}

func newMatcher(t *testing.T) *service.Matcher {
	t.Helper()
	return service.NewMatcher(fixtureStore(t))
}

func newCalculator(t *testing.T) *service.Calculator {
	t.Helper()
	return service.NewCalculator(newMatcher(t), zerolog.New(io.Discard))
}
