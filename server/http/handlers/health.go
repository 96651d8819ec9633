package handlers

import (
	"encoding/json"
	"net/http"

	"ubp-service/internal/ubp/mapping"
	"ubp-service/internal/ubp/oekobilanz"
)

type healthResponse struct {
	Status     string `json:"status"`
	Mapping    string `json:"mapping"`
	Materials  int    `json:"materials"`
	Oekobilanz string `json:"oekobilanz"`
}

// Health отвечает 200 и в деградированном режиме: расчёт работает, просто всё "не сопоставлено".
func Health(store *mapping.Store, catalog *oekobilanz.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Mapping: "loaded", Oekobilanz: "missing"}
		if store == nil || store.Empty() {
			resp.Status = "degraded"
			resp.Mapping = "missing"
		} else {
			resp.Materials = len(store.Materials())
		}
		if catalog != nil {
			resp.Oekobilanz = "loaded"
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
