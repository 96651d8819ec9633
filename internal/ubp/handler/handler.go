package handler

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ubp-service/internal/config"
	"ubp-service/internal/fileio"
	"ubp-service/internal/metrics"
	"ubp-service/internal/middleware"
	"ubp-service/internal/ubp/export"
	"ubp-service/internal/ubp/mapping"
	"ubp-service/internal/ubp/model"
	"ubp-service/internal/ubp/oekobilanz"
	"ubp-service/internal/ubp/service"
)

const (
	defaultTop     = 15
	maxMemoryBytes = 32 << 20
)

// Deps — всё, что нужно обработчикам. Store и Catalog только читаются.
type Deps struct {
	Cfg     config.Config
	Logger  zerolog.Logger
	Calc    *service.Calculator
	Catalog *oekobilanz.Catalog // nil, если книга KBOB не найдена
}

type calculateResponse struct {
	File                string                    `json:"file"`
	Sheet               string                    `json:"sheet"`
	Degraded            bool                      `json:"degraded"`
	Parse               service.ParseStats        `json:"parse"`
	Summary             service.Summary           `json:"summary"`
	Components          []service.Row             `json:"components"`
	ByMaterial          []service.Bucket          `json:"by_material"`
	ByCoating           []service.Bucket          `json:"by_coating"`
	ByType              []service.Bucket          `json:"by_type"`
	Top                 []service.RankedComponent `json:"top"`
	Unmatched           []model.UnmatchedItem     `json:"unmatched"`
	UnmatchedByMaterial []service.UnmatchedGroup  `json:"unmatched_by_material"`
}

// Calculate: POST /calculate, multipart-поле "file" (+ sheet, header_row, top,
// only_matched, sort_by).
func Calculate(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := d.Logger.With().Str("rid", middleware.GetRequestID(r)).Logger()

		run, status, err := d.run(r, log)
		if err != nil {
			metrics.ObserveCalculation(metrics.ResultError, time.Since(start))
			writeError(w, log, status, err.Error())
			return
		}
		res := run.Results
		metrics.ObserveCalculation(metrics.ResultSuccess, time.Since(start))
		metrics.ObserveComponents(res)

		rows := service.Rows(res)
		if toBool(r.FormValue("only_matched"), false) {
			rows = onlyMatched(rows)
		}
		sortRows(rows, formValue(r, "sort_by"))

		writeJSON(w, log, http.StatusOK, calculateResponse{
			File:                run.File,
			Sheet:               run.Sheet,
			Degraded:            d.Calc.Matcher().Store().Empty(),
			Parse:               run.Parse,
			Summary:             service.Summarize(res),
			Components:          rows,
			ByMaterial:          service.SortedMaterials(res),
			ByCoating:           service.SortedCoatings(res),
			ByType:              service.SortedTypes(res),
			Top:                 service.TopN(res, atoi(r.FormValue("top"), defaultTop)),
			Unmatched:           res.Unmatched,
			UnmatchedByMaterial: service.UnmatchedByMaterial(res),
		})

		log.Info().
			Str("file", run.File).
			Int("components", res.ComponentsTotal).
			Int("matched", res.ComponentsMatched).
			Float64("total_ubp", res.TotalUBP).
			Dur("elapsed", time.Since(start)).
			Msg("calculation done")
	}
}

// Export: POST /export?format=csv|xlsx|pdf с тем же файлом, что и /calculate.
func Export(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := d.Logger.With().Str("rid", middleware.GetRequestID(r)).Logger()

		format, err := export.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			metrics.IncExport("unknown", metrics.ResultError)
			writeError(w, log, http.StatusBadRequest, err.Error())
			return
		}

		run, status, err := d.run(r, log)
		if err != nil {
			metrics.ObserveCalculation(metrics.ResultError, time.Since(start))
			metrics.IncExport(string(format), metrics.ResultError)
			writeError(w, log, status, err.Error())
			return
		}
		metrics.ObserveCalculation(metrics.ResultSuccess, time.Since(start))
		metrics.ObserveComponents(run.Results)

		body, err := export.Render(format, run.Results)
		if err != nil {
			metrics.IncExport(string(format), metrics.ResultError)
			log.Error().Err(err).Str("format", string(format)).Msg("export failed")
			writeError(w, log, http.StatusInternalServerError, "export failed")
			return
		}
		metrics.IncExport(string(format), metrics.ResultSuccess)

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename()))
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(body); err != nil {
			log.Error().Err(err).Msg("write export")
			return
		}
		log.Info().Str("format", string(format)).Int("bytes", len(body)).
			Dur("elapsed", time.Since(start)).Msg("export done")
	}
}

type mappingsResponse struct {
	Source        string                 `json:"source"`
	Degraded      bool                   `json:"degraded"`
	Materials     []mapping.MaterialItem `json:"materials"`
	TypeOverrides []mapping.TypeOverride `json:"type_overrides"`
	Fallbacks     []mapping.Fallback     `json:"type_fallback"`
	Coatings      []mapping.CoatingRule  `json:"coatings"`
}

// Mappings: GET /mappings — поддерживаемые материалы и покрытия.
func Mappings(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := d.Calc.Matcher().Store()
		writeJSON(w, d.Logger, http.StatusOK, mappingsResponse{
			Source:        st.Source(),
			Degraded:      st.Empty(),
			Materials:     st.Materials(),
			TypeOverrides: st.TypeOverrides(),
			Fallbacks:     st.Fallbacks(),
			Coatings:      st.Coatings(),
		})
	}
}

// Reference: GET /reference/{id} — запись базы KBOB по ID ("06.012").
func Reference(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Catalog == nil {
			writeError(w, d.Logger, http.StatusServiceUnavailable, "oekobilanz database not loaded")
			return
		}
		id := chi.URLParam(r, "id")
		m, ok := d.Catalog.Lookup(id)
		if !ok {
			writeError(w, d.Logger, http.StatusNotFound, fmt.Sprintf("unknown oekobilanz id %q", id))
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, m)
	}
}

// run — общий путь: multipart -> таблица -> записи -> расчёт.
func (d Deps) run(r *http.Request, log zerolog.Logger) (service.RunResult, int, error) {
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		return service.RunResult{}, uploadStatus(err), fmt.Errorf("bad multipart form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return service.RunResult{}, http.StatusBadRequest, fmt.Errorf("missing file: %w", err)
	}
	defer file.Close()

	opt := fileio.Options{
		Sheet:     d.Cfg.Sheet,
		HeaderRow: atoi(r.FormValue("header_row"), d.Cfg.HeaderRow),
	}
	if s := formValue(r, "sheet"); s != "" {
		opt.Sheet = s
	}

	run, err := d.Calc.Run(file, header.Filename, opt)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrMissingColumn) {
			status = http.StatusUnprocessableEntity
		}
		log.Warn().Err(err).Str("file", header.Filename).Msg("mengenliste rejected")
		return service.RunResult{}, status, err
	}
	return run, http.StatusOK, nil
}

func onlyMatched(rows []service.Row) []service.Row {
	out := rows[:0]
	for _, r := range rows {
		if r.MaterialMatched {
			out = append(out, r)
		}
	}
	return out
}

// sortRows: по умолчанию по UBP (убыв.), как таблица в отчёте;
// "pos" — по номеру позиции, "input" — исходный порядок.
func sortRows(rows []service.Row, by string) {
	var less func(a, b service.Row) bool
	switch strings.ToLower(by) {
	case "input":
		return
	case "pos":
		less = func(a, b service.Row) bool { return a.Pos < b.Pos }
	case "weight", "gewicht":
		less = func(a, b service.Row) bool { return a.WeightKg > b.WeightKg }
	default:
		less = func(a, b service.Row) bool { return a.UBPTotal > b.UBPTotal }
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
}
