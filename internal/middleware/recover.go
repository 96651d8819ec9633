package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"ubp-service/internal/metrics"
)

type panicBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Recover ловит панику из хендлера расчёта/экспорта и отдаёт 500 с rid,
// чтобы запрос можно было найти в логе. http.ErrAbortHandler пробрасываем.
func Recover(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				rid := GetRequestID(r)
				metrics.IncPanic()
				logger.Error().
					Str("rid", rid).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("panic", fmt.Sprint(rec)).
					Bytes("stack", debug.Stack()).
					Msg("handler panic")

				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(panicBody{Error: "internal", RequestID: rid})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
