// Package httpx holds HTTP middleware shared by the dashboard server.
package httpx

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mfreeman451/iotdash/pkg/logger"
)

// CommonMiddleware returns an http.Handler that sets up typical
// headers (CORS, etc.) before calling the next handler.
func CommonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Observer receives one call per finished request.
type Observer interface {
	ObserveHTTP(route string, code int)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument reports each request under its mux route name and logs it at debug.
func Instrument(obs Observer, log logger.Logger) mux.MiddlewareFunc {
	if log == nil {
		log = logger.Nop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := "unmatched"
			if cur := mux.CurrentRoute(r); cur != nil && cur.GetName() != "" {
				route = cur.GetName()
			}

			if obs != nil {
				obs.ObserveHTTP(route, rec.code)
			}

			log.Debug(r.Context(), "http request",
				logger.String("method", r.Method),
				logger.String("route", route),
				logger.Int("code", rec.code),
				logger.Duration("duration", time.Since(start)))
		})
	}
}
