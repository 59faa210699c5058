// Package chi serves the diagnostic HTTP endpoints next to the stdio
// transport: health and Prometheus metrics.
package chi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atlascope/solrbridge/internal/logger"
	"github.com/atlascope/solrbridge/internal/metrics"
	healthuc "github.com/atlascope/solrbridge/internal/usecase/health"
)

// healthResponse is the JSON body of GET /health.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// NewRouter builds the diagnostic router.
func NewRouter(health *healthuc.Service, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(logger.ContextWithLogger(req.Context(), log)))
		})
	})

	r.Get("/health", healthHandler(health))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

func healthHandler(health *healthuc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := health.Check(r.Context())

		checks := make(map[string]string, len(report.Checks))
		for name, result := range report.Checks {
			checks[name] = string(result)
		}

		status := http.StatusOK
		if report.Status != healthuc.Healthy {
			status = http.StatusServiceUnavailable
			logger.FromContext(r.Context()).Warn("health check failed",
				zap.String("status", string(report.Status)))
		}

		writeJSON(w, status, healthResponse{
			Status: string(report.Status),
			Checks: checks,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
