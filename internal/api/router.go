package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Strategix/internal/config"
	"github.com/MikeSquared-Agency/Strategix/internal/hermes"
)

func NewRouter(a Analyzer, adv Advisor, h hermes.Client, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	analyze := NewAnalyzeHandler(a, adv, hermes.NewEmitter(h, logger), logger)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"service": "strategix",
			"message": "Strategix decision and sensitivity analysis API",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.With(RateLimitMiddleware(cfg.Server.RequestsPerMinute)).Post("/analyze", analyze.Analyze)
		r.Get("/scenarios", analyze.Scenarios)
	})

	return r
}

// NewMetricsRouter serves /health and /metrics from gatherer.
func NewMetricsRouter(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
