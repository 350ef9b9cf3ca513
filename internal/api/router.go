package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/noticehub/notice-dispatch/internal/api/handler"
	apimw "github.com/noticehub/notice-dispatch/internal/api/middleware"
	"github.com/noticehub/notice-dispatch/internal/broadcast"
	"github.com/noticehub/notice-dispatch/internal/config"
	"github.com/noticehub/notice-dispatch/internal/store"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	s *store.NoticeStore,
	bc *broadcast.Broadcaster,
	cfg *config.Config,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	nh := handler.NewNoticeHandler(s, logger)
	sh := handler.NewStreamHandler(bc, cfg.WriteDeadline, logger)
	wh := handler.NewWSHandler(bc, cfg.WriteDeadline, logger)
	mh := handler.NewMetricsHandler(s, bc)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Notices — note: /search must be registered before /{id} so chi
		// does not treat the literal string "search" as an ID.
		r.Get("/notices/search", nh.Search)
		r.Post("/notices", nh.Create)
		r.Get("/notices", nh.List)
		r.Get("/notices/{id}", nh.GetByID)
		r.Post("/notices/{id}/transitions", nh.Transition)

		// Subscriber streams
		r.Get("/events", sh.Subscribe)
		r.Get("/events/ws", wh.Subscribe)

		// JSON metrics snapshot
		r.Get("/metrics", mh.GetMetrics)
	})

	return r
}
