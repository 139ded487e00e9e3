package api

import (
	"context"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexh/focus/internal/api/handlers"
	mw "github.com/nexh/focus/internal/api/middleware"
	"github.com/nexh/focus/internal/buildconfig"
	"github.com/nexh/focus/internal/config"
	"github.com/nexh/focus/internal/domain"
	"github.com/nexh/focus/internal/llm"
	"github.com/nexh/focus/internal/service"
	"github.com/nexh/focus/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the stores and clients the application is built from. Cache and
// Drafts are optional.
type Deps struct {
	Tenants    domain.TenantStore
	Candidates domain.CandidateStore
	Actions    domain.ActionLogStore
	Snapshots  domain.SnapshotReader
	Cache      domain.ReportCache
	Drafts     domain.DraftGenerator
	Ping       func(ctx context.Context) error
}

// StoreDeps returns Deps backed by postgres.
func StoreDeps(db *pgxpool.Pool) Deps {
	return Deps{
		Tenants:    store.NewTenantStore(db),
		Candidates: store.NewCandidateStore(db),
		Actions:    store.NewActionLogStore(db),
		Snapshots:  store.NewSnapshotStore(db),
		Ping:       db.Ping,
	}
}

// App holds the router and background services for lifecycle management.
type App struct {
	Router       *chi.Mux
	Briefing     *service.BriefingService
	Focus        *service.FocusService
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(deps Deps, logger *zap.Logger) *App {
	// Services
	tenantSvc := service.NewTenantService(deps.Tenants)
	candidateSvc := service.NewCandidateService(deps.Candidates)
	actionSvc := service.NewActionLogService(deps.Actions, deps.Candidates, logger)
	focusSvc := service.NewFocusService(deps.Tenants, deps.Snapshots, logger)
	if deps.Cache != nil {
		focusSvc.SetReportCache(deps.Cache)
	}
	if deps.Drafts != nil {
		focusSvc.SetDraftGenerator(deps.Drafts)
	}

	briefingSvc := service.NewBriefingService(deps.Tenants, focusSvc, logger)
	briefingSvc.SetInterval(config.BriefingInterval())
	briefingSvc.SetOffset(config.BriefingOffset())
	briefingSvc.SetConcurrency(config.BriefingConcurrency())
	briefingSvc.SetDrafts(config.BriefingDrafts())

	// Handlers
	tenantHandler := handlers.NewTenantHandler(tenantSvc, focusSvc)
	candidateHandler := handlers.NewCandidateHandler(candidateSvc, focusSvc)
	focusHandler := handlers.NewFocusHandler(focusSvc)
	actionHandler := handlers.NewActionHandler(actionSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Briefing:  briefingSvc,
		Focus:     focusSvc,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Unauthenticated
	r.Get("/health", healthHandler(deps.Ping))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/status", app.statusHandler())

	// Tenant creation (bootstrap endpoint)
	r.Post("/v1/tenants", tenantHandler.Create)

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(deps.Tenants))

		r.Get("/tenant/config", tenantHandler.GetConfig)
		r.Put("/tenant/config", tenantHandler.UpdateConfig)

		r.Route("/candidates", func(r chi.Router) {
			r.Post("/", candidateHandler.Create)
			r.Get("/", candidateHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", candidateHandler.GetByID)
				r.Put("/status", candidateHandler.UpdateStatus)
				r.Post("/interactions", candidateHandler.RecordInteraction)
			})
		})

		r.Get("/focus", focusHandler.Get)

		r.Route("/actions", func(r chi.Router) {
			r.Post("/", actionHandler.Record)
			r.Get("/", actionHandler.List)
		})
	})

	return app
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (app *App) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		writeJSON(w, http.StatusOK, map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": float64(memStats.Alloc) / 1024 / 1024,
				"sys_mb":   float64(memStats.Sys) / 1024 / 1024,
				"num_gc":   memStats.NumGC,
			},
			"build":      buildconfig.VersionInfo(),
			"go_version": runtime.Version(),
		})
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.TenantStore    = (*store.TenantStore)(nil)
	_ domain.CandidateStore = (*store.CandidateStore)(nil)
	_ domain.ActionLogStore = (*store.ActionLogStore)(nil)
	_ domain.SnapshotReader = (*store.SnapshotStore)(nil)
	_ domain.ReportCache    = (*store.RedisReportCache)(nil)
	_ domain.DraftGenerator = (*llm.GeminiClient)(nil)
	_ domain.DraftGenerator = (*llm.MockClient)(nil)
	_ domain.DraftGenerator = llm.TemplateGenerator{}
)
