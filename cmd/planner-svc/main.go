// Command planner-svc is the demo HTTP front door over the day-planning
// core: config load, logger/telemetry/metrics init, then a POST /v1/plan
// endpoint that runs resolve -> optimize -> schedule for one day and
// persists the result, plus GET /v1/plan/export.pdf and export.xlsx to
// render the stored plan for a date through the report package. There is
// no RPC surface here — the core packages (internal/resolver,
// internal/optimizer, internal/scheduler) are consumed as a Go library;
// this binary only exists to give that library a callable edge for manual
// testing and the report exporters.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	gmaps "googlemaps.github.io/maps"

	"dayplanner/internal/geo"
	"dayplanner/internal/persistence/postgres"
	"dayplanner/internal/provider"
	"dayplanner/internal/report"
	"dayplanner/internal/resolver"
	"dayplanner/internal/routing"
	"dayplanner/pkg/apperror"
	"dayplanner/pkg/cache"
	"dayplanner/pkg/config"
	"dayplanner/pkg/database"
	"dayplanner/pkg/logger"
	"dayplanner/pkg/metrics"
	"dayplanner/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	log := logger.WithService(cfg.App.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			log.Warn("telemetry init failed, continuing without tracing", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					log.Warn("telemetry shutdown failed", "error", err)
				}
			}()
		}
	}

	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)

	store, err := cache.New(cache.FromConfig(&cfg.Cache))
	if err != nil {
		log.Warn("cache init failed, falling back to in-memory", "error", err)
		store = cache.MustNew(cache.DefaultOptions())
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("cache close failed", "error", err)
		}
	}()

	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db.Pool()); err != nil {
			log.Error("database migration failed", "error", err)
			os.Exit(1)
		}
	}

	plannerStore := postgres.New(db, log)

	segmenter := buildSegmenter(cfg, store, log)
	resolve := buildResolver(cfg, store, log)

	h := &handler{
		store:      plannerStore,
		resolver:   resolve,
		segmenter:  segmenter,
		cfg:        cfg,
		log:        log,
		metrics:    m,
		pdf:        report.NewPDFExporter(),
		xlsx:       report.NewXLSXExporter(),
		healthPing: db.HealthCheck,
	}

	mux := http.NewServeMux()
	mux.Handle("POST /v1/plan", telemetry.HTTPMiddleware("POST /v1/plan", withMiddleware(h.handlePlan, m, log)))
	mux.Handle("GET /v1/plan/export.pdf", telemetry.HTTPMiddleware("GET /v1/plan/export.pdf", withMiddleware(h.handleExportPDF, m, log)))
	mux.Handle("GET /v1/plan/export.xlsx", telemetry.HTTPMiddleware("GET /v1/plan/export.xlsx", withMiddleware(h.handleExportXLSX, m, log)))
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.Handle("GET /metrics", metrics.Handler())

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info("planner-svc listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// buildSegmenter wires the routing.Segmenter chain: a Google distance-matrix
// segmenter (when an API key is configured) wrapping a haversine fallback,
// with the whole chain cached. Without an API key, the fallback alone is
// cached directly.
func buildSegmenter(cfg *config.Config, store cache.Cache, log *slog.Logger) routing.Segmenter {
	fallback := routing.NewHaversineFallback(cfg.Routing.FallbackSpeedKmh)

	var seg routing.Segmenter = fallback
	if cfg.Routing.APIKey != "" {
		client, err := gmaps.NewClient(gmaps.WithAPIKey(cfg.Routing.APIKey))
		if err != nil {
			log.Warn("google maps client init failed, using haversine fallback only", "error", err)
		} else {
			seg = routing.NewGoogleSegmenter(client, fallback, cfg.Routing.Timeout, log)
		}
	}

	return routing.NewCachedSegmenter(seg, store, cfg.Cache.TTL())
}

// buildResolver wires the resolver cascade's three Searcher tiers plus the
// optional LLM re-ranker, all driven off cfg.
func buildResolver(cfg *config.Config, store cache.Cache, log *slog.Logger) *resolver.Resolver {
	primary := provider.NewPrimaryGeocoder(
		cfg.PrimaryGeocoder.BaseURL,
		cfg.PrimaryGeocoder.UserAgent,
		cfg.PrimaryGeocoder.RateLimit,
		cfg.PrimaryGeocoder.Timeout,
		store,
		cfg.Cache.TTL(),
		log,
	)

	var secondary provider.Searcher
	if cfg.Resolver.PlacesEnabled && cfg.Routing.APIKey != "" {
		client, err := gmaps.NewClient(gmaps.WithAPIKey(cfg.Routing.APIKey))
		if err != nil {
			log.Warn("google places client init failed, tier B disabled", "error", err)
		} else {
			secondary = provider.NewSecondaryPlaces(client, store, cfg.Cache.TTL(), log)
		}
	}

	var webSearch provider.Searcher
	if cfg.Resolver.WebSearchEnabled {
		webSearch = provider.NewWebSearchFallback("https://www.bing.com/search", cfg.PrimaryGeocoder.Timeout, primary, log)
	}

	var llm resolver.Reranker
	if cfg.Resolver.LLMEnabled {
		if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
			llm = resolver.NewOpenAIReranker(apiKey, cfg.Resolver.LLMModel, log)
		} else {
			log.Warn("llm_enabled is set but OPENAI_API_KEY is empty, tier C disabled")
		}
	}

	return resolver.New(primary, secondary, webSearch, llm, resolver.Config{
		SimpleMode:       cfg.Resolver.SimpleMode,
		RadiusMi:         geo.KmToMi(cfg.Resolver.DefaultSearchRadiusKm),
		ExpandedRadiusMi: geo.KmToMi(cfg.Resolver.DefaultSearchRadiusKm) * 2.5,
		PlacesEnabled:    cfg.Resolver.PlacesEnabled,
		WebSearchEnabled: cfg.Resolver.WebSearchEnabled,
		LLMEnabled:       cfg.Resolver.LLMEnabled,
		MaxConcurrent:    cfg.Resolver.MaxConcurrentResolves,
	}, log)
}

func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(appErr.HTTPStatus())
		_, _ = w.Write([]byte(`{"error":"` + appErr.Error() + `"}`))
		return
	}
	log.Error("unhandled request error", "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":"internal error"}`))
}
