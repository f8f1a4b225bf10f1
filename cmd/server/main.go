package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edushell/portal/internal/api"
	"github.com/edushell/portal/internal/browsing"
	"github.com/edushell/portal/internal/catalog"
	"github.com/edushell/portal/internal/collection"
	"github.com/edushell/portal/internal/exercisesession"
	"github.com/edushell/portal/internal/identity"
	"github.com/edushell/portal/internal/infrastructure/config"
	"github.com/edushell/portal/internal/metrics"
	"github.com/edushell/portal/internal/store"
	"github.com/edushell/portal/internal/worker"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Dependencies ────────────────────────────────────────────────
	db, err := store.NewSQLite(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.SeedFile != "" {
		res, err := catalog.SeedIfEmpty(ctx, db, cfg.SeedFile)
		if err != nil {
			logger.Error("failed to seed catalog", "file", cfg.SeedFile, "error", err)
			os.Exit(1)
		}
		if res.ExercisesSaved > 0 {
			logger.Info("catalog seeded", "exercises", res.ExercisesSaved, "courses", res.CoursesSaved)
		}
	}

	var fetcher catalog.Fetcher
	switch cfg.CatalogSource {
	case config.SourceHTTP:
		fetcher = catalog.NewHTTPFetcher(cfg.CatalogURL, cfg.CatalogTimeout, logger)
	default:
		fetcher = catalog.NewStoreFetcher(db)
	}
	resolver := catalog.ScanResolver{Fetcher: fetcher}

	pool := worker.NewPool[error](cfg.SubmitWorkers, cfg.SubmitWorkers*4)
	defer pool.Close()
	processor := exercisesession.NewSimulatedProcessor(cfg.SubmitDelay, pool)
	console := exercisesession.NewLogConsole(logger.With("component", "console"))

	sessions := browsing.NewRegistry(browsing.Factory{
		NewView: func() *collection.View {
			return collection.New(fetcher, logger)
		},
		NewController: func() *exercisesession.Controller {
			return exercisesession.New(resolver, processor, console, logger)
		},
	}, cfg.SessionIdleTimeout, logger)
	go sessions.Run(ctx)

	verifier := identity.NewVerifier(cfg.JWTSecret)
	handler, err := api.NewHandler(api.Deps{
		Store:    db,
		Fetcher:  fetcher,
		Sessions: sessions,
		Verifier: verifier,
		Source:   cfg.CatalogSource,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to load page templates", "error", err)
		os.Exit(1)
	}

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()
	api.RegisterRoutes(mux, handler)

	// ── Middleware chain: RequestID → Recovery → Logging → CORS → Authenticate → Metrics → mux
	chain := api.RequestID(
		api.Recovery(logger)(
			api.Logging(logger)(
				api.CORS(cfg.CORSOrigins)(
					api.Authenticate(verifier, logger)(
						metrics.Middleware(mux))))))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           chain,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("starting server",
		"address", cfg.ServerAddress,
		"catalog_source", cfg.CatalogSource)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}
