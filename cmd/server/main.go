package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/Camillamonteiros/big-data/internal/api"
	"github.com/Camillamonteiros/big-data/internal/browser"
	"github.com/Camillamonteiros/big-data/internal/compat"
	"github.com/Camillamonteiros/big-data/internal/config"
	"github.com/Camillamonteiros/big-data/internal/export"
	"github.com/Camillamonteiros/big-data/internal/logger"
	"github.com/Camillamonteiros/big-data/internal/mercadolivre"
	"github.com/Camillamonteiros/big-data/internal/parser"
	"github.com/Camillamonteiros/big-data/internal/pipeline"
	"github.com/Camillamonteiros/big-data/internal/ratelimit"
	"github.com/Camillamonteiros/big-data/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := browser.New(&browser.Options{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
	})
	if err != nil {
		logger.Error("Failed to initialize browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	source := mercadolivre.NewSource(
		b,
		ratelimit.New(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax),
		logger,
	)

	var classifier *compat.Classifier
	if cfg.Oracle.APIKey == "" {
		logger.Warn("GROQ_API_KEY not set, skipping compatibility classification")
	} else {
		var cache *compat.VerdictCache
		if cfg.Redis.Addr != "" {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer client.Close()

			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("Redis unavailable, verdict cache disabled", "error", err)
			} else {
				cache = compat.NewVerdictCache(client, cfg.Oracle.CacheTTL)
			}
		}

		classifier = compat.NewClassifier(
			compat.NewGroqOracle(cfg.Oracle.APIKey, cfg.Oracle.BaseURL, cfg.Oracle.Model),
			cache,
			ratelimit.New(cfg.Oracle.RateLimitMin, cfg.Oracle.RateLimitMax),
			logger,
			cfg.Oracle.Concurrency,
		)
	}

	p := pipeline.New(source, parser.NewResolver(logger), classifier, logger, pipeline.Config{
		OfficialURL:         cfg.Official.URL,
		OfficialStoreMarker: cfg.Official.StoreMarker,
		OfficialLabel:       cfg.Official.Label,
		Workers:             cfg.Scraper.Workers,
	})

	store, err := storage.NewRunStore(cfg.Output.RunsFile)
	if err != nil {
		logger.Error("Failed to open run store", "error", err)
		os.Exit(1)
	}

	handlers := api.NewHandlers(p, store, export.NewWriter(cfg.Output.Dir), logger, cfg.Scraper.MaxItems)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Analyses run synchronously inside the request; the timeout must cover
	// a whole batch.
	r.Use(middleware.Timeout(cfg.Server.WriteTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handlers.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/analyses", func(r chi.Router) {
			r.Post("/", handlers.CreateAnalysis)
			r.Get("/", handlers.ListAnalyses)
			r.Get("/{runID}", handlers.GetAnalysis)
			r.Get("/{runID}/export", handlers.ExportAnalysis)
		})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
