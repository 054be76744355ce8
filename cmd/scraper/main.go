package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

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
	var (
		query       = flag.String("query", "", "Principal product query, e.g. \"Smart Tv 32 LG\"")
		maxItems    = flag.Int("max", 0, "Maximum listing items to analyze (default from config)")
		officialURL = flag.String("official-url", "", "Official store product URL used as price reference")
		outputDir   = flag.String("output", "", "Directory for the CSV exports (default from config)")
		headless    = flag.Bool("headless", true, "Run browser in headless mode")
	)
	flag.Parse()

	if *query == "" {
		fmt.Println("A product query is required. Use -query \"Smart Tv 32 LG\".")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *maxItems > 0 {
		cfg.Scraper.MaxItems = *maxItems
	}
	if *officialURL != "" {
		cfg.Official.URL = *officialURL
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting price analysis", "query", *query)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	b, err := browser.New(&browser.Options{
		Headless:       *headless && cfg.Browser.Headless,
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

	classifier := buildClassifier(ctx, cfg, logger)

	p := pipeline.New(source, parser.NewResolver(logger), classifier, logger, pipeline.Config{
		OfficialURL:         cfg.Official.URL,
		OfficialStoreMarker: cfg.Official.StoreMarker,
		OfficialLabel:       cfg.Official.Label,
		Workers:             cfg.Scraper.Workers,
	})

	result, err := p.Run(ctx, *query, cfg.Scraper.MaxItems)
	if err != nil {
		logger.Error("Analysis failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewRunStore(cfg.Output.RunsFile)
	if err != nil {
		logger.Error("Failed to open run store", "error", err)
	} else if err := store.Save(result); err != nil {
		logger.Error("Failed to persist run", "error", err)
	}

	writer := export.NewWriter(cfg.Output.Dir)
	allPath, err := writer.WriteAll(result)
	if err != nil {
		logger.Error("Failed to export batch CSV", "error", err)
		os.Exit(1)
	}
	compatPath, err := writer.WriteCompatible(result)
	if err != nil {
		logger.Error("Failed to export compatible CSV", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Run %s finished: %d records\n", result.RunID, len(result.Records))
	fmt.Printf("Official price:  %s\n", orNA(result.OfficialPrice))
	fmt.Printf("Indicated price: %s\n", orNA(result.IndicatedPrice))
	fmt.Printf("Exports: %s, %s\n", allPath, compatPath)
}

// buildClassifier wires the oracle stack. Without an API key the batch still
// runs; records simply keep an empty verdict and are excluded from ranking.
func buildClassifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) *compat.Classifier {
	if cfg.Oracle.APIKey == "" {
		logger.Warn("GROQ_API_KEY not set, skipping compatibility classification")
		return nil
	}

	var cache *compat.VerdictCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, verdict cache disabled", "error", err)
		} else {
			cache = compat.NewVerdictCache(client, cfg.Oracle.CacheTTL)
		}
	}

	oracle := compat.NewGroqOracle(cfg.Oracle.APIKey, cfg.Oracle.BaseURL, cfg.Oracle.Model)
	limiter := ratelimit.New(cfg.Oracle.RateLimitMin, cfg.Oracle.RateLimitMax)

	return compat.NewClassifier(oracle, cache, limiter, logger, cfg.Oracle.Concurrency)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
