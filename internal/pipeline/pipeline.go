// Package pipeline sequences listing enumeration, per-item extraction,
// compatibility classification and ranking into one batch run.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Camillamonteiros/big-data/internal/compat"
	"github.com/Camillamonteiros/big-data/internal/models"
	"github.com/Camillamonteiros/big-data/internal/parser"
	"github.com/Camillamonteiros/big-data/internal/pricing"
	"github.com/Camillamonteiros/big-data/internal/queue"
	"github.com/Camillamonteiros/big-data/internal/ranking"
	"github.com/Camillamonteiros/big-data/internal/scrape"
)

type Config struct {
	// OfficialURL, when set, is scraped first so the official store's
	// price can anchor the indicated-price signal.
	OfficialURL string

	OfficialStoreMarker string
	OfficialLabel       string

	// Workers caps concurrent detail-page extractions.
	Workers int
}

type Pipeline struct {
	source     scrape.Source
	resolver   *parser.Resolver
	classifier *compat.Classifier
	logger     *slog.Logger
	cfg        Config
}

func New(source scrape.Source, resolver *parser.Resolver, classifier *compat.Classifier, logger *slog.Logger, cfg Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Pipeline{
		source:     source,
		resolver:   resolver,
		classifier: classifier,
		logger:     logger.With("component", "pipeline"),
		cfg:        cfg,
	}
}

// Run executes one batch for the given principal query. Per-item failures
// drop that item and the batch continues; only a listing that yields no
// stubs at all fails the run, reported as zero records plus the error.
func (p *Pipeline) Run(ctx context.Context, query string, maxItems int) (*models.Result, error) {
	result := &models.Result{
		RunID:     uuid.NewString(),
		Query:     query,
		StartedAt: time.Now(),
	}

	var official *models.Product
	if p.cfg.OfficialURL != "" {
		official = p.scrapeOfficial(ctx, query)
	}

	stubs, err := p.source.FetchListing(ctx, query, maxItems)
	if err != nil {
		result.FinishedAt = time.Now()
		return result, err
	}
	if len(stubs) == 0 {
		result.FinishedAt = time.Now()
		return result, scrape.ErrListingUnavailable
	}
	if maxItems > 0 && len(stubs) > maxItems {
		stubs = stubs[:maxItems]
	}

	p.logger.Info("processing listing", "run", result.RunID, "items", len(stubs))

	// Each worker writes only its task's slot, so completion order cannot
	// reorder or corrupt the batch.
	slots := make([]*models.Product, len(stubs))

	q := queue.NewItemQueue()
	for i, stub := range stubs {
		q.Push(queue.Task{Index: i, Stub: stub})
	}
	q.Close()

	workers := p.cfg.Workers
	if workers > len(stubs) {
		workers = len(stubs)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task, err := q.Pop(ctx)
				if err != nil {
					return
				}
				slots[task.Index] = p.processItem(ctx, task.Stub, query)
			}
		}()
	}
	wg.Wait()

	records := make([]models.Product, 0, len(stubs)+1)
	if official != nil {
		records = append(records, *official)
	}
	for _, slot := range slots {
		if slot != nil {
			records = append(records, *slot)
		}
	}

	if p.classifier != nil {
		p.classifier.ClassifyAll(ctx, records, p.cfg.OfficialStoreMarker)
	}

	outcome := ranking.Rank(records, ranking.Config{
		OfficialStoreMarker: p.cfg.OfficialStoreMarker,
		OfficialLabel:       p.cfg.OfficialLabel,
	})

	result.Records = outcome.Records
	result.IndicatedPrice = outcome.IndicatedPrice
	result.OfficialPrice = outcome.OfficialPrice
	result.FinishedAt = time.Now()

	p.logger.Info("run finished",
		"run", result.RunID,
		"records", len(result.Records),
		"indicated_price", result.IndicatedPrice)

	return result, nil
}

// processItem opens one detail page and extracts a normalized record. A nil
// return means the item is dropped; sibling items are unaffected. The page
// handle is released on every path.
func (p *Pipeline) processItem(ctx context.Context, stub models.ItemStub, query string) *models.Product {
	page, err := p.source.FetchDetail(ctx, stub.Link)
	if err != nil {
		p.logger.Warn("dropping item", "link", stub.Link, "error", err)
		return nil
	}
	defer page.Close()

	offer := parser.ExtractStructuredOffer(page.HTML())
	raw := p.resolver.Resolve(page, stub, offer, query)
	normalized := pricing.Normalize(raw.PriceText)

	return &models.Product{
		RawProduct:   raw,
		PriceValue:   normalized.Value,
		PriceDisplay: normalized.Display,
	}
}

// scrapeOfficial fetches the reference product. Failure is not fatal: the
// batch proceeds without an official price.
func (p *Pipeline) scrapeOfficial(ctx context.Context, query string) *models.Product {
	page, err := p.source.FetchDetail(ctx, p.cfg.OfficialURL)
	if err != nil {
		p.logger.Warn("official product unavailable", "url", p.cfg.OfficialURL, "error", err)
		return nil
	}
	defer page.Close()

	raw := p.resolver.ResolveOfficial(page, p.cfg.OfficialURL, query, p.cfg.OfficialStoreMarker)
	normalized := pricing.Normalize(raw.PriceText)

	p.logger.Info("official price captured", "price", normalized.Display)

	return &models.Product{
		RawProduct:   raw,
		PriceValue:   normalized.Value,
		PriceDisplay: normalized.Display,
	}
}
