// Package mercadolivre implements the scrape.Source contract against the
// MercadoLivre marketplace.
package mercadolivre

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/Camillamonteiros/big-data/internal/browser"
	"github.com/Camillamonteiros/big-data/internal/models"
	"github.com/Camillamonteiros/big-data/internal/ratelimit"
	"github.com/Camillamonteiros/big-data/internal/scrape"
)

const (
	listingBaseURL = "https://lista.mercadolivre.com.br/"

	// Listing entries render as anchor tiles; title and href live on the
	// same node.
	listingItemSelector = "a.poly-component__title"

	listingWaitTimeout = 30000
)

type Source struct {
	browser    *browser.Browser
	limiter    ratelimit.Limiter
	logger     *slog.Logger
	maxRetries int
}

func NewSource(b *browser.Browser, limiter ratelimit.Limiter, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	if limiter == nil {
		limiter = ratelimit.None{}
	}
	return &Source{
		browser:    b,
		limiter:    limiter,
		logger:     logger.With("component", "mercadolivre"),
		maxRetries: 3,
	}
}

// FetchListing opens the search results for query and enumerates item
// stubs in document order.
func (s *Source) FetchListing(ctx context.Context, query string, max int) ([]models.ItemStub, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	page, err := s.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	url := ListingURL(query)
	s.logger.Info("fetching listing", "url", url)

	if err := s.browser.NavigateWithRetry(page, url, s.maxRetries); err != nil {
		return nil, fmt.Errorf("failed to navigate to listing: %w", err)
	}

	if _, err := page.WaitForSelector(listingItemSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(listingWaitTimeout),
	}); err != nil {
		return nil, scrape.ErrListingUnavailable
	}

	raw, err := page.Evaluate(fmt.Sprintf(`() =>
		Array.from(document.querySelectorAll(%q)).map(a => ({
			title: a.innerText.trim(),
			href: a.href,
		}))`, listingItemSelector))
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate listing items: %w", err)
	}

	stubs := parseStubs(raw)
	if len(stubs) == 0 {
		return nil, scrape.ErrListingUnavailable
	}
	if max > 0 && len(stubs) > max {
		stubs = stubs[:max]
	}

	s.logger.Info("listing fetched", "items", len(stubs))
	return stubs, nil
}

// FetchDetail opens one item page and hands back its content view. The
// caller owns closing it.
func (s *Source) FetchDetail(ctx context.Context, link string) (scrape.PageContent, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	page, err := s.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := s.browser.NavigateWithRetry(page, link, s.maxRetries); err != nil {
		page.Close()
		return nil, fmt.Errorf("%w: %s", scrape.ErrDetailUnavailable, link)
	}

	// Structured data and lazy fragments load after DOMContentLoaded;
	// network idle is best effort only.
	_ = page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(10000),
	})

	return browser.NewPage(page), nil
}

// ListingURL builds the search URL the same way the site's own search box
// does: spaces become dashes.
func ListingURL(query string) string {
	return listingBaseURL + strings.ReplaceAll(strings.TrimSpace(query), " ", "-")
}

func parseStubs(raw any) []models.ItemStub {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	stubs := make([]models.ItemStub, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title, _ := entry["title"].(string)
		href, _ := entry["href"].(string)
		if href == "" {
			continue
		}
		stubs = append(stubs, models.ItemStub{Title: title, Link: href})
	}
	return stubs
}
