package scrape

import (
	"context"
	"errors"
	"time"

	"github.com/Camillamonteiros/big-data/internal/models"
)

var (
	// ErrListingUnavailable means the listing page produced no item stubs at
	// all; the batch cannot proceed and the caller gets zero results.
	ErrListingUnavailable = errors.New("listing page produced no items")

	// ErrDetailUnavailable means a single detail page could not be opened;
	// the orchestrator drops that item and continues.
	ErrDetailUnavailable = errors.New("detail page unavailable")
)

// PageContent is the read-only view of a rendered detail page. Every query
// degrades to an empty string on timeout, missing element or empty text,
// and never returns an error: the field resolver depends on that contract.
type PageContent interface {
	// HTML returns the serialized document, or "" when it cannot be read.
	HTML() string

	// QueryText returns the trimmed inner text of the first element
	// matching selector, bounded by timeout.
	QueryText(selector string, timeout time.Duration) string

	// QueryAttribute returns the value of attr on the first element
	// matching selector, bounded by timeout.
	QueryAttribute(selector, attr string, timeout time.Duration) string

	// QueryFirstTextNode returns only the first text node of the first
	// matching element, skipping child elements such as icons.
	QueryFirstTextNode(selector string, timeout time.Duration) string

	// Close releases the underlying page handle.
	Close()
}

// Source produces page content for a marketplace. Implementations own the
// rendering mechanism (browser, fixture, fake); the pipeline only sees this.
type Source interface {
	// FetchListing enumerates the search results for query, at most max
	// stubs. An empty result is reported via ErrListingUnavailable.
	FetchListing(ctx context.Context, query string, max int) ([]models.ItemStub, error)

	// FetchDetail opens one item's detail page. The caller must Close the
	// returned content on every path.
	FetchDetail(ctx context.Context, link string) (PageContent, error)
}
