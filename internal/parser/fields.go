package parser

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Camillamonteiros/big-data/internal/models"
	"github.com/Camillamonteiros/big-data/internal/scrape"
)

// MercadoLivre detail-page selectors, ordered by how reliably they survive
// layout changes. The resolver walks them as fallback chains.
const (
	titleSelector = "h1.ui-pdp-title, h1"

	priceFractionPrimary   = "span.andes-money-amount__fraction"
	priceFractionSecondary = "span.price-tag-fraction"
	priceCentsPrimary      = "span.andes-money-amount__decimals"
	priceCentsSecondary    = "span.price-tag-cents"
	priceMetaSelector      = "meta[itemprop='price']"
	priceMetaAttrSelector  = "meta[property='product:price:amount']"
	officialPricePart      = "span.ui-pdp-price__part"
	officialPriceContainer = "div.ui-pdp-price__main-container"

	sellerLinkSelector   = "a.ui-pdp-seller__link"
	sellerTitleSelector  = "p.ui-pdp-seller__title, span.ui-pdp-seller__title"
	sellerStatusSelector = "p.ui-pdp-seller__status, span.ui-pdp-seller__status"
	sellerLabelSelector  = "span.ui-pdp-seller__label-text-with-icon"

	soldQuantitySelector = "div.ui-pdp-seller__header__info-container__subtitle-one-line p.ui-pdp-seller__header__subtitle"
	subtitleSelector     = ".ui-pdp-subtitle"
)

const currencyPrefix = "R$"

// PriceUnavailable is exported for the official record when every price
// strategy comes up empty.
const PriceUnavailable = "Preço não encontrado"

// Resolver builds a RawProduct from a detail page by running an ordered
// fallback chain per field. It never fails: a page where every selector
// times out still yields a record, with only title and link guaranteed.
type Resolver struct {
	logger       *slog.Logger
	queryTimeout time.Duration
}

func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		logger:       logger.With("component", "resolver"),
		queryTimeout: 1500 * time.Millisecond,
	}
}

// strategy is one attempt at producing a field value; "" means a miss.
type strategy func() string

// firstNonEmpty runs the chain in order and stops at the first hit.
func firstNonEmpty(strategies ...strategy) string {
	for _, s := range strategies {
		if v := strings.TrimSpace(s()); v != "" {
			return v
		}
	}
	return ""
}

func literal(v string) strategy {
	return func() string { return v }
}

// Resolve extracts the per-item fields, preferring structured data over
// scraped text fragments. offer may be nil.
func (r *Resolver) Resolve(page scrape.PageContent, stub models.ItemStub, offer *StructuredOffer, principal string) models.RawProduct {
	title := firstNonEmpty(
		func() string { return offer.Name() },
		literal(stub.Title),
		func() string { return page.QueryText(titleSelector, r.queryTimeout) },
	)

	price := firstNonEmpty(
		func() string { return offer.Price() },
		func() string { return r.scrapePriceFragments(page) },
	)
	price = ensureCurrencyPrefix(price)

	store := firstNonEmpty(
		func() string { return offer.Seller() },
		func() string { return page.QueryText(sellerLinkSelector, r.queryTimeout) },
		func() string { return page.QueryText(sellerTitleSelector, r.queryTimeout) },
		func() string { return page.QueryText(sellerStatusSelector, r.queryTimeout) },
		func() string { return page.QueryFirstTextNode(sellerLabelSelector, r.queryTimeout) },
	)

	sold := firstNonEmpty(
		func() string { return page.QueryText(soldQuantitySelector, r.queryTimeout) },
		func() string { return page.QueryText(subtitleSelector, r.queryTimeout) },
		literal(models.SoldQuantityUnknown),
	)

	return models.RawProduct{
		Title:        title,
		PriceText:    price,
		Store:        store,
		SoldQuantity: sold,
		Link:         stub.Link,
		Principal:    principal,
	}
}

// ResolveOfficial extracts the official-store reference product. The store
// and sold-quantity fields are fixed by contract; only title and price are
// scraped, with a wider strategy chain than competitor pages get because
// this single record anchors the indicated-price computation.
func (r *Resolver) ResolveOfficial(page scrape.PageContent, link, principal, storeMarker string) models.RawProduct {
	title := firstNonEmpty(
		func() string { return page.QueryText(titleSelector, r.queryTimeout) },
		func() string { return ExtractStructuredOffer(page.HTML()).Name() },
		literal(principal),
	)

	price := firstNonEmpty(
		func() string { return page.QueryAttribute(priceMetaSelector, "content", r.queryTimeout) },
		func() string { return page.QueryText(priceFractionPrimary, r.queryTimeout) },
		func() string { return page.QueryText(officialPricePart, r.queryTimeout) },
		func() string { return page.QueryText(officialPriceContainer, r.queryTimeout) },
		func() string { return page.QueryText(priceFractionSecondary, r.queryTimeout) },
		func() string { return page.QueryAttribute(priceMetaAttrSelector, "content", r.queryTimeout) },
		func() string { return ExtractStructuredOffer(page.HTML()).Price() },
	)
	if price == "" {
		r.logger.Warn("official price not found", "link", link)
		price = PriceUnavailable
	} else {
		price = ensureCurrencyPrefix(price)
	}

	return models.RawProduct{
		Title:        title,
		PriceText:    price,
		Store:        storeMarker,
		SoldQuantity: "Oficial",
		Link:         link,
		Principal:    principal,
	}
}

// scrapePriceFragments reads the price as fraction plus optional cents
// fragment, joining them with the "<fraction>,<cents>" convention.
func (r *Resolver) scrapePriceFragments(page scrape.PageContent) string {
	fraction := firstNonEmpty(
		func() string { return page.QueryText(priceFractionPrimary, r.queryTimeout) },
		func() string { return page.QueryText(priceFractionSecondary, r.queryTimeout) },
	)
	if fraction == "" {
		return ""
	}

	cents := firstNonEmpty(
		func() string { return page.QueryText(priceCentsPrimary, r.queryTimeout) },
		func() string { return page.QueryText(priceCentsSecondary, r.queryTimeout) },
	)
	if cents != "" {
		return fraction + "," + cents
	}
	return fraction
}

func ensureCurrencyPrefix(price string) string {
	if price == "" {
		return ""
	}
	if strings.HasPrefix(price, currencyPrefix) {
		return price
	}
	return currencyPrefix + " " + price
}
