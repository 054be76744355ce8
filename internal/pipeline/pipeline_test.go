package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Camillamonteiros/big-data/internal/compat"
	"github.com/Camillamonteiros/big-data/internal/models"
	"github.com/Camillamonteiros/big-data/internal/parser"
	"github.com/Camillamonteiros/big-data/internal/scrape"
)

type fakePage struct {
	mu     sync.Mutex
	html   string
	texts  map[string]string
	attrs  map[string]string
	closed bool
}

func (f *fakePage) HTML() string { return f.html }

func (f *fakePage) QueryText(selector string, _ time.Duration) string { return f.texts[selector] }

func (f *fakePage) QueryAttribute(selector, attr string, _ time.Duration) string {
	return f.attrs[selector+"|"+attr]
}

func (f *fakePage) QueryFirstTextNode(string, time.Duration) string { return "" }

func (f *fakePage) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakePage) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeSource serves scripted stubs and pages; links absent from pages fail.
type fakeSource struct {
	stubs      []models.ItemStub
	listingErr error
	pages      map[string]*fakePage
}

func (f *fakeSource) FetchListing(_ context.Context, _ string, max int) ([]models.ItemStub, error) {
	if f.listingErr != nil {
		return nil, f.listingErr
	}
	stubs := f.stubs
	if max > 0 && len(stubs) > max {
		stubs = stubs[:max]
	}
	return stubs, nil
}

func (f *fakeSource) FetchDetail(_ context.Context, link string) (scrape.PageContent, error) {
	page, ok := f.pages[link]
	if !ok {
		return nil, scrape.ErrDetailUnavailable
	}
	return page, nil
}

type scriptedOracle struct{}

func (scriptedOracle) Complete(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "diferente") {
		return "Compatibilidade: NÃO\nJustificativa: produto diferente", nil
	}
	return "Compatibilidade: SIM\nJustificativa: mesmo produto", nil
}

func productPage(price string) *fakePage {
	return &fakePage{
		html: `<html><head><script type="application/ld+json">` +
			`{"@type": "Product", "offers": {"price": "` + price + `"}}` +
			`</script></head></html>`,
	}
}

const marker = "Comprebel (Oficial)"

func newTestPipeline(source scrape.Source, officialURL string) *Pipeline {
	classifier := compat.NewClassifier(scriptedOracle{}, nil, nil, nil, 2)
	return New(source, parser.NewResolver(nil), classifier, nil, Config{
		OfficialURL:         officialURL,
		OfficialStoreMarker: marker,
		OfficialLabel:       "Comprebel",
		Workers:             3,
	})
}

func TestRunFullBatch(t *testing.T) {
	source := &fakeSource{
		stubs: []models.ItemStub{
			{Title: "TV LG 32 barata", Link: "c1"},
			{Title: "TV LG 32 cara", Link: "c2"},
			{Title: "Produto diferente", Link: "c3"},
		},
		pages: map[string]*fakePage{
			"oficial": {
				texts: map[string]string{"h1.ui-pdp-title, h1": "TV LG 32 oficial"},
				attrs: map[string]string{"meta[itemprop='price']|content": "1299.00"},
			},
			"c1": productPage("899.90"),
			"c2": productPage("1099.00"),
			"c3": productPage("450.00"),
		},
	}

	p := newTestPipeline(source, "oficial")
	result, err := p.Run(context.Background(), "TV LG 32", 10)
	require.NoError(t, err)

	require.Len(t, result.Records, 4)
	assert.NotEmpty(t, result.RunID)

	official := result.Records[0]
	assert.Equal(t, marker, official.Store)
	assert.Equal(t, "R$ 1299.00", official.PriceDisplay)
	assert.Empty(t, official.Verdict)
	assert.Equal(t, 0, official.Rank)

	byLink := map[string]models.Product{}
	for _, r := range result.Records {
		byLink[r.Link] = r
	}
	assert.Equal(t, 1, byLink["c1"].Rank)
	assert.Equal(t, 2, byLink["c2"].Rank)
	assert.Equal(t, models.VerdictIncompatible, byLink["c3"].Verdict)
	assert.Equal(t, 0, byLink["c3"].Rank)

	assert.Equal(t, "R$ 1099.00 (3º) | R$ 1299.00 (Comprebel)", result.IndicatedPrice)
	assert.Equal(t, "R$ 1299.00", result.OfficialPrice)

	for link, page := range source.pages {
		assert.True(t, page.isClosed(), "page %s not closed", link)
	}
}

func TestRunDropsFailedItems(t *testing.T) {
	source := &fakeSource{
		stubs: []models.ItemStub{
			{Title: "ok", Link: "c1"},
			{Title: "quebrado", Link: "missing"},
			{Title: "ok também", Link: "c2"},
		},
		pages: map[string]*fakePage{
			"c1": productPage("100"),
			"c2": productPage("200"),
		},
	}

	p := newTestPipeline(source, "")
	result, err := p.Run(context.Background(), "q", 10)
	require.NoError(t, err)

	require.Len(t, result.Records, 2, "failed item must be dropped, not fatal")
	assert.Equal(t, "c1", result.Records[0].Link)
	assert.Equal(t, "c2", result.Records[1].Link)
}

func TestRunListingUnavailable(t *testing.T) {
	p := newTestPipeline(&fakeSource{}, "")

	result, err := p.Run(context.Background(), "q", 10)

	assert.ErrorIs(t, err, scrape.ErrListingUnavailable)
	assert.Empty(t, result.Records)
}

func TestRunListingErrorPropagates(t *testing.T) {
	boom := errors.New("navigation timeout")
	p := newTestPipeline(&fakeSource{listingErr: boom}, "")

	result, err := p.Run(context.Background(), "q", 10)

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, result.Records)
}

func TestRunRespectsMaxItems(t *testing.T) {
	source := &fakeSource{
		stubs: []models.ItemStub{
			{Title: "a", Link: "c1"},
			{Title: "b", Link: "c2"},
			{Title: "c", Link: "c3"},
		},
		pages: map[string]*fakePage{
			"c1": productPage("100"),
			"c2": productPage("200"),
			"c3": productPage("300"),
		},
	}

	p := newTestPipeline(source, "")
	result, err := p.Run(context.Background(), "q", 2)
	require.NoError(t, err)

	assert.Len(t, result.Records, 2)
}

func TestRunContinuesWithoutOfficial(t *testing.T) {
	source := &fakeSource{
		stubs: []models.ItemStub{{Title: "a", Link: "c1"}},
		pages: map[string]*fakePage{"c1": productPage("100")},
	}

	p := newTestPipeline(source, "oficial-que-nao-abre")
	result, err := p.Run(context.Background(), "q", 10)
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "N/A", result.OfficialPrice)
	assert.Equal(t, "R$ 100 (3º) | N/A (Comprebel)", result.IndicatedPrice)
}
