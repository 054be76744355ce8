package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wrapScript(blocks ...string) string {
	html := "<html><head>"
	for _, b := range blocks {
		html += `<script type="application/ld+json">` + b + `</script>`
	}
	return html + "</head><body></body></html>"
}

func TestExtractStructuredOffer(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		wantNil  bool
		wantName string
	}{
		{
			name:     "Product type object",
			html:     wrapScript(`{"@type": "Product", "name": "Smart TV 32"}`),
			wantName: "Smart TV 32",
		},
		{
			name:     "Accepted by offers key without type",
			html:     wrapScript(`{"name": "TV", "offers": {"price": "899"}}`),
			wantName: "TV",
		},
		{
			name:     "Accepted by price key",
			html:     wrapScript(`{"name": "TV", "price": 899}`),
			wantName: "TV",
		},
		{
			name:     "Array skips non-product object",
			html:     wrapScript(`[{"@type": "BreadcrumbList", "name": "crumbs"}, {"name": "TV 50", "offers": {"price": 1099}}]`),
			wantName: "TV 50",
		},
		{
			name:     "Malformed block does not abort later blocks",
			html:     wrapScript(`{"@type": "Product", "name": `, `{"@type": "Product", "name": "Recovered"}`),
			wantName: "Recovered",
		},
		{
			name:    "No candidate matches",
			html:    wrapScript(`{"@type": "WebSite", "name": "home"}`),
			wantNil: true,
		},
		{
			name:    "No structured data at all",
			html:    "<html><body><h1>title</h1></body></html>",
			wantNil: true,
		},
		{
			name:    "Empty content",
			html:    "",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer := ExtractStructuredOffer(tt.html)

			if tt.wantNil {
				assert.Nil(t, offer)
				return
			}
			require.NotNil(t, offer)
			assert.Equal(t, tt.wantName, offer.Name())
		})
	}
}

func TestStructuredOfferAccessors(t *testing.T) {
	t.Run("Offers as object with seller object", func(t *testing.T) {
		offer := ExtractStructuredOffer(wrapScript(
			`{"@type": "Product", "name": "TV", "offers": {"price": "1299.00", "seller": {"name": "Comprebel"}}}`,
		))
		require.NotNil(t, offer)
		assert.Equal(t, "1299.00", offer.Price())
		assert.Equal(t, "Comprebel", offer.Seller())
	})

	t.Run("Offers as array takes first element", func(t *testing.T) {
		offer := ExtractStructuredOffer(wrapScript(
			`{"@type": "Product", "offers": [{"price": 950.5, "seller": "Loja X"}, {"price": 999}]}`,
		))
		require.NotNil(t, offer)
		assert.Equal(t, "950.5", offer.Price())
		assert.Equal(t, "Loja X", offer.Seller())
	})

	t.Run("Price inside priceSpecification", func(t *testing.T) {
		offer := ExtractStructuredOffer(wrapScript(
			`{"@type": "Product", "offers": {"priceSpecification": {"price": 450}}}`,
		))
		require.NotNil(t, offer)
		assert.Equal(t, "450", offer.Price())
	})

	t.Run("Numeric price keeps no trailing zeros", func(t *testing.T) {
		offer := ExtractStructuredOffer(wrapScript(
			`{"@type": "Product", "offers": {"price": 899.9}}`,
		))
		require.NotNil(t, offer)
		assert.Equal(t, "899.9", offer.Price())
	})

	t.Run("Nil offer accessors are safe", func(t *testing.T) {
		var offer *StructuredOffer
		assert.Empty(t, offer.Name())
		assert.Empty(t, offer.Price())
		assert.Empty(t, offer.Seller())
	})

	t.Run("Headline as name fallback", func(t *testing.T) {
		offer := ExtractStructuredOffer(wrapScript(
			`{"@type": "Product", "headline": "TV headline", "offers": {}}`,
		))
		require.NotNil(t, offer)
		assert.Equal(t, "TV headline", offer.Name())
	})
}
