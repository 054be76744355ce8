package parser

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const structuredDataSelector = `script[type='application/ld+json']`

// StructuredOffer wraps one embedded JSON-LD object that plausibly describes
// a product offer. Accessors tolerate the loose shapes marketplaces emit:
// offers as object or array, seller as object or bare string, price as
// number or string.
type StructuredOffer struct {
	data map[string]any
}

// ExtractStructuredOffer scans every JSON-LD block in the document, in
// order, and returns the first object that looks like a product: its type
// mentions "Product", or it carries an "offers" or "price" key. A block
// that fails to decode is skipped without aborting the scan. Returns nil
// when nothing matches or the HTML cannot be parsed.
func ExtractStructuredOffer(html string) *StructuredOffer {
	if html == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var found *StructuredOffer
	doc.Find(structuredDataSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}

		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			return true
		}

		candidates, ok := decoded.([]any)
		if !ok {
			candidates = []any{decoded}
		}

		for _, c := range candidates {
			obj, ok := c.(map[string]any)
			if !ok {
				continue
			}
			if isProductObject(obj) {
				found = &StructuredOffer{data: obj}
				return false
			}
		}
		return true
	})

	return found
}

func isProductObject(obj map[string]any) bool {
	typ := obj["@type"]
	if typ == nil {
		typ = obj["type"]
	}
	if typ != nil && strings.Contains(fmt.Sprintf("%v", typ), "Product") {
		return true
	}
	if _, ok := obj["offers"]; ok {
		return true
	}
	if _, ok := obj["price"]; ok {
		return true
	}
	return false
}

// Name returns the product name declared in the structured data.
func (o *StructuredOffer) Name() string {
	if o == nil {
		return ""
	}
	if name := stringValue(o.data["name"]); name != "" {
		return name
	}
	return stringValue(o.data["headline"])
}

// Price returns the offer price as text, without currency marker.
func (o *StructuredOffer) Price() string {
	offers := o.offers()
	if offers == nil {
		return ""
	}
	if price := stringValue(offers["price"]); price != "" {
		return price
	}
	if spec, ok := offers["priceSpecification"].(map[string]any); ok {
		return stringValue(spec["price"])
	}
	return ""
}

// Seller returns the seller name declared on the offer.
func (o *StructuredOffer) Seller() string {
	offers := o.offers()
	if offers == nil {
		return ""
	}
	switch seller := offers["seller"].(type) {
	case map[string]any:
		if name := stringValue(seller["name"]); name != "" {
			return name
		}
		return stringValue(seller["nickname"])
	case string:
		return seller
	}
	return ""
}

// offers unwraps the offers key, taking the first element when the page
// declares a list of offers.
func (o *StructuredOffer) offers() map[string]any {
	if o == nil {
		return nil
	}
	switch v := o.data["offers"].(type) {
	case map[string]any:
		return v
	case []any:
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok {
				return first
			}
		}
	}
	return nil
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}
