// Package ranking orders the classified records by price and derives the
// batch-level indicated-price signal.
package ranking

import (
	"fmt"
	"sort"

	"github.com/Camillamonteiros/big-data/internal/models"
)

type Config struct {
	// OfficialStoreMarker identifies the reference record, e.g.
	// "Comprebel (Oficial)". That record never receives a rank but its
	// price feeds the indicated-price signal.
	OfficialStoreMarker string

	// OfficialLabel is the short store name used inside the indicated-price
	// string, e.g. "Comprebel".
	OfficialLabel string
}

// Outcome carries the ranked records plus the batch-level signals shared by
// every exported row.
type Outcome struct {
	Records        []models.Product
	IndicatedPrice string
	OfficialPrice  string
}

// Rank assigns positions 1..k to the compatible competitors, cheapest
// first, and composes the indicated price from the 3rd-ranked competitor
// (or the last one when fewer than three exist) and the official store's
// price. Records the oracle rejected keep rank 0 and export as N/A. The
// input is not mutated.
func Rank(records []models.Product, cfg Config) Outcome {
	ranked := make([]models.Product, len(records))
	copy(ranked, records)

	var compatible []int
	for i := range ranked {
		if ranked[i].Verdict == models.VerdictCompatible && !ranked[i].IsOfficial(cfg.OfficialStoreMarker) {
			compatible = append(compatible, i)
		}
	}

	// Stable sort keeps batch order on price ties, which makes rank
	// assignment reproducible run to run.
	sort.SliceStable(compatible, func(a, b int) bool {
		return ranked[compatible[a]].PriceValue < ranked[compatible[b]].PriceValue
	})

	for pos, idx := range compatible {
		ranked[idx].Rank = pos + 1
	}

	reference := "N/A"
	switch k := len(compatible); {
	case k >= 3:
		reference = displayOrNA(ranked[compatible[2]].PriceDisplay)
	case k >= 1:
		reference = displayOrNA(ranked[compatible[k-1]].PriceDisplay)
	}

	official := "N/A"
	for i := range ranked {
		if ranked[i].IsOfficial(cfg.OfficialStoreMarker) {
			official = displayOrNA(ranked[i].PriceDisplay)
			break
		}
	}

	return Outcome{
		Records:        ranked,
		IndicatedPrice: fmt.Sprintf("%s (3º) | %s (%s)", reference, official, cfg.OfficialLabel),
		OfficialPrice:  official,
	}
}

func displayOrNA(display string) string {
	if display == "" {
		return "N/A"
	}
	return display
}
