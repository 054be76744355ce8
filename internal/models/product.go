package models

import (
	"strconv"
	"time"
)

// Verdict is the reduced compatibility outcome for a competitor product.
type Verdict string

const (
	VerdictCompatible   Verdict = "SIM"
	VerdictIncompatible Verdict = "NÃO"
)

// SoldQuantityUnknown is exported when no sold-quantity text could be scraped.
const SoldQuantityUnknown = "Não informado"

// ItemStub is one entry of a listing page: just enough to open the detail page.
type ItemStub struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// RawProduct holds the fields scraped from a detail page before normalization.
// Optional fields are empty strings when nothing could be extracted; Title,
// Link and Principal are always set.
type RawProduct struct {
	Title        string `json:"concorrente"`
	PriceText    string `json:"preco_texto,omitempty"`
	Store        string `json:"loja,omitempty"`
	SoldQuantity string `json:"qtd_vendida"`
	Link         string `json:"link"`
	Principal    string `json:"principal"`
}

// Product is a fully processed record: raw fields plus normalized price,
// compatibility verdict and ranking position.
type Product struct {
	RawProduct

	// PriceValue is +Inf when the price text could not be parsed; the
	// ranking engine relies on that to sort unparsable prices last. It is
	// a sort key only and +Inf has no JSON encoding, so it never leaves
	// the process.
	PriceValue   float64 `json:"-"`
	PriceDisplay string  `json:"preco"`

	// Verdict is empty for the official record, which is never classified.
	Verdict       Verdict `json:"compatibilidade,omitempty"`
	Justification string  `json:"justificativa,omitempty"`

	// Rank is 1..k over compatible competitors, 0 when unranked.
	Rank int `json:"ranking,omitempty"`
}

// RankLabel renders the rank the way the export expects it.
func (p *Product) RankLabel() string {
	if p.Rank == 0 {
		return "N/A"
	}
	return strconv.Itoa(p.Rank)
}

// IsOfficial reports whether this record is the reference product sold by
// the official store.
func (p *Product) IsOfficial(marker string) bool {
	return marker != "" && p.Store == marker
}

// Result is the outcome of one pipeline run.
type Result struct {
	RunID          string    `json:"run_id"`
	Query          string    `json:"query"`
	OfficialPrice  string    `json:"preco_oficial"`
	IndicatedPrice string    `json:"preco_indicado"`
	Records        []Product `json:"records"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}
