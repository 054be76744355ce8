// Package compat decides whether a competitor listing is the same product
// as the principal, wrapping a non-deterministic language-model oracle
// behind a deterministic verdict contract.
package compat

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Camillamonteiros/big-data/internal/models"
	"github.com/Camillamonteiros/big-data/internal/ratelimit"
)

const promptTemplate = `Compare os dois produtos abaixo e diga se são compatíveis ou não.
Leve em consideração nome, marca, cor, unidade, voltagem (se houver) e ano do produto.
Só aceite caso os parâmetros indicados combinem e tenham uma compatibilidade de no mínimo 97%%.

Produto principal: %s
Produto concorrente: %s

Formato da resposta:
Compatibilidade: SIM ou NÃO
Justificativa: texto explicativo breve.`

// Whole-word match so tokens like "ASSIM" never count as an affirmative.
var affirmativeToken = regexp.MustCompile(`\bSIM\b`)

var justificationPrefix = regexp.MustCompile(`(?i)^justificativa\s*:\s*`)

// Classifier reduces oracle replies to SIM/NÃO verdicts. Any transport
// failure becomes a negative verdict; the batch never stops because the
// oracle is down.
type Classifier struct {
	oracle      Oracle
	cache       *VerdictCache
	limiter     ratelimit.Limiter
	logger      *slog.Logger
	concurrency int
	callTimeout time.Duration
}

type Verdict struct {
	Verdict       models.Verdict
	Justification string
}

func NewClassifier(oracle Oracle, cache *VerdictCache, limiter ratelimit.Limiter, logger *slog.Logger, concurrency int) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if limiter == nil {
		limiter = ratelimit.None{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Classifier{
		oracle:      oracle,
		cache:       cache,
		limiter:     limiter,
		logger:      logger.With("component", "classifier"),
		concurrency: concurrency,
		callTimeout: 60 * time.Second,
	}
}

// Classify compares one principal/competitor pair. It never returns an
// error: oracle failures reduce to a negative verdict with no
// justification.
func (c *Classifier) Classify(ctx context.Context, principal, competitor string) Verdict {
	if verdict, justification, ok := c.cache.Get(ctx, principal, competitor); ok {
		return Verdict{Verdict: verdict, Justification: justification}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.Warn("rate limit wait interrupted", "error", err)
		return Verdict{Verdict: models.VerdictIncompatible}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	reply, err := c.oracle.Complete(callCtx, BuildPrompt(principal, competitor))
	if err != nil {
		c.logger.Warn("oracle call failed", "competitor", competitor, "error", err)
		return Verdict{Verdict: models.VerdictIncompatible}
	}

	verdict := Verdict{
		Verdict:       ParseVerdict(reply),
		Justification: extractJustification(reply),
	}
	c.cache.Set(ctx, principal, competitor, verdict.Verdict, verdict.Justification)

	return verdict
}

// ClassifyAll assigns a verdict to every competitor record in place. The
// official-store record is exempt. Calls run concurrently up to the
// configured cap; each goroutine writes only its own record, so verdicts
// stay associated with their record regardless of completion order.
func (c *Classifier) ClassifyAll(ctx context.Context, records []models.Product, officialMarker string) {
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	for i := range records {
		if records[i].IsOfficial(officialMarker) {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(rec *models.Product) {
			defer wg.Done()
			defer func() { <-sem }()

			v := c.Classify(ctx, rec.Principal, rec.Title)
			rec.Verdict = v.Verdict
			rec.Justification = v.Justification
		}(&records[i])
	}

	wg.Wait()
}

// BuildPrompt renders the fixed comparison prompt for one pair.
func BuildPrompt(principal, competitor string) string {
	return fmt.Sprintf(promptTemplate, principal, competitor)
}

// ParseVerdict reduces a free-text oracle reply to a verdict: the reply is
// affirmative iff it contains the whole word SIM, case-insensitively. An
// empty reply is negative.
func ParseVerdict(reply string) models.Verdict {
	if affirmativeToken.MatchString(strings.ToUpper(reply)) {
		return models.VerdictCompatible
	}
	return models.VerdictIncompatible
}

func extractJustification(reply string) string {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if justificationPrefix.MatchString(line) {
			return strings.TrimSpace(justificationPrefix.ReplaceAllString(line, ""))
		}
	}
	return ""
}
