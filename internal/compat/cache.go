package compat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Camillamonteiros/big-data/internal/models"
)

// cachedVerdict is the stored shape of one classification outcome.
type cachedVerdict struct {
	Verdict       models.Verdict `json:"verdict"`
	Justification string         `json:"justification,omitempty"`
}

// VerdictCache memoizes oracle verdicts in Redis so re-running a batch for
// the same principal does not repeat identical oracle calls. A nil cache is
// valid and disables memoization.
type VerdictCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewVerdictCache(client *redis.Client, ttl time.Duration) *VerdictCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &VerdictCache{client: client, ttl: ttl}
}

func (c *VerdictCache) Get(ctx context.Context, principal, competitor string) (models.Verdict, string, bool) {
	if c == nil {
		return "", "", false
	}

	raw, err := c.client.Get(ctx, cacheKey(principal, competitor)).Result()
	if err != nil {
		return "", "", false
	}

	var cached cachedVerdict
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return "", "", false
	}
	return cached.Verdict, cached.Justification, true
}

func (c *VerdictCache) Set(ctx context.Context, principal, competitor string, verdict models.Verdict, justification string) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(cachedVerdict{Verdict: verdict, Justification: justification})
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(principal, competitor), raw, c.ttl)
}

func cacheKey(principal, competitor string) string {
	sum := sha256.Sum256([]byte(principal + "|" + competitor))
	return "compat:" + hex.EncodeToString(sum[:16])
}
