package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/revia-go-api/internal/models"
)

// publicationCache fronts the publication ledger with a bounded-staleness redis
// layer. Reads fall back to the ledger on any cache trouble; invalidation
// failures are surfaced because a successful publish must never leave a stale
// "not published" answer behind.
type publicationCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func newPublicationCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *publicationCache {
	return &publicationCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "publication_cache").Logger(),
	}
}

func publicationCacheKey(reviewID uint) string {
	return fmt.Sprintf("publications:review:%d", reviewID)
}

func (c *publicationCache) get(ctx context.Context, reviewID uint) ([]models.ReviewPublication, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	cached, err := c.client.Get(ctx, publicationCacheKey(reviewID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Uint("review_id", reviewID).Msg("failed to read publication cache")
		}
		return nil, false
	}

	var facts []models.ReviewPublication
	if err := json.Unmarshal([]byte(cached), &facts); err != nil {
		return nil, false
	}

	return facts, true
}

func (c *publicationCache) set(ctx context.Context, reviewID uint, facts []models.ReviewPublication) {
	if c == nil || c.client == nil {
		return
	}

	if facts == nil {
		facts = []models.ReviewPublication{}
	}

	payload, err := json.Marshal(facts)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, publicationCacheKey(reviewID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Uint("review_id", reviewID).Msg("failed to store publication cache")
	}
}

// invalidate removes the cached facts for a review. Unlike reads, a failure
// here propagates: the mutation must not report success while stale answers
// remain servable.
func (c *publicationCache) invalidate(ctx context.Context, reviewID uint) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, publicationCacheKey(reviewID)).Err(); err != nil {
		return fmt.Errorf("invalidate publication cache for review %d: %w", reviewID, err)
	}

	return nil
}
