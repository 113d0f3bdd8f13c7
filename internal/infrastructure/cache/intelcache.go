package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/argus-sec/argus/internal/domain/intel"
	"github.com/argus-sec/argus/internal/shared/logger"
)

const (
	cveKeyPrefix = "intel:cve:"
	kevKeyPrefix = "intel:kev:"
	intelTTL     = 60 * time.Minute
	// Short TTL for not-found markers so newly published intel is picked up
	// quickly (anti-penetration).
	nullMarkerTTL = 5 * time.Minute
	nullMarker    = "_null"
)

// IntelCache is a read-through Redis cache in front of the intelligence
// store. Cache failures degrade to direct lookups; they never fail the run.
type IntelCache struct {
	client *redis.Client
	inner  intel.Repository
	logger logger.Interface
}

// NewIntelCache creates a read-through intelligence cache. A nil client
// disables caching and all lookups pass straight through.
func NewIntelCache(client *redis.Client, inner intel.Repository, logger logger.Interface) *IntelCache {
	return &IntelCache{
		client: client,
		inner:  inner,
		logger: logger,
	}
}

func (c *IntelCache) LookupCVE(ctx context.Context, id string) (*intel.CVERecord, error) {
	if c.client == nil {
		return c.inner.LookupCVE(ctx, id)
	}

	key := cveKeyPrefix + id
	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if cached == nullMarker {
			return nil, nil
		}
		var rec intel.CVERecord
		if err := json.Unmarshal([]byte(cached), &rec); err == nil {
			return &rec, nil
		}
		c.logger.Warnw("discarding corrupt cached CVE entry", "cve", id)
	case err != redis.Nil:
		c.logger.Warnw("CVE cache read failed, falling back to store", "cve", id, "error", err)
	}

	rec, err := c.inner.LookupCVE(ctx, id)
	if err != nil {
		return nil, err
	}

	payload := nullMarker
	ttl := nullMarkerTTL
	if rec != nil {
		encoded, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal CVE record: %w", err)
		}
		payload = string(encoded)
		ttl = intelTTL
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.logger.Warnw("CVE cache write failed", "cve", id, "error", err)
	}
	return rec, nil
}

func (c *IntelCache) IsKnownExploited(ctx context.Context, id string) (bool, error) {
	if c.client == nil {
		return c.inner.IsKnownExploited(ctx, id)
	}

	key := kevKeyPrefix + id
	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached == "1", nil
	case err != redis.Nil:
		c.logger.Warnw("KEV cache read failed, falling back to store", "cve", id, "error", err)
	}

	exploited, err := c.inner.IsKnownExploited(ctx, id)
	if err != nil {
		return false, err
	}

	payload := "0"
	ttl := nullMarkerTTL
	if exploited {
		payload = "1"
		ttl = intelTTL
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.logger.Warnw("KEV cache write failed", "cve", id, "error", err)
	}
	return exploited, nil
}
