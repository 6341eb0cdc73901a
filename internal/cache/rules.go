// Package cache provides a Redis-backed read-through cache for the active
// SLA rule set.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/resolva-io/resolva-ce/internal/models"
)

var (
	ruleCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resolva_rule_cache_hits_total",
		Help: "Number of rule set reads served from Redis.",
	})
	ruleCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resolva_rule_cache_misses_total",
		Help: "Number of rule set reads that fell through to the database.",
	})
	ruleCacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resolva_rule_cache_errors_total",
		Help: "Number of Redis errors while reading or writing the rule set.",
	})
)

// RuleSource loads the active rule set from the system of record.
type RuleSource interface {
	ActiveRules(ctx context.Context) ([]models.SlaRule, error)
}

// RuleCache caches the active rule set in Redis with a short TTL. Rules
// change rarely and the set is small, so one key holding the whole JSON
// array is enough. A nil client degrades to a plain pass-through.
type RuleCache struct {
	client *redis.Client
	source RuleSource
	ttl    time.Duration
	key    string
}

// NewRuleCache creates a rule cache in front of the given source.
func NewRuleCache(client *redis.Client, source RuleSource, ttl time.Duration) *RuleCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RuleCache{
		client: client,
		source: source,
		ttl:    ttl,
		key:    "resolva:sla:rules",
	}
}

// ActiveRules returns the active rule set, from Redis when fresh. Redis
// failures fall back to the source; a snapshot must always be computable.
func (c *RuleCache) ActiveRules(ctx context.Context) ([]models.SlaRule, error) {
	if c.client == nil {
		return c.source.ActiveRules(ctx)
	}

	payload, err := c.client.Get(ctx, c.key).Bytes()
	if err == nil {
		var rules []models.SlaRule
		if err := json.Unmarshal(payload, &rules); err == nil {
			ruleCacheHits.Inc()
			return rules, nil
		}
		ruleCacheErrors.Inc()
	} else if err != redis.Nil {
		ruleCacheErrors.Inc()
	}

	ruleCacheMisses.Inc()
	rules, err := c.source.ActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(rules); err == nil {
		if err := c.client.Set(ctx, c.key, payload, c.ttl).Err(); err != nil {
			ruleCacheErrors.Inc()
		}
	}
	return rules, nil
}

// Invalidate drops the cached rule set, for admin surfaces that edit rules.
func (c *RuleCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		ruleCacheErrors.Inc()
		return fmt.Errorf("failed to invalidate rule cache: %w", err)
	}
	return nil
}
