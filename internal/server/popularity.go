package server

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	pkgredis "github.com/fernwehlabs/discovery/pkg/redis"
	"github.com/fernwehlabs/discovery/pkg/resilience"
)

const (
	popularityKeyPrefix = "popularity:"
	popularityTimeout   = 150 * time.Millisecond
)

// RedisPopularity reads per-post engagement counters from Redis and squashes
// them into the [0,1] prior the recommender expects. The counters themselves
// are written by the analytics pipeline; this side only reads.
//
// Lookups run behind a circuit breaker with a short timeout: popularity is a
// soft signal, and a degraded Redis must not slow every recommendation to
// its dial timeout.
type RedisPopularity struct {
	client  *pkgredis.Client
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

// NewRedisPopularity creates a popularity provider over the given client.
func NewRedisPopularity(client *pkgredis.Client) *RedisPopularity {
	return &RedisPopularity{
		client:  client,
		breaker: resilience.NewCircuitBreaker("popularity", resilience.CircuitBreakerConfig{}),
		logger:  slog.Default().With("component", "popularity"),
	}
}

// Popularity returns normalised engagement priors for the given posts.
// Posts without a counter are omitted; the recommender fills in the neutral
// default.
func (p *RedisPopularity) Popularity(ctx context.Context, postIDs []string) (map[string]float64, error) {
	keys := make([]string, len(postIDs))
	for i, id := range postIDs {
		keys[i] = popularityKeyPrefix + id
	}
	var values []any
	err := p.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, popularityTimeout, "popularity_mget", func(ctx context.Context) error {
			var err error
			values, err = p.client.MGet(ctx, keys...)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	priors := make(map[string]float64, len(postIDs))
	for i, raw := range values {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		count, err := strconv.ParseFloat(s, 64)
		if err != nil || count < 0 {
			p.logger.Warn("ignoring malformed popularity counter", "post_id", postIDs[i], "value", s)
			continue
		}
		// squash raw view counts into [0,1); 1000 views ≈ 0.8
		priors[postIDs[i]] = count / (count + 250)
	}
	return priors, nil
}
