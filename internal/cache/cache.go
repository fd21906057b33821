package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-service/internal/observability"
	"github.com/spec-kit/employee-service/internal/persistence"
)

// ErrMiss marks an absent key, distinct from a backend failure.
var ErrMiss = errors.New("cache: miss")

// Backend is the minimal key-value contract the resolver needs.
// Get returns ErrMiss when the key is absent.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// ProduceFn computes the value on a miss.
type ProduceFn func(ctx context.Context) (string, error)

type lookupOutcome int

const (
	outcomeHit lookupOutcome = iota
	outcomeMiss
	outcomeBackendError
)

// Resolver implements cache-aside reads: check the backend, fall back to the
// producer, populate on a miss. A failing backend never fails the call.
type Resolver struct {
	backend Backend
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewResolver constructs a resolver.
func NewResolver(backend Backend, logger *zap.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{backend: backend, logger: logger, metrics: metrics}
}

// GetOrSet returns the cached value for key, or computes it via produce and
// stores it with the given TTL. Backend failures on either the read or the
// write degrade to direct computation; the producer runs at most once per
// call and its errors always propagate.
func (r *Resolver) GetOrSet(ctx context.Context, key string, ttl time.Duration, produce ProduceFn) (string, error) {
	if key == "" {
		return "", errors.New("cache: key must not be empty")
	}

	val, outcome := r.lookup(ctx, key)
	switch outcome {
	case outcomeHit:
		r.metrics.RecordCacheHit()
		return val, nil
	case outcomeBackendError:
		// Availability over consistency: compute directly, skip the write.
		return produce(ctx)
	}

	r.metrics.RecordCacheMiss()
	fresh, err := produce(ctx)
	if err != nil {
		return "", err
	}

	if err := r.backend.Set(ctx, key, fresh, ttl); err != nil {
		r.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return fresh, nil
}

func (r *Resolver) lookup(ctx context.Context, key string) (string, lookupOutcome) {
	val, err := r.backend.Get(ctx, key)
	if err == nil {
		return val, outcomeHit
	}
	if errors.Is(err, ErrMiss) {
		return "", outcomeMiss
	}
	r.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	return "", outcomeBackendError
}

// redisBackend adapts the shared Redis client to the Backend contract.
type redisBackend struct {
	redis *persistence.Redis
}

// NewRedisBackend wraps the process-scoped Redis client.
func NewRedisBackend(r *persistence.Redis) Backend {
	return &redisBackend{redis: r}
}

func (b *redisBackend) Get(ctx context.Context, key string) (string, error) {
	val, err := b.redis.Get(ctx, key)
	if err != nil {
		if persistence.IsMiss(err) {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (b *redisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.redis.Set(ctx, key, value, ttl)
}
