package redis

import (
	"context"
	"time"

	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// MarketsCacheKey holds the full market forest.
const MarketsCacheKey = "markets:all"

// HitRecorder receives cache outcomes, typically prometheus counters.
type HitRecorder interface {
	RecordCacheResult(cache string, hit bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordCacheResult(string, bool) {}

// CachedMarketRepository serves the rarely mutated market forest from redis
// and drops the cached copy on every write.
type CachedMarketRepository struct {
	next     market.Repository
	cache    Cache
	ttl      time.Duration
	recorder HitRecorder
	log      logging.Logger
}

func NewCachedMarketRepository(next market.Repository, cache Cache, ttl time.Duration, recorder HitRecorder, log logging.Logger) *CachedMarketRepository {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &CachedMarketRepository{next: next, cache: cache, ttl: ttl, recorder: recorder, log: log}
}

func (r *CachedMarketRepository) List(ctx context.Context) ([]*market.Market, error) {
	var out []*market.Market
	hit := true
	err := r.cache.GetOrSet(ctx, MarketsCacheKey, &out, r.ttl, func(ctx context.Context) (interface{}, error) {
		hit = false
		return r.next.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	r.recorder.RecordCacheResult("markets", hit)
	return out, nil
}

func (r *CachedMarketRepository) GetByID(ctx context.Context, id string) (*market.Market, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range all {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, errors.New(errors.ErrCodeMarketNotFound, "market not found").WithDetail(id)
}

func (r *CachedMarketRepository) BulkCreate(ctx context.Context, markets []*market.Market) (int, error) {
	n, err := r.next.BulkCreate(ctx, markets)
	r.Invalidate(ctx)
	return n, err
}

func (r *CachedMarketRepository) BulkDelete(ctx context.Context, ids []string) (int, error) {
	n, err := r.next.BulkDelete(ctx, ids)
	r.Invalidate(ctx)
	return n, err
}

// Invalidate drops the cached forest. Failures are logged; the entry
// expires on its own.
func (r *CachedMarketRepository) Invalidate(ctx context.Context) {
	if err := r.cache.Delete(ctx, MarketsCacheKey); err != nil {
		r.log.Warn("Failed to invalidate market cache", logging.Err(err))
	}
}
