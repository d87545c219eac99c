package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/domain/providers"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
)

// CachedCentreAdapter wraps a CentreRepository with read-through caching for
// single-centre lookups. Writes invalidate the affected key.
type CachedCentreAdapter struct {
	adapter repositories.CentreRepository
	cache   providers.CacheProvider
}

// NewCachedCentreAdapter creates a new cached centre adapter
func NewCachedCentreAdapter(adapter repositories.CentreRepository, cache providers.CacheProvider) repositories.CentreRepository {
	return &CachedCentreAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

const centreByIDTTL = 5 * time.Minute

func centreCacheKey(id string) string {
	return fmt.Sprintf("centre:%s", id)
}

// GetByID retrieves a centre by ID with caching
func (a *CachedCentreAdapter) GetByID(ctx context.Context, id string) (*entities.Centre, error) {
	cacheKey := centreCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var centre entities.Centre
		if err := json.Unmarshal(cached, &centre); err == nil {
			return &centre, nil
		}
		log.Warn().Str("centre_id", id).Msg("failed to unmarshal cached centre")
	}

	centre, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Populate the cache off the request path.
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(centre); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, centreByIDTTL); err != nil {
				log.Warn().Err(err).Str("centre_id", id).Msg("failed to cache centre")
			}
		}
	}()

	return centre, nil
}

// Create creates a new centre
func (a *CachedCentreAdapter) Create(ctx context.Context, centre *entities.Centre) error {
	return a.adapter.Create(ctx, centre)
}

// Update updates a centre and invalidates its cache entry
func (a *CachedCentreAdapter) Update(ctx context.Context, centre *entities.Centre) error {
	if err := a.adapter.Update(ctx, centre); err != nil {
		return err
	}
	a.invalidate(ctx, centre.ID)
	return nil
}

// UpdateStatus changes the moderation status and invalidates the cache entry
func (a *CachedCentreAdapter) UpdateStatus(ctx context.Context, id string, status entities.CentreStatus) error {
	if err := a.adapter.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	a.invalidate(ctx, id)
	return nil
}

// Delete removes a centre and invalidates the cache entry
func (a *CachedCentreAdapter) Delete(ctx context.Context, id string) error {
	if err := a.adapter.Delete(ctx, id); err != nil {
		return err
	}
	a.invalidate(ctx, id)
	return nil
}

// List passes through; list results are cached at the HTTP layer instead.
func (a *CachedCentreAdapter) List(ctx context.Context, filter repositories.CentreFilter) ([]*entities.Centre, int, error) {
	return a.adapter.List(ctx, filter)
}

// IncrementViewCount bumps the view counter. The cached copy keeps its stale
// counter until the TTL runs out, which is acceptable for a display value.
func (a *CachedCentreAdapter) IncrementViewCount(ctx context.Context, id string) error {
	return a.adapter.IncrementViewCount(ctx, id)
}

// CountByStatus passes through
func (a *CachedCentreAdapter) CountByStatus(ctx context.Context) (map[entities.CentreStatus]int, error) {
	return a.adapter.CountByStatus(ctx)
}

// CountByType passes through
func (a *CachedCentreAdapter) CountByType(ctx context.Context) (map[string]int, error) {
	return a.adapter.CountByType(ctx)
}

// CountByCity passes through
func (a *CachedCentreAdapter) CountByCity(ctx context.Context) (map[string]int, error) {
	return a.adapter.CountByCity(ctx)
}

func (a *CachedCentreAdapter) invalidate(ctx context.Context, id string) {
	if err := a.cache.Delete(ctx, centreCacheKey(id)); err != nil {
		log.Warn().Err(err).Str("centre_id", id).Msg("failed to invalidate centre cache")
	}
}
