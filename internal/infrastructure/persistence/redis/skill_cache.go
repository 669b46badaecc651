package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

// CachedSkillRepository reads listings through the cache and invalidates
// on every write. Cache failures fall back to the wrapped repository.
type CachedSkillRepository struct {
	skill.Repository

	cache  *Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSkillRepository wraps repo.
func NewCachedSkillRepository(repo skill.Repository, cache *Cache, logger *slog.Logger) *CachedSkillRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSkillRepository{
		Repository: repo,
		cache:      cache,
		ttl:        TTLSkillCache,
		logger:     logger.With("component", "skill_cache"),
	}
}

// WithTTL overrides how long listings stay cached.
func (r *CachedSkillRepository) WithTTL(ttl time.Duration) *CachedSkillRepository {
	if ttl > 0 {
		r.ttl = ttl
	}
	return r
}

// GetByID returns the cached listing or loads and caches it.
func (r *CachedSkillRepository) GetByID(ctx context.Context, id string) (*skill.Listing, error) {
	var cached skill.Listing
	err := r.cache.Get(ctx, SkillKey(id), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		r.logger.Warn("skill cache read failed", "listing_id", id, "error", err)
	}

	l, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, SkillKey(id), l, r.ttl); err != nil {
		r.logger.Warn("skill cache write failed", "listing_id", id, "error", err)
	}
	return l, nil
}

// Save stores the listing and drops its cache entry.
func (r *CachedSkillRepository) Save(ctx context.Context, l *skill.Listing) error {
	if err := r.Repository.Save(ctx, l); err != nil {
		return err
	}
	r.invalidate(ctx, l.ID)
	return nil
}

// Delete removes the listing and drops its cache entry.
func (r *CachedSkillRepository) Delete(ctx context.Context, id string) error {
	if err := r.Repository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// ListByOwner is never cached: the owner list changes on every write.
func (r *CachedSkillRepository) ListByOwner(ctx context.Context, ownerID shared.UserID) ([]*skill.Listing, error) {
	return r.Repository.ListByOwner(ctx, ownerID)
}

func (r *CachedSkillRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, SkillKey(id)); err != nil {
		r.logger.Warn("skill cache invalidation failed", "listing_id", id, "error", err)
	}
}
