package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/langcoach/internal/models"
	"github.com/nikhilbhutani/langcoach/internal/store"
)

const languagesKey = "langcoach:languages"

// LanguageCatalog serves the language list from Redis, falling back to the
// store on a miss or when Redis is down.
type LanguageCatalog struct {
	store.Languages
	cache *Cache
	ttl   time.Duration
}

func NewLanguageCatalog(languages store.Languages, c *Cache, ttl time.Duration) *LanguageCatalog {
	return &LanguageCatalog{Languages: languages, cache: c, ttl: ttl}
}

func (lc *LanguageCatalog) ListLanguages(ctx context.Context) ([]models.Language, error) {
	var langs []models.Language
	err := lc.cache.Get(ctx, languagesKey, &langs)
	if err == nil {
		return langs, nil
	}
	if !errors.Is(err, redis.Nil) {
		slog.Debug("language cache unavailable", "error", err)
	}

	langs, err = lc.Languages.ListLanguages(ctx)
	if err != nil {
		return nil, err
	}
	if err := lc.cache.Set(ctx, languagesKey, langs, lc.ttl); err != nil {
		slog.Debug("language cache write failed", "error", err)
	}
	return langs, nil
}

// Invalidate drops the cached catalog.
func (lc *LanguageCatalog) Invalidate(ctx context.Context) error {
	return lc.cache.Delete(ctx, languagesKey)
}
