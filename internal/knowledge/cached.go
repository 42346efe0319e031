package knowledge

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/groundcheck/internal/cache"
	"github.com/ppiankov/groundcheck/internal/model"
)

// CachedSource memoizes lookups of another source, including missing pages.
// Lookup errors are never cached.
type CachedSource struct {
	source Source
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSource wraps source with c. A zero ttl uses the cache default.
func NewCachedSource(source Source, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{
		source: source,
		cache:  c,
		ttl:    ttl,
		logger: logger.Named("cache"),
	}
}

// Name returns the wrapped source's name
func (s *CachedSource) Name() string {
	return s.source.Name()
}

// Page serves from the cache when possible
func (s *CachedSource) Page(ctx context.Context, title string) (model.Article, error) {
	key := cache.CacheKey(s.source.Name(), title)

	if data, found := s.cache.Get(key); found {
		var article model.Article
		if err := json.Unmarshal(data, &article); err == nil {
			s.logger.Debug("hit", zap.String("title", title))
			return article, nil
		}
		_ = s.cache.Delete(key)
	}

	article, err := s.source.Page(ctx, title)
	if err != nil {
		return article, err
	}

	data, err := json.Marshal(article)
	if err == nil {
		if err := s.cache.Set(key, data, s.ttl); err != nil {
			s.logger.Warn("cache write failed", zap.String("title", title), zap.Error(err))
		}
	}

	return article, nil
}
