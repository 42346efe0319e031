package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/groundcheck/internal/cache"
	"github.com/ppiankov/groundcheck/internal/knowledge"
	"github.com/ppiankov/groundcheck/internal/metrics"
	"github.com/ppiankov/groundcheck/internal/model"
)

// NewSource builds the knowledge source described by cfg:
// offline fixtures, or the Wikipedia client behind an optional layered cache.
// m may be nil.
func NewSource(cfg *model.Config, m *metrics.Metrics, logger *zap.Logger) (knowledge.Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var src knowledge.Source
	if cfg.Knowledge.Offline != "" {
		fixtures, err := knowledge.LoadFixtures(cfg.Knowledge.Offline)
		if err != nil {
			return nil, fmt.Errorf("offline source: %w", err)
		}
		logger.Info("using offline fixtures", zap.String("path", cfg.Knowledge.Offline))
		src = fixtures
	} else {
		src = knowledge.NewWikipediaClient(knowledge.WikipediaConfigFromModel(cfg), logger)
		if m != nil {
			src = m.Instrument(src, metrics.LayerRemote)
		}
		if cfg.Cache.Enabled {
			c := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
			src = knowledge.NewCachedSource(src, c, 0, logger)
		}
	}

	if m != nil {
		src = m.Instrument(src, metrics.LayerResolver)
	}
	return src, nil
}
