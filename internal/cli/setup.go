package cli

import (
	"go.uber.org/zap"

	"github.com/ppiankov/groundcheck/internal/metrics"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/pipeline"
	"github.com/ppiankov/groundcheck/internal/verify"
)

// app bundles the components shared by the commands
type app struct {
	cfg      *model.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	verifier *verify.Verifier
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	src, err := pipeline.NewSource(cfg, m, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	v := verify.New(src,
		verify.WithLogger(logger),
		verify.WithMinCommonWords(cfg.Verification.MinCommonWords))

	return &app{cfg: cfg, logger: logger, metrics: m, verifier: v}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}
