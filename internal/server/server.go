// Package server exposes the verifier over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ppiankov/groundcheck/internal/metrics"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/pipeline"
	"github.com/ppiankov/groundcheck/internal/verify"
)

const requestIDHeader = "X-Request-ID"

// Server serves verification requests
type Server struct {
	cfg      model.ServerConfig
	verifier *verify.Verifier
	pipeline *pipeline.Pipeline
	metrics  *metrics.Metrics // Optional
	logger   *zap.Logger
}

// New creates a server. m may be nil.
func New(cfg model.ServerConfig, v *verify.Verifier, p *pipeline.Pipeline, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		verifier: v,
		pipeline: p,
		metrics:  m,
		logger:   logger.Named("server"),
	}
}

// VerifyRequest is the body of POST /v1/verify
type VerifyRequest struct {
	Prompt   string `json:"prompt" binding:"required"`
	Response string `json:"response"`
}

// VerifyResponse is the answer to POST /v1/verify
type VerifyResponse struct {
	Grounded    bool           `json:"grounded"`
	Outcome     model.Outcome  `json:"outcome"`
	Article     *model.Article `json:"article,omitempty"`
	Tier        model.Tier     `json:"tier,omitempty"`
	CommonWords []string       `json:"common_words"`
	Lookups     int            `json:"lookups"`
}

// EvaluateRequest is the body of POST /v1/evaluate
type EvaluateRequest struct {
	Cases []model.Case `json:"cases" binding:"required,min=1,dive"`
}

// Router builds the gin engine
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog(), s.timeout())

	r.GET("/healthz", s.Health)
	r.POST("/v1/verify", s.Verify)
	r.POST("/v1/evaluate", s.Evaluate)

	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Health reports liveness and the knowledge source in use
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"source": s.verifier.Source().Name(),
	})
}

// Verify handles a single prompt/response pair
func (s *Server) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	eval := s.verifier.Evaluate(c.Request.Context(), req.Prompt, req.Response)
	if s.metrics != nil {
		s.metrics.ObserveEvaluation(eval)
	}

	commonWords := eval.CommonWords
	if commonWords == nil {
		commonWords = []string{}
	}

	c.JSON(http.StatusOK, VerifyResponse{
		Grounded:    eval.Grounded(),
		Outcome:     eval.Outcome,
		Article:     eval.Article,
		Tier:        eval.Tier,
		CommonWords: commonWords,
		Lookups:     eval.Lookups,
	})
}

// Evaluate runs a batch of cases and returns the report
func (s *Server) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if s.cfg.MaxBatch > 0 && len(req.Cases) > s.cfg.MaxBatch {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("too many cases: %d (max %d)", len(req.Cases), s.cfg.MaxBatch),
		})
		return
	}

	cases, err := pipeline.NormalizeCases(req.Cases)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := s.pipeline.Run(c.Request.Context(), cases)
	if err != nil {
		s.logger.Error("evaluate failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")))
	}
}

// timeout bounds the request context so knowledge lookups give up in time
func (s *Server) timeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.RequestTimeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
