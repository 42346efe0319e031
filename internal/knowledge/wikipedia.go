package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/util"
	"github.com/ppiankov/groundcheck/internal/worker"
)

// Extract formats supported by the MediaWiki TextExtracts API
const (
	FormatWiki = "wiki" // Plain text (explaintext)
	FormatHTML = "html" // Limited HTML, stripped to visible text locally
)

// lookupSleepFunc is the sleep function used between retries (injectable for tests)
var lookupSleepFunc = time.Sleep

// WikipediaConfig configures a WikipediaClient
type WikipediaConfig struct {
	Language          string
	Endpoint          string // Defaults to https://{Language}.wikipedia.org/w/api.php
	ExtractFormat     string
	UserAgent         string
	Timeout           time.Duration
	MaxBodyBytes      int64
	Retries           int // Extra attempts for transient failures (429, 5xx, network)
	RespectRobots     bool
	RequestsPerSecond float64
	BurstSize         int
	HTTPProxy         string
	HTTPSProxy        string
	NoProxy           string
}

// WikipediaConfigFromModel converts the application config
func WikipediaConfigFromModel(cfg *model.Config) WikipediaConfig {
	return WikipediaConfig{
		Language:          cfg.Knowledge.Language,
		Endpoint:          cfg.Knowledge.Endpoint,
		ExtractFormat:     cfg.Knowledge.ExtractFormat,
		UserAgent:         cfg.HTTP.UserAgent,
		Timeout:           cfg.HTTP.Timeout,
		MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
		Retries:           cfg.Knowledge.Retries,
		RespectRobots:     cfg.Knowledge.RespectRobots,
		RequestsPerSecond: cfg.RateLimiting.RequestsPerSecond,
		BurstSize:         cfg.RateLimiting.BurstSize,
		HTTPProxy:         cfg.HTTP.HTTPProxy,
		HTTPSProxy:        cfg.HTTP.HTTPSProxy,
		NoProxy:           cfg.HTTP.NoProxy,
	}
}

// WikipediaClient resolves titles through the MediaWiki Action API
type WikipediaClient struct {
	httpClient *http.Client
	endpoint   string
	language   string
	format     string
	userAgent  string
	maxBytes   int64
	retries    int
	budget     time.Duration // Upper bound for one shared lookup including retries
	limiter    *worker.Limiter
	robots     *util.RobotsChecker // nil unless robots.txt is respected
	group      singleflight.Group
	logger     *zap.Logger
}

// NewWikipediaClient creates a new Wikipedia client
func NewWikipediaClient(cfg WikipediaConfig, logger *zap.Logger) *WikipediaClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", cfg.Language)
	}
	if cfg.ExtractFormat == "" {
		cfg.ExtractFormat = FormatWiki
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 2_000_000
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		},
	}

	c := &WikipediaClient{
		httpClient: httpClient,
		endpoint:   cfg.Endpoint,
		language:   cfg.Language,
		format:     cfg.ExtractFormat,
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBodyBytes,
		retries:    cfg.Retries,
		budget:     lookupBudget(cfg.Timeout, cfg.Retries),
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		logger:     logger.Named("wikipedia"),
	}
	if cfg.RespectRobots {
		c.robots = util.NewRobotsChecker(cfg.UserAgent, httpClient)
	}

	return c
}

// Name returns "wikipedia:<lang>"
func (c *WikipediaClient) Name() string {
	return "wikipedia:" + c.language
}

// queryResponse is the formatversion=2 shape of action=query
type queryResponse struct {
	Query struct {
		Pages []queryPage `json:"pages"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error,omitempty"`
}

type queryPage struct {
	PageID  int    `json:"pageid"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
	FullURL string `json:"fullurl"`
	Missing bool   `json:"missing"`
	Invalid bool   `json:"invalid"`
}

// statusError is a non-2xx HTTP response
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.status)
}

// Page returns the intro extract of the page titled title.
// Concurrent calls for the same title share one request. The shared request
// is detached from any single caller's cancellation; each caller stops
// waiting when its own ctx is done.
func (c *WikipediaClient) Page(ctx context.Context, title string) (model.Article, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Article{}, ErrEmptyTitle
	}
	// "|" separates titles in the API; such a title cannot exist
	if strings.ContainsAny(title, "|#<>[]{}") {
		return model.Missing(title), nil
	}

	ch := c.group.DoChan(title, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.budget)
		defer cancel()
		return c.pageWithRetry(fetchCtx, title)
	})

	select {
	case <-ctx.Done():
		return model.Article{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return model.Article{}, res.Err
		}
		if res.Shared {
			c.logger.Debug("coalesced lookup", zap.String("title", title))
		}
		return res.Val.(model.Article), nil
	}
}

// lookupBudget covers every attempt plus the backoff between them
func lookupBudget(timeout time.Duration, retries int) time.Duration {
	budget := timeout
	for attempt := 1; attempt <= retries; attempt++ {
		budget += timeout + time.Duration(1<<uint(attempt-1))*500*time.Millisecond
	}
	return budget
}

func (c *WikipediaClient) pageWithRetry(ctx context.Context, title string) (model.Article, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
			c.logger.Debug("retrying lookup",
				zap.String("title", title),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			lookupSleepFunc(backoff)
		}

		article, err := c.fetchPage(ctx, title)
		if err == nil {
			return article, nil
		}
		lastErr = err

		if !isRetryableLookupError(ctx, err) {
			break
		}
	}
	return model.Article{}, lastErr
}

func (c *WikipediaClient) fetchPage(ctx context.Context, title string) (model.Article, error) {
	apiURL := c.queryURL(title)

	if c.robots != nil {
		allowed, crawlDelay, _ := c.robots.CanFetch(ctx, apiURL)
		if !allowed {
			return model.Article{}, ErrBlocked
		}
		if err := c.limiter.WaitWithDelay(ctx, apiURL, crawlDelay); err != nil {
			return model.Article{}, fmt.Errorf("rate limit: %w", err)
		}
	} else if err := c.limiter.Wait(ctx, apiURL); err != nil {
		return model.Article{}, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return model.Article{}, fmt.Errorf("create request: %w", err)
	}

	// Wikimedia API etiquette requires an identifying User-Agent
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Article{}, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Article{}, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	var qr queryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBytes)).Decode(&qr); err != nil {
		return model.Article{}, fmt.Errorf("decode response: %w", err)
	}
	if qr.Error != nil {
		return model.Article{}, fmt.Errorf("api error %s: %s", qr.Error.Code, qr.Error.Info)
	}

	article, err := c.toArticle(title, qr.Query.Pages)
	if err != nil {
		return model.Article{}, err
	}

	c.logger.Debug("lookup",
		zap.String("title", title),
		zap.String("resolved", article.Title),
		zap.Bool("exists", article.Exists),
		zap.Duration("took", time.Since(start)))

	return article, nil
}

func (c *WikipediaClient) toArticle(title string, pages []queryPage) (model.Article, error) {
	if len(pages) == 0 {
		return model.Missing(title), nil
	}

	page := pages[0]
	if page.Missing || page.Invalid || page.PageID == 0 {
		return model.Missing(title), nil
	}

	summary := strings.TrimSpace(page.Extract)
	if c.format == FormatHTML {
		text, err := htmlToText(page.Extract)
		if err != nil {
			return model.Article{}, fmt.Errorf("parse extract: %w", err)
		}
		summary = text
	}

	return model.Article{
		Title:   page.Title,
		Summary: summary,
		URL:     page.FullURL,
		Exists:  true,
	}, nil
}

func (c *WikipediaClient) queryURL(title string) string {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("prop", "extracts|info")
	params.Set("inprop", "url")
	params.Set("exintro", "1")
	params.Set("redirects", "1")
	params.Set("titles", title)
	if c.format != FormatHTML {
		params.Set("explaintext", "1")
	}
	return c.endpoint + "?" + params.Encode()
}

// isRetryableLookupError reports whether a failed lookup is worth repeating
func isRetryableLookupError(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
