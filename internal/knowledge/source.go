// Package knowledge provides reference article lookups for verification.
package knowledge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/groundcheck/internal/model"
)

var (
	// ErrEmptyTitle is returned for blank lookup titles
	ErrEmptyTitle = errors.New("empty title")

	// ErrBlocked is returned when robots.txt disallows the lookup
	ErrBlocked = errors.New("blocked by robots.txt")
)

// Source looks up a reference article by title.
//
// A title the source does not know yields an Article with Exists == false
// and a nil error. Errors are reserved for failures to ask (network, decode,
// cancellation). Implementations must be safe for concurrent use.
type Source interface {
	// Name identifies the source (e.g. "wikipedia:en"); used for cache namespacing
	Name() string

	// Page returns the article for title
	Page(ctx context.Context, title string) (model.Article, error)
}

// StaticSource serves articles from an in-memory map
type StaticSource struct {
	name     string
	articles map[string]model.Article
}

// NewStaticSource creates a source from title -> summary pairs
func NewStaticSource(name string, summaries map[string]string) *StaticSource {
	articles := make(map[string]model.Article, len(summaries))
	for title, summary := range summaries {
		articles[title] = model.Article{Title: title, Summary: summary, Exists: true}
	}
	return &StaticSource{name: name, articles: articles}
}

// Name returns the source name
func (s *StaticSource) Name() string {
	return s.name
}

// Page looks up title exactly, then with its first letter upper-cased
// (MediaWiki's first-letter case folding).
func (s *StaticSource) Page(ctx context.Context, title string) (model.Article, error) {
	if err := ctx.Err(); err != nil {
		return model.Article{}, err
	}
	if strings.TrimSpace(title) == "" {
		return model.Article{}, ErrEmptyTitle
	}

	if a, ok := s.articles[title]; ok {
		return a, nil
	}
	if a, ok := s.articles[upperFirst(title)]; ok {
		return a, nil
	}
	return model.Missing(title), nil
}

// CountingSource records every title passed to the wrapped source
type CountingSource struct {
	Source

	mu     sync.Mutex
	titles []string
}

// NewCountingSource wraps src
func NewCountingSource(src Source) *CountingSource {
	return &CountingSource{Source: src}
}

// Page records the title and delegates
func (c *CountingSource) Page(ctx context.Context, title string) (model.Article, error) {
	c.mu.Lock()
	c.titles = append(c.titles, title)
	c.mu.Unlock()

	return c.Source.Page(ctx, title)
}

// Calls returns the number of lookups made
func (c *CountingSource) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.titles)
}

// Titles returns a copy of the looked-up titles in call order
func (c *CountingSource) Titles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.titles...)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
