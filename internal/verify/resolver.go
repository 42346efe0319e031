package verify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/groundcheck/internal/extract"
	"github.com/ppiankov/groundcheck/internal/knowledge"
	"github.com/ppiankov/groundcheck/internal/model"
)

// Resolution is the outcome of article resolution
type Resolution struct {
	Article *model.Article // nil when no tier produced an existing page
	Tier    model.Tier
	Lookups int
}

// Resolver maps candidate subjects to a reference article
type Resolver struct {
	source knowledge.Source
	logger *zap.Logger
}

// NewResolver creates a resolver over source
func NewResolver(source knowledge.Source, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{source: source, logger: logger}
}

// Resolve tries, in order: the candidates as given, the lowercased word
// tokens of the prompt, then the proper nouns of the response. A tier is
// only reached when every title of the previous one failed to resolve.
func (r *Resolver) Resolve(ctx context.Context, candidates []string, prompt, response string) Resolution {
	var res Resolution

	tiers := []struct {
		tier   model.Tier
		titles func() []string
	}{
		{model.TierPromptSubject, func() []string { return candidates }},
		{model.TierPromptToken, func() []string { return lowerAll(extract.WordTokens(prompt)) }},
		{model.TierResponseProperNoun, func() []string {
			if response == "" {
				return nil
			}
			return extract.ProperNouns(response)
		}},
	}

	for _, t := range tiers {
		for _, title := range t.titles() {
			if ctx.Err() != nil {
				return res
			}

			res.Lookups++
			article, err := r.source.Page(ctx, title)
			if err != nil {
				r.logger.Debug("lookup failed, treating as missing",
					zap.String("title", title),
					zap.String("tier", string(t.tier)),
					zap.Error(err))
				continue
			}
			if article.Exists {
				res.Article = &article
				res.Tier = t.tier
				return res
			}
		}
	}

	return res
}

func lowerAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}
