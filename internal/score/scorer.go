package score

import (
	"sort"

	"github.com/ppiankov/groundcheck/internal/extract"
	"github.com/ppiankov/groundcheck/internal/model"
)

// MinCommonWords is the overlap needed for a "likely grounded" verdict.
// Approximate: shared words are a relatedness signal, not proof.
const MinCommonWords = 2

// Overlap is the transparent breakdown of one scoring
type Overlap struct {
	CommonWords []string `json:"common_words"` // Sorted intersection of both word sets
	Threshold   int      `json:"threshold"`
	Grounded    bool     `json:"grounded"`
}

// Scorer compares a response against an article summary
type Scorer struct {
	threshold int
}

// NewScorer creates a scorer with the default threshold
func NewScorer() *Scorer {
	return &Scorer{threshold: MinCommonWords}
}

// NewScorerWithThreshold creates a scorer with a custom threshold (values < 1 fall back to the default)
func NewScorerWithThreshold(threshold int) *Scorer {
	if threshold < 1 {
		threshold = MinCommonWords
	}
	return &Scorer{threshold: threshold}
}

// Threshold returns the number of shared words required
func (s *Scorer) Threshold() int {
	return s.threshold
}

// Score computes the lexical overlap between the article summary and the response
func (s *Scorer) Score(article model.Article, response string) Overlap {
	summaryWords := extract.WordSet(article.Summary)
	responseWords := extract.WordSet(response)

	// Iterate the smaller set
	small, large := responseWords, summaryWords
	if len(small) > len(large) {
		small, large = large, small
	}

	common := make([]string, 0)
	for w := range small {
		if _, ok := large[w]; ok {
			common = append(common, w)
		}
	}
	sort.Strings(common)

	return Overlap{
		CommonWords: common,
		Threshold:   s.threshold,
		Grounded:    len(common) >= s.threshold,
	}
}

// Grounded is the boolean form of Score. A nil or missing article is never grounded.
func (s *Scorer) Grounded(article *model.Article, response string) bool {
	if article == nil || !article.Exists {
		return false
	}
	return s.Score(*article, response).Grounded
}
