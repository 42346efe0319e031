package verify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/groundcheck/internal/knowledge"
	"github.com/ppiankov/groundcheck/internal/model"
)

const penicillinSummary = "Penicillins are a group of beta-lactam antibiotics originally obtained from Penicillium moulds. " +
	"Penicillin was discovered in 1928 by the Scottish scientist Alexander Fleming."

func testSource() *knowledge.CountingSource {
	return knowledge.NewCountingSource(knowledge.NewStaticSource("test", map[string]string{
		"Penicillin": penicillinSummary,
		"Japan":      "Japan is an island country in East Asia.",
		"Tea":        "Tea is an aromatic beverage prepared by pouring hot water over cured leaves.",
	}))
}

// flakySource fails lookups for the listed titles
type flakySource struct {
	knowledge.Source
	fail map[string]bool
}

func (f *flakySource) Page(ctx context.Context, title string) (model.Article, error) {
	if f.fail[title] {
		return model.Article{}, errors.New("connection reset")
	}
	return f.Source.Page(ctx, title)
}

// panicStrategy simulates a broken extractor
type panicStrategy struct{}

func (panicStrategy) Candidates(string) []string { panic("boom") }

// fixedStrategy returns the same candidates for any prompt
type fixedStrategy []string

func (f fixedStrategy) Candidates(string) []string { return f }

func TestVerifier_PenicillinScenario(t *testing.T) {
	src := testSource()
	v := New(src)

	eval := v.Evaluate(context.Background(),
		"Who discovered penicillin?",
		"Penicillin was discovered by Alexander Fleming in 1928 when he noticed that mold killed bacteria.")

	assert.Equal(t, model.OutcomeGrounded, eval.Outcome)
	assert.Equal(t, []string{"discovered", "penicillin"}, eval.Candidates)
	require.NotNil(t, eval.Article)
	assert.Equal(t, "Penicillin", eval.Article.Title)
	assert.Equal(t, model.TierPromptSubject, eval.Tier)
	assert.Equal(t, 2, eval.Lookups)
	assert.Subset(t, eval.CommonWords, []string{"penicillin", "discovered", "alexander", "fleming", "1928"})
	assert.Equal(t, []string{"discovered", "penicillin"}, src.Titles())
}

func TestVerifier_BlockchainScenario(t *testing.T) {
	v := New(testSource())

	grounded := v.Verify(context.Background(),
		"How can I calculate the miles per gallon (MPG) of a blockchain transaction?",
		"You can compute MPG by dividing gas used by transaction size.")

	assert.False(t, grounded)
}

func TestVerifier_EmptyResponse(t *testing.T) {
	v := New(testSource())

	eval := v.Evaluate(context.Background(), "Who discovered penicillin?", "")
	assert.Equal(t, model.OutcomeNotGrounded, eval.Outcome)
	assert.NotNil(t, eval.Article)
	assert.Empty(t, eval.CommonWords)
	assert.False(t, eval.Grounded())
}

func TestVerifier_NoSubjectsMakesNoCalls(t *testing.T) {
	prompts := []string{"", "   ", "Who is the DNA?", "how did a cat?", "?!"}

	for _, prompt := range prompts {
		t.Run(prompt, func(t *testing.T) {
			src := testSource()
			v := New(src)

			eval := v.Evaluate(context.Background(), prompt, "Japan is an island country.")
			assert.Equal(t, model.OutcomeUnresolvable, eval.Outcome)
			assert.Empty(t, eval.Candidates)
			assert.Zero(t, src.Calls())
		})
	}
}

func TestVerifier_Idempotent(t *testing.T) {
	v := New(testSource())
	ctx := context.Background()
	prompt := "Who discovered penicillin?"
	response := "Penicillin was discovered by Alexander Fleming."

	first := v.Evaluate(ctx, prompt, response)
	second := v.Evaluate(ctx, prompt, response)
	assert.Equal(t, first, second)
	assert.Equal(t, v.Verify(ctx, prompt, response), v.Verify(ctx, prompt, response))
}

func TestVerifier_TierOrder(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		response string
		tier     model.Tier
		titles   []string
	}{
		{
			name:     "first tier stops the search",
			prompt:   "Japan?",
			response: "It was brewed with Tea long ago.",
			tier:     model.TierPromptSubject,
			titles:   []string{"Japan"},
		},
		{
			name:     "short word reached through prompt tokens",
			prompt:   "Explain tea",
			response: "It was brewed in Japan long ago.",
			tier:     model.TierPromptToken,
			titles:   []string{"Explain", "explain", "tea"},
		},
		{
			name:     "response proper noun as last resort",
			prompt:   "Explain this",
			response: "It was brewed in Japan long ago.",
			tier:     model.TierResponseProperNoun,
			titles:   []string{"Explain", "this", "explain", "this", "It", "Japan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := testSource()
			v := New(src)

			eval := v.Evaluate(context.Background(), tt.prompt, tt.response)
			assert.Equal(t, tt.tier, eval.Tier)
			assert.Equal(t, tt.titles, src.Titles())
			assert.Equal(t, len(tt.titles), eval.Lookups)
		})
	}
}

func TestVerifier_NonASCIISubjectsStayWhole(t *testing.T) {
	fragments := map[string]string{
		"Z":    "Z is the last letter of the Latin alphabet.",
		"Gen":  "Gen is a Japanese manga character.",
		"rich": "Rich may refer to wealth.",
	}

	t.Run("fragments are never looked up", func(t *testing.T) {
		src := knowledge.NewCountingSource(knowledge.NewStaticSource("test", fragments))
		v := New(src)

		eval := v.Evaluate(context.Background(),
			"Where is Zürich Airport?",
			"Zürich Airport lies north of the city, not near Genève.")

		assert.Equal(t, model.OutcomeUnresolvable, eval.Outcome)
		assert.Equal(t, []string{"Airport"}, eval.Candidates)
		assert.Equal(t, []string{"Airport", "where", "is", "zürich", "airport", "Airport"}, src.Titles())
	})

	t.Run("whole word resolves through prompt tokens", func(t *testing.T) {
		pages := map[string]string{"Zürich": "Zürich is the largest city in Switzerland."}
		for k, v := range fragments {
			pages[k] = v
		}
		src := knowledge.NewCountingSource(knowledge.NewStaticSource("test", pages))
		v := New(src)

		eval := v.Evaluate(context.Background(),
			"Where is Zürich Airport?",
			"Zürich is the largest city in Switzerland.")

		assert.Equal(t, model.OutcomeGrounded, eval.Outcome)
		assert.Equal(t, model.TierPromptToken, eval.Tier)
		require.NotNil(t, eval.Article)
		assert.Equal(t, "Zürich", eval.Article.Title)
		assert.Equal(t, []string{"Airport", "where", "is", "zürich"}, src.Titles())
	})
}

func TestVerifier_ExhaustedTiers(t *testing.T) {
	src := testSource()
	v := New(src)

	eval := v.Evaluate(context.Background(), "Explain this", "")
	assert.Equal(t, model.OutcomeUnresolvable, eval.Outcome)
	assert.Nil(t, eval.Article)
	assert.Equal(t, []string{"Explain", "this", "explain", "this"}, src.Titles())
}

func TestVerifier_ThresholdBoundary(t *testing.T) {
	v := New(testSource())
	ctx := context.Background()

	one := v.Evaluate(ctx, "Japan?", "Japan rocks")
	assert.Equal(t, model.OutcomeNotGrounded, one.Outcome)
	assert.Equal(t, []string{"japan"}, one.CommonWords)

	two := v.Evaluate(ctx, "Japan?", "Japan island")
	assert.Equal(t, model.OutcomeGrounded, two.Outcome)
	assert.Equal(t, 2, two.Threshold)
}

func TestVerifier_WithMinCommonWords(t *testing.T) {
	v := New(testSource(), WithMinCommonWords(3))

	eval := v.Evaluate(context.Background(), "Japan?", "Japan island")
	assert.Equal(t, model.OutcomeNotGrounded, eval.Outcome)
	assert.Equal(t, 3, eval.Threshold)
}

func TestVerifier_LookupErrorsTreatedAsMissing(t *testing.T) {
	src := &flakySource{
		Source: testSource(),
		fail:   map[string]bool{"discovered": true, "penicillin": true},
	}
	v := New(src)

	// Tier 1 fails for both candidates; tier 2 reaches "penicillin" again and fails;
	// tier 3 resolves the response's proper noun.
	eval := v.Evaluate(context.Background(),
		"Who discovered penicillin?",
		"Penicillin was discovered by Alexander Fleming in 1928.")

	require.NotNil(t, eval.Article)
	assert.Equal(t, model.TierResponseProperNoun, eval.Tier)
	assert.Equal(t, model.OutcomeGrounded, eval.Outcome)
}

func TestVerifier_AllLookupsFail(t *testing.T) {
	src := &flakySource{
		Source: testSource(),
		fail:   map[string]bool{"Japan": true, "japan": true},
	}
	v := New(src)

	assert.False(t, v.Verify(context.Background(), "Japan?", "Japan is an island."))
}

func TestVerifier_CancelledContext(t *testing.T) {
	src := testSource()
	v := New(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eval := v.Evaluate(ctx, "Who discovered penicillin?", "Penicillin was discovered by Alexander Fleming.")
	assert.Equal(t, model.OutcomeUnresolvable, eval.Outcome)
	assert.Zero(t, src.Calls())
}

func TestVerifier_RecoversFromPanic(t *testing.T) {
	v := New(testSource(), WithStrategy(panicStrategy{}))

	eval := v.Evaluate(context.Background(), "anything", "anything")
	assert.Equal(t, model.OutcomeUnresolvable, eval.Outcome)
	assert.False(t, v.Verify(context.Background(), "anything", "anything"))
}

func TestVerifier_WithStrategy(t *testing.T) {
	src := testSource()
	v := New(src, WithStrategy(fixedStrategy{"Tea"}))

	eval := v.Evaluate(context.Background(), "unrelated words", "Tea is a hot beverage.")
	assert.Equal(t, model.OutcomeGrounded, eval.Outcome)
	assert.Equal(t, []string{"Tea"}, src.Titles())
}

func TestVerifier_Concurrent(t *testing.T) {
	v := New(testSource())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, v.Verify(ctx,
				"Who discovered penicillin?",
				"Penicillin was discovered by Alexander Fleming."))
		}()
	}
	wg.Wait()
}
