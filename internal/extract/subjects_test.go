package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexStrategy_Candidates(t *testing.T) {
	s := NewRegexStrategy()

	tests := []struct {
		name   string
		prompt string
		want   []string
	}{
		{
			name:   "interrogative dropped",
			prompt: "Who discovered penicillin?",
			want:   []string{"discovered", "penicillin"},
		},
		{
			name:   "multi-word proper noun kept together",
			prompt: "Who wrote the novel 'To Kill a Mockingbird'?",
			want:   []string{"wrote", "novel", "To Kill", "Mockingbird"},
		},
		{
			name:   "capital phrase before long words",
			prompt: "What is the currency of Japan?",
			want:   []string{"currency", "Japan"},
		},
		{
			name:   "acronyms and short words skipped",
			prompt: "How can I calculate the miles per gallon (MPG) of a blockchain transaction?",
			want:   []string{"I", "calculate", "miles", "gallon", "blockchain", "transaction"},
		},
		{
			name:   "duplicates preserved in order",
			prompt: "penicillin versus penicillin",
			want:   []string{"penicillin", "versus", "penicillin"},
		},
		{
			name:   "stop words compared case-insensitively",
			prompt: "The Who When",
			want:   []string{"The Who When"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Candidates(tt.prompt))
		})
	}
}

func TestRegexStrategy_NoCandidates(t *testing.T) {
	s := NewRegexStrategy()

	for _, prompt := range []string{"", "?!... ,,,", "Who is the", "what was in a", "1234 5678"} {
		t.Run(prompt, func(t *testing.T) {
			assert.Empty(t, s.Candidates(prompt))
		})
	}
}

func TestRegexStrategy_CustomStopWords(t *testing.T) {
	s := NewRegexStrategyWithStopWords([]string{"Define"})

	got := s.Candidates("Define photosynthesis")
	assert.Equal(t, []string{"photosynthesis"}, got)
}

func TestRegexStrategy_DoesNotMutateInput(t *testing.T) {
	s := NewRegexStrategy()
	prompt := "Who discovered Penicillin?"
	before := prompt

	_ = s.Candidates(prompt)
	assert.Equal(t, before, prompt)
}

func TestRegexStrategy_UnicodeWordBoundaries(t *testing.T) {
	s := NewRegexStrategy()

	tests := []struct {
		prompt string
		want   []string
	}{
		{"Where is Zürich Airport?", []string{"Airport"}},
		{"Who founded Genève?", []string{"founded"}},
		{"New Zürich", []string{"New"}},
		{"Tell me about McDonald", []string{"Tell", "about", "McDonald"}},
		{"Ωmega Point", []string{"Point"}},
		{"Paris_2024 and London", []string{"London"}},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Candidates(tt.prompt))
		})
	}
}

func TestProperNouns(t *testing.T) {
	text := "Penicillin was discovered by Alexander Fleming in 1928 when he noticed that mold killed bacteria."
	assert.Equal(t, []string{"Penicillin", "Alexander Fleming"}, ProperNouns(text))

	// Single capital letters are not proper nouns here
	assert.Empty(t, ProperNouns("I think so"))
	assert.Empty(t, ProperNouns(""))
}

func TestProperNouns_UnicodeWordBoundaries(t *testing.T) {
	assert.Equal(t, []string{"It"}, ProperNouns("It lies near Zürich and Genève."))
	assert.Empty(t, ProperNouns("near Zürich and Genève."))
	// A run is cut back to the last word that ends on a boundary
	assert.Equal(t, []string{"Lake"}, ProperNouns("Lake Como2"))
	assert.Equal(t, []string{"Lake Geneva"}, ProperNouns("the Lake Geneva shore"))
}

func TestWordTokens(t *testing.T) {
	got := WordTokens("Who discovered penicillin? In 1928, snake_case too.")
	assert.Equal(t, []string{"Who", "discovered", "penicillin", "In", "1928", "snake_case", "too"}, got)

	assert.Equal(t, []string{"Müller", "café"}, WordTokens("Müller, café!"))
}

func TestWordSet(t *testing.T) {
	set := WordSet("Mold killed MOLD bacteria.")
	require.Len(t, set, 3)

	for _, w := range []string{"mold", "killed", "bacteria"} {
		_, ok := set[w]
		assert.True(t, ok, "expected %q in set", w)
	}

	assert.Empty(t, WordSet(""))
}
