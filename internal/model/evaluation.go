package model

// Outcome is the result class of a single verification
type Outcome string

const (
	OutcomeGrounded     Outcome = "grounded"     // Enough overlap with the resolved article
	OutcomeNotGrounded  Outcome = "not_grounded" // Article resolved, overlap below threshold
	OutcomeUnresolvable Outcome = "unresolvable" // No candidates or no article resolved
)

// Grounded collapses the outcome to the boolean verdict
func (o Outcome) Grounded() bool {
	return o == OutcomeGrounded
}

// Tier identifies the resolution stage that produced the article
type Tier string

const (
	TierNone               Tier = ""
	TierPromptSubject      Tier = "prompt_subject"       // Extracted prompt candidates
	TierPromptToken        Tier = "prompt_token"         // Lowercased bare prompt tokens
	TierResponseProperNoun Tier = "response_proper_noun" // Proper nouns found in the response
)

// Evaluation is the detailed result behind a verdict
type Evaluation struct {
	Prompt      string   `json:"prompt"`
	Response    string   `json:"response"`
	Candidates  []string `json:"candidates,omitempty"`
	Article     *Article `json:"article,omitempty"`
	Tier        Tier     `json:"tier,omitempty"`
	Lookups     int      `json:"lookups"`
	CommonWords []string `json:"common_words,omitempty"`
	Threshold   int      `json:"threshold"`
	Outcome     Outcome  `json:"outcome"`
}

// Grounded reports the boolean verdict
func (e Evaluation) Grounded() bool {
	return e.Outcome.Grounded()
}

// Label is a human-readable judgment attached to a case
type Label string

const (
	LabelCorrect      Label = "correct"
	LabelHallucinated Label = "hallucinated"
)

// LabelFor maps a verdict to its label
func LabelFor(grounded bool) Label {
	if grounded {
		return LabelCorrect
	}
	return LabelHallucinated
}

// Valid reports whether the label is one of the known values
func (l Label) Valid() bool {
	return l == LabelCorrect || l == LabelHallucinated
}
