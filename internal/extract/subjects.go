package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Strategy turns a prompt into ordered candidate subjects
type Strategy interface {
	Candidates(prompt string) []string
}

// Word characters are letters, marks, digits and underscore
var wordPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// DefaultStopWords are dropped from candidate subjects (compared lowercase)
var DefaultStopWords = []string{
	"who", "what", "where", "when", "why", "how",
	"the", "is", "of", "in", "did", "was", "a", "an",
}

// RegexStrategy extracts subjects with pattern heuristics
type RegexStrategy struct {
	stopWords map[string]bool
}

// NewRegexStrategy creates a strategy with the default stop words
func NewRegexStrategy() *RegexStrategy {
	return NewRegexStrategyWithStopWords(DefaultStopWords)
}

// NewRegexStrategyWithStopWords creates a strategy with a custom stop set
func NewRegexStrategyWithStopWords(words []string) *RegexStrategy {
	stop := make(map[string]bool, len(words))
	for _, w := range words {
		stop[strings.ToLower(w)] = true
	}
	return &RegexStrategy{stopWords: stop}
}

// Candidates returns subject phrases in order of appearance: capitalized
// word runs, or standalone words of 4+ ASCII letters.
// Duplicates are kept; the first occurrence decides resolution order anyway.
func (s *RegexStrategy) Candidates(prompt string) []string {
	matches := scanPhrases(prompt, matchSubject)

	candidates := make([]string, 0, len(matches))
	for _, m := range matches {
		if s.stopWords[strings.ToLower(m)] {
			continue
		}
		candidates = append(candidates, m)
	}

	return candidates
}

// ProperNouns returns capitalized phrases such as "Alexander Fleming".
// Every word needs at least one lowercase letter.
func ProperNouns(text string) []string {
	return scanPhrases(text, matchProperNoun)
}

// WordTokens returns the word tokens of text in order
func WordTokens(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// WordSet returns the set of lowercased word tokens of text
func WordSet(text string) map[string]struct{} {
	tokens := WordTokens(strings.ToLower(text))
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Phrase matching works on byte offsets. Letters are ASCII only but word
// boundaries are Unicode-aware, so "Zürich" never yields "Z" or "rich".
// RE2's \b only knows ASCII word characters, hence the hand-rolled matcher.

type phraseMatcher func(s string, i int) (end int, ok bool)

// scanPhrases returns the leftmost non-overlapping matches of match in s
func scanPhrases(s string, match phraseMatcher) []string {
	var out []string
	for i := 0; i < len(s); {
		if end, ok := match(s, i); ok {
			out = append(out, s[i:end])
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return out
}

// matchSubject matches a capitalized word run, falling back to a single word
// of 4+ ASCII letters. Each word of a run must end on a word boundary.
func matchSubject(s string, i int) (int, bool) {
	if !isBoundary(s, i) {
		return 0, false
	}

	if end, ok := capitalWord(s, i, 0); ok && isBoundary(s, end) {
		for {
			next, ok := spaceAt(s, end)
			if !ok {
				break
			}
			wordEnd, ok := capitalWord(s, next, 0)
			if !ok || !isBoundary(s, wordEnd) {
				break
			}
			end = wordEnd
		}
		return end, true
	}

	end := i
	for end < len(s) && (isUpper(s[end]) || isLower(s[end])) {
		end++
	}
	if end-i >= 4 && isBoundary(s, end) {
		return end, true
	}
	return 0, false
}

// matchProperNoun matches the longest run of capitalized words that ends on
// a word boundary.
func matchProperNoun(s string, i int) (int, bool) {
	if !isBoundary(s, i) {
		return 0, false
	}

	end, ok := capitalWord(s, i, 1)
	if !ok {
		return 0, false
	}
	ends := []int{end}
	for {
		next, ok := spaceAt(s, end)
		if !ok {
			break
		}
		wordEnd, ok := capitalWord(s, next, 1)
		if !ok {
			break
		}
		end = wordEnd
		ends = append(ends, end)
	}

	for j := len(ends) - 1; j >= 0; j-- {
		if isBoundary(s, ends[j]) {
			return ends[j], true
		}
	}
	return 0, false
}

// capitalWord matches [A-Z] followed by at least minLower ASCII lowercase letters
func capitalWord(s string, i, minLower int) (int, bool) {
	if i >= len(s) || !isUpper(s[i]) {
		return 0, false
	}
	end := i + 1
	for end < len(s) && isLower(s[end]) {
		end++
	}
	if end-i-1 < minLower {
		return 0, false
	}
	return end, true
}

// spaceAt returns the offset past a single whitespace rune at i
func spaceAt(s string, i int) (int, bool) {
	if i >= len(s) {
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(s[i:])
	if !unicode.IsSpace(r) {
		return 0, false
	}
	return i + size, true
}

// isBoundary reports whether offset i separates a word rune from a non-word
// rune. Text edges count as non-word.
func isBoundary(s string, i int) bool {
	var before, after bool
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsNumber(r)
}

func isUpper(b byte) bool { return 'A' <= b && b <= 'Z' }
func isLower(b byte) bool { return 'a' <= b && b <= 'z' }
