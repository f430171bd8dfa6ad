package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer normalizes and splits text for lexical indexing. Normalization
// folds diacritics ("licença" and "licenca" tokenize identically), so the
// same tokenizer must be used for both indexing and querying. All methods
// are safe for concurrent use.
type Tokenizer struct {
	stopwords map[string]struct{}
	technical map[string]struct{}
	stemmer   *PortugueseStemmer
	minLen    int
}

// NewTokenizer creates a Tokenizer with the default Portuguese and English
// stopwords and the technical-term allowlist. Stemming is off until
// EnableStemming is called.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		stopwords: defaultStopwords(),
		technical: technicalTerms(),
		minLen:    2,
	}
}

// EnableStemming reduces tokens to their Portuguese stems, merging inflected
// forms ("multa", "multas") into one term. An index built with stemming must
// be queried with stemming. Call before the tokenizer is shared.
func (t *Tokenizer) EnableStemming() {
	t.stemmer = NewPortugueseStemmer()
}

// AddStopwords registers additional stopwords. Words are stored folded, so
// accented forms match their folded tokens.
func (t *Tokenizer) AddStopwords(words ...string) {
	for _, w := range words {
		t.stopwords[t.Normalize(w)] = struct{}{}
	}
}

// AddTechnicalTerms registers terms that bypass the length and stopword
// filters (acronyms, license names, security codes).
func (t *Tokenizer) AddTechnicalTerms(terms ...string) {
	for _, term := range terms {
		t.technical[t.Normalize(term)] = struct{}{}
	}
}

// Normalize decomposes the text (NFD), strips combining marks and
// lowercases it: "Licença" becomes "licenca".
func (t *Tokenizer) Normalize(text string) string {
	return fold(text)
}

// Tokenize normalizes the text and splits it into word and number tokens.
// Technical terms survive regardless of length; everything shorter than the
// minimum length or listed as a stopword is dropped. Equal input always
// yields equal output.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(t.Normalize(text))
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		if _, keep := t.technical[word]; keep {
			tokens = append(tokens, word)
			continue
		}
		if utf8.RuneCountInString(word) < t.minLen {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.stemmer != nil {
			word = t.stemmer.Stem(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// CountTokens estimates the token cost of text for context budgeting. Word
// count scaled by 1.3 approximates subword tokenization closely enough for
// budget checks.
func (t *Tokenizer) CountTokens(text string) int {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}
	return int(float64(len(words)) * 1.3)
}

// fold strips diacritics and lowercases. Transformer chains carry internal
// buffers, so a fresh one is built per call rather than shared across
// goroutines.
func fold(text string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(chain, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// splitWords splits text into runs of letters, digits and underscores.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}
