package analyzer

import (
	"strings"
)

// PortugueseStemmer reduces Portuguese words to stems by stepwise suffix
// stripping, in the RSLP order: plural, feminine, adverb, noun, verb, final
// vowel. Input must already be folded (lowercase, diacritics removed), which
// is how the tokenizer hands words over. Inflected families collapse to one
// term: "multa", "multas" both stem to "mult"; "locacao", "locacoes" and
// "locador" all stem to "loc".
type PortugueseStemmer struct{}

func NewPortugueseStemmer() *PortugueseStemmer {
	return &PortugueseStemmer{}
}

// suffixRule replaces suffix with repl when at least minStem bytes remain.
type suffixRule struct {
	suffix  string
	minStem int
	repl    string
}

// Ordered longest-first so "zes" wins over "es" and plain "s".
var pluralRules = []suffixRule{
	{"oes", 3, "ao"},
	{"aes", 2, "ao"},
	{"ais", 2, "al"},
	{"eis", 2, "el"},
	{"is", 3, "il"},
	{"zes", 2, "z"},
	{"ses", 2, "s"},
	{"ns", 2, "m"},
	{"s", 2, ""},
}

// Words that end in s but are not plurals.
var pluralExceptions = map[string]struct{}{
	"mes":   {},
	"pais":  {},
	"gas":   {},
	"mais":  {},
	"tras":  {},
	"atras": {},
	"apos":  {},
	"pes":   {},
}

var feminineRules = []suffixRule{
	{"ora", 3, "or"},
	{"osa", 3, "oso"},
}

var nounRules = []suffixRule{
	{"amento", 3, ""},
	{"imento", 3, ""},
	{"idade", 4, ""},
	{"encia", 3, ""},
	{"ancia", 3, ""},
	{"acao", 3, ""},
	{"icao", 3, ""},
	{"ador", 3, ""},
	{"edor", 3, ""},
	{"idor", 3, ""},
	{"avel", 3, ""},
	{"ivel", 3, ""},
	{"ista", 3, ""},
	{"oso", 3, ""},
}

var verbRules = []suffixRule{
	{"ando", 3, ""},
	{"endo", 3, ""},
	{"indo", 3, ""},
	{"aria", 3, ""},
	{"eria", 3, ""},
	{"asse", 3, ""},
	{"esse", 3, ""},
	{"isse", 3, ""},
	{"ara", 3, ""},
	{"era", 3, ""},
	{"ira", 3, ""},
	{"ou", 3, ""},
	{"am", 3, ""},
	{"em", 3, ""},
	{"ar", 2, ""},
	{"er", 2, ""},
	{"ir", 2, ""},
}

// Stem reduces a folded word to its stem. Words shorter than three bytes
// pass through unchanged.
func (p *PortugueseStemmer) Stem(word string) string {
	if len(word) < 3 {
		return word
	}

	if strings.HasSuffix(word, "s") {
		word = stepPlural(word)
	}
	if strings.HasSuffix(word, "a") {
		word = stepFeminine(word)
	}
	word = stepAdverb(word)

	reduced, changed := applyRules(word, nounRules)
	if !changed {
		reduced, changed = applyRules(word, verbRules)
	}
	if !changed {
		reduced = stepFinalVowel(word)
	}

	return reduced
}

func stepPlural(word string) string {
	if _, keep := pluralExceptions[word]; keep {
		return word
	}
	reduced, _ := applyRules(word, pluralRules)
	return reduced
}

func stepFeminine(word string) string {
	reduced, _ := applyRules(word, feminineRules)
	return reduced
}

func stepAdverb(word string) string {
	if strings.HasSuffix(word, "mente") && len(word)-5 >= 4 {
		return word[:len(word)-5]
	}
	return word
}

func stepFinalVowel(word string) string {
	if len(word) < 4 {
		return word
	}
	switch word[len(word)-1] {
	case 'a', 'e', 'o':
		return word[:len(word)-1]
	}
	return word
}

// applyRules applies the first matching rule and reports whether one fired.
func applyRules(word string, rules []suffixRule) (string, bool) {
	for _, r := range rules {
		if !strings.HasSuffix(word, r.suffix) {
			continue
		}
		stem := word[:len(word)-len(r.suffix)]
		if len(stem) < r.minStem {
			continue
		}
		return stem + r.repl, true
	}
	return word, false
}
