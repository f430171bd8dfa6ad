package retriever

import (
	"sort"
	"strings"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/port"
)

// QueryExpander rewrites a query into close variants by swapping terms for
// domain synonyms, for multi-query retrieval. Expansion is deterministic:
// equal queries always produce equal variant lists.
type QueryExpander struct {
	tok        port.Tokenizer
	synonyms   map[string][]string
	maxQueries int
}

// NewQueryExpander creates an expander loaded with the contract-vocabulary
// synonym table. Lease agreements name the same concept many ways ("multa"
// in one clause, "penalidade" in the next), so variants recover matches a
// single phrasing misses.
func NewQueryExpander(tok port.Tokenizer) *QueryExpander {
	return &QueryExpander{
		tok:        tok,
		synonyms:   legalSynonyms(),
		maxQueries: 4,
	}
}

// AddSynonyms registers expansions for a term. Entries are stored folded, so
// accented forms match their folded query words.
func (e *QueryExpander) AddSynonyms(term string, synonyms ...string) {
	key := e.tok.Normalize(term)
	for _, s := range synonyms {
		e.synonyms[key] = append(e.synonyms[key], e.tok.Normalize(s))
	}
}

// Expand returns the original query followed by variants with one term
// replaced throughout by a synonym. Output is capped at four queries.
func (e *QueryExpander) Expand(query string) []string {
	folded := e.tok.Normalize(query)
	words := strings.Fields(folded)

	queries := []string{query}
	seen := map[string]bool{folded: true}

	// Keys iterate in sorted order so the variant list is reproducible.
	keys := make([]string, 0, len(e.synonyms))
	for k := range e.synonyms {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if len(queries) >= e.maxQueries {
			break
		}
		if !containsWord(words, key) {
			continue
		}
		for _, syn := range e.synonyms[key] {
			if len(queries) >= e.maxQueries {
				break
			}
			variant := replaceWord(words, key, syn)
			if seen[variant] {
				continue
			}
			seen[variant] = true
			queries = append(queries, variant)
		}
	}

	return queries
}

func containsWord(words []string, key string) bool {
	for _, w := range words {
		if w == key {
			return true
		}
	}
	return false
}

func replaceWord(words []string, key, syn string) string {
	out := make([]string, len(words))
	for i, w := range words {
		if w == key {
			out[i] = syn
		} else {
			out[i] = w
		}
	}
	return strings.Join(out, " ")
}

// legalSynonyms maps folded contract terms to the folded forms lease
// agreements use for the same concept.
func legalSynonyms() map[string][]string {
	return map[string][]string{
		"aluguel":      {"locacao", "renda"},
		"multa":        {"penalidade", "sancao"},
		"atraso":       {"mora", "inadimplencia"},
		"prazo":        {"vigencia", "periodo"},
		"garantia":     {"caucao", "fianca"},
		"rescisao":     {"resilicao", "termino"},
		"reajuste":     {"correcao", "atualizacao"},
		"inquilino":    {"locatario"},
		"proprietario": {"locador"},
		"contrato":     {"instrumento", "acordo"},
		"pagamento":    {"quitacao"},
		"despejo":      {"desocupacao"},
		"benfeitorias": {"melhorias"},
		"vistoria":     {"inspecao"},
		"imovel":       {"propriedade", "bem"},
		"manutencao":   {"conservacao", "reparos"},
		"fiador":       {"garantidor"},
		"indenizacao":  {"ressarcimento", "reparacao"},
		"notificacao":  {"comunicacao", "aviso"},
	}
}
