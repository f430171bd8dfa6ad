package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// section is a heading line plus the body that follows it, as one
// contiguous rune range. heading is empty for preamble text before the
// first detected heading.
type section struct {
	start   int
	end     int
	heading string
}

// chunkSection splits the page at structural headings: short all-caps
// lines, numbered or lettered markers, structural keywords (cláusula,
// artigo, parágrafo, ...) and rule lines. Small adjacent sections are
// merged while the combined length stays within 80% of ChunkSize; sections
// over the budget are subdivided by paragraph, with the heading re-attached
// to every continuation chunk.
func chunkSection(pageRunes []rune, cfg Config) []piece {
	sections := detectSections(pageRunes)
	sections = mergeSmallSections(sections, cfg)

	var pieces []piece
	for _, sec := range sections {
		if sec.end-sec.start <= cfg.ChunkSize {
			pieces = append(pieces, piece{start: sec.start, end: sec.end, heading: sec.heading})
			continue
		}
		pieces = append(pieces, subdivideSection(pageRunes, sec, cfg)...)
	}
	return pieces
}

func detectSections(pageRunes []rune) []section {
	var sections []section
	var cur *section

	flush := func() {
		if cur != nil {
			sections = append(sections, *cur)
			cur = nil
		}
	}

	for _, ln := range splitLineSpans(pageRunes) {
		s, e := trimSpan(pageRunes, ln[0], ln[1])
		if e <= s {
			continue
		}
		text := string(pageRunes[s:e])

		switch {
		case isRuleLine(text):
			// Rule lines separate sections but belong to none.
			flush()
		case isHeadingLine(text):
			flush()
			cur = &section{start: s, end: e, heading: truncateRunes(text, 120)}
		default:
			if cur == nil {
				cur = &section{start: s, end: e}
			}
			cur.end = e
		}
	}
	flush()

	return sections
}

// mergeSmallSections joins adjacent sections while the combined range stays
// within 80% of ChunkSize, then folds an undersized trailing section into
// its predecessor when the result still fits the full budget.
func mergeSmallSections(sections []section, cfg Config) []section {
	limit := cfg.ChunkSize * 8 / 10

	var out []section
	for _, sec := range sections {
		if len(out) > 0 {
			last := &out[len(out)-1]
			if sec.end-last.start <= limit {
				last.end = sec.end
				if last.heading == "" {
					last.heading = sec.heading
				}
				continue
			}
		}
		out = append(out, sec)
	}

	if n := len(out); n >= 2 {
		last := out[n-1]
		prev := &out[n-2]
		if last.end-last.start < cfg.MinChunkSize && last.end-prev.start <= cfg.ChunkSize {
			prev.end = last.end
			out = out[:n-1]
		}
	}

	return out
}

// subdivideSection splits an oversized section by paragraph accumulation.
// Continuation chunks after the first carry the section heading prepended
// so they stay interpretable on their own.
func subdivideSection(pageRunes []rune, sec section, cfg Config) []piece {
	groups := groupSpans(paragraphSpans(pageRunes, sec.start, sec.end), cfg.ChunkSize)

	pieces := make([]piece, 0, len(groups))
	for i, g := range groups {
		pieces = append(pieces, piece{
			start:    g[0],
			end:      g[1],
			heading:  sec.heading,
			prefixed: i > 0 && sec.heading != "",
		})
	}
	return pieces
}

var (
	numberMarkerRe = regexp.MustCompile(`^\(?\d+(\.\d+)*\s*[.)\-–:]\s+\S`)
	nestedNumberRe = regexp.MustCompile(`^\d+\.\d+(\.\d+)*\s+\S`)
	letterMarkerRe = regexp.MustCompile(`^\(?[a-zA-Z][.)]\s+\S`)
	romanMarkerRe  = regexp.MustCompile(`^\(?[IVXLCDM]+\s*[.)\-–:]\s+\S`)
)

var structuralKeywords = []string{
	"clausula", "artigo", "art.", "paragrafo", "§",
	"secao", "capitulo", "titulo", "anexo", "considerando",
}

// isHeadingLine reports whether a trimmed line reads as a section heading.
func isHeadingLine(text string) bool {
	if hasStructuralKeyword(text) {
		return true
	}
	lineRunes := []rune(text)
	if len(lineRunes) > 80 {
		return false
	}
	if numberMarkerRe.MatchString(text) || nestedNumberRe.MatchString(text) ||
		letterMarkerRe.MatchString(text) || romanMarkerRe.MatchString(text) {
		return true
	}
	return isAllCapsLine(lineRunes)
}

func hasStructuralKeyword(text string) bool {
	folded := foldLine(text)
	for _, kw := range structuralKeywords {
		if strings.HasPrefix(folded, kw) {
			return true
		}
	}
	return false
}

// isAllCapsLine reports whether every letter is uppercase, requiring at
// least three letters so markers like "IV" do not qualify on their own.
func isAllCapsLine(lineRunes []rune) bool {
	letters := 0
	for _, r := range lineRunes {
		if unicode.IsLetter(r) {
			letters++
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return letters >= 3
}

// isRuleLine reports separator lines such as "-----" or "=====".
func isRuleLine(text string) bool {
	if len(text) < 4 {
		return false
	}
	for _, r := range text {
		switch r {
		case '-', '=', '_', '*', ' ':
		default:
			return false
		}
	}
	return true
}

// foldLine strips diacritics and lowercases for keyword matching.
func foldLine(text string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(chain, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
