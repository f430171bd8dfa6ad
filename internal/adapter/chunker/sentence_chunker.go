package chunker

import "unicode"

// chunkSentence accumulates whole sentences up to ChunkSize. When a chunk
// held more than two sentences, the next chunk starts with its last two as
// overlap. A single sentence longer than ChunkSize forms its own chunk.
func chunkSentence(pageRunes []rune, cfg Config) []piece {
	sentences := splitSentenceSpans(pageRunes)
	var pieces []piece

	var current [][2]int
	currentLen := 0

	emit := func() {
		start, end := current[0][0], current[len(current)-1][1]
		if end-start >= cfg.MinChunkSize {
			pieces = append(pieces, piece{start: start, end: end})
		}
	}

	for _, sent := range sentences {
		sentLen := sent[1] - sent[0]
		if currentLen+sentLen > cfg.ChunkSize && len(current) > 0 {
			emit()

			var next [][2]int
			if len(current) > 2 {
				next = append(next, current[len(current)-2], current[len(current)-1])
			}
			next = append(next, sent)
			current = next
			currentLen = 0
			for _, sp := range current {
				currentLen += sp[1] - sp[0]
			}
		} else {
			current = append(current, sent)
			currentLen += sentLen + 1
		}
	}

	if len(current) > 0 {
		emit()
	}

	return pieces
}

// splitSentenceSpans splits on sentence enders (., !, ?) followed by
// whitespace or end of text. Spans are trimmed; empty spans are dropped.
func splitSentenceSpans(pageRunes []rune) [][2]int {
	n := len(pageRunes)
	var spans [][2]int

	start := 0
	i := 0
	for i < n {
		r := pageRunes[i]
		if r == '.' || r == '!' || r == '?' {
			j := i + 1
			for j < n && (pageRunes[j] == '.' || pageRunes[j] == '!' || pageRunes[j] == '?') {
				j++
			}
			if j >= n || unicode.IsSpace(pageRunes[j]) {
				spans = append(spans, [2]int{start, j})
				for j < n && unicode.IsSpace(pageRunes[j]) {
					j++
				}
				start = j
			}
			i = j
			continue
		}
		i++
	}
	if start < n {
		spans = append(spans, [2]int{start, n})
	}

	out := spans[:0]
	for _, sp := range spans {
		s, e := trimSpan(pageRunes, sp[0], sp[1])
		if e > s {
			out = append(out, [2]int{s, e})
		}
	}
	return out
}
