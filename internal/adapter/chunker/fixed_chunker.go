package chunker

import "unicode"

// chunkFixed slides a window of ChunkSize runes across the page, snapping
// the window end back to the last whitespace so words stay whole. The next
// window starts ChunkOverlap runes before the previous end. Fragments whose
// trimmed length falls below MinChunkSize are skipped.
func chunkFixed(pageRunes []rune, cfg Config) []piece {
	n := len(pageRunes)
	var pieces []piece

	start := 0
	for start < n {
		end := start + cfg.ChunkSize
		if end < n {
			if sp := lastSpaceBetween(pageRunes, start, end); sp > start {
				end = sp
			}
		} else {
			end = n
		}

		s, e := trimSpan(pageRunes, start, end)
		if e-s >= cfg.MinChunkSize {
			pieces = append(pieces, piece{start: s, end: e})
		}

		// The cursor must always advance, even when overlap >= window.
		next := end - cfg.ChunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}

	return pieces
}

func lastSpaceBetween(pageRunes []rune, start, end int) int {
	for i := end - 1; i > start; i-- {
		if unicode.IsSpace(pageRunes[i]) {
			return i
		}
	}
	return -1
}
