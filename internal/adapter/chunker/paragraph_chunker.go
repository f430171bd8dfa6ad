package chunker

// chunkParagraph groups whole paragraphs up to ChunkSize. Paragraph
// boundaries are never cut: a single paragraph over the budget forms its
// own chunk intact, and nothing is dropped.
func chunkParagraph(pageRunes []rune, cfg Config) []piece {
	paragraphs := paragraphSpans(pageRunes, 0, len(pageRunes))
	groups := groupSpans(paragraphs, cfg.ChunkSize)

	pieces := make([]piece, 0, len(groups))
	for _, g := range groups {
		pieces = append(pieces, piece{start: g[0], end: g[1]})
	}
	return pieces
}

// paragraphSpans splits [lo, hi) on blank lines. Each span covers the
// trimmed first through last line of one paragraph.
func paragraphSpans(pageRunes []rune, lo, hi int) [][2]int {
	var paragraphs [][2]int

	start := -1
	end := -1
	for _, ln := range splitLineSpans(pageRunes[:hi]) {
		if ln[1] <= lo {
			continue
		}
		s, e := trimSpan(pageRunes, maxInt(ln[0], lo), ln[1])
		if e <= s {
			// Blank line closes the running paragraph.
			if start >= 0 {
				paragraphs = append(paragraphs, [2]int{start, end})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = s
		}
		end = e
	}
	if start >= 0 {
		paragraphs = append(paragraphs, [2]int{start, end})
	}

	return paragraphs
}

// groupSpans greedily accumulates adjacent spans while the covered range
// stays within size. An oversized single span passes through unchanged.
func groupSpans(spans [][2]int, size int) [][2]int {
	var groups [][2]int

	curStart, curEnd := -1, -1
	for _, sp := range spans {
		if curStart < 0 {
			curStart, curEnd = sp[0], sp[1]
			continue
		}
		if sp[1]-curStart > size {
			groups = append(groups, [2]int{curStart, curEnd})
			curStart, curEnd = sp[0], sp[1]
			continue
		}
		curEnd = sp[1]
	}
	if curStart >= 0 {
		groups = append(groups, [2]int{curStart, curEnd})
	}

	return groups
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
