package chunker

// chunkRecursive splits along hierarchical separators, coarse to fine.
// Text is split on the first separator present; segments still over the
// budget are re-split with the remaining separators; adjacent segments are
// greedily merged back (separator included) while the merge fits. A segment
// no separator can reduce is emitted whole rather than cut mid-token.
// Segments shorter than MinChunkSize after merging are dropped.
func chunkRecursive(pageRunes []rune, cfg Config) []piece {
	ranges := splitRecursive(pageRunes, 0, len(pageRunes), cfg.Separators, cfg.ChunkSize)

	var pieces []piece
	for _, r := range ranges {
		s, e := trimSpan(pageRunes, r[0], r[1])
		if e-s >= cfg.MinChunkSize {
			pieces = append(pieces, piece{start: s, end: e})
		}
	}
	return pieces
}

func splitRecursive(pageRunes []rune, lo, hi int, seps []string, size int) [][2]int {
	if hi <= lo {
		return nil
	}
	if hi-lo <= size || len(seps) == 0 {
		return [][2]int{{lo, hi}}
	}

	segs := splitBySep(pageRunes, lo, hi, []rune(seps[0]))
	if len(segs) <= 1 {
		return splitRecursive(pageRunes, lo, hi, seps[1:], size)
	}

	var out [][2]int
	for _, m := range mergeSegments(segs, size) {
		if m[1]-m[0] > size {
			out = append(out, splitRecursive(pageRunes, m[0], m[1], seps[1:], size)...)
		} else {
			out = append(out, m)
		}
	}
	return out
}

// splitBySep cuts [lo, hi) at every occurrence of sep. Segment spans
// exclude the separator itself; merging adjacent segments brings it back.
func splitBySep(pageRunes []rune, lo, hi int, sep []rune) [][2]int {
	if len(sep) == 0 {
		return [][2]int{{lo, hi}}
	}

	var segs [][2]int
	segStart := lo
	i := lo
	for i+len(sep) <= hi {
		if matchAt(pageRunes, i, sep) {
			segs = append(segs, [2]int{segStart, i})
			i += len(sep)
			segStart = i
			continue
		}
		i++
	}
	segs = append(segs, [2]int{segStart, hi})
	return segs
}

func matchAt(pageRunes []rune, pos int, sep []rune) bool {
	for i, r := range sep {
		if pageRunes[pos+i] != r {
			return false
		}
	}
	return true
}

// mergeSegments greedily rejoins adjacent segments while the covered range
// stays within size.
func mergeSegments(segs [][2]int, size int) [][2]int {
	var out [][2]int
	cur := segs[0]
	for _, s := range segs[1:] {
		if s[1]-cur[0] <= size {
			cur[1] = s[1]
			continue
		}
		out = append(out, cur)
		cur = s
	}
	out = append(out, cur)
	return out
}
