package chunker

// window is a rune range of the text being chunked.
type window struct {
	start int
	end   int
	text  string
}

// windows cuts text into chunkSize windows. Consecutive windows share
// exactly overlap runes: each window starts overlap runes before the end
// of the previous one. Window ends move back to a sentence boundary when
// one lies within the tolerance. The last window is truncated at the end
// of the text, and a remainder too short to stand alone is absorbed by the
// window before it.
func (p *Processor) windows(text []rune) []window {
	n := len(text)
	if n == 0 {
		return nil
	}

	var out []window
	start := 0
	for {
		end := start + p.chunkSize
		if end >= n {
			end = n
		} else {
			end = p.sentenceEnd(text, start, end)
			if n-(end-p.overlap) < p.minChunkLen {
				end = n
			}
		}

		out = append(out, window{start: start, end: end, text: string(text[start:end])})
		if end == n {
			return out
		}
		start = end - p.overlap
	}
}

// sentenceEnd returns the end of the last sentence that finishes within
// tolerance runes of end, or end itself. The result always leaves room for
// the next window to advance past start.
func (p *Processor) sentenceEnd(text []rune, start, end int) int {
	lo := end - p.tolerance
	if floor := start + p.overlap; lo < floor {
		lo = floor
	}
	for i := end - 1; i >= lo; i-- {
		switch text[i] {
		case '\n':
			return i + 1
		case '.', '!', '?':
			if i+1 < len(text) && isSpace(text[i+1]) {
				return i + 1
			}
		}
	}
	return end
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}
