package textsplit

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize = 1400
	DefaultOverlap   = 300
)

// separators are tried in order; the first one present in the text is used
// and longer spans recurse on the remaining separators.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts text into overlapping chunks, preferring paragraph and
// sentence boundaries over hard cuts.
type Splitter struct {
	chunkSize int
	overlap   int
}

func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split returns the non-empty chunks of text. Chunks that are empty after
// trimming whitespace are dropped.
func (s *Splitter) Split(text string) []string {
	pieces := s.split(text, separators)
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Splitter) split(text string, seps []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}
	if len(seps) == 0 {
		return splitRuneBounded(text, s.chunkSize)
	}
	sep := seps[len(seps)-1]
	rest := seps
	for i, candidate := range seps {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = seps[i+1:]
			break
		}
	}

	var parts []string
	if sep == "" {
		parts = splitRuneBounded(text, s.chunkSize)
	} else {
		parts = strings.SplitAfter(text, sep)
	}

	var chunks []string
	var buf strings.Builder
	carried := 0
	flush := func() {
		// A buffer holding nothing beyond the carried overlap is not a chunk.
		if buf.Len() <= carried {
			buf.Reset()
			carried = 0
			return
		}
		chunk := buf.String()
		chunks = append(chunks, chunk)
		buf.Reset()
		carried = 0
		// Carry the tail of the previous chunk into the next one. The cut
		// is advanced to the next rune boundary so the carry never starts
		// mid-rune.
		if s.overlap > 0 && len(chunk) > s.overlap {
			start := len(chunk) - s.overlap
			for start < len(chunk) && !utf8.RuneStart(chunk[start]) {
				start++
			}
			if start < len(chunk) {
				buf.WriteString(chunk[start:])
				carried = len(chunk) - start
			}
		}
	}
	for _, part := range parts {
		if len(part) > s.chunkSize {
			flush()
			buf.Reset()
			carried = 0
			chunks = append(chunks, s.split(part, rest)...)
			continue
		}
		if buf.Len()+len(part) > s.chunkSize {
			flush()
			// The carried overlap plus a near-full part can still overflow;
			// keeping the chunk bound wins over keeping the overlap.
			if buf.Len()+len(part) > s.chunkSize {
				buf.Reset()
				carried = 0
			}
		}
		buf.WriteString(part)
	}
	if buf.Len() > carried {
		chunks = append(chunks, buf.String())
	}
	return chunks
}

// splitRuneBounded hard-cuts text into parts of at most size bytes, moving
// each cut back to a rune boundary so no part ends mid-rune.
func splitRuneBounded(text string, size int) []string {
	var parts []string
	for len(text) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = size
		}
		parts = append(parts, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
