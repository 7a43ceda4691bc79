// Package chunker splits extracted document text into overlapping chunks
// for embedding and retrieval.
package chunker

import "unicode/utf8"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Separators are tried in priority order when picking a cut point, so a
// chunk ends on a paragraph, line, or sentence boundary when one is
// available instead of mid-word.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune("。"),
	[]rune(". "),
	[]rune(" "),
}

// Splitter produces chunks of at most size characters where consecutive
// chunks share exactly overlap characters. Sizes are in runes, and chunks
// are exact substrings of the input, so the original text is
// reconstructable from the sequence.
type Splitter struct {
	size    int
	overlap int
}

func New(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size/2 {
		overlap = size / 2
	}
	return &Splitter{size: size, overlap: overlap}
}

func (s *Splitter) Overlap() int { return s.overlap }

// Split chunks text. Input no longer than the chunk size comes back as a
// single chunk with no overlap.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= s.size {
		return []string{text}
	}

	runes := []rune(text)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + s.size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		end = s.cutPoint(runes, start, end)
		chunks = append(chunks, string(runes[start:end]))
		start = end - s.overlap
	}
	return chunks
}

// cutPoint picks where the chunk starting at start should end, given the
// hard limit end. The cut must leave at least half a chunk (and strictly
// more than the overlap, so the window always advances).
func (s *Splitter) cutPoint(runes []rune, start, end int) int {
	minCut := start + s.size/2
	if minCut <= start+s.overlap {
		minCut = start + s.overlap + 1
	}
	for _, sep := range separators {
		idx := lastIndex(runes[start:end], sep)
		if idx < 0 {
			continue
		}
		cut := start + idx + len(sep)
		if cut >= minCut {
			return cut
		}
	}
	return end
}

// lastIndex reports the index of the last occurrence of sep in window,
// or -1 if absent.
func lastIndex(window, sep []rune) int {
	for i := len(window) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if window[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
