package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reassemble undoes the overlap: first chunk whole, then the tail of each
// subsequent chunk past the shared region.
func reassemble(chunks []string, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		b.WriteString(string([]rune(c)[overlap:]))
	}
	return b.String()
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := New(1000, 200)
	text := "A short paragraph that fits in one chunk."

	chunks := s.Split(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitEmptyText(t *testing.T) {
	assert.Nil(t, New(1000, 200).Split(""))
}

func TestSplitReconstructsOriginalText(t *testing.T) {
	s := New(100, 20)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)

	chunks := s.Split(text)

	require.Greater(t, len(chunks), 1)
	assert.Equal(t, text, reassemble(chunks, s.Overlap()))
}

func TestSplitChunksWithinSizeLimit(t *testing.T) {
	s := New(100, 20)
	text := strings.Repeat("word and another word here. ", 50)

	for i, c := range s.Split(text) {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100, "chunk %d exceeds size", i)
		assert.NotEmpty(t, c)
	}
}

func TestSplitConsecutiveChunksShareOverlap(t *testing.T) {
	s := New(100, 20)
	text := strings.Repeat("alpha beta gamma delta epsilon zeta. ", 30)

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		assert.Equal(t, string(prev[len(prev)-s.Overlap():]), string(cur[:s.Overlap()]),
			"chunks %d and %d do not share the overlap region", i-1, i)
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	s := New(80, 16)
	text := strings.Repeat("Some sentences here. Followed by more text.\n\nNew paragraph. ", 25)

	first := s.Split(text)
	second := s.Split(text)

	assert.Equal(t, first, second)
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	para := strings.Repeat("x", 70) + "\n\n"
	text := para + strings.Repeat("y", 200)

	chunks := New(100, 10).Split(text)

	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"),
		"expected first chunk to end on the paragraph break, got %q", chunks[0])
}

func TestSplitPrefersSentenceOverSpace(t *testing.T) {
	// A sentence boundary sits in the upper half of the window alongside
	// later spaces; the sentence end must win over a nearer space.
	text := strings.Repeat("a", 60) + ". " + "bb cc dd ee ff gg hh ii jj kk ll mm nn oo pp qq rr ss tt uu vv ww xx yy zz"

	chunks := New(100, 10).Split(text)

	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], ". "), "got %q", chunks[0])
}

func TestSplitNoSeparatorFallsBackToHardCut(t *testing.T) {
	s := New(50, 10)
	text := strings.Repeat("z", 300)

	chunks := s.Split(text)

	require.Greater(t, len(chunks), 1)
	assert.Equal(t, 50, len(chunks[0]))
	assert.Equal(t, text, reassemble(chunks, s.Overlap()))
}

func TestSplitHandlesMultibyteText(t *testing.T) {
	s := New(50, 10)
	text := strings.Repeat("日本語のテキスト", 40)

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %d is not valid UTF-8", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 50, "chunk %d exceeds size", i)
	}
	assert.Equal(t, text, reassemble(chunks, s.Overlap()))
}

func TestNewClampsExcessiveOverlap(t *testing.T) {
	s := New(100, 400)
	assert.Equal(t, 50, s.Overlap())

	text := strings.Repeat("m", 1000)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, text, reassemble(chunks, s.Overlap()))
}
