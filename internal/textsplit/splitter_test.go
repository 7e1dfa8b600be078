package textsplit

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSplit_ShortTextIsOneChunk(t *testing.T) {
	s := New(100, 20)
	chunks := s.Split("short text")
	require.Equal(t, []string{"short text"}, chunks)
}

func TestSplit_EmptyAfterTrimIsDropped(t *testing.T) {
	s := New(100, 20)
	require.Empty(t, s.Split(""))
	require.Empty(t, s.Split("   \n\n\t  "))
}

func TestSplit_RespectsChunkSize(t *testing.T) {
	s := New(50, 10)
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("some words here. ")
	}
	chunks := s.Split(sb.String())
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len(chunk), 50)
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("a", 30)
	para2 := strings.Repeat("b", 30)
	s := New(40, 0)
	chunks := s.Split(para1 + "\n\n" + para2)
	require.Len(t, chunks, 2)
	require.Contains(t, chunks[0], para1)
	require.Contains(t, chunks[1], para2)
}

func TestSplit_OverlapCarriesTail(t *testing.T) {
	s := New(40, 10)
	words := strings.Repeat("word ", 30)
	chunks := s.Split(words)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-10:]
		require.True(t, strings.HasPrefix(chunks[i], tail),
			"chunk %d should start with the last 10 bytes of chunk %d", i, i-1)
	}
}

func TestSplit_HardCutWithoutSeparators(t *testing.T) {
	s := New(10, 0)
	chunks := s.Split(strings.Repeat("x", 25))
	require.Equal(t, []string{
		strings.Repeat("x", 10),
		strings.Repeat("x", 10),
		strings.Repeat("x", 5),
	}, chunks)
}

func TestSplit_MultiByteTextStaysBounded(t *testing.T) {
	// Long unsegmented Japanese text: runs without "\n\n", "\n" or ". "
	// boundaries and every rune is three bytes wide.
	s := New(DefaultChunkSize, DefaultOverlap)
	text := strings.Repeat("温度センサーの診断データと振動解析の結果、", 200)
	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len(chunk), DefaultChunkSize)
		require.True(t, utf8.ValidString(chunk), "chunk must not cut a rune in half")
	}
}

func TestSplit_OverlapDoesNotCutRunes(t *testing.T) {
	// An overlap that is not a multiple of the rune width must snap to a
	// rune boundary instead of carrying a partial encoding.
	s := New(50, 11)
	chunks := s.Split(strings.Repeat("温度センサー ", 40))
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len(chunk), 50)
		require.True(t, utf8.ValidString(chunk))
	}
}

func TestNew_DefaultsOnBadArguments(t *testing.T) {
	s := New(0, -1)
	require.Equal(t, DefaultChunkSize, s.chunkSize)
	require.Equal(t, DefaultOverlap, s.overlap)
}
