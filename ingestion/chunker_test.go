package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitChunksPacksParagraphs(t *testing.T) {
	text := "First paragraph about inverters.\n\nSecond paragraph about motors.\n\nThird paragraph about torque."

	chunks, err := SplitChunks(text, ChunkerConfig{MaxChars: 1600, MinChars: 1})
	require.NoError(t, err)

	// Everything fits in one chunk at the default cap.
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Contains(t, chunks[0].Text, "First paragraph")
	assert.Contains(t, chunks[0].Text, "Third paragraph")
}

func TestSplitChunksRespectsMaxChars(t *testing.T) {
	para := strings.Repeat("word ", 20) // ~100 chars
	text := strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para)

	chunks, err := SplitChunks(text, ChunkerConfig{MaxChars: 120, MinChars: 1})
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.LessOrEqual(t, len(chunk.Text), 120)
	}
}

func TestSplitChunksSplitsOversizedParagraph(t *testing.T) {
	var b strings.Builder
	for range 30 {
		b.WriteString("The drive trips on overcurrent when the ramp is too steep. ")
	}

	chunks, err := SplitChunks(b.String(), ChunkerConfig{MaxChars: 200, MinChars: 1})
	require.NoError(t, err)

	assert.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), 200)
	}
}

func TestSplitChunksFoldsTrailingFragment(t *testing.T) {
	text := strings.Repeat("alpha ", 30) + "\n\nok."

	chunks, err := SplitChunks(text, ChunkerConfig{MaxChars: 170, MinChars: 20})
	require.NoError(t, err)

	// The 3-char tail is folded into the previous chunk.
	require.Len(t, chunks, 1)
	assert.True(t, strings.HasSuffix(chunks[0].Text, "ok."))
}

func TestSplitChunksEmptyInput(t *testing.T) {
	_, err := SplitChunks("", DefaultChunkerConfig())
	assert.ErrorIs(t, err, ErrNoChunks)

	_, err = SplitChunks("\n\n  \n\n", DefaultChunkerConfig())
	assert.ErrorIs(t, err, ErrNoChunks)
}
