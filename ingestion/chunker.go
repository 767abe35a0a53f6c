package ingestion

import (
	"strings"

	"github.com/atomforge/atomforge/core"
)

// ChunkerConfig bounds chunk sizes. Chunks are cut on paragraph
// boundaries; paragraphs beyond MaxChars split on sentence boundaries.
type ChunkerConfig struct {
	MaxChars int
	MinChars int
}

// DefaultChunkerConfig returns the chunk size limits used by the pipeline.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxChars: 1600,
		MinChars: 80,
	}
}

// SplitChunks cuts document text into indexed chunks. Paragraphs are
// packed greedily up to MaxChars; fragments below MinChars are folded into
// the previous chunk rather than emitted on their own.
func SplitChunks(text string, config ChunkerConfig) ([]core.Chunk, error) {
	if config.MaxChars <= 0 {
		config.MaxChars = DefaultChunkerConfig().MaxChars
	}

	paragraphs := splitParagraphs(text, config.MaxChars)
	if len(paragraphs) == 0 {
		return nil, ErrNoChunks
	}

	var (
		chunks  []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	for _, para := range paragraphs {
		if current.Len() > 0 && current.Len()+len(para)+2 > config.MaxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	// A trailing fragment below the minimum rides along with its
	// predecessor instead of becoming a chunk of its own.
	if n := len(chunks); n > 1 && len(chunks[n-1]) < config.MinChars {
		chunks[n-2] = chunks[n-2] + "\n\n" + chunks[n-1]
		chunks = chunks[:n-1]
	}

	out := make([]core.Chunk, len(chunks))
	for i, text := range chunks {
		out[i] = core.Chunk{Index: i, Text: text}
	}
	return out, nil
}

// splitParagraphs breaks text on blank lines; paragraphs over maxChars are
// further split on sentence boundaries so no single unit exceeds the cap.
func splitParagraphs(text string, maxChars int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= maxChars {
			out = append(out, para)
			continue
		}
		out = append(out, splitSentences(para, maxChars)...)
	}
	return out
}

func splitSentences(para string, maxChars int) []string {
	var (
		out     []string
		current strings.Builder
	)
	start := 0
	for i := range len(para) {
		c := para[i]
		if c != '.' && c != '!' && c != '?' && i != len(para)-1 {
			continue
		}
		sentence := strings.TrimSpace(para[start : i+1])
		start = i + 1
		if sentence == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(sentence)+1 > maxChars {
			out = append(out, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}
