package ai

import "context"

// Generator produces candidate knowledge atoms from text chunks.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// GenerateAtoms analyzes one text chunk and produces candidate knowledge
	// atoms with free-text content and provenance fields.
	// Returns an empty slice if the chunk yields nothing usable.
	// Returns an error if generation fails; callers treat that as the
	// failure of this chunk only, not of the whole document.
	GenerateAtoms(ctx context.Context, chunk string, meta SourceMeta) ([]CandidateAtom, error)
}

// QualityChecker screens candidate atoms before they are stored.
// Implementations must be thread-safe for concurrent use.
type QualityChecker interface {
	// CheckAtom evaluates one candidate and returns a pass/fail verdict with
	// a score breakdown. A returned error means the check itself failed;
	// callers decide whether that drops the atom.
	CheckAtom(ctx context.Context, candidate CandidateAtom) (CheckResult, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice matches the order of the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages the Generator, QualityChecker and
// Embedder instances, ensuring they share configuration and resources.
type Provider interface {
	// Generator returns the atom generation service.
	Generator() Generator

	// QualityChecker returns the atom screening service.
	QualityChecker() QualityChecker

	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	Close() error
}
