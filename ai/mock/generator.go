package mock

import (
	"context"
	"strings"

	"github.com/atomforge/atomforge/ai"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateAtomsFunc is called by GenerateAtoms if set.
	// If nil, uses default sentence-splitting behavior.
	GenerateAtomsFunc func(ctx context.Context, chunk string, meta ai.SourceMeta) ([]ai.CandidateAtom, error)

	callCount int
}

// NewMockGenerator creates a mock generator with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// GenerateAtoms produces simple mock atoms from a chunk.
// Default behavior: one candidate per sentence, subject taken from meta.
func (m *MockGenerator) GenerateAtoms(ctx context.Context, chunk string, meta ai.SourceMeta) ([]ai.CandidateAtom, error) {
	m.callCount++

	if m.GenerateAtomsFunc != nil {
		return m.GenerateAtomsFunc(ctx, chunk, meta)
	}

	subject := strings.ToLower(meta.Subject)
	if subject == "" {
		subject = "general"
	}

	sentences := strings.Split(chunk, ".")
	atoms := make([]ai.CandidateAtom, 0, len(sentences))
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		atoms = append(atoms, ai.CandidateAtom{
			Subject: subject,
			Content: sentence + ".",
		})
	}

	return atoms, nil
}

// CallCount returns the number of times GenerateAtoms was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.GenerateAtomsFunc = nil
}
