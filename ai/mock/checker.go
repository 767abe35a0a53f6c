package mock

import (
	"context"

	"github.com/atomforge/atomforge/ai"
)

// MockQualityChecker is a test double for ai.QualityChecker.
// It allows custom behavior injection via function fields.
type MockQualityChecker struct {
	// CheckAtomFunc is called by CheckAtom if set.
	// If nil, every candidate passes with a fixed score.
	CheckAtomFunc func(ctx context.Context, candidate ai.CandidateAtom) (ai.CheckResult, error)

	callCount int
}

// NewMockQualityChecker creates a mock checker with default pass-all behavior.
// Note: Returns concrete type to allow test assertions via GetMockChecker().
func NewMockQualityChecker() *MockQualityChecker {
	return &MockQualityChecker{}
}

// CheckAtom passes every candidate by default.
func (m *MockQualityChecker) CheckAtom(ctx context.Context, candidate ai.CandidateAtom) (ai.CheckResult, error) {
	m.callCount++

	if m.CheckAtomFunc != nil {
		return m.CheckAtomFunc(ctx, candidate)
	}

	return ai.CheckResult{
		Pass:  true,
		Score: 90,
		Breakdown: map[string]float64{
			"accuracy":    90,
			"specificity": 90,
			"grounding":   90,
		},
	}, nil
}

// CallCount returns the number of times CheckAtom was called.
func (m *MockQualityChecker) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockQualityChecker) Reset() {
	m.callCount = 0
	m.CheckAtomFunc = nil
}
