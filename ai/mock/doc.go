// Package mock provides test double implementations of the ai interfaces.
//
// The mocks allow tests to run without external AI services and enable
// controlled, deterministic behavior:
//
//   - MockGenerator: splits chunks into one candidate per sentence
//   - MockQualityChecker: passes every candidate with a fixed score
//   - MockEmbedder: returns deterministic vectors based on text hash
//
// Custom behavior is injected via the exported function fields, and call
// counts are available for assertions:
//
//	gen := mock.NewMockGenerator()
//	gen.GenerateAtomsFunc = func(ctx context.Context, chunk string, meta ai.SourceMeta) ([]ai.CandidateAtom, error) {
//	    return nil, errors.New("boom")
//	}
//	count := gen.CallCount()
package mock
