package ai

// SourceMeta carries document provenance into the generation prompt.
type SourceMeta struct {
	// SourceURL is the origin of the document, if any.
	SourceURL string

	// Title is the extracted document title, if any.
	Title string

	// Subject is the detected subject from validation, if any.
	Subject string
}

// CandidateAtom is one knowledge record proposed by the Generator.
// It has not yet passed quality checks.
type CandidateAtom struct {
	// Subject is a short lowercase identifier for what the atom is about.
	Subject string

	// Content is the free-text body of the knowledge record.
	Content string
}

// CheckResult is the QualityChecker verdict for one candidate atom.
type CheckResult struct {
	// Pass reports whether the atom should be stored.
	Pass bool

	// Score is the overall quality score, 0-100.
	Score float64

	// Breakdown holds per-criterion scores (e.g. "accuracy", "specificity").
	Breakdown map[string]float64

	// Reason explains a failing verdict.
	Reason string
}
