// Package ingestion implements the document processing pipeline.
//
// The Runner type drives one session through the full state machine:
//   - Acquiring raw content (HTTP fetch with retries, files, raw text)
//   - Validating the document against quality and relevance heuristics
//   - Extracting and chunking the usable text
//   - Generating candidate atoms per chunk and screening them per atom
//   - Embedding and storing the survivors
//
// Failures before the per-chunk fan-out abort the session; failures after
// it stay local to the chunk or atom and drive the partial status. Every
// stage execution is recorded by the Tracer, including failures.
package ingestion
