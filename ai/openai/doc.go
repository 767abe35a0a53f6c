// Package openai implements the ai service interfaces against
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM, OpenAI itself).
//
// All chat-backed services request JSON mode at temperature 0 and retry
// malformed responses up to 3 times, repairing common LLM JSON mistakes
// before giving up.
package openai
