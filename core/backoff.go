package core

import "time"

// BackoffBase is the base delay for exponential backoff.
const BackoffBase = 2 * time.Second

// Backoff returns the delay to wait before the given retry attempt.
// Attempt numbering starts at 1: 2s, 4s, 8s, ... capped at 60s.
// The one policy shared by content acquisition and storage failover probing.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := BackoffBase << (attempt - 1)
	if delay > 60*time.Second || delay <= 0 {
		return 60 * time.Second
	}
	return delay
}
