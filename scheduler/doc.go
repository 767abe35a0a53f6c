// Package scheduler drives the ingestion backlog.
//
// A fixed-size worker pool repeatedly claims the highest-priority pending
// entries and runs one pipeline session per entry. Per-domain request
// spacing is checked before dispatch; entries whose domain is throttled or
// blocked are released back to pending. Domains that fail repeatedly with
// network errors are blocked for a cool-down period.
package scheduler
