// Package notify delivers session outcomes to a chat service.
//
// The Dispatcher consumes completed-session events and sends them either
// one message per session or as periodic digest summaries. Outbound volume
// is capped by a per-minute token budget with a bounded overflow queue;
// digest delivery respects configured quiet hours.
package notify
