package models

import "time"

// NotifyTask is one queued notification in the outbox. Payload is the
// rendered message text; delivery is retried with backoff until MaxRetries.
type NotifyTask struct {
	ID          int64      `json:"id"`
	EventType   string     `json:"event_type"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"` // pending, retry, completed, failed
	RetryCount  int        `json:"retry_count"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}
