// Package queue defines message payloads exchanged over the message broker.
package queue

// EventScheduledMessage is published when an event passes the
// conflict check and is persisted.  It carries enough information for
// downstream consumers (notifications, analytics) to act without
// querying the primary database.
type EventScheduledMessage struct {
	EventID       uint64  `json:"event_id"`
	UserID        uint64  `json:"user_id"`
	FacilityID    *uint64 `json:"facility_id,omitempty"`
	FacilityName  string  `json:"facility_name,omitempty"`
	Title         string  `json:"title"`
	StartsAt      string  `json:"starts_at"`
	EndsAt        string  `json:"ends_at,omitempty"`
	Recurrence    string  `json:"recurrence"`
	RecurrenceEnd string  `json:"recurrence_end,omitempty"`
	ScheduledAt   string  `json:"scheduled_at"`
}
