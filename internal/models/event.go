package models

import "time"

// EventStatus is the lifecycle status of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventActive    EventStatus = "active"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// ParseEventStatus returns the EventStatus for s, or false if unknown.
func ParseEventStatus(s string) (EventStatus, bool) {
	switch EventStatus(s) {
	case EventDraft, EventActive, EventCompleted, EventCancelled:
		return EventStatus(s), true
	}
	return "", false
}

// Event is an admin-managed event students register for.
type Event struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	StartsAt    time.Time   `json:"starts_at"`
	EndsAt      time.Time   `json:"ends_at"`
	MaxSlots    int         `json:"max_slots"`
	Status      EventStatus `json:"status"`
	Published   bool        `json:"published"`
	VenueID     int64       `json:"venue_id"`
	FeeCents    int         `json:"fee_cents"`
	PosterKey   *string     `json:"poster_key,omitempty"`
	CreatedBy   int64       `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Registrable reports whether new registrations are accepted for the event.
func (e *Event) Registrable() bool {
	return e.Published && e.Status == EventActive
}
