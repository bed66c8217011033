package models

import "time"

// Venue is a physical location events are held at. Event.MaxSlots may never
// exceed the capacity of its venue.
type Venue struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
