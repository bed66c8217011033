package models

import "time"

// RegStatus is the status of an event registration. The set is closed; see
// transitions.go for the legal moves between statuses.
type RegStatus string

const (
	RegPending    RegStatus = "PENDING"
	RegConfirmed  RegStatus = "CONFIRMED"
	RegAttended   RegStatus = "ATTENDED"
	RegCancelled  RegStatus = "CANCELLED"
	RegWaitlisted RegStatus = "WAITLISTED"
)

// RegStatuses lists every registration status, in a stable order.
var RegStatuses = []RegStatus{RegPending, RegConfirmed, RegAttended, RegCancelled, RegWaitlisted}

// ParseRegStatus returns the RegStatus for s, or false if unknown.
func ParseRegStatus(s string) (RegStatus, bool) {
	switch RegStatus(s) {
	case RegPending, RegConfirmed, RegAttended, RegCancelled, RegWaitlisted:
		return RegStatus(s), true
	}
	return "", false
}

// Active reports whether the status counts toward the one-active-registration
// rule. Only CANCELLED registrations are inactive.
func (s RegStatus) Active() bool {
	return s != RegCancelled
}

// Registration links a user to an event with a status.
type Registration struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	EventID      int64     `json:"event_id"`
	Status       RegStatus `json:"status"`
	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegistrationStats is the per-status registration count for an event,
// zero-filled for statuses with no rows.
type RegistrationStats struct {
	EventID    int64 `json:"event_id"`
	Pending    int   `json:"pending"`
	Confirmed  int   `json:"confirmed"`
	Attended   int   `json:"attended"`
	Cancelled  int   `json:"cancelled"`
	Waitlisted int   `json:"waitlisted"`
	Total      int   `json:"total"`
}

// Add records one registration with the given status.
func (s *RegistrationStats) Add(status RegStatus, n int) {
	switch status {
	case RegPending:
		s.Pending += n
	case RegConfirmed:
		s.Confirmed += n
	case RegAttended:
		s.Attended += n
	case RegCancelled:
		s.Cancelled += n
	case RegWaitlisted:
		s.Waitlisted += n
	}
	s.Total += n
}
