package persistence

import "time"

// Participant represents one attendee row stored for a session.
type Participant struct {
	ID        string
	SessionID string
	Name      string
	Email     string
	Role      string
	HasSigned bool
	Signature *string
	IsPresent bool
	Position  int
}

// Session represents a training session stored in persistence. Date is an ISO
// calendar date string; StartTime is nil when the default applies.
type Session struct {
	ID               string
	CompanyName      string
	TrainingName     string
	Date             string
	StartTime        *string
	Status           string
	TrainerName      string
	TrainerSignature *string
	Participants     []Participant
	Position         int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Notification represents one entry of the persisted notification log.
type Notification struct {
	ID         string
	Title      string
	Message    string
	Type       string
	Timestamp  time.Time
	TrainingID *string
	Read       bool
}

// AuthSession represents an operator token persisted for the HTTP surface.
type AuthSession struct {
	Token     string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
