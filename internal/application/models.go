package application

import "time"

// Status tracks the lifecycle of a training session from scheduling to closure.
type Status string

const (
	// StatusScheduled marks a session that has not started yet.
	StatusScheduled Status = "SCHEDULED"
	// StatusInProgress marks a session whose signature collection has started
	// but which the trainer has not closed.
	StatusInProgress Status = "IN_PROGRESS"
	// StatusCompleted marks a session closed by the trainer's signature.
	StatusCompleted Status = "COMPLETED"
	// StatusArchived is a terminal state reserved for external archival.
	StatusArchived Status = "ARCHIVED"
)

// Participant represents one attendee of a training session.
//
// HasSigned implies Signature is present and IsPresent is true; the signing
// operation is the only mutation that establishes those three fields.
type Participant struct {
	ID        string
	Name      string
	Email     string
	Role      string
	HasSigned bool
	Signature string
	IsPresent bool
}

// TrainingSession represents one occurrence of a training engagement for one
// company on one calendar date.
//
// Date is an ISO calendar date (YYYY-MM-DD); StartTime is an optional HH:MM
// time of day, 09:30 when empty. Status == StatusCompleted implies
// TrainerSignature is present.
type TrainingSession struct {
	ID               string
	CompanyName      string
	TrainingName     string
	Date             string
	StartTime        string
	Status           Status
	TrainerName      string
	TrainerSignature string
	Participants     []Participant
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NotificationType distinguishes imminent-session alerts from overdue reminders.
type NotificationType string

const (
	// NotificationTypeAlert flags an imminent session.
	NotificationTypeAlert NotificationType = "alert"
	// NotificationTypeReminder flags a session left un-closed after its date.
	NotificationTypeReminder NotificationType = "reminder"
)

// Notification represents one operator-facing alert derived from the session
// collection. ID is deterministic per (rule, session) pair and doubles as the
// dedup key; it is never regenerated while present in the log.
type Notification struct {
	ID         string
	Title      string
	Message    string
	Type       NotificationType
	Timestamp  time.Time
	TrainingID string
	Read       bool
}

// ExtractedParticipant is one attendee row returned by the intake collaborator.
type ExtractedParticipant struct {
	Name  string
	Email string
	Role  string
}

// ExtractionResult is the structured output of the intake collaborator for one
// uploaded convention document. Multi-day conventions carry several dates.
type ExtractionResult struct {
	CompanyName  string
	TrainingName string
	Dates        []string
	Participants []ExtractedParticipant
}

// IngestParams wraps an uploaded convention document handed to the intake flow.
type IngestParams struct {
	Data        []byte
	MIMEType    string
	TrainerName string
}

// Principal identifies the authenticated operator invoking a service method.
type Principal struct {
	Email string
}

// AuthenticateParams captures the data required to authenticate the operator.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthSession represents an authenticated operator session.
type AuthSession struct {
	Token     string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
