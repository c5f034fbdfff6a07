// Package notify derives operator notifications from the session collection.
//
// The engine is the single source of truth for temporal state: every time
// window comparison lives here, so the HTTP surface and the tests observe
// identical results. Evaluate is a pure function of its inputs; callers own
// the accumulated notification log and pass it back as the suppression set.
package notify

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultStartTime is assumed when a session carries no start time,
	// matching the printed convention template.
	DefaultStartTime = "09:30"
	// PreSessionLead is the width of the imminent-session window.
	PreSessionLead = 15 * time.Minute
)

// Session statuses observed by the engine. Values match the stored lifecycle
// states of the session collection.
const (
	StatusScheduled = "SCHEDULED"
	StatusCompleted = "COMPLETED"
)

// Notification types emitted by the engine.
const (
	TypeAlert    = "alert"
	TypeReminder = "reminder"
)

// Session is the projection of a training session the engine evaluates.
type Session struct {
	ID           string
	TrainingName string
	Date         string
	StartTime    string
	Status       string
}

// Notification is one derived operator alert. ID is deterministic per
// (rule, session) pair and acts as the dedup key.
type Notification struct {
	ID         string
	Title      string
	Message    string
	Type       string
	Timestamp  time.Time
	TrainingID string
}

// Evaluate scans the sessions against the existing notification log and
// returns the notifications that are due but not yet present. The existing
// set suppresses re-emission regardless of read state; ids emitted earlier in
// the same call are suppressed as well, so duplicate session ids cannot
// produce duplicate notifications. Date arithmetic uses the location of now.
func Evaluate(sessions []Session, existing []Notification, now time.Time) []Notification {
	seen := make(map[string]struct{}, len(existing))
	for _, notification := range existing {
		seen[notification.ID] = struct{}{}
	}

	var derived []Notification
	emit := func(notification Notification) {
		if _, ok := seen[notification.ID]; ok {
			return
		}
		seen[notification.ID] = struct{}{}
		derived = append(derived, notification)
	}

	for _, session := range sessions {
		if notification, ok := preSessionAlert(session, now); ok {
			emit(notification)
		}
		if notification, ok := overdueReminder(session, now); ok {
			emit(notification)
		}
	}

	return derived
}

// preSessionAlert fires while the session is still SCHEDULED and its start is
// strictly within (0, PreSessionLead] from now.
func preSessionAlert(session Session, now time.Time) (Notification, bool) {
	if session.Status != StatusScheduled {
		return Notification{}, false
	}

	start, err := sessionStart(session, now.Location())
	if err != nil {
		return Notification{}, false
	}

	remaining := start.Sub(now)
	if remaining <= 0 || remaining > PreSessionLead {
		return Notification{}, false
	}

	return Notification{
		ID:         "pre-" + session.ID,
		Title:      "Formation imminente",
		Message:    fmt.Sprintf("La formation \"%s\" commence dans 15 min. Pensez à faire signer les participants.", session.TrainingName),
		Type:       TypeAlert,
		Timestamp:  now,
		TrainingID: session.ID,
	}, true
}

// overdueReminder fires once the calendar day after the session date has begun
// and the trainer has not closed the session. Midnight of date+1 is the
// authoritative threshold.
func overdueReminder(session Session, now time.Time) (Notification, bool) {
	if session.Status == StatusCompleted {
		return Notification{}, false
	}

	day, err := time.ParseInLocation("2006-01-02", session.Date, now.Location())
	if err != nil {
		return Notification{}, false
	}

	if now.Before(day.AddDate(0, 0, 1)) {
		return Notification{}, false
	}

	return Notification{
		ID:         "post-" + session.ID,
		Title:      "Session non clôturée",
		Message:    fmt.Sprintf("Oubli de signature ? La session \"%s\" du %s n'est pas clôturée par le formateur.", session.TrainingName, formatDate(session.Date)),
		Type:       TypeReminder,
		Timestamp:  now,
		TrainingID: session.ID,
	}, true
}

func sessionStart(session Session, loc *time.Location) (time.Time, error) {
	startTime := session.StartTime
	if startTime == "" {
		startTime = DefaultStartTime
	}
	return time.ParseInLocation("2006-01-02 15:04", session.Date+" "+startTime, loc)
}

// formatDate turns an ISO date into the DD/MM/YYYY form used in message copy.
func formatDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}
