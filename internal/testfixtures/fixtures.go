package testfixtures

import (
	"time"

	"github.com/example/training-tracker/internal/application"
)

// ScheduledSession returns a session dated relative to the reference instant.
// Offsets shift the calendar date; the session starts at the default time.
func ScheduledSession(id string, dayOffset int) application.TrainingSession {
	day := ReferenceTime().AddDate(0, 0, dayOffset)
	return application.TrainingSession{
		ID:           id,
		CompanyName:  "Tech Solutions",
		TrainingName: "Sécurité Incendie",
		Date:         day.Format("2006-01-02"),
		Status:       application.StatusScheduled,
		TrainerName:  "Rali El kohen",
		Participants: []application.Participant{
			{ID: id + "-p1", Name: "Alice Martin", Email: "alice@tech.com", Role: "Dev"},
			{ID: id + "-p2", Name: "Bob Dupont", Email: "bob@tech.com", Role: "Ops"},
		},
		CreatedAt: ReferenceTime(),
		UpdatedAt: ReferenceTime(),
	}
}

// CompletedSession returns a closed session with a trainer signature and all
// participants signed.
func CompletedSession(id string, dayOffset int) application.TrainingSession {
	session := ScheduledSession(id, dayOffset)
	session.Status = application.StatusCompleted
	session.TrainerSignature = "data:image/png;base64,c2lnbmF0dXJl"
	for i := range session.Participants {
		session.Participants[i].HasSigned = true
		session.Participants[i].IsPresent = true
		session.Participants[i].Signature = "data:image/png;base64,c2lnbmF0dXJl"
	}
	return session
}

// Extraction returns a plausible intake result covering the given dates.
func Extraction(dates ...string) application.ExtractionResult {
	return application.ExtractionResult{
		CompanyName:  "Entreprise Bernard",
		TrainingName: "Gestion de Projet",
		Dates:        dates,
		Participants: []application.ExtractedParticipant{
			{Name: "David Lee", Email: "david@bernard.fr", Role: "Analyst"},
			{Name: "Eva Green", Email: "eva@bernard.fr", Role: "HR"},
		},
	}
}

// At builds a wall-clock instant on the reference day.
func At(hour, minute int) time.Time {
	ref := ReferenceTime()
	return time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, ref.Location())
}
