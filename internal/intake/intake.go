// Package intake calls the external document-analysis service that bootstraps
// training sessions from an uploaded convention document.
package intake

// Participant is one attendee row extracted from a convention document.
type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Result is the structured extraction for one convention document. A
// multi-day convention carries one date per training day, ordered.
type Result struct {
	CompanyName  string        `json:"company_name"`
	TrainingName string        `json:"training_name"`
	Dates        []string      `json:"dates"`
	Participants []Participant `json:"participants"`
}
