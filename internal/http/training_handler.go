package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/training-tracker/internal/application"
)

// maxUploadSize bounds convention uploads; scans of a few pages stay well under it.
const maxUploadSize = 15 << 20

type trainingService interface {
	IngestConvention(ctx context.Context, params application.IngestParams) ([]application.TrainingSession, error)
	ListSessions(ctx context.Context) ([]application.TrainingSession, error)
	GetSession(ctx context.Context, id string) (application.TrainingSession, error)
	SignParticipant(ctx context.Context, sessionID, participantID, signature string) (application.TrainingSession, error)
	AddParticipant(ctx context.Context, sessionID, name string) (application.TrainingSession, error)
	RenameTrainer(ctx context.Context, sessionID, newName string) (application.TrainingSession, error)
	RenameCompany(ctx context.Context, sessionID, newName string) (application.TrainingSession, error)
	Finalize(ctx context.Context, sessionID, trainerSignature string) (application.TrainingSession, error)
	CertificateObjectives(ctx context.Context, sessionID string) ([]string, error)
}

type TrainingHandler struct {
	service   trainingService
	responder responder
}

func NewTrainingHandler(service trainingService, logger *slog.Logger) *TrainingHandler {
	return &TrainingHandler{service: service, responder: newResponder(logger)}
}

func (h *TrainingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessions, err := h.service.ListSessions(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTrainingsResponse{Trainings: toTrainingDTOs(sessions)})
}

func (h *TrainingHandler) Get(w http.ResponseWriter, r *http.Request) {
	trainingID, ok := h.trainingID(w, r)
	if !ok {
		return
	}

	session, err := h.service.GetSession(r.Context(), trainingID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTrainingDTO(session))
}

// Ingest accepts a multipart convention upload and creates the extracted
// sessions, one per training day.
func (h *TrainingHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	trainerName := r.FormValue("trainer_name")
	if trainerName == "" {
		if principal, ok := PrincipalFromContext(r.Context()); ok {
			trainerName = principal.Email
		}
	}

	sessions, err := h.service.IngestConvention(r.Context(), application.IngestParams{
		Data:        data,
		MIMEType:    header.Header.Get("Content-Type"),
		TrainerName: trainerName,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, listTrainingsResponse{Trainings: toTrainingDTOs(sessions)})
}

// Update renames the trainer and/or the company of a session.
func (h *TrainingHandler) Update(w http.ResponseWriter, r *http.Request) {
	trainingID, ok := h.trainingID(w, r)
	if !ok {
		return
	}

	var req updateTrainingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	var (
		session application.TrainingSession
		err     error
		touched bool
	)
	if req.TrainerName != nil {
		session, err = h.service.RenameTrainer(r.Context(), trainingID, *req.TrainerName)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		touched = true
	}
	if req.CompanyName != nil {
		session, err = h.service.RenameCompany(r.Context(), trainingID, *req.CompanyName)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		touched = true
	}

	if !touched {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTrainingDTO(session))
}

func (h *TrainingHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	trainingID, ok := h.trainingID(w, r)
	if !ok {
		return
	}

	var req addParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	session, err := h.service.AddParticipant(r.Context(), trainingID, req.Name)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toTrainingDTO(session))
}

func (h *TrainingHandler) SignParticipant(w http.ResponseWriter, r *http.Request, participantID string) {
	trainingID, ok := h.trainingID(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(participantID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidParticipantID)
		return
	}

	var req signatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	session, err := h.service.SignParticipant(r.Context(), trainingID, participantID, req.Signature)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTrainingDTO(session))
}

func (h *TrainingHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	trainingID, ok := h.trainingID(w, r)
	if !ok {
		return
	}

	var req signatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	session, err := h.service.Finalize(r.Context(), trainingID, req.Signature)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTrainingDTO(session))
}

func (h *TrainingHandler) Objectives(w http.ResponseWriter, r *http.Request) {
	trainingID, ok := h.trainingID(w, r)
	if !ok {
		return
	}

	objectives, err := h.service.CertificateObjectives(r.Context(), trainingID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, objectivesResponse{Objectives: objectives})
}

func (h *TrainingHandler) trainingID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return "", false
	}
	trainingID, ok := TrainingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(trainingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTrainingID)
		return "", false
	}
	return trainingID, true
}

type updateTrainingRequest struct {
	TrainerName *string `json:"trainerName"`
	CompanyName *string `json:"companyName"`
}

type addParticipantRequest struct {
	Name string `json:"name"`
}

type signatureRequest struct {
	Signature string `json:"signature"`
}

type listTrainingsResponse struct {
	Trainings []trainingDTO `json:"trainings"`
}

type objectivesResponse struct {
	Objectives []string `json:"objectives"`
}

type participantDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	HasSigned bool   `json:"hasSigned"`
	Signature string `json:"signature,omitempty"`
	IsPresent bool   `json:"isPresent"`
}

type trainingDTO struct {
	ID               string           `json:"id"`
	CompanyName      string           `json:"companyName"`
	TrainingName     string           `json:"trainingName"`
	Date             string           `json:"date"`
	StartTime        string           `json:"startTime,omitempty"`
	Status           string           `json:"status"`
	TrainerName      string           `json:"trainerName"`
	TrainerSignature string           `json:"trainerSignature,omitempty"`
	Participants     []participantDTO `json:"participants"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func toTrainingDTO(session application.TrainingSession) trainingDTO {
	participants := make([]participantDTO, 0, len(session.Participants))
	for _, participant := range session.Participants {
		participants = append(participants, participantDTO{
			ID:        participant.ID,
			Name:      participant.Name,
			Email:     participant.Email,
			Role:      participant.Role,
			HasSigned: participant.HasSigned,
			Signature: participant.Signature,
			IsPresent: participant.IsPresent,
		})
	}

	return trainingDTO{
		ID:               session.ID,
		CompanyName:      session.CompanyName,
		TrainingName:     session.TrainingName,
		Date:             session.Date,
		StartTime:        session.StartTime,
		Status:           string(session.Status),
		TrainerName:      session.TrainerName,
		TrainerSignature: session.TrainerSignature,
		Participants:     participants,
		CreatedAt:        session.CreatedAt,
		UpdatedAt:        session.UpdatedAt,
	}
}

func toTrainingDTOs(sessions []application.TrainingSession) []trainingDTO {
	out := make([]trainingDTO, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toTrainingDTO(session))
	}
	return out
}
