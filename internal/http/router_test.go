package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/training-tracker/internal/application"
	"github.com/example/training-tracker/internal/testfixtures"
)

type stubTrainingService struct {
	sessions   map[string]application.TrainingSession
	ingested   []application.TrainingSession
	ingestErr  error
	objectives []string
}

func newStubTrainingService(sessions ...application.TrainingSession) *stubTrainingService {
	service := &stubTrainingService{sessions: make(map[string]application.TrainingSession)}
	for _, session := range sessions {
		service.sessions[session.ID] = session
	}
	return service
}

func (s *stubTrainingService) IngestConvention(ctx context.Context, params application.IngestParams) ([]application.TrainingSession, error) {
	if s.ingestErr != nil {
		return nil, s.ingestErr
	}
	return s.ingested, nil
}

func (s *stubTrainingService) ListSessions(ctx context.Context) ([]application.TrainingSession, error) {
	out := make([]application.TrainingSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out, nil
}

func (s *stubTrainingService) GetSession(ctx context.Context, id string) (application.TrainingSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return application.TrainingSession{}, application.ErrNotFound
	}
	return session, nil
}

func (s *stubTrainingService) SignParticipant(ctx context.Context, sessionID, participantID, signature string) (application.TrainingSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return application.TrainingSession{}, application.ErrNotFound
	}
	if strings.TrimSpace(signature) == "" {
		vErr := &application.ValidationError{FieldErrors: map[string]string{"signature": "signature is required"}}
		return application.TrainingSession{}, vErr
	}
	if session.Status == application.StatusCompleted {
		return application.TrainingSession{}, application.ErrInvalidTransition
	}
	for i := range session.Participants {
		if session.Participants[i].ID == participantID {
			session.Participants[i].HasSigned = true
			session.Participants[i].Signature = signature
			session.Status = application.StatusInProgress
			s.sessions[sessionID] = session
			return session, nil
		}
	}
	return application.TrainingSession{}, application.ErrNotFound
}

func (s *stubTrainingService) AddParticipant(ctx context.Context, sessionID, name string) (application.TrainingSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return application.TrainingSession{}, application.ErrNotFound
	}
	session.Participants = append(session.Participants, application.Participant{ID: "new", Name: name})
	s.sessions[sessionID] = session
	return session, nil
}

func (s *stubTrainingService) RenameTrainer(ctx context.Context, sessionID, newName string) (application.TrainingSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return application.TrainingSession{}, application.ErrNotFound
	}
	session.TrainerName = newName
	s.sessions[sessionID] = session
	return session, nil
}

func (s *stubTrainingService) RenameCompany(ctx context.Context, sessionID, newName string) (application.TrainingSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return application.TrainingSession{}, application.ErrNotFound
	}
	session.CompanyName = newName
	s.sessions[sessionID] = session
	return session, nil
}

func (s *stubTrainingService) Finalize(ctx context.Context, sessionID, trainerSignature string) (application.TrainingSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return application.TrainingSession{}, application.ErrNotFound
	}
	if session.Status == application.StatusCompleted {
		return application.TrainingSession{}, application.ErrInvalidTransition
	}
	session.Status = application.StatusCompleted
	session.TrainerSignature = trainerSignature
	s.sessions[sessionID] = session
	return session, nil
}

func (s *stubTrainingService) CertificateObjectives(ctx context.Context, sessionID string) ([]string, error) {
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, application.ErrNotFound
	}
	return s.objectives, nil
}

type stubNotificationService struct {
	notifications []application.Notification
	cleared       bool
	read          []string
}

func (s *stubNotificationService) ListNotifications(ctx context.Context) ([]application.Notification, error) {
	return s.notifications, nil
}

func (s *stubNotificationService) MarkNotificationRead(ctx context.Context, id string) error {
	for _, notification := range s.notifications {
		if notification.ID == id {
			s.read = append(s.read, id)
			return nil
		}
	}
	return application.ErrNotFound
}

func (s *stubNotificationService) ClearNotifications(ctx context.Context) error {
	s.cleared = true
	s.notifications = nil
	return nil
}

type stubAuthService struct {
	token   string
	revoked []string
}

func (s *stubAuthService) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthSession, error) {
	if params.Email != "formateur@example.fr" || params.Password != "motdepasse" {
		return application.AuthSession{}, application.ErrInvalidCredentials
	}
	return application.AuthSession{Token: s.token, Email: params.Email, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *stubAuthService) RevokeSession(ctx context.Context, token string) error {
	if token != s.token {
		return application.ErrNotFound
	}
	s.revoked = append(s.revoked, token)
	return nil
}

func newTestRouter(trainings *stubTrainingService, notifications *stubNotificationService, auth *stubAuthService) http.Handler {
	cfg := RouterConfig{}
	if auth != nil {
		cfg.Auth = NewAuthHandler(auth, nil)
	}
	if trainings != nil {
		cfg.Trainings = NewTrainingHandler(trainings, nil)
	}
	if notifications != nil {
		cfg.Notifications = NewNotificationHandler(notifications, nil)
	}
	return NewRouter(cfg)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	request := httptest.NewRequest(method, path, reader)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(recorder.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

func TestTrainingRoutes(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		router := newTestRouter(newStubTrainingService(testfixtures.ScheduledSession("s1", 0)), nil, nil)

		recorder := doJSON(t, router, http.MethodGet, "/trainings", nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		response := decodeBody[listTrainingsResponse](t, recorder)
		if len(response.Trainings) != 1 || response.Trainings[0].ID != "s1" {
			t.Fatalf("unexpected body: %+v", response)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		router := newTestRouter(newStubTrainingService(testfixtures.ScheduledSession("s1", 0)), nil, nil)

		recorder := doJSON(t, router, http.MethodGet, "/trainings/s1", nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		dto := decodeBody[trainingDTO](t, recorder)
		if dto.ID != "s1" || dto.Status != "SCHEDULED" || len(dto.Participants) != 2 {
			t.Fatalf("unexpected body: %+v", dto)
		}
	})

	t.Run("get unknown id", func(t *testing.T) {
		router := newTestRouter(newStubTrainingService(), nil, nil)

		recorder := doJSON(t, router, http.MethodGet, "/trainings/ghost", nil)
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", recorder.Code)
		}
		response := decodeBody[errorResponse](t, recorder)
		if response.Message == "" {
			t.Fatalf("expected a localized message")
		}
	})

	t.Run("sign participant", func(t *testing.T) {
		router := newTestRouter(newStubTrainingService(testfixtures.ScheduledSession("s1", 0)), nil, nil)

		recorder := doJSON(t, router, http.MethodPost, "/trainings/s1/participants/s1-p1/signature",
			signatureRequest{Signature: "data:image/png;base64,cA=="})
		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		dto := decodeBody[trainingDTO](t, recorder)
		if dto.Status != "IN_PROGRESS" || !dto.Participants[0].HasSigned {
			t.Fatalf("unexpected body: %+v", dto)
		}
	})

	t.Run("sign on completed session conflicts", func(t *testing.T) {
		router := newTestRouter(newStubTrainingService(testfixtures.CompletedSession("s1", -1)), nil, nil)

		recorder := doJSON(t, router, http.MethodPost, "/trainings/s1/participants/s1-p1/signature",
			signatureRequest{Signature: "data:image/png;base64,cA=="})
		if recorder.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", recorder.Code)
		}
	})

	t.Run("blank signature is unprocessable", func(t *testing.T) {
		router := newTestRouter(newStubTrainingService(testfixtures.ScheduledSession("s1", 0)), nil, nil)

		recorder := doJSON(t, router, http.MethodPost, "/trainings/s1/participants/s1-p1/signature",
			signatureRequest{Signature: "  "})
		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", recorder.Code)
		}
		response := decodeBody[errorResponse](t, recorder)
		if _, ok := response.Errors["signature"]; !ok {
			t.Fatalf("expected a field error, got %+v", response)
		}
	})

	t.Run("add participant", func(t *testing.T) {
		router := newTestRouter(newStubTrainingService(testfixtures.ScheduledSession("s1", 0)), nil, nil)

		recorder := doJSON(t, router, http.MethodPost, "/trainings/s1/participants",
			addParticipantRequest{Name: "Chloé Petit"})
		if recorder.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", recorder.Code)
		}
		dto := decodeBody[trainingDTO](t, recorder)
		if len(dto.Participants) != 3 {
			t.Fatalf("unexpected body: %+v", dto)
		}
	})

	t.Run("rename trainer", func(t *testing.T) {
		router := newTestRouter(newStubTrainingService(testfixtures.ScheduledSession("s1", 0)), nil, nil)

		name := "Marie Curie"
		recorder := doJSON(t, router, http.MethodPatch, "/trainings/s1", updateTrainingRequest{TrainerName: &name})
		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		dto := decodeBody[trainingDTO](t, recorder)
		if dto.TrainerName != "Marie Curie" {
			t.Fatalf("unexpected body: %+v", dto)
		}
	})

	t.Run("update without fields is a bad request", func(t *testing.T) {
		router := newTestRouter(newStubTrainingService(testfixtures.ScheduledSession("s1", 0)), nil, nil)

		recorder := doJSON(t, router, http.MethodPatch, "/trainings/s1", updateTrainingRequest{})
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", recorder.Code)
		}
	})

	t.Run("finalize", func(t *testing.T) {
		router := newTestRouter(newStubTrainingService(testfixtures.ScheduledSession("s1", 0)), nil, nil)

		recorder := doJSON(t, router, http.MethodPost, "/trainings/s1/finalize",
			signatureRequest{Signature: "data:image/png;base64,Zg=="})
		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		dto := decodeBody[trainingDTO](t, recorder)
		if dto.Status != "COMPLETED" || dto.TrainerSignature == "" {
			t.Fatalf("unexpected body: %+v", dto)
		}
	})

	t.Run("objectives", func(t *testing.T) {
		service := newStubTrainingService(testfixtures.ScheduledSession("s1", 0))
		service.objectives = []string{"Maîtriser les extincteurs"}
		router := newTestRouter(service, nil, nil)

		recorder := doJSON(t, router, http.MethodGet, "/trainings/s1/objectives", nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		response := decodeBody[objectivesResponse](t, recorder)
		if len(response.Objectives) != 1 {
			t.Fatalf("unexpected body: %+v", response)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		router := newTestRouter(newStubTrainingService(), nil, nil)

		recorder := doJSON(t, router, http.MethodDelete, "/trainings", nil)
		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("status = %d, want 405", recorder.Code)
		}
		if allow := recorder.Header().Get("Allow"); allow != http.MethodGet {
			t.Fatalf("Allow = %q", allow)
		}
	})

	t.Run("unknown nested path", func(t *testing.T) {
		router := newTestRouter(newStubTrainingService(testfixtures.ScheduledSession("s1", 0)), nil, nil)

		recorder := doJSON(t, router, http.MethodGet, "/trainings/s1/participants/p1/autre", nil)
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", recorder.Code)
		}
	})
}

func TestIngestRoute(t *testing.T) {
	ingested := []application.TrainingSession{testfixtures.ScheduledSession("nouveau", 1)}
	service := newStubTrainingService()
	service.ingested = ingested
	router := newTestRouter(service, nil, nil)

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	part, err := writer.CreateFormFile("document", "convention.pdf")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4")); err != nil {
		t.Fatalf("writing part: %v", err)
	}
	if err := writer.WriteField("trainer_name", "Rali El kohen"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}

	request := httptest.NewRequest(http.MethodPost, "/trainings/intake", &buffer)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", recorder.Code, recorder.Body.String())
	}
	response := decodeBody[listTrainingsResponse](t, recorder)
	if len(response.Trainings) != 1 || response.Trainings[0].ID != "nouveau" {
		t.Fatalf("unexpected body: %+v", response)
	}
}

func TestIngestRoute_MissingFile(t *testing.T) {
	router := newTestRouter(newStubTrainingService(), nil, nil)

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	if err := writer.WriteField("trainer_name", "Rali El kohen"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	writer.Close()

	request := httptest.NewRequest(http.MethodPost, "/trainings/intake", &buffer)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestNotificationRoutes(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		service := &stubNotificationService{notifications: []application.Notification{
			{ID: "pre-t1", Title: "Formation imminente", Type: application.NotificationTypeAlert, TrainingID: "t1"},
		}}
		router := newTestRouter(nil, service, nil)

		recorder := doJSON(t, router, http.MethodGet, "/notifications", nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		response := decodeBody[listNotificationsResponse](t, recorder)
		if len(response.Notifications) != 1 || response.Notifications[0].TrainingID != "t1" {
			t.Fatalf("unexpected body: %+v", response)
		}
	})

	t.Run("mark read", func(t *testing.T) {
		service := &stubNotificationService{notifications: []application.Notification{{ID: "pre-t1"}}}
		router := newTestRouter(nil, service, nil)

		recorder := doJSON(t, router, http.MethodPost, "/notifications/pre-t1/read", nil)
		if recorder.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", recorder.Code)
		}
		if len(service.read) != 1 {
			t.Fatalf("mark read not forwarded")
		}
	})

	t.Run("mark read unknown id", func(t *testing.T) {
		router := newTestRouter(nil, &stubNotificationService{}, nil)

		recorder := doJSON(t, router, http.MethodPost, "/notifications/ghost/read", nil)
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", recorder.Code)
		}
	})

	t.Run("clear", func(t *testing.T) {
		service := &stubNotificationService{notifications: []application.Notification{{ID: "a"}}}
		router := newTestRouter(nil, service, nil)

		recorder := doJSON(t, router, http.MethodDelete, "/notifications", nil)
		if recorder.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", recorder.Code)
		}
		if !service.cleared {
			t.Fatalf("clear not forwarded")
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		router := newTestRouter(nil, &stubNotificationService{}, nil)

		recorder := doJSON(t, router, http.MethodPost, "/notifications/pre-t1/archive", nil)
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", recorder.Code)
		}
	})
}

func TestAuthRoutes(t *testing.T) {
	t.Run("login", func(t *testing.T) {
		router := newTestRouter(nil, nil, &stubAuthService{token: "jeton"})

		recorder := doJSON(t, router, http.MethodPost, "/login",
			loginRequest{Email: "formateur@example.fr", Password: "motdepasse"})
		if recorder.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", recorder.Code)
		}
		response := decodeBody[loginResponse](t, recorder)
		if response.Token != "jeton" || response.ExpiresAt.IsZero() {
			t.Fatalf("unexpected body: %+v", response)
		}
	})

	t.Run("wrong credentials", func(t *testing.T) {
		router := newTestRouter(nil, nil, &stubAuthService{token: "jeton"})

		recorder := doJSON(t, router, http.MethodPost, "/login",
			loginRequest{Email: "formateur@example.fr", Password: "autre"})
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", recorder.Code)
		}
	})

	t.Run("logout revokes the carried token", func(t *testing.T) {
		auth := &stubAuthService{token: "jeton"}
		router := newTestRouter(nil, nil, auth)

		request := httptest.NewRequest(http.MethodPost, "/logout", nil)
		request.Header.Set("Authorization", "Bearer jeton")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", recorder.Code)
		}
		if len(auth.revoked) != 1 {
			t.Fatalf("token not revoked")
		}
	})

	t.Run("logout without a token", func(t *testing.T) {
		router := newTestRouter(nil, nil, &stubAuthService{token: "jeton"})

		recorder := doJSON(t, router, http.MethodPost, "/logout", nil)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", recorder.Code)
		}
	})
}

type stubValidator struct {
	principal application.Principal
	err       error
}

func (s *stubValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	if s.err != nil {
		return application.Principal{}, s.err
	}
	return s.principal, nil
}

func TestRequireSession(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Error("principal missing from context")
		}
		w.Header().Set("X-Principal", principal.Email)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token passes the principal through", func(t *testing.T) {
		validator := &stubValidator{principal: application.Principal{Email: "formateur@example.fr"}}
		handler := RequireSession(validator, nil)(next)

		request := httptest.NewRequest(http.MethodGet, "/trainings", nil)
		request.Header.Set("Authorization", "Bearer jeton")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		if recorder.Header().Get("X-Principal") != "formateur@example.fr" {
			t.Fatalf("principal not forwarded")
		}
	})

	t.Run("missing token", func(t *testing.T) {
		handler := RequireSession(&stubValidator{}, nil)(next)

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/trainings", nil))
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", recorder.Code)
		}
	})

	t.Run("expired session", func(t *testing.T) {
		handler := RequireSession(&stubValidator{err: application.ErrSessionExpired}, nil)(next)

		request := httptest.NewRequest(http.MethodGet, "/trainings", nil)
		request.Header.Set("Authorization", "Bearer jeton")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", recorder.Code)
		}
		response := decodeBody[errorResponse](t, recorder)
		if !strings.Contains(response.Message, "expirée") {
			t.Fatalf("unexpected message: %q", response.Message)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		handler := RequireSession(&stubValidator{err: application.ErrNotFound}, nil)(next)

		request := httptest.NewRequest(http.MethodGet, "/trainings", nil)
		request.Header.Set("Authorization", "Bearer inconnu")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", recorder.Code)
		}
	})
}
