package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/training-tracker/internal/intake"
	"github.com/example/training-tracker/internal/persistence"
)

// SessionRepository captures the persistence interactions needed by the service.
type SessionRepository interface {
	CreateSessions(ctx context.Context, sessions []TrainingSession) error
	GetSession(ctx context.Context, id string) (TrainingSession, error)
	UpdateSession(ctx context.Context, session TrainingSession) (TrainingSession, error)
	ListSessions(ctx context.Context) ([]TrainingSession, error)
}

// DocumentExtractor is the intake collaborator that turns an uploaded
// convention document into structured session data.
type DocumentExtractor interface {
	ExtractConvention(ctx context.Context, data []byte, mimeType string) (ExtractionResult, error)
}

// ObjectiveSource generates certificate objectives for a training name.
type ObjectiveSource interface {
	TrainingObjectives(ctx context.Context, trainingName string) ([]string, error)
}

// SessionService owns the authoritative session collection. All lifecycle
// transitions go through it; mutations are serialised so a poll of the
// notification engine never observes a half-applied transition.
type SessionService struct {
	mu          sync.Mutex
	sessions    SessionRepository
	extractor   DocumentExtractor
	objectives  ObjectiveSource
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSessionService wires dependencies for session operations.
func NewSessionService(sessions SessionRepository, extractor DocumentExtractor, objectives ObjectiveSource, idGenerator func() string, now func() time.Time) *SessionService {
	return NewSessionServiceWithLogger(sessions, extractor, objectives, idGenerator, now, nil)
}

// NewSessionServiceWithLogger constructs a SessionService with a specified logger.
func NewSessionServiceWithLogger(sessions SessionRepository, extractor DocumentExtractor, objectives ObjectiveSource, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SessionService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		sessions:    sessions,
		extractor:   extractor,
		objectives:  objectives,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

// IngestConvention runs the intake collaborator over an uploaded document and
// creates one session per extracted date. A failed extraction creates no
// sessions. The new batch is prepended to the collection in date order.
func (s *SessionService) IngestConvention(ctx context.Context, params IngestParams) (created []TrainingSession, err error) {
	if s == nil {
		return nil, fmt.Errorf("SessionService is nil")
	}
	if s.extractor == nil {
		return nil, fmt.Errorf("document extractor not configured")
	}

	logger := s.loggerWith(ctx, "IngestConvention", "mime_type", params.MIMEType)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "intake failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "convention ingested", "sessions", len(created))
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(params.TrainerName) == "" {
		vErr.add("trainer_name", "trainer name is required")
	}
	if len(params.Data) == 0 {
		vErr.add("document", "document content is required")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	result, err := s.extractor.ExtractConvention(ctx, params.Data, params.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("extracting convention: %w", err)
	}

	if strings.TrimSpace(result.CompanyName) == "" {
		vErr.add("company_name", "company name is required")
	}
	if strings.TrimSpace(result.TrainingName) == "" {
		vErr.add("training_name", "training name is required")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	sessions := s.expandSessions(result, strings.TrimSpace(params.TrainerName))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.CreateSessions(ctx, sessions); err != nil {
		return nil, mapSessionRepoError(err)
	}
	return sessions, nil
}

// expandSessions turns one extraction into sibling sessions, one per date.
// Multi-day trainings share company and participant names but carry distinct
// ids and a " (Jour k)" name suffix. Zero extracted dates fall back to today.
func (s *SessionService) expandSessions(result ExtractionResult, trainerName string) []TrainingSession {
	dates := make([]string, 0, len(result.Dates))
	for _, date := range result.Dates {
		if _, err := time.Parse("2006-01-02", strings.TrimSpace(date)); err == nil {
			dates = append(dates, strings.TrimSpace(date))
		}
	}
	createdAt := s.now()
	if len(dates) == 0 {
		dates = []string{createdAt.Format("2006-01-02")}
	}

	sessions := make([]TrainingSession, 0, len(dates))
	for i, date := range dates {
		name := strings.TrimSpace(result.TrainingName)
		if len(dates) > 1 {
			name = fmt.Sprintf("%s (Jour %d)", name, i+1)
		}

		participants := make([]Participant, 0, len(result.Participants))
		for _, extracted := range result.Participants {
			participants = append(participants, Participant{
				ID:    s.idGenerator(),
				Name:  strings.TrimSpace(extracted.Name),
				Email: strings.TrimSpace(extracted.Email),
				Role:  strings.TrimSpace(extracted.Role),
			})
		}

		sessions = append(sessions, TrainingSession{
			ID:           s.idGenerator(),
			CompanyName:  strings.TrimSpace(result.CompanyName),
			TrainingName: name,
			Date:         date,
			Status:       StatusScheduled,
			TrainerName:  trainerName,
			Participants: participants,
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		})
	}
	return sessions
}

// ListSessions enumerates the collection, newest ingested batch first.
func (s *SessionService) ListSessions(ctx context.Context) ([]TrainingSession, error) {
	if s == nil || s.sessions == nil {
		return nil, fmt.Errorf("session repository not configured")
	}
	sessions, err := s.sessions.ListSessions(ctx)
	if err != nil {
		return nil, mapSessionRepoError(err)
	}
	return sessions, nil
}

// GetSession retrieves one session by id.
func (s *SessionService) GetSession(ctx context.Context, id string) (TrainingSession, error) {
	if s == nil || s.sessions == nil {
		return TrainingSession{}, fmt.Errorf("session repository not configured")
	}
	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return TrainingSession{}, mapSessionRepoError(err)
	}
	return session, nil
}

// SignParticipant records a participant signature. Signing a participant who
// already signed is a no-op; signature replacement is not supported here. The
// first signature moves a scheduled session to IN_PROGRESS.
func (s *SessionService) SignParticipant(ctx context.Context, sessionID, participantID, signature string) (TrainingSession, error) {
	if strings.TrimSpace(signature) == "" {
		vErr := &ValidationError{}
		vErr.add("signature", "signature is required")
		return TrainingSession{}, vErr
	}

	return s.mutate(ctx, sessionID, func(session *TrainingSession) error {
		if session.Status == StatusCompleted {
			return ErrInvalidTransition
		}

		for i := range session.Participants {
			if session.Participants[i].ID != participantID {
				continue
			}
			if session.Participants[i].HasSigned {
				return errNoChange
			}
			session.Participants[i].HasSigned = true
			session.Participants[i].IsPresent = true
			session.Participants[i].Signature = signature
			if session.Status == StatusScheduled {
				session.Status = StatusInProgress
			}
			return nil
		}
		return ErrNotFound
	})
}

// AddParticipant appends a new unsigned participant to an open session.
func (s *SessionService) AddParticipant(ctx context.Context, sessionID, name string) (TrainingSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		vErr := &ValidationError{}
		vErr.add("name", "participant name is required")
		return TrainingSession{}, vErr
	}

	return s.mutate(ctx, sessionID, func(session *TrainingSession) error {
		if session.Status == StatusCompleted {
			return ErrInvalidTransition
		}
		session.Participants = append(session.Participants, Participant{
			ID:   s.idGenerator(),
			Name: name,
		})
		return nil
	})
}

// RenameTrainer updates the trainer name. On a completed session a changed
// name invalidates the captured attestation: the trainer signature is cleared
// and the session reverts to IN_PROGRESS.
func (s *SessionService) RenameTrainer(ctx context.Context, sessionID, newName string) (TrainingSession, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		vErr := &ValidationError{}
		vErr.add("trainer_name", "trainer name is required")
		return TrainingSession{}, vErr
	}

	return s.mutate(ctx, sessionID, func(session *TrainingSession) error {
		if session.TrainerName == newName {
			return errNoChange
		}
		session.TrainerName = newName
		if session.Status == StatusCompleted {
			session.TrainerSignature = ""
			session.Status = StatusInProgress
		}
		return nil
	})
}

// RenameCompany updates the company name without lifecycle side effects.
func (s *SessionService) RenameCompany(ctx context.Context, sessionID, newName string) (TrainingSession, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		vErr := &ValidationError{}
		vErr.add("company_name", "company name is required")
		return TrainingSession{}, vErr
	}

	return s.mutate(ctx, sessionID, func(session *TrainingSession) error {
		if session.CompanyName == newName {
			return errNoChange
		}
		session.CompanyName = newName
		return nil
	})
}

// Finalize closes a session with the trainer's signature. Partial attendance
// is valid: absentees simply remain unsigned on the printed sheet.
func (s *SessionService) Finalize(ctx context.Context, sessionID, trainerSignature string) (session TrainingSession, err error) {
	logger := s.loggerWith(ctx, "Finalize", "session_id", sessionID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "finalize failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session finalized")
	}()

	if strings.TrimSpace(trainerSignature) == "" {
		vErr := &ValidationError{}
		vErr.add("trainer_signature", "trainer signature is required")
		return TrainingSession{}, vErr
	}

	return s.mutate(ctx, sessionID, func(session *TrainingSession) error {
		if session.Status == StatusCompleted {
			return ErrInvalidTransition
		}
		session.Status = StatusCompleted
		session.TrainerSignature = trainerSignature
		return nil
	})
}

// CertificateObjectives resolves the objective list printed on a certificate,
// falling back to the default list when generation fails.
func (s *SessionService) CertificateObjectives(ctx context.Context, sessionID string) ([]string, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.objectives != nil {
		objectives, err := s.objectives.TrainingObjectives(ctx, session.TrainingName)
		if err == nil && len(objectives) > 0 {
			return objectives, nil
		}
		if err != nil {
			s.loggerWith(ctx, "CertificateObjectives", "session_id", sessionID).
				WarnContext(ctx, "objective generation failed, using defaults", "error", err)
		}
	}
	return intake.DefaultObjectives(), nil
}

// errNoChange signals that a mutation turned out to be a no-op; the stored
// session is returned unchanged and nothing is written.
var errNoChange = errors.New("application: no change")

// mutate applies fn to the stored session under the single-writer lock and
// persists the result. Transitions are all-or-nothing: when fn reports an
// error no state is written.
func (s *SessionService) mutate(ctx context.Context, sessionID string, fn func(*TrainingSession) error) (TrainingSession, error) {
	if s == nil || s.sessions == nil {
		return TrainingSession{}, fmt.Errorf("session repository not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return TrainingSession{}, mapSessionRepoError(err)
	}

	if err := fn(&session); err != nil {
		if errors.Is(err, errNoChange) {
			return session, nil
		}
		return TrainingSession{}, err
	}

	session.UpdatedAt = s.now()
	persisted, err := s.sessions.UpdateSession(ctx, session)
	if err != nil {
		return TrainingSession{}, mapSessionRepoError(err)
	}
	return persisted, nil
}

func mapSessionRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
