package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/training-tracker/internal/persistence"
)

// CreateSessions inserts an ingested batch ahead of all existing sessions.
// Positions descend below the current minimum so a List returns the newest
// batch first while preserving its internal order.
func (s *Storage) CreateSessions(ctx context.Context, sessions []persistence.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var minPosition sql.NullInt64
		if err := tx.QueryRowContext(ctx, "SELECT MIN(position) FROM sessions").Scan(&minPosition); err != nil {
			return fmt.Errorf("reading session positions: %w", err)
		}

		base := int64(0)
		if minPosition.Valid {
			base = minPosition.Int64
		}
		base -= int64(len(sessions))

		for i, session := range sessions {
			session.Position = int(base) + i
			if err := insertSession(ctx, tx, session); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertSession(ctx context.Context, tx *sql.Tx, session persistence.Session) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, company_name, training_name, session_date, start_time, status, trainer_name, trainer_signature, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.CompanyName,
		session.TrainingName,
		session.Date,
		nullString(session.StartTime),
		session.Status,
		session.TrainerName,
		nullString(session.TrainerSignature),
		session.Position,
		session.CreatedAt.UTC().Format(time.RFC3339Nano),
		session.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.ErrDuplicate
		}
		return fmt.Errorf("inserting session %s: %w", session.ID, err)
	}

	return insertParticipants(ctx, tx, session.ID, session.Participants)
}

func insertParticipants(ctx context.Context, tx *sql.Tx, sessionID string, participants []persistence.Participant) error {
	for i, participant := range participants {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO participants (id, session_id, name, email, role, has_signed, signature, is_present, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			participant.ID,
			sessionID,
			participant.Name,
			participant.Email,
			participant.Role,
			boolToInt(participant.HasSigned),
			nullString(participant.Signature),
			boolToInt(participant.IsPresent),
			i,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return persistence.ErrDuplicate
			}
			return fmt.Errorf("inserting participant %s: %w", participant.ID, err)
		}
	}
	return nil
}

// UpdateSession replaces the stored session and its participant rows.
func (s *Storage) UpdateSession(ctx context.Context, session persistence.Session) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE sessions
			SET company_name = ?, training_name = ?, session_date = ?, start_time = ?, status = ?, trainer_name = ?, trainer_signature = ?, updated_at = ?
			WHERE id = ?`,
			session.CompanyName,
			session.TrainingName,
			session.Date,
			nullString(session.StartTime),
			session.Status,
			session.TrainerName,
			nullString(session.TrainerSignature),
			session.UpdatedAt.UTC().Format(time.RFC3339Nano),
			session.ID,
		)
		if err != nil {
			return fmt.Errorf("updating session %s: %w", session.ID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM participants WHERE session_id = ?", session.ID); err != nil {
			return fmt.Errorf("clearing participants for %s: %w", session.ID, err)
		}
		return insertParticipants(ctx, tx, session.ID, session.Participants)
	})
}

// GetSession retrieves a session and its participants by id.
func (s *Storage) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_name, training_name, session_date, start_time, status, trainer_name, trainer_signature, position, created_at, updated_at
		FROM sessions WHERE id = ?`, id)

	session, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, err
	}

	participants, err := s.participantsFor(ctx, []string{id})
	if err != nil {
		return persistence.Session{}, err
	}
	session.Participants = participants[id]
	return session, nil
}

// ListSessions returns all sessions ordered by position, newest batch first.
func (s *Storage) ListSessions(ctx context.Context) ([]persistence.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_name, training_name, session_date, start_time, status, trainer_name, trainer_signature, position, created_at, updated_at
		FROM sessions ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []persistence.Session
	var ids []string
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
		ids = append(ids, session.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	participants, err := s.participantsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].Participants = participants[sessions[i].ID]
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (persistence.Session, error) {
	var (
		session          persistence.Session
		startTime        sql.NullString
		trainerSignature sql.NullString
		createdAt        string
		updatedAt        string
	)
	err := row.Scan(
		&session.ID,
		&session.CompanyName,
		&session.TrainingName,
		&session.Date,
		&startTime,
		&session.Status,
		&session.TrainerName,
		&trainerSignature,
		&session.Position,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Session{}, err
	}

	session.StartTime = fromNullString(startTime)
	session.TrainerSignature = fromNullString(trainerSignature)
	session.CreatedAt = parseTime(createdAt)
	session.UpdatedAt = parseTime(updatedAt)
	return session, nil
}

func (s *Storage) participantsFor(ctx context.Context, sessionIDs []string) (map[string][]persistence.Participant, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]byte, 0, len(sessionIDs)*2)
	args := make([]any, 0, len(sessionIDs))
	for i, id := range sessionIDs {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, name, email, role, has_signed, signature, is_present, position
		FROM participants WHERE session_id IN (`+string(placeholders)+`) ORDER BY session_id, position ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]persistence.Participant)
	for rows.Next() {
		var (
			participant persistence.Participant
			hasSigned   int
			isPresent   int
			signature   sql.NullString
		)
		err := rows.Scan(
			&participant.ID,
			&participant.SessionID,
			&participant.Name,
			&participant.Email,
			&participant.Role,
			&hasSigned,
			&signature,
			&isPresent,
			&participant.Position,
		)
		if err != nil {
			return nil, err
		}
		participant.HasSigned = hasSigned != 0
		participant.IsPresent = isPresent != 0
		participant.Signature = fromNullString(signature)
		result[participant.SessionID] = append(result[participant.SessionID], participant)
	}
	return result, rows.Err()
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func fromNullString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	out := value.String
	return &out
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
