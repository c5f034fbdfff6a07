package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/training-tracker/internal/persistence"
)

// AppendNotifications stores newly derived notifications. Ids are the dedup
// keys computed by the engine; a collision reports ErrDuplicate.
func (s *Storage) AppendNotifications(ctx context.Context, notifications []persistence.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, notification := range notifications {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO notifications (id, title, message, type, timestamp, training_id, read_flag)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				notification.ID,
				notification.Title,
				notification.Message,
				notification.Type,
				notification.Timestamp.UTC().Format(time.RFC3339Nano),
				nullString(notification.TrainingID),
				boolToInt(notification.Read),
			)
			if err != nil {
				if isUniqueViolation(err) {
					return persistence.ErrDuplicate
				}
				return fmt.Errorf("inserting notification %s: %w", notification.ID, err)
			}
		}
		return nil
	})
}

// ListNotifications returns the full log, newest first.
func (s *Storage) ListNotifications(ctx context.Context) ([]persistence.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, message, type, timestamp, training_id, read_flag
		FROM notifications ORDER BY timestamp DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []persistence.Notification
	for rows.Next() {
		var (
			notification persistence.Notification
			timestamp    string
			trainingID   sql.NullString
			readFlag     int
		)
		err := rows.Scan(
			&notification.ID,
			&notification.Title,
			&notification.Message,
			&notification.Type,
			&timestamp,
			&trainingID,
			&readFlag,
		)
		if err != nil {
			return nil, err
		}
		notification.Timestamp = parseTime(timestamp)
		notification.TrainingID = fromNullString(trainingID)
		notification.Read = readFlag != 0
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flips the read flag for one notification.
func (s *Storage) MarkNotificationRead(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE notifications SET read_flag = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ClearNotifications removes the whole log. Cleared entries are eligible for
// re-derivation on the next evaluation.
func (s *Storage) ClearNotifications(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM notifications"); err != nil {
		return fmt.Errorf("clearing notifications: %w", err)
	}
	return nil
}
