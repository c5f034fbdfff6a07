package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/training-tracker/internal/persistence"
)

var sequence int

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	sequence++
	storage, err := Open(fmt.Sprintf("file:test-%d?mode=memory&cache=shared", sequence))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return storage
}

func stringPtr(s string) *string { return &s }

func storedSession(id string, position int) persistence.Session {
	created := time.Date(2024, time.June, 4, 8, 0, 0, 0, time.UTC)
	return persistence.Session{
		ID:           id,
		CompanyName:  "Tech Solutions",
		TrainingName: "Sécurité Incendie",
		Date:         "2024-06-04",
		Status:       "SCHEDULED",
		TrainerName:  "Rali El kohen",
		Participants: []persistence.Participant{
			{ID: id + "-p1", SessionID: id, Name: "Alice Martin", Email: "alice@tech.com", Role: "Dev"},
			{ID: id + "-p2", SessionID: id, Name: "Bob Dupont", Email: "bob@tech.com", Role: "Ops"},
		},
		Position:  position,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()

	original := storedSession("s1", 0)
	original.StartTime = stringPtr("14:00")
	if err := storage.CreateSessions(ctx, []persistence.Session{original}); err != nil {
		t.Fatalf("CreateSessions: %v", err)
	}

	stored, err := storage.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if stored.CompanyName != original.CompanyName || stored.TrainingName != original.TrainingName {
		t.Fatalf("names not preserved: %+v", stored)
	}
	if stored.StartTime == nil || *stored.StartTime != "14:00" {
		t.Fatalf("start time not preserved: %v", stored.StartTime)
	}
	if stored.TrainerSignature != nil {
		t.Fatalf("trainer signature should be null")
	}
	if !stored.CreatedAt.Equal(original.CreatedAt) {
		t.Fatalf("created at mismatch: %v vs %v", stored.CreatedAt, original.CreatedAt)
	}
	if len(stored.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(stored.Participants))
	}
	if stored.Participants[0].Name != "Alice Martin" || stored.Participants[1].Name != "Bob Dupont" {
		t.Fatalf("participant order not preserved: %+v", stored.Participants)
	}
}

func TestCreateSessions_PrependsBatches(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()

	first := []persistence.Session{storedSession("a1", 0), storedSession("a2", 0)}
	if err := storage.CreateSessions(ctx, first); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	second := []persistence.Session{storedSession("b1", 0), storedSession("b2", 0)}
	if err := storage.CreateSessions(ctx, second); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	sessions, err := storage.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	got := make([]string, 0, len(sessions))
	for _, session := range sessions {
		got = append(got, session.ID)
	}
	want := []string{"b1", "b2", "a1", "a2"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestCreateSessions_DuplicateID(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()

	if err := storage.CreateSessions(ctx, []persistence.Session{storedSession("s1", 0)}); err != nil {
		t.Fatalf("CreateSessions: %v", err)
	}
	err := storage.CreateSessions(ctx, []persistence.Session{storedSession("s1", 0)})
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUpdateSession(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()

	session := storedSession("s1", 0)
	if err := storage.CreateSessions(ctx, []persistence.Session{session}); err != nil {
		t.Fatalf("CreateSessions: %v", err)
	}

	session.Status = "COMPLETED"
	session.TrainerSignature = stringPtr("data:image/png;base64,c2ln")
	session.Participants[0].HasSigned = true
	session.Participants[0].IsPresent = true
	session.Participants[0].Signature = stringPtr("data:image/png;base64,cDE=")
	session.Participants = append(session.Participants, persistence.Participant{
		ID: "s1-p3", SessionID: "s1", Name: "Chloé Petit",
	})
	session.UpdatedAt = session.UpdatedAt.Add(time.Hour)

	if err := storage.UpdateSession(ctx, session); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	stored, err := storage.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if stored.Status != "COMPLETED" {
		t.Fatalf("status not updated: %s", stored.Status)
	}
	if stored.TrainerSignature == nil {
		t.Fatalf("trainer signature not stored")
	}
	if len(stored.Participants) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(stored.Participants))
	}
	if !stored.Participants[0].HasSigned || stored.Participants[0].Signature == nil {
		t.Fatalf("participant signature lost: %+v", stored.Participants[0])
	}
	if !stored.UpdatedAt.Equal(session.UpdatedAt) {
		t.Fatalf("updated at mismatch")
	}
}

func TestUpdateSession_NotFound(t *testing.T) {
	storage := openTestStorage(t)
	if err := storage.UpdateSession(context.Background(), storedSession("ghost", 0)); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	storage := openTestStorage(t)
	if _, err := storage.GetSession(context.Background(), "ghost"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSessions_Empty(t *testing.T) {
	storage := openTestStorage(t)
	sessions, err := storage.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(sessions))
	}
}

func TestNotificationLog(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, time.June, 4, 9, 0, 0, 0, time.UTC)

	older := persistence.Notification{ID: "post-t1", Title: "Session non clôturée", Message: "…", Type: "reminder", Timestamp: base}
	newer := persistence.Notification{ID: "pre-t2", Title: "Formation imminente", Message: "…", Type: "alert", Timestamp: base.Add(time.Hour), TrainingID: stringPtr("t2")}

	if err := storage.AppendNotifications(ctx, []persistence.Notification{older, newer}); err != nil {
		t.Fatalf("AppendNotifications: %v", err)
	}

	t.Run("lists newest first", func(t *testing.T) {
		notifications, err := storage.ListNotifications(ctx)
		if err != nil {
			t.Fatalf("ListNotifications: %v", err)
		}
		if len(notifications) != 2 || notifications[0].ID != "pre-t2" || notifications[1].ID != "post-t1" {
			t.Fatalf("unexpected order: %+v", notifications)
		}
		if notifications[0].TrainingID == nil || *notifications[0].TrainingID != "t2" {
			t.Fatalf("training id not preserved")
		}
		if !notifications[1].Timestamp.Equal(base) {
			t.Fatalf("timestamp mismatch: %v", notifications[1].Timestamp)
		}
	})

	t.Run("duplicate id reports ErrDuplicate", func(t *testing.T) {
		err := storage.AppendNotifications(ctx, []persistence.Notification{older})
		if !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("mark read", func(t *testing.T) {
		if err := storage.MarkNotificationRead(ctx, "post-t1"); err != nil {
			t.Fatalf("MarkNotificationRead: %v", err)
		}
		notifications, err := storage.ListNotifications(ctx)
		if err != nil {
			t.Fatalf("ListNotifications: %v", err)
		}
		for _, notification := range notifications {
			if notification.ID == "post-t1" && !notification.Read {
				t.Fatalf("read flag not set")
			}
			if notification.ID == "pre-t2" && notification.Read {
				t.Fatalf("other notifications must stay unread")
			}
		}
	})

	t.Run("mark read unknown id", func(t *testing.T) {
		if err := storage.MarkNotificationRead(ctx, "ghost"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("clear empties the log", func(t *testing.T) {
		if err := storage.ClearNotifications(ctx); err != nil {
			t.Fatalf("ClearNotifications: %v", err)
		}
		notifications, err := storage.ListNotifications(ctx)
		if err != nil {
			t.Fatalf("ListNotifications: %v", err)
		}
		if len(notifications) != 0 {
			t.Fatalf("log should be empty, got %d", len(notifications))
		}
	})
}

func TestAuthSessions(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()
	now := time.Date(2024, time.June, 4, 8, 0, 0, 0, time.UTC)

	session := persistence.AuthSession{
		Token:     "jeton-1",
		Email:     "formateur@example.fr",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	if err := storage.CreateAuthSession(ctx, session); err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}

	t.Run("round trip", func(t *testing.T) {
		stored, err := storage.GetAuthSession(ctx, "jeton-1")
		if err != nil {
			t.Fatalf("GetAuthSession: %v", err)
		}
		if stored.Email != session.Email || !stored.ExpiresAt.Equal(session.ExpiresAt) {
			t.Fatalf("unexpected session: %+v", stored)
		}
	})

	t.Run("duplicate token", func(t *testing.T) {
		if err := storage.CreateAuthSession(ctx, session); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("expired cleanup keeps live tokens", func(t *testing.T) {
		stale := persistence.AuthSession{Token: "jeton-2", Email: session.Email, ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour)}
		if err := storage.CreateAuthSession(ctx, stale); err != nil {
			t.Fatalf("CreateAuthSession: %v", err)
		}

		if err := storage.DeleteExpiredAuthSessions(ctx, now); err != nil {
			t.Fatalf("DeleteExpiredAuthSessions: %v", err)
		}
		if _, err := storage.GetAuthSession(ctx, "jeton-2"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("stale token should be gone, got %v", err)
		}
		if _, err := storage.GetAuthSession(ctx, "jeton-1"); err != nil {
			t.Fatalf("live token should remain: %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := storage.DeleteAuthSession(ctx, "jeton-1"); err != nil {
			t.Fatalf("DeleteAuthSession: %v", err)
		}
		if err := storage.DeleteAuthSession(ctx, "jeton-1"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
