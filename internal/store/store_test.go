package store

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("expected path %q, got %q", dbPath, s.Path())
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"sessions", "shots"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}

	var idx string
	err := s.DB().QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
		"idx_shots_session_id",
	).Scan(&idx)
	if err != nil {
		t.Errorf("shots index should exist after migrations: %v", err)
	}
}

func TestNewStore_ReopenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	sess, err := s.Sessions().Start(context.Background())
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()

	if _, err := s.Sessions().Get(context.Background(), sess.ID); err != nil {
		t.Errorf("session should survive reopen: %v", err)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}

	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestStore_ForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)

	var fkEnabled int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("failed to check foreign keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("foreign keys should be enabled")
	}

	err := s.Shots().RecordShot(context.Background(), &Shot{SessionID: "no-such-session"})
	if err == nil {
		t.Error("shot for unknown session should violate the foreign key")
	}
}

func TestSessionRepository(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Sessions()

	first, err := repo.Start(ctx)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if first.ID == "" {
		t.Fatal("session should get an ID")
	}
	second, err := repo.Start(ctx)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("session IDs should be unique")
	}

	t.Run("Get live session", func(t *testing.T) {
		got, err := repo.Get(ctx, first.ID)
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if got.EndedAt != nil {
			t.Error("live session should have no end time")
		}
	})

	t.Run("End", func(t *testing.T) {
		if err := repo.End(ctx, first.ID); err != nil {
			t.Fatalf("End() failed: %v", err)
		}
		got, err := repo.Get(ctx, first.ID)
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if got.EndedAt == nil {
			t.Fatal("ended session should have an end time")
		}
		if got.EndedAt.Before(got.StartedAt) {
			t.Error("session should not end before it starts")
		}

		if err := repo.End(ctx, first.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("ending twice should return ErrNotFound, got %v", err)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		sessions, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() failed: %v", err)
		}
		if len(sessions) != 2 {
			t.Errorf("expected 2 sessions, got %d", len(sessions))
		}
	})
}

func TestShotRepository(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.Sessions().Start(ctx)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	other, err := s.Sessions().Start(ctx)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	shots := []*Shot{
		{SessionID: sess.ID, Frame: 1, Hand: 0, Hit: true, TargetID: "a", X: 1, Y: 2, Z: -6, Distance: 4},
		{SessionID: sess.ID, Frame: 2, Hand: 1},
		{SessionID: sess.ID, Frame: 3, Hand: 0, Hit: true, TargetID: "b", Distance: 8},
		{SessionID: other.ID, Frame: 1, Hand: 0},
	}
	for _, shot := range shots {
		if err := s.Shots().RecordShot(ctx, shot); err != nil {
			t.Fatalf("RecordShot() failed: %v", err)
		}
		if shot.ID == 0 {
			t.Error("recorded shot should get an ID")
		}
	}

	t.Run("ListBySession", func(t *testing.T) {
		got, err := s.Shots().ListBySession(ctx, sess.ID, 0)
		if err != nil {
			t.Fatalf("ListBySession() failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 shots, got %d", len(got))
		}
		if got[0].Frame != 3 {
			t.Errorf("expected newest shot first, got frame %d", got[0].Frame)
		}
		last := got[2]
		if !last.Hit || last.TargetID != "a" || last.Z != -6 || last.Distance != 4 {
			t.Errorf("unexpected shot round trip: %+v", last)
		}
	})

	t.Run("ListBySession limit", func(t *testing.T) {
		got, err := s.Shots().ListBySession(ctx, sess.ID, 1)
		if err != nil {
			t.Fatalf("ListBySession() failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 shot, got %d", len(got))
		}
	})

	t.Run("Stats", func(t *testing.T) {
		st, err := s.Shots().Stats(ctx, sess.ID)
		if err != nil {
			t.Fatalf("Stats() failed: %v", err)
		}
		if st.Shots != 3 || st.Hits != 2 || st.Misses != 1 {
			t.Errorf("unexpected counts %+v", st)
		}
		if math.Abs(st.Accuracy-2.0/3.0) > 1e-9 {
			t.Errorf("expected accuracy 2/3, got %v", st.Accuracy)
		}
		if st.AvgDistance != 6 {
			t.Errorf("expected average hit distance 6, got %v", st.AvgDistance)
		}
	})

	t.Run("Stats empty session", func(t *testing.T) {
		empty, err := s.Sessions().Start(ctx)
		if err != nil {
			t.Fatalf("Start() failed: %v", err)
		}
		st, err := s.Shots().Stats(ctx, empty.ID)
		if err != nil {
			t.Fatalf("Stats() failed: %v", err)
		}
		if st.Shots != 0 || st.Accuracy != 0 {
			t.Errorf("expected empty stats, got %+v", st)
		}
	})
}
