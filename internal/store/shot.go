package store

import (
	"context"
	"database/sql"
	"time"
)

// Shot is one fired shoot gesture. Target, point and distance are zero
// for misses.
type Shot struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Frame     uint64    `json:"frame"`
	Hand      int       `json:"hand"`
	Hit       bool      `json:"hit"`
	TargetID  string    `json:"target_id,omitempty"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
	Distance  float64   `json:"distance"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats summarizes the shots of one session.
type Stats struct {
	SessionID   string  `json:"session_id"`
	Shots       int     `json:"shots"`
	Hits        int     `json:"hits"`
	Misses      int     `json:"misses"`
	Accuracy    float64 `json:"accuracy"`
	AvgDistance float64 `json:"avg_distance"`
}

// ShotRepository provides access to the shot log.
type ShotRepository struct {
	db *sql.DB
}

// Shots returns the shot repository for this store.
func (s *Store) Shots() *ShotRepository {
	return &ShotRepository{db: s.db}
}

// RecordShot appends a shot to the log.
func (r *ShotRepository) RecordShot(ctx context.Context, shot *Shot) error {
	if shot.CreatedAt.IsZero() {
		shot.CreatedAt = time.Now().UTC()
	}

	hit := 0
	if shot.Hit {
		hit = 1
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO shots (session_id, frame, hand, hit, target_id, x, y, z, distance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		shot.SessionID, int64(shot.Frame), shot.Hand, hit, shot.TargetID,
		shot.X, shot.Y, shot.Z, shot.Distance, shot.CreatedAt,
	)
	if err != nil {
		return err
	}

	shot.ID, err = result.LastInsertId()
	return err
}

// ListBySession returns the most recent shots of a session, newest first.
// A limit of zero or less returns every shot.
func (r *ShotRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*Shot, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, frame, hand, hit, target_id, x, y, z, distance, created_at
		 FROM shots WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shots []*Shot
	for rows.Next() {
		s := &Shot{}
		var frame int64
		var hit int
		err := rows.Scan(&s.ID, &s.SessionID, &frame, &s.Hand, &hit, &s.TargetID,
			&s.X, &s.Y, &s.Z, &s.Distance, &s.CreatedAt)
		if err != nil {
			return nil, err
		}
		s.Frame = uint64(frame)
		s.Hit = hit != 0
		shots = append(shots, s)
	}

	return shots, rows.Err()
}

// Stats computes the hit counts and accuracy of a session.
func (r *ShotRepository) Stats(ctx context.Context, sessionID string) (*Stats, error) {
	st := &Stats{SessionID: sessionID}

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(hit), 0), COALESCE(AVG(CASE WHEN hit = 1 THEN distance END), 0)
		 FROM shots WHERE session_id = ?`,
		sessionID,
	).Scan(&st.Shots, &st.Hits, &st.AvgDistance)
	if err != nil {
		return nil, err
	}

	st.Misses = st.Shots - st.Hits
	if st.Shots > 0 {
		st.Accuracy = float64(st.Hits) / float64(st.Shots)
	}
	return st, nil
}
