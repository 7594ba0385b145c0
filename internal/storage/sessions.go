package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meltforce/movassist/internal/session"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// SessionRow is one stored session.
type SessionRow struct {
	ID              uuid.UUID `json:"id"`
	Exercise        string    `json:"exercise"`
	StartedAt       time.Time `json:"started_at"`
	FPS             float64   `json:"fps,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	FramesProcessed int       `json:"frames_processed"`
	FramesSkipped   int       `json:"frames_skipped"`
	TotalReps       int       `json:"total_reps"`
	GoodReps        int       `json:"good_reps"`
	BadReps         int       `json:"bad_reps"`
	CreatedAt       time.Time `json:"created_at"`
}

// RepRow is one stored repetition.
type RepRow struct {
	SessionID   uuid.UUID `json:"session_id"`
	RepNumber   int       `json:"rep_number"`
	StartFrame  int       `json:"start_frame"`
	EndFrame    int       `json:"end_frame"`
	Verdict     string    `json:"verdict"`
	Violations  []string  `json:"violations"`
	BottomAngle float64   `json:"bottom_angle"`
}

// SessionDetail is a session with its repetitions.
type SessionDetail struct {
	SessionRow
	Reps []RepRow `json:"reps"`
}

// InsertSession stores a finished session record and its repetitions in
// one transaction.
func (db *DB) InsertSession(ctx context.Context, rec *session.Record) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	s := rec.Summary
	_, err = tx.Exec(ctx,
		`INSERT INTO sessions (id, exercise, started_at, fps, duration_seconds,
		 frames_processed, frames_skipped, total_reps, good_reps, bad_reps)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.Exercise, rec.StartedAt, rec.FPS, rec.DurationSeconds,
		s.FramesProcessed, s.FramesSkipped, s.TotalReps, s.GoodReps, s.BadReps)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	if len(s.Reps) > 0 {
		query := `INSERT INTO reps (session_id, rep_number, start_frame, end_frame, verdict, violations, bottom_angle) VALUES `
		args := make([]any, 0, len(s.Reps)*7)
		valueStrings := make([]string, 0, len(s.Reps))

		for i, r := range s.Reps {
			base := i * 7
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7,
			))
			violations := r.Violations
			if violations == nil {
				violations = []string{}
			}
			args = append(args, rec.ID, r.Number, r.StartFrame, r.EndFrame, string(r.Verdict), violations, r.BottomAngle)
		}

		query += strings.Join(valueStrings, ",")
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting reps: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListSessions returns sessions in the time range, newest first,
// optionally filtered by exercise.
func (db *DB) ListSessions(ctx context.Context, exercise string, start, end time.Time, limit int) ([]SessionRow, error) {
	query := `SELECT id, exercise, started_at, fps, duration_seconds,
	          frames_processed, frames_skipped, total_reps, good_reps, bad_reps, created_at
	          FROM sessions WHERE started_at >= $1 AND started_at <= $2`
	args := []any{start, end}
	if exercise != "" {
		query += ` AND exercise = $3`
		args = append(args, exercise)
	}
	query += fmt.Sprintf(` ORDER BY started_at DESC LIMIT %d`, limit)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var s SessionRow
		if err := rows.Scan(&s.ID, &s.Exercise, &s.StartedAt, &s.FPS, &s.DurationSeconds,
			&s.FramesProcessed, &s.FramesSkipped, &s.TotalReps, &s.GoodReps, &s.BadReps, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSession returns one session with its repetitions.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*SessionDetail, error) {
	var s SessionRow
	err := db.Pool.QueryRow(ctx,
		`SELECT id, exercise, started_at, fps, duration_seconds,
		 frames_processed, frames_skipped, total_reps, good_reps, bad_reps, created_at
		 FROM sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.Exercise, &s.StartedAt, &s.FPS, &s.DurationSeconds,
			&s.FramesProcessed, &s.FramesSkipped, &s.TotalReps, &s.GoodReps, &s.BadReps, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	reps, err := db.GetSessionReps(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{SessionRow: s, Reps: reps}, nil
}

// GetSessionReps returns a session's repetitions in order.
func (db *DB) GetSessionReps(ctx context.Context, id uuid.UUID) ([]RepRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT session_id, rep_number, start_frame, end_frame, verdict, violations, bottom_angle
		 FROM reps WHERE session_id = $1 ORDER BY rep_number`, id)
	if err != nil {
		return nil, fmt.Errorf("querying reps: %w", err)
	}
	defer rows.Close()

	var out []RepRow
	for rows.Next() {
		var r RepRow
		if err := rows.Scan(&r.SessionID, &r.RepNumber, &r.StartFrame, &r.EndFrame,
			&r.Verdict, &r.Violations, &r.BottomAngle); err != nil {
			return nil, fmt.Errorf("scanning rep: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
