package storage

import (
	"context"
	"fmt"
	"time"
)

// ViolationCount is one entry of the cross-session violation histogram.
type ViolationCount struct {
	Violation string `json:"violation"`
	RepCount  int    `json:"rep_count"`
}

// ExerciseTotals aggregates rep outcomes for one exercise.
type ExerciseTotals struct {
	Exercise  string `json:"exercise"`
	Sessions  int    `json:"sessions"`
	TotalReps int    `json:"total_reps"`
	GoodReps  int    `json:"good_reps"`
	BadReps   int    `json:"bad_reps"`
}

// ViolationStats returns, per violation name, how many stored repetitions
// it tainted, optionally filtered by exercise.
func (db *DB) ViolationStats(ctx context.Context, exercise string, start, end time.Time) ([]ViolationCount, error) {
	query := `SELECT v.name, COUNT(*)
	          FROM reps r
	          JOIN sessions s ON s.id = r.session_id,
	          LATERAL unnest(r.violations) AS v(name)
	          WHERE s.started_at >= $1 AND s.started_at <= $2`
	args := []any{start, end}
	if exercise != "" {
		query += ` AND s.exercise = $3`
		args = append(args, exercise)
	}
	query += ` GROUP BY v.name ORDER BY COUNT(*) DESC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying violation stats: %w", err)
	}
	defer rows.Close()

	var out []ViolationCount
	for rows.Next() {
		var vc ViolationCount
		if err := rows.Scan(&vc.Violation, &vc.RepCount); err != nil {
			return nil, fmt.Errorf("scanning violation stat: %w", err)
		}
		out = append(out, vc)
	}
	return out, rows.Err()
}

// Totals returns per-exercise session and rep totals in the time range.
func (db *DB) Totals(ctx context.Context, start, end time.Time) ([]ExerciseTotals, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise, COUNT(*), COALESCE(SUM(total_reps),0),
		 COALESCE(SUM(good_reps),0), COALESCE(SUM(bad_reps),0)
		 FROM sessions WHERE started_at >= $1 AND started_at <= $2
		 GROUP BY exercise ORDER BY exercise`, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying totals: %w", err)
	}
	defer rows.Close()

	var out []ExerciseTotals
	for rows.Next() {
		var t ExerciseTotals
		if err := rows.Scan(&t.Exercise, &t.Sessions, &t.TotalReps, &t.GoodReps, &t.BadReps); err != nil {
			return nil, fmt.Errorf("scanning totals: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
