package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/movassist/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListSessions(ctx context.Context, exercise string, start, end time.Time, limit int) ([]storage.SessionRow, error)
	GetSession(ctx context.Context, id uuid.UUID) (*storage.SessionDetail, error)
	GetSessionReps(ctx context.Context, id uuid.UUID) ([]storage.RepRow, error)
	ViolationStats(ctx context.Context, exercise string, start, end time.Time) ([]storage.ViolationCount, error)
	Totals(ctx context.Context, start, end time.Time) ([]storage.ExerciseTotals, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
