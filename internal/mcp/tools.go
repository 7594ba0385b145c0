package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/movassist/internal/storage"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List analyzed exercise sessions, newest first. Each session includes rep totals and good/bad verdict counts."),
	mcp.WithString("exercise", mcp.Description("Filter by exercise name (e.g. 'squat', 'pushup')")),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithNumber("limit", mcp.Description("Maximum sessions to return. Defaults to 20.")),
)

var toolGetSessionSummary = mcp.NewTool("get_session_summary",
	mcp.WithDescription("Get one session with all its repetitions: verdicts, form violations, and bottom-of-movement angles."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolGetRepHistory = mcp.NewTool("get_rep_history",
	mcp.WithDescription("Get the repetition-by-repetition history of a session: frame ranges, verdicts, and the violations that tainted each rep."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolGetViolationStats = mcp.NewTool("get_violation_stats",
	mcp.WithDescription("Histogram of form violations across stored repetitions: which rules fail most often. Useful for spotting recurring form problems."),
	mcp.WithString("exercise", mcp.Description("Filter by exercise name")),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolCompareSessions = mcp.NewTool("compare_sessions",
	mcp.WithDescription("Compare two sessions of the same exercise: rep counts, good-rep ratio, and per-violation frequency side by side."),
	mcp.WithString("session_a", mcp.Required(), mcp.Description("First session UUID")),
	mcp.WithString("session_b", mcp.Required(), mcp.Description("Second session UUID")),
)

// --- Tool handlers ---

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	limit := req.GetInt("limit", 20)
	if limit < 1 || limit > 500 {
		return mcp.NewToolResultError("limit must be between 1 and 500"), nil
	}

	rows, err := h.ds.ListSessions(ctx, req.GetString("exercise", ""), start, end, limit)
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(rows)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session_id: " + err.Error()), nil
	}

	detail, err := h.ds.GetSession(ctx, id)
	if err != nil {
		h.log.Error("mcp get_session_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(detail)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getRepHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session_id: " + err.Error()), nil
	}

	reps, err := h.ds.GetSessionReps(ctx, id)
	if err != nil {
		h.log.Error("mcp get_rep_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(reps)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getViolationStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	stats, err := h.ds.ViolationStats(ctx, req.GetString("exercise", ""), start, end)
	if err != nil {
		h.log.Error("mcp get_violation_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// sessionComparison is the compare_sessions payload: one side per session
// plus deltas computed from the stored verdicts.
type sessionComparison struct {
	SessionA       comparisonSide `json:"session_a"`
	SessionB       comparisonSide `json:"session_b"`
	GoodRatioDelta float64        `json:"good_ratio_delta"`
}

type comparisonSide struct {
	ID         uuid.UUID      `json:"id"`
	Exercise   string         `json:"exercise"`
	StartedAt  time.Time      `json:"started_at"`
	TotalReps  int            `json:"total_reps"`
	GoodReps   int            `json:"good_reps"`
	BadReps    int            `json:"bad_reps"`
	GoodRatio  float64        `json:"good_ratio"`
	Violations map[string]int `json:"violations"`
}

func (h *handlers) compareSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	aStr, err := req.RequireString("session_a")
	if err != nil {
		return mcp.NewToolResultError("session_a parameter is required"), nil
	}
	bStr, err := req.RequireString("session_b")
	if err != nil {
		return mcp.NewToolResultError("session_b parameter is required"), nil
	}

	aID, err := uuid.Parse(aStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session_a: " + err.Error()), nil
	}
	bID, err := uuid.Parse(bStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session_b: " + err.Error()), nil
	}

	a, err := h.ds.GetSession(ctx, aID)
	if err != nil {
		h.log.Error("mcp compare_sessions", "session", aID, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	b, err := h.ds.GetSession(ctx, bID)
	if err != nil {
		h.log.Error("mcp compare_sessions", "session", bID, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	cmp := sessionComparison{
		SessionA: comparisonSideOf(a),
		SessionB: comparisonSideOf(b),
	}
	cmp.GoodRatioDelta = cmp.SessionB.GoodRatio - cmp.SessionA.GoodRatio

	result, err := mcp.NewToolResultJSON(cmp)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func comparisonSideOf(d *storage.SessionDetail) comparisonSide {
	side := comparisonSide{
		ID:         d.ID,
		Exercise:   d.Exercise,
		StartedAt:  d.StartedAt,
		TotalReps:  d.TotalReps,
		GoodReps:   d.GoodReps,
		BadReps:    d.BadReps,
		Violations: map[string]int{},
	}
	if d.TotalReps > 0 {
		side.GoodRatio = float64(d.GoodReps) / float64(d.TotalReps)
	}
	for _, r := range d.Reps {
		for _, v := range r.Violations {
			side.Violations[v]++
		}
	}
	return side
}
