package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	sessions, err := h.ds.ListSessions(ctx, "", start, end, 20)
	if err != nil {
		return nil, err
	}

	totals, err := h.ds.Totals(ctx, start, end)
	if err != nil {
		h.log.Warn("recent_sessions: totals query failed", "error", err)
	}

	data, err := json.Marshal(map[string]any{
		"sessions": sessions,
		"totals":   totals,
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
