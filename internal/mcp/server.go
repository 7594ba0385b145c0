// Package mcp exposes stored analysis sessions to language-model clients
// over the Model Context Protocol.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("MovAssist", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("MovAssist exercise form analysis server. Query analyzed workout sessions, repetition verdicts, form violation statistics, and session comparisons."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolGetSessionSummary, Handler: h.getSessionSummary},
		server.ServerTool{Tool: toolGetRepHistory, Handler: h.getRepHistory},
		server.ServerTool{Tool: toolGetViolationStats, Handler: h.getViolationStats},
		server.ServerTool{Tool: toolCompareSessions, Handler: h.compareSessions},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resRecentSessions = mcp.NewResource(
	"movassist://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Analyzed exercise sessions from the last 14 days with per-exercise totals"),
	mcp.WithMIMEType("application/json"),
)
