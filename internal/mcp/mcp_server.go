// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/repopulse/repopulse/core"
	"github.com/repopulse/repopulse/internal/contract"
)

// NewMCPServer initializes and configures the Repopulse MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, eng *core.Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"Repopulse Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		eng:     eng,
	}

	// --- 1. Tool: repo_confidence ---
	s.AddTool(mcp.NewTool("repo_confidence",
		mcp.WithDescription("Score how likely stargazers and forkers of a repository are to become contributors."),
		mcp.WithString("repo", mcp.Description("Repository in owner/name form (defaults to the configured repository if not specified).")),
		mcp.WithString("lookback", mcp.Description("Analysis window (e.g., '30 days', '90d', '6 months').")),
	), h.handleRepoConfidence)

	// --- 2. Tool: repo_insights ---
	s.AddTool(mcp.NewTool("repo_insights",
		mcp.WithDescription("Rank the contributors of a repository and report health, lottery factor, and contribution spread."),
		mcp.WithString("repo", mcp.Description("Repository in owner/name form.")),
		mcp.WithString("lookback", mcp.Description("Analysis window (e.g., '30 days', '90d', '6 months').")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of contributors returned.")),
	), h.handleRepoInsights)

	// --- 3. Tool: repo_sync ---
	s.AddTool(mcp.NewTool("repo_sync",
		mcp.WithDescription("Fetch recent GitHub activity for a repository into the local event cache."),
		mcp.WithString("repo", mcp.Description("Repository in owner/name form."), mcp.Required()),
	), h.handleRepoSync)

	// --- 4. Tool: cache_status ---
	s.AddTool(mcp.NewTool("cache_status",
		mcp.WithDescription("Report event cache, sync run, and in-memory cache statistics."),
	), h.handleCacheStatus)

	return s
}

// StartMCPServer starts the Repopulse MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, eng *core.Engine) error {
	s := NewMCPServer(baseCfg, eng)
	return server.ServeStdio(s)
}
