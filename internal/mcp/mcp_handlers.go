package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/repopulse/repopulse/core"
	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	eng     *core.Engine
}

// insightsPayload widens InsightsOutput with ranked contributors for
// tool output. The outer field shadows the embedded contributor list.
type insightsPayload struct {
	*schema.InsightsOutput
	Contributors []schema.EnrichedContributorStat `json:"contributors"`
}

// requestConfig clones the base config and applies the repo and lookback
// overrides shared by the analysis tools. The time window is re-anchored
// at the current call because the server process is long-lived.
func (h *toolHandler) requestConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if r := request.GetString("repo", ""); r != "" {
		repo, err := schema.ParseRepoRef(r)
		if err != nil {
			return nil, err
		}
		cfg.Repos = []schema.RepoRef{repo}
	}
	if err := contract.RevalidateWindow(cfg, request.GetString("lookback", "")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (h *toolHandler) handleRepoConfidence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid confidence parameters: %v", err)), nil
	}

	breakdown, _, err := core.GetConfidenceResult(core.WithSuppressHeader(ctx), cfg, h.eng)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(breakdown, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleRepoInsights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid insights parameters: %v", err)), nil
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}

	insights, _, err := core.GetInsightsResult(core.WithSuppressHeader(ctx), cfg, h.eng)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	payload := insightsPayload{
		InsightsOutput: insights,
		Contributors:   schema.EnrichContributors(insights.Contributors),
	}
	jsonData, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleRepoSync(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := schema.ParseRepoRef(request.GetString("repo", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid sync parameters: %v", err)), nil
	}
	cfg := h.baseCfg.Clone()
	cfg.Repos = []schema.RepoRef{repo}

	report, _, err := core.GetSyncReport(core.WithSuppressHeader(ctx), cfg, h.eng)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleCacheStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, _, err := core.GetStatusReport(core.WithSuppressHeader(ctx), h.baseCfg, h.eng)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status unavailable: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
