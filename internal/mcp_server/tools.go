package mcp_server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/middleware"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services"
)

const protocolMCP = "mcp"

// callerIdentity returns a copy of the authenticated identity with the
// protocol pinned to MCP
func callerIdentity(ctx context.Context) (*models.Identity, error) {
	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		return nil, services.ErrPrincipalRequired
	}
	id := *identity
	id.Protocol = protocolMCP
	return &id, nil
}

// bindArguments decodes the tool arguments into target through JSON so the
// request models' own unmarshalers (format_id strings, numeric budgets) apply
func bindArguments(request mcp.CallToolRequest, target interface{}) error {
	raw, err := json.Marshal(request.GetArguments())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func toolError(tool string, err error) *mcp.CallToolResult {
	var assignmentErr *services.AssignmentError
	if !errors.Is(err, services.ErrPrincipalRequired) && !errors.Is(err, services.ErrTenantNotFound) && !errors.As(err, &assignmentErr) {
		logrus.WithError(err).WithField("tool", tool).Error("MCP tool failed")
	}
	return mcp.NewToolResultError(err.Error())
}

// HandleSyncCreatives runs sync_creatives
func (t *Tools) HandleSyncCreatives(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return toolError("sync_creatives", err), nil
	}

	var req models.SyncCreativesRequest
	if err := bindArguments(request, &req); err != nil {
		return mcp.NewToolResultError("Invalid sync_creatives arguments: " + err.Error()), nil
	}
	if len(req.Creatives) == 0 {
		return mcp.NewToolResultError("creatives is required"), nil
	}

	resp, err := t.syncService.SyncCreatives(ctx, identity, &req)
	if err != nil {
		return toolError("sync_creatives", err), nil
	}
	return jsonResult(resp)
}

// HandleUpdateMediaBuy runs update_media_buy. Validation failures are part
// of the response payload, not tool errors.
func (t *Tools) HandleUpdateMediaBuy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return toolError("update_media_buy", err), nil
	}

	var req models.UpdateMediaBuyRequest
	if err := bindArguments(request, &req); err != nil {
		return mcp.NewToolResultError("Invalid update_media_buy arguments: " + err.Error()), nil
	}

	resp, err := t.updateService.UpdateMediaBuy(ctx, identity, &req)
	if err != nil {
		return toolError("update_media_buy", err), nil
	}
	return jsonResult(resp)
}

// HandleListCreativeFormats returns an agent's (cached) format catalog
func (t *Tools) HandleListCreativeFormats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := callerIdentity(ctx); err != nil {
		return toolError("list_creative_formats", err), nil
	}

	agentURL := request.GetString("agent_url", t.defaultAgentURL)
	if agentURL == "" {
		agentURL = t.defaultAgentURL
	}
	formats, err := t.registry.ListFormats(ctx, agentURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]interface{}{
		"agent_url": agentURL,
		"formats":   formats,
	})
}
