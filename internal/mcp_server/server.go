package mcp_server

import (
	"context"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/numaras/salesagent-sub000/internal/middleware"
	"github.com/numaras/salesagent-sub000/internal/services"
	"github.com/numaras/salesagent-sub000/internal/services/creative_agent"
)

// Version is reported to MCP clients during initialization
var Version = "dev"

// Tools holds the core services exposed as MCP tools
type Tools struct {
	syncService     *services.CreativeSyncService
	updateService   *services.MediaBuyUpdateService
	registry        *creative_agent.Registry
	defaultAgentURL string
}

func NewTools(syncService *services.CreativeSyncService, updateService *services.MediaBuyUpdateService,
	registry *creative_agent.Registry, defaultAgentURL string) *Tools {
	return &Tools{
		syncService:     syncService,
		updateService:   updateService,
		registry:        registry,
		defaultAgentURL: defaultAgentURL,
	}
}

// NewServer registers every sales agent tool on a new MCP server
func NewServer(tools *Tools) *server.MCPServer {
	s := server.NewMCPServer(
		"adcp-sales-agent",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(syncCreativesTool(), tools.HandleSyncCreatives)
	s.AddTool(updateMediaBuyTool(), tools.HandleUpdateMediaBuy)
	s.AddTool(listCreativeFormatsTool(), tools.HandleListCreativeFormats)
	return s
}

// NewHTTPHandler serves s over streamable HTTP. Requests must already carry
// an identity attached by middleware.PrincipalAuthMiddleware.
func NewHTTPHandler(s *server.MCPServer, endpointPath string) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithEndpointPath(endpointPath),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if identity, ok := middleware.IdentityFromContext(r.Context()); ok {
				return middleware.WithIdentity(ctx, identity)
			}
			return ctx
		}),
	)
}

func syncCreativesTool() mcp.Tool {
	return mcp.NewTool("sync_creatives",
		mcp.WithDescription("Create or update creatives in the caller's library and optionally assign them to media buy packages."),
		mcp.WithArray("creatives",
			mcp.Required(),
			mcp.Description("Creatives to sync. Each needs creative_id, name and format_id."),
			mcp.Items(map[string]interface{}{"type": "object"}),
		),
		mcp.WithObject("assignments",
			mcp.Description("Map of creative_id to the package_ids it should be assigned to."),
		),
		mcp.WithArray("creative_ids",
			mcp.Description("Only sync the creatives with these IDs."),
			mcp.Items(map[string]interface{}{"type": "string"}),
		),
		mcp.WithBoolean("delete_missing",
			mcp.Description("Accepted for compatibility; creatives are never deleted."),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Validate and report without persisting anything."),
		),
		mcp.WithString("validation_mode",
			mcp.Description("strict aborts on the first assignment error; lenient reports it per creative."),
			mcp.Enum("strict", "lenient"),
		),
		mcp.WithObject("push_notification_config",
			mcp.Description("Webhook receiving approval outcomes."),
		),
		mcp.WithObject("context",
			mcp.Description("Opaque buyer context echoed in the response."),
		),
	)
}

func updateMediaBuyTool() mcp.Tool {
	return mcp.NewTool("update_media_buy",
		mcp.WithDescription("Update campaign dates, budget, pause state or package settings of a media buy."),
		mcp.WithString("media_buy_id", mcp.Description("Publisher media buy ID. Either this or buyer_ref is required.")),
		mcp.WithString("buyer_ref", mcp.Description("Buyer reference of the media buy.")),
		mcp.WithBoolean("paused", mcp.Description("Pause or resume the whole media buy.")),
		mcp.WithString("start_time", mcp.Description("New flight start, RFC 3339.")),
		mcp.WithString("end_time", mcp.Description("New flight end, RFC 3339.")),
		mcp.WithObject("budget", mcp.Description("New campaign budget: {total, currency, daily_cap, pacing}.")),
		mcp.WithArray("packages",
			mcp.Description("Per-package updates, each keyed by package_id."),
			mcp.Items(map[string]interface{}{"type": "object"}),
		),
		mcp.WithObject("context", mcp.Description("Opaque buyer context echoed in the response.")),
	)
}

func listCreativeFormatsTool() mcp.Tool {
	return mcp.NewTool("list_creative_formats",
		mcp.WithDescription("List the creative formats offered by a creative agent."),
		mcp.WithString("agent_url", mcp.Description("Creative agent URL. Defaults to the sales agent's default creative agent.")),
	)
}
