package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/numaras/salesagent-sub000/docs"
	"github.com/numaras/salesagent-sub000/internal/handlers"
	"github.com/numaras/salesagent-sub000/internal/mcp_server"
	"github.com/numaras/salesagent-sub000/internal/middleware"
	"github.com/numaras/salesagent-sub000/internal/services"
	"github.com/numaras/salesagent-sub000/internal/services/auth"
	"github.com/numaras/salesagent-sub000/internal/services/creative_agent"
	"github.com/numaras/salesagent-sub000/internal/services/excel"
)

// Dependencies are the services the HTTP surface is built on
type Dependencies struct {
	SyncService     *services.CreativeSyncService
	SyncJobService  *services.SyncJobService
	UpdateService   *services.MediaBuyUpdateService
	AuditService    *services.AuditService
	ExcelService    *excel.Service
	TokenService    *auth.TokenService
	Registry        *creative_agent.Registry
	DefaultAgentURL string
}

// SetupRouter configures the Gin router. Every route except the health
// check lives under basePath and requires a principal bearer token.
func SetupRouter(deps *Dependencies, basePath string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	basePath = strings.TrimSuffix(basePath, "/")

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Dry-Run", "Mcp-Session-Id"},
		ExposeHeaders:    []string{"Content-Length", "Mcp-Session-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	principalAuth := middleware.NewPrincipalAuthMiddleware(deps.TokenService)

	creativeHandler := handlers.NewCreativeHandler(deps.SyncService, deps.SyncJobService, deps.Registry, deps.DefaultAgentURL)
	mediaBuyHandler := handlers.NewMediaBuyHandler(deps.UpdateService)
	excelHandler := handlers.NewExcelHandler(deps.ExcelService, basePath)
	auditLogHandler := handlers.NewAuditLogHandler(deps.AuditService)

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
	r.GET("/health", health)

	root := r.Group(basePath)
	if basePath != "" {
		root.GET("/health", health)
		docs.SwaggerInfo.BasePath = basePath
	}

	// Swagger UI
	root.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Infof("Swagger UI endpoint registered at %s/swagger/index.html", basePath)

	// MCP streamable HTTP transport
	mcpPath := basePath + "/mcp"
	mcpHandler := mcp_server.NewHTTPHandler(
		mcp_server.NewServer(mcp_server.NewTools(deps.SyncService, deps.UpdateService, deps.Registry, deps.DefaultAgentURL)),
		mcpPath,
	)
	root.Any("/mcp", principalAuth.RequirePrincipal(), gin.WrapH(mcpHandler))
	logrus.Infof("MCP endpoint registered at %s", mcpPath)

	api := root.Group("/api/v1")
	api.Use(principalAuth.RequirePrincipal())
	{
		creatives := api.Group("/creatives")
		{
			creatives.POST("/sync", creativeHandler.SyncCreatives)
			creatives.POST("/sync-jobs", creativeHandler.CreateSyncJob)
			creatives.GET("/sync-jobs/:sync_id", creativeHandler.GetSyncJob)
		}

		api.GET("/creative-formats", creativeHandler.ListCreativeFormats)

		mediaBuys := api.Group("/media-buys")
		{
			mediaBuys.PATCH("", mediaBuyHandler.UpdateMediaBuy)
			mediaBuys.PATCH("/:media_buy_id", mediaBuyHandler.UpdateMediaBuy)
			mediaBuys.GET("/:media_buy_id/export", excelHandler.ExportMediaBuy)
		}

		api.GET("/exports/:filename", excelHandler.DownloadExport)
		api.GET("/audit-logs", auditLogHandler.ListAuditLogs)
	}

	return r
}
