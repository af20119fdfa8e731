package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services"
	"github.com/numaras/salesagent-sub000/internal/services/creative_agent"
)

// CreativeHandler serves sync_creatives and the creative format catalog
type CreativeHandler struct {
	syncService     *services.CreativeSyncService
	jobService      *services.SyncJobService
	registry        *creative_agent.Registry
	defaultAgentURL string
}

// NewCreativeHandler creates a new CreativeHandler instance
func NewCreativeHandler(syncService *services.CreativeSyncService, jobService *services.SyncJobService,
	registry *creative_agent.Registry, defaultAgentURL string) *CreativeHandler {
	return &CreativeHandler{
		syncService:     syncService,
		jobService:      jobService,
		registry:        registry,
		defaultAgentURL: defaultAgentURL,
	}
}

// SyncCreatives handles POST /api/v1/creatives/sync
// @Summary Sync creatives
// @Description Create or update the caller's creatives and optionally assign them to packages
// @Tags creatives
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SyncCreativesRequest true "Creatives to sync"
// @Success 200 {object} models.SyncCreativesResponse
// @Failure 400 {object} map[string]interface{} "success: false, error: error message"
// @Failure 422 {object} map[string]interface{} "strict assignment failure"
// @Router /api/v1/creatives/sync [post]
func (h *CreativeHandler) SyncCreatives(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req models.SyncCreativesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request data: " + err.Error(),
		})
		return
	}

	resp, err := h.syncService.SyncCreatives(c.Request.Context(), identity, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateSyncJob handles POST /api/v1/creatives/sync-jobs
// @Summary Queue a background creative sync
// @Tags creatives
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SyncCreativesRequest true "Creatives to sync"
// @Success 202 {object} models.SyncJob
// @Router /api/v1/creatives/sync-jobs [post]
func (h *CreativeHandler) CreateSyncJob(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req models.SyncCreativesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request data: " + err.Error(),
		})
		return
	}

	job, err := h.jobService.Enqueue(c.Request.Context(), identity, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// GetSyncJob handles GET /api/v1/creatives/sync-jobs/:sync_id
// @Summary Get a background creative sync
// @Tags creatives
// @Produce json
// @Security BearerAuth
// @Param sync_id path string true "Sync job ID"
// @Success 200 {object} models.SyncJob
// @Failure 404 {object} map[string]interface{} "success: false, error: error message"
// @Router /api/v1/creatives/sync-jobs/{sync_id} [get]
func (h *CreativeHandler) GetSyncJob(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	job, err := h.jobService.Get(c.Request.Context(), identity.TenantID, c.Param("sync_id"))
	if errors.Is(err, repository.ErrNotFound) || (err == nil && job.PrincipalID != identity.PrincipalID) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Sync job not found",
		})
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListCreativeFormats handles GET /api/v1/creative-formats
// @Summary List a creative agent's formats
// @Tags creatives
// @Produce json
// @Security BearerAuth
// @Param agent_url query string false "Creative agent URL, defaults to the configured agent"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{} "success: false, error: error message"
// @Router /api/v1/creative-formats [get]
func (h *CreativeHandler) ListCreativeFormats(c *gin.Context) {
	agentURL := c.DefaultQuery("agent_url", h.defaultAgentURL)

	formats, err := h.registry.ListFormats(c.Request.Context(), agentURL)
	if err != nil {
		status := http.StatusInternalServerError
		if creative_agent.IsRetryable(err) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"agent_url": creative_agent.NormalizeAgentURL(agentURL),
		"formats":   formats,
	})
}
