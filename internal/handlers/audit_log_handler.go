package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/numaras/salesagent-sub000/internal/services"
	"github.com/numaras/salesagent-sub000/internal/utils"
)

type AuditLogHandler struct {
	auditService *services.AuditService
}

func NewAuditLogHandler(auditService *services.AuditService) *AuditLogHandler {
	return &AuditLogHandler{auditService: auditService}
}

// ListAuditLogs godoc
// @Summary List the caller tenant's audit log
// @Tags audit-logs
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/audit-logs [get]
func (h *AuditLogHandler) ListAuditLogs(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("limit"))
	logs, pagination, err := h.auditService.ListTenantLogs(c.Request.Context(), identity.TenantID, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":       logs,
		"pagination": pagination,
	})
}
