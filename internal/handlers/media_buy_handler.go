package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services"
)

type MediaBuyHandler struct {
	updateService *services.MediaBuyUpdateService
}

func NewMediaBuyHandler(updateService *services.MediaBuyUpdateService) *MediaBuyHandler {
	return &MediaBuyHandler{updateService: updateService}
}

// UpdateMediaBuy handles PATCH /api/v1/media-buys/:media_buy_id and
// PATCH /api/v1/media-buys (buy identified by buyer_ref in the body)
// @Summary Update a media buy
// @Description Change campaign dates, budget, pause state or package settings
// @Tags media-buys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param media_buy_id path string false "Media buy ID"
// @Param request body models.UpdateMediaBuyRequest true "Update"
// @Success 200 {object} models.UpdateMediaBuyResponse
// @Success 202 {object} models.UpdateMediaBuyResponse "held for manual approval"
// @Failure 400 {object} models.UpdateMediaBuyResponse
// @Failure 404 {object} models.UpdateMediaBuyResponse
// @Router /api/v1/media-buys/{media_buy_id} [patch]
func (h *MediaBuyHandler) UpdateMediaBuy(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req models.UpdateMediaBuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request data: " + err.Error(),
		})
		return
	}
	if id := c.Param("media_buy_id"); id != "" {
		req.MediaBuyID = id
	}

	resp, err := h.updateService.UpdateMediaBuy(c.Request.Context(), identity, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(updateStatus(resp), resp)
}

func updateStatus(resp *models.UpdateMediaBuyResponse) int {
	if resp.Status == models.UpdateStatusSubmitted {
		return http.StatusAccepted
	}
	if resp.Success() {
		return http.StatusOK
	}

	switch resp.Errors[0].Code {
	case models.ErrCodeMediaBuyNotFound, models.ErrCodePackageNotFound, models.ErrCodeCreativesNotFound:
		return http.StatusNotFound
	case models.ErrCodePrincipalNotFound:
		return http.StatusUnauthorized
	case models.ErrCodeAdapterError:
		return http.StatusBadGateway
	case models.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
