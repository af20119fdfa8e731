package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/numaras/salesagent-sub000/internal/services/excel"
)

// ExcelHandler serves media buy XLSX reports
type ExcelHandler struct {
	excelService *excel.Service
	basePath     string
}

// NewExcelHandler creates a new ExcelHandler instance
func NewExcelHandler(excelService *excel.Service, basePath string) *ExcelHandler {
	return &ExcelHandler{
		excelService: excelService,
		basePath:     basePath,
	}
}

// ExportMediaBuy handles GET /api/v1/media-buys/:media_buy_id/export
// @Summary Export a media buy to Excel
// @Description Export the packages of a media buy and their assigned creatives
// @Tags media-buys
// @Produce json
// @Security BearerAuth
// @Param media_buy_id path string true "Media buy ID"
// @Success 302 {string} string "Redirect to download URL"
// @Failure 404 {object} map[string]interface{} "success: false, error: error message"
// @Failure 500 {object} map[string]interface{} "success: false, error: error message"
// @Router /api/v1/media-buys/{media_buy_id}/export [get]
func (h *ExcelHandler) ExportMediaBuy(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	result, err := h.excelService.ExportMediaBuy(c.Request.Context(), identity, c.Param("media_buy_id"))
	if errors.Is(err, excel.ErrMediaBuyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	downloadURL := fmt.Sprintf("%s/api/v1/exports/%s", h.basePath, result.Filename)
	c.Redirect(http.StatusFound, downloadURL)
}

// DownloadExport handles GET /api/v1/exports/:filename
// @Summary Download an exported report
// @Tags media-buys
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param filename path string true "Excel filename"
// @Success 200 {file} binary "Excel file"
// @Failure 404 {object} map[string]interface{} "success: false, error: error message"
// @Router /api/v1/exports/{filename} [get]
func (h *ExcelHandler) DownloadExport(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	if !strings.HasSuffix(filename, ".xlsx") {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "File not found",
		})
		return
	}
	filePath := filepath.Join(h.excelService.ExportsDir(), filename)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "File not found",
		})
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Expires", "0")
	c.Header("Cache-Control", "must-revalidate")
	c.File(filePath)
}
