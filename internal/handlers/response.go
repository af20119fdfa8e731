package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/middleware"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services"
)

func requireIdentity(c *gin.Context) (*models.Identity, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Authentication required",
		})
		return nil, false
	}
	return identity, true
}

// respondServiceError maps service sentinel errors to HTTP statuses
func respondServiceError(c *gin.Context, err error) {
	var assignmentErr *services.AssignmentError
	switch {
	case errors.Is(err, services.ErrPrincipalRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrTenantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case errors.As(err, &assignmentErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":     false,
			"error":       assignmentErr.Error(),
			"creative_id": assignmentErr.CreativeID,
			"package_id":  assignmentErr.PackageID,
		})
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
	}
}
