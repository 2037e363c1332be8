package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tenantguard/tenantguard/internal/build"
)

type SystemHandlers struct{}

func NewSystemHandlers() *SystemHandlers {
	return &SystemHandlers{}
}

// Health handles GET /health.
func (h *SystemHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": build.Version,
	})
}

// BuildInfo handles GET /build-info.
func (h *SystemHandlers) BuildInfo(c *gin.Context) {
	c.JSON(http.StatusOK, build.GetBuildInfo())
}
