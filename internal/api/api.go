// Package api exposes the dashboard CRUD surface for menus, triggers,
// variables, instance settings, contacts and logs. Config mutations
// invalidate the engine's config cache.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatbot-gateway/internal/database"
	"chatbot-gateway/internal/models"
)

// Invalidator is what config-mutating handlers need from the cache.
type Invalidator interface {
	Invalidate()
}

// resolveInstance loads the instance named by the ?instance= query parameter.
// Writes the error response itself and returns nil when not found.
func resolveInstance(c *gin.Context, defaultName string) *models.Instance {
	name := c.DefaultQuery("instance", defaultName)
	var instance models.Instance
	if err := database.GormDB.Where("name = ?", name).First(&instance).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "instance not found: " + name})
		return nil
	}
	return &instance
}
