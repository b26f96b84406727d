package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatbot-gateway/internal/database"
	"chatbot-gateway/internal/models"
)

type SettingsHandler struct {
	DefaultInstance string
	Cache           Invalidator
}

func NewSettingsHandler(defaultInstance string, cache Invalidator) *SettingsHandler {
	return &SettingsHandler{DefaultInstance: defaultInstance, Cache: cache}
}

func (h *SettingsHandler) GetInstances(c *gin.Context) {
	var instances []models.Instance
	if err := database.GormDB.Order("name ASC").Find(&instances).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if instances == nil {
		instances = []models.Instance{}
	}
	c.JSON(http.StatusOK, instances)
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}
	c.JSON(http.StatusOK, instance)
}

type settingsRequest struct {
	BotEnabled       *bool   `json:"bot_enabled"`
	FallbackMessage  *string `json:"fallback_message"`
	TypingSimulation *bool   `json:"typing_simulation"`
	DelayMinMs       *int    `json:"delay_min_ms"`
	DelayMaxMs       *int    `json:"delay_max_ms"`
	IgnoreGroups     *bool   `json:"ignore_groups"`
	UseListMessages  *bool   `json:"use_list_messages"`
	ListButtonLabel  *string `json:"list_button_label"`
}

// UpdateSettings patches the behaviour flags of one instance. Pointer fields
// distinguish "leave alone" from "set to zero value".
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updateData := map[string]interface{}{}
	if req.BotEnabled != nil {
		updateData["bot_enabled"] = *req.BotEnabled
	}
	if req.FallbackMessage != nil {
		updateData["fallback_message"] = *req.FallbackMessage
	}
	if req.TypingSimulation != nil {
		updateData["typing_simulation"] = *req.TypingSimulation
	}
	if req.DelayMinMs != nil {
		updateData["delay_min_ms"] = *req.DelayMinMs
	}
	if req.DelayMaxMs != nil {
		updateData["delay_max_ms"] = *req.DelayMaxMs
	}
	if req.IgnoreGroups != nil {
		updateData["ignore_groups"] = *req.IgnoreGroups
	}
	if req.UseListMessages != nil {
		updateData["use_list_messages"] = *req.UseListMessages
	}
	if req.ListButtonLabel != nil {
		updateData["list_button_label"] = *req.ListButtonLabel
	}
	if len(updateData) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no settings provided"})
		return
	}

	if err := database.GormDB.Model(instance).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Cache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "Settings updated successfully"})
}

func (h *SettingsHandler) CreateInstance(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instance := models.Instance{
		Name:             req.Name,
		BotEnabled:       true,
		TypingSimulation: true,
		DelayMinMs:       800,
		DelayMaxMs:       2500,
		IgnoreGroups:     true,
		UseListMessages:  true,
	}
	if err := database.GormDB.Create(&instance).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": instance.ID, "message": "Instance created successfully"})
}
