package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatbot-gateway/internal/bot"
	"chatbot-gateway/internal/database"
	"chatbot-gateway/internal/models"
)

type TriggerHandler struct {
	DefaultInstance string
	Cache           Invalidator
}

func NewTriggerHandler(defaultInstance string, cache Invalidator) *TriggerHandler {
	return &TriggerHandler{DefaultInstance: defaultInstance, Cache: cache}
}

func (h *TriggerHandler) GetTriggers(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	var triggers []models.GlobalTrigger
	if err := database.GormDB.Where("instance_id = ?", instance.ID).
		Order("priority DESC, sort_order ASC").
		Find(&triggers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if triggers == nil {
		triggers = []models.GlobalTrigger{}
	}
	c.JSON(http.StatusOK, triggers)
}

type triggerRequest struct {
	TriggerName    string `json:"trigger_name" binding:"required"`
	Keywords       string `json:"keywords"`
	Priority       int    `json:"priority"`
	ActionType     string `json:"action_type" binding:"required"`
	TargetMenuKey  string `json:"target_menu_key"`
	ResponseText   string `json:"response_text"`
	ConditionType  string `json:"condition_type"`
	ConditionValue string `json:"condition_value"`
	SortOrder      int    `json:"sort_order"`
}

func (h *TriggerHandler) CreateTrigger(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if bot.ParseAction(req.ActionType) == bot.ActionUnknown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action_type: " + req.ActionType})
		return
	}
	if bot.ParseConditionKind(req.ConditionType) == bot.CondUnknown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown condition_type: " + req.ConditionType})
		return
	}

	trigger := models.GlobalTrigger{
		InstanceID:     instance.ID,
		TriggerName:    req.TriggerName,
		Keywords:       req.Keywords,
		Priority:       req.Priority,
		ActionType:     req.ActionType,
		TargetMenuKey:  req.TargetMenuKey,
		ResponseText:   req.ResponseText,
		ConditionType:  req.ConditionType,
		ConditionValue: req.ConditionValue,
		Enabled:        true,
		SortOrder:      req.SortOrder,
	}
	if err := database.GormDB.Create(&trigger).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Cache.Invalidate()
	c.JSON(http.StatusCreated, gin.H{"id": trigger.ID, "message": "Trigger created successfully"})
}

func (h *TriggerHandler) UpdateTrigger(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := database.GormDB.Model(&models.GlobalTrigger{}).
		Where("instance_id = ? AND id = ?", instance.ID, c.Param("id")).
		Updates(map[string]interface{}{
			"trigger_name":    req.TriggerName,
			"keywords":        req.Keywords,
			"priority":        req.Priority,
			"action_type":     req.ActionType,
			"target_menu_key": req.TargetMenuKey,
			"response_text":   req.ResponseText,
			"condition_type":  req.ConditionType,
			"condition_value": req.ConditionValue,
			"sort_order":      req.SortOrder,
		}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Cache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "Trigger updated successfully"})
}

func (h *TriggerHandler) ToggleTrigger(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := database.GormDB.Model(&models.GlobalTrigger{}).
		Where("instance_id = ? AND id = ?", instance.ID, c.Param("id")).
		Update("enabled", req.Enabled).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Cache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "Trigger toggled successfully"})
}

func (h *TriggerHandler) DeleteTrigger(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	if err := database.GormDB.Where("instance_id = ? AND id = ?", instance.ID, c.Param("id")).
		Delete(&models.GlobalTrigger{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Cache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "Trigger deleted successfully"})
}
