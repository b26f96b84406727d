package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatbot-gateway/internal/bot"
	"chatbot-gateway/internal/database"
	"chatbot-gateway/internal/models"
)

type MenuHandler struct {
	DefaultInstance string
	Cache           Invalidator
}

func NewMenuHandler(defaultInstance string, cache Invalidator) *MenuHandler {
	return &MenuHandler{DefaultInstance: defaultInstance, Cache: cache}
}

// GetMenus returns the full menu tree of an instance, options included.
func (h *MenuHandler) GetMenus(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	var menus []models.Menu
	if err := database.GormDB.Preload("Options").
		Where("instance_id = ?", instance.ID).
		Order("menu_key ASC").
		Find(&menus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if menus == nil {
		menus = []models.Menu{}
	}
	c.JSON(http.StatusOK, menus)
}

func (h *MenuHandler) GetMenu(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	var menu models.Menu
	if err := database.GormDB.Preload("Options").
		Where("instance_id = ? AND menu_key = ?", instance.ID, c.Param("key")).
		First(&menu).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "menu not found"})
		return
	}
	c.JSON(http.StatusOK, menu)
}

type menuRequest struct {
	MenuKey       string `json:"menu_key" binding:"required"`
	Title         string `json:"title"`
	MessageText   string `json:"message_text"`
	ImageURL      string `json:"image_url"`
	ParentMenuKey string `json:"parent_menu_key"`
}

func (h *MenuHandler) CreateMenu(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	var req menuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	menu := models.Menu{
		InstanceID:    instance.ID,
		MenuKey:       strings.TrimSpace(req.MenuKey),
		Title:         req.Title,
		MessageText:   req.MessageText,
		ImageURL:      req.ImageURL,
		ParentMenuKey: req.ParentMenuKey,
	}
	if err := database.GormDB.Create(&menu).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Cache.Invalidate()
	c.JSON(http.StatusCreated, gin.H{"id": menu.ID, "message": "Menu created successfully"})
}

func (h *MenuHandler) UpdateMenu(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	var req menuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := database.GormDB.Model(&models.Menu{}).
		Where("instance_id = ? AND menu_key = ?", instance.ID, c.Param("key")).
		Updates(map[string]interface{}{
			"title":           req.Title,
			"message_text":    req.MessageText,
			"image_url":       req.ImageURL,
			"parent_menu_key": req.ParentMenuKey,
		}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Cache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "Menu updated successfully"})
}

// DeleteMenu removes a menu and, via the FK constraint, its options. The
// root menu cannot be deleted.
func (h *MenuHandler) DeleteMenu(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}
	key := c.Param("key")
	if key == bot.HomeMenuKey {
		c.JSON(http.StatusBadRequest, gin.H{"error": "the root menu cannot be deleted"})
		return
	}

	if err := database.GormDB.Where("instance_id = ? AND menu_key = ?", instance.ID, key).
		Delete(&models.Menu{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Cache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "Menu deleted successfully"})
}

type optionRequest struct {
	OptionNumber  int    `json:"option_number" binding:"required"`
	OptionText    string `json:"option_text" binding:"required"`
	Description   string `json:"description"`
	ListID        string `json:"list_id"`
	Keywords      string `json:"keywords"`
	ActionType    string `json:"action_type" binding:"required"`
	TargetMenuKey string `json:"target_menu_key"`
	ResponseText  string `json:"response_text"`
	SortOrder     int    `json:"sort_order"`
}

// CreateOption adds an option to a menu. A blank list id gets a generated
// one; a provided list id must be unique across the whole instance because
// stale-selection matching searches every menu.
func (h *MenuHandler) CreateOption(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	var menu models.Menu
	if err := database.GormDB.Where("instance_id = ? AND menu_key = ?", instance.ID, c.Param("key")).
		First(&menu).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "menu not found"})
		return
	}

	var req optionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if bot.ParseAction(req.ActionType) == bot.ActionUnknown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action_type: " + req.ActionType})
		return
	}

	listID := strings.TrimSpace(req.ListID)
	if listID == "" {
		listID = "opt_" + uuid.NewString()[:8]
	} else if !h.listIDAvailable(instance.ID, listID, 0) {
		c.JSON(http.StatusConflict, gin.H{"error": "list_id already in use on this instance: " + listID})
		return
	}

	option := models.MenuOption{
		MenuID:        menu.ID,
		InstanceID:    instance.ID,
		OptionNumber:  req.OptionNumber,
		OptionText:    req.OptionText,
		Description:   req.Description,
		ListID:        listID,
		Keywords:      req.Keywords,
		ActionType:    req.ActionType,
		TargetMenuKey: req.TargetMenuKey,
		ResponseText:  req.ResponseText,
		SortOrder:     req.SortOrder,
	}
	if err := database.GormDB.Create(&option).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Cache.Invalidate()
	c.JSON(http.StatusCreated, gin.H{"id": option.ID, "list_id": option.ListID, "message": "Option created successfully"})
}

func (h *MenuHandler) UpdateOption(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	var option models.MenuOption
	if err := database.GormDB.Where("instance_id = ? AND id = ?", instance.ID, c.Param("id")).
		First(&option).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "option not found"})
		return
	}

	var req optionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if bot.ParseAction(req.ActionType) == bot.ActionUnknown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action_type: " + req.ActionType})
		return
	}

	listID := strings.TrimSpace(req.ListID)
	if listID == "" {
		listID = option.ListID
	} else if !h.listIDAvailable(instance.ID, listID, option.ID) {
		c.JSON(http.StatusConflict, gin.H{"error": "list_id already in use on this instance: " + listID})
		return
	}

	err := database.GormDB.Model(&option).Updates(map[string]interface{}{
		"option_number":   req.OptionNumber,
		"option_text":     req.OptionText,
		"description":     req.Description,
		"list_id":         listID,
		"keywords":        req.Keywords,
		"action_type":     req.ActionType,
		"target_menu_key": req.TargetMenuKey,
		"response_text":   req.ResponseText,
		"sort_order":      req.SortOrder,
	}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Cache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "Option updated successfully"})
}

func (h *MenuHandler) DeleteOption(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	if err := database.GormDB.Where("instance_id = ? AND id = ?", instance.ID, c.Param("id")).
		Delete(&models.MenuOption{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Cache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "Option deleted successfully"})
}

func (h *MenuHandler) listIDAvailable(instanceID uint, listID string, excludeID uint) bool {
	var count int64
	database.GormDB.Model(&models.MenuOption{}).
		Where("instance_id = ? AND LOWER(list_id) = LOWER(?) AND id <> ?", instanceID, listID, excludeID).
		Count(&count)
	return count == 0
}
