package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatbot-gateway/internal/bot"
	"chatbot-gateway/internal/database"
	"chatbot-gateway/internal/models"
)

type ContactHandler struct {
	DefaultInstance string
}

func NewContactHandler(defaultInstance string) *ContactHandler {
	return &ContactHandler{DefaultInstance: defaultInstance}
}

func (h *ContactHandler) GetContacts(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	query := database.GormDB.Where("instance_id = ?", instance.ID).Order("updated_at DESC")
	if c.Query("awaiting_human") == "true" {
		query = query.Where("awaiting_human = ?", true)
	}

	var contacts []models.Contact
	if err := query.Limit(limit).Find(&contacts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	c.JSON(http.StatusOK, contacts)
}

// ResetNavigation puts a contact back at the root menu with a clean stack.
func (h *ContactHandler) ResetNavigation(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	result := database.GormDB.Model(&models.Contact{}).
		Where("instance_id = ? AND phone = ?", instance.ID, c.Param("phone")).
		Updates(map[string]interface{}{
			"current_menu_key":   bot.HomeMenuKey,
			"previous_menu_key":  "",
			"last_sent_menu_key": "",
			"navigation_stack":   "[]",
			"awaiting_human":     false,
		})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Navigation reset successfully"})
}

// ReleaseHandoff returns a contact from human handling to the bot without
// touching their navigation position.
func (h *ContactHandler) ReleaseHandoff(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	result := database.GormDB.Model(&models.Contact{}).
		Where("instance_id = ? AND phone = ?", instance.ID, c.Param("phone")).
		Update("awaiting_human", false)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Handoff released successfully"})
}
