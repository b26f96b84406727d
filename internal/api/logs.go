package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"chatbot-gateway/internal/database"
	"chatbot-gateway/internal/models"
)

type LogHandler struct {
	DefaultInstance string
}

func NewLogHandler(defaultInstance string) *LogHandler {
	return &LogHandler{DefaultInstance: defaultInstance}
}

func (h *LogHandler) GetLogs(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	query := database.GormDB.Where("instance_id = ?", instance.ID).Order("created_at DESC")
	if phone := c.Query("phone"); phone != "" {
		query = query.Where("phone = ?", phone)
	}
	if outcome := c.Query("outcome"); outcome != "" {
		query = query.Where("outcome = ?", outcome)
	}

	var logs []models.MessageLog
	if err := query.Limit(limit).Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if logs == nil {
		logs = []models.MessageLog{}
	}
	c.JSON(http.StatusOK, logs)
}

// GetStats returns the dashboard counters for the last 24 hours.
func (h *LogHandler) GetStats(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}
	since := time.Now().Add(-24 * time.Hour)

	var totalContacts, awaitingHuman int64
	database.GormDB.Model(&models.Contact{}).Where("instance_id = ?", instance.ID).Count(&totalContacts)
	database.GormDB.Model(&models.Contact{}).
		Where("instance_id = ? AND awaiting_human = ?", instance.ID, true).
		Count(&awaitingHuman)

	var processed, replied, fallbacks int64
	database.GormDB.Model(&models.MessageLog{}).
		Where("instance_id = ? AND created_at > ?", instance.ID, since).
		Count(&processed)
	database.GormDB.Model(&models.MessageLog{}).
		Where("instance_id = ? AND created_at > ? AND outcome = ?", instance.ID, since, "replied").
		Count(&replied)
	database.GormDB.Model(&models.MessageLog{}).
		Where("instance_id = ? AND created_at > ? AND fallback = ?", instance.ID, since, true).
		Count(&fallbacks)

	c.JSON(http.StatusOK, gin.H{
		"total_contacts": totalContacts,
		"awaiting_human": awaitingHuman,
		"messages_24h":   processed,
		"replied_24h":    replied,
		"fallbacks_24h":  fallbacks,
	})
}
