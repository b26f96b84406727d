package api

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatbot-gateway/internal/bot"
	"chatbot-gateway/internal/database"
	"chatbot-gateway/internal/models"
)

type BroadcastHandler struct {
	DefaultInstance string
	Dispatcher      bot.Dispatcher
}

func NewBroadcastHandler(defaultInstance string, dispatcher bot.Dispatcher) *BroadcastHandler {
	return &BroadcastHandler{DefaultInstance: defaultInstance, Dispatcher: dispatcher}
}

// SendBroadcast queues a plain-text message to every contact of an instance.
// Delivery runs in the background; the dispatcher's per-instance rate limit
// spaces the sends out.
func (h *BroadcastHandler) SendBroadcast(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var contacts []models.Contact
	if err := database.GormDB.Where("instance_id = ?", instance.ID).Find(&contacts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(contacts) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No contacts to broadcast to", "recipients": 0})
		return
	}

	go h.deliver(instance, contacts, req.Text)

	c.JSON(http.StatusAccepted, gin.H{"message": "Broadcast queued", "recipients": len(contacts)})
}

func (h *BroadcastHandler) deliver(instance *models.Instance, contacts []models.Contact, text string) {
	resp := &bot.Response{Text: text}
	sent, failed := 0, 0
	for _, contact := range contacts {
		if err := h.Dispatcher.Dispatch(context.Background(), instance, contact.Phone, resp); err != nil {
			log.Printf("Broadcast to %s failed: %v", contact.Phone, err)
			failed++
			continue
		}
		sent++
	}
	log.Printf("Broadcast on %s finished: %d sent, %d failed", instance.Name, sent, failed)
}
