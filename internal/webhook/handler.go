// Package webhook receives Evolution-style gateway events and feeds them to
// the conversation engine.
package webhook

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"chatbot-gateway/internal/bot"
	"chatbot-gateway/internal/config"
	"chatbot-gateway/internal/models"
	"chatbot-gateway/internal/phone"
)

const processTimeout = 30 * time.Second

// Payload mirrors the gateway's messages.upsert event shape. Only the fields
// the engine needs are declared.
type Payload struct {
	Event    string `json:"event"`
	Instance string `json:"instance"`
	Data     struct {
		Key struct {
			RemoteJID string `json:"remoteJid"`
			FromMe    bool   `json:"fromMe"`
			ID        string `json:"id"`
		} `json:"key"`
		PushName string `json:"pushName"`
		Message  struct {
			Conversation        string `json:"conversation"`
			ExtendedTextMessage *struct {
				Text string `json:"text"`
			} `json:"extendedTextMessage"`
			ListResponseMessage *struct {
				Title            string `json:"title"`
				SingleSelectReply struct {
					SelectedRowID string `json:"selectedRowId"`
				} `json:"singleSelectReply"`
			} `json:"listResponseMessage"`
			ButtonsResponseMessage *struct {
				SelectedButtonID    string `json:"selectedButtonId"`
				SelectedDisplayText string `json:"selectedDisplayText"`
			} `json:"buttonsResponseMessage"`
			ImageMessage *struct {
				Caption string `json:"caption"`
			} `json:"imageMessage"`
		} `json:"message"`
	} `json:"data"`
}

type Handler struct {
	Config *config.Config
	Engine *bot.Engine
	DB     *gorm.DB
}

func NewHandler(cfg *config.Config, engine *bot.Engine, db *gorm.DB) *Handler {
	return &Handler{Config: cfg, Engine: engine, DB: db}
}

// VerifyWebhook answers gateway health probes.
func (h *Handler) VerifyWebhook(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) HandleMessage(c *gin.Context) {
	var payload Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("Error binding webhook JSON: %v", err)
		c.Status(http.StatusBadRequest)
		return
	}

	in := normalize(payload)
	if in.Instance == "" {
		in.Instance = h.Config.DefaultInstance
	}

	h.recordInbound(in)

	ctx, cancel := context.WithTimeout(c.Request.Context(), processTimeout)
	defer cancel()

	outcome, err := h.Engine.HandleMessage(ctx, in)
	if err != nil {
		log.Printf("Error processing message from %s: %v", in.RemoteJID, err)
	}

	// Always 200: a non-2xx makes the gateway redeliver, and redelivering a
	// message the engine already rejected never helps.
	c.JSON(http.StatusOK, gin.H{"status": string(outcome)})
}

func normalize(p Payload) bot.Inbound {
	in := bot.Inbound{
		EventType:  p.Event,
		Instance:   p.Instance,
		RemoteJID:  p.Data.Key.RemoteJID,
		FromSelf:   p.Data.Key.FromMe,
		SenderName: p.Data.PushName,
	}

	msg := p.Data.Message
	switch {
	case msg.ListResponseMessage != nil:
		in.SelectionID = msg.ListResponseMessage.SingleSelectReply.SelectedRowID
		in.Text = msg.ListResponseMessage.Title
	case msg.ButtonsResponseMessage != nil:
		in.SelectionID = msg.ButtonsResponseMessage.SelectedButtonID
		in.Text = msg.ButtonsResponseMessage.SelectedDisplayText
	case msg.Conversation != "":
		in.Text = msg.Conversation
	case msg.ExtendedTextMessage != nil:
		in.Text = msg.ExtendedTextMessage.Text
	case msg.ImageMessage != nil:
		in.Text = msg.ImageMessage.Caption
	}
	return in
}

func (h *Handler) recordInbound(in bot.Inbound) {
	if h.DB == nil || in.FromSelf {
		return
	}
	canonical := phone.Canonical(in.RemoteJID)
	if canonical == "" {
		return
	}
	msgType := "text"
	if in.SelectionID != "" {
		msgType = "selection"
	}
	var instance models.Instance
	h.DB.Select("id").Where("name = ?", in.Instance).First(&instance)
	msg := models.Message{
		InstanceID: instance.ID,
		Phone:      canonical,
		Content:    in.Text,
		Direction:  "received",
		Type:       msgType,
	}
	if err := h.DB.Create(&msg).Error; err != nil {
		log.Printf("Error recording inbound message: %v", err)
	}
}
