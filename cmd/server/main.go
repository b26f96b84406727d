package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"chatbot-gateway/internal/api"
	"chatbot-gateway/internal/bot"
	"chatbot-gateway/internal/config"
	"chatbot-gateway/internal/database"
	"chatbot-gateway/internal/dispatch"
	"chatbot-gateway/internal/store"
	"chatbot-gateway/internal/webhook"
	"chatbot-gateway/internal/whatsapp"
	"chatbot-gateway/internal/ws"
)

const configCacheTTL = 30 * time.Second

func main() {
	cfg := config.LoadConfig()
	database.Init(cfg)
	database.EnsureDefaultInstance(cfg.DefaultInstance)

	r := gin.Default()

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	db := store.New(database.GormDB)
	configCache := store.NewConfigCache(db, configCacheTTL)

	gatewayClient := whatsapp.NewClient(cfg)
	dispatcher := dispatch.New(gatewayClient, time.Duration(cfg.SendTimeoutMs)*time.Millisecond)

	hub := ws.NewHub()
	go hub.Run()

	engine := bot.NewEngine(configCache, db, db, dispatcher)
	engine.Notifier = hub

	webhookHandler := webhook.NewHandler(cfg, engine, database.GormDB)
	menuHandler := api.NewMenuHandler(cfg.DefaultInstance, configCache)
	triggerHandler := api.NewTriggerHandler(cfg.DefaultInstance, configCache)
	variableHandler := api.NewVariableHandler(cfg.DefaultInstance, configCache)
	settingsHandler := api.NewSettingsHandler(cfg.DefaultInstance, configCache)
	contactHandler := api.NewContactHandler(cfg.DefaultInstance)
	logHandler := api.NewLogHandler(cfg.DefaultInstance)
	broadcastHandler := api.NewBroadcastHandler(cfg.DefaultInstance, dispatcher)

	// Webhook Routes
	r.GET("/webhook", webhookHandler.VerifyWebhook)
	r.POST("/webhook", webhookHandler.HandleMessage)

	// Dashboard API Routes
	apiGroup := r.Group("/api")
	{
		// Menu Routes
		apiGroup.GET("/menus", menuHandler.GetMenus)
		apiGroup.POST("/menus", menuHandler.CreateMenu)
		apiGroup.GET("/menus/:key", menuHandler.GetMenu)
		apiGroup.PUT("/menus/:key", menuHandler.UpdateMenu)
		apiGroup.DELETE("/menus/:key", menuHandler.DeleteMenu)
		apiGroup.POST("/menus/:key/options", menuHandler.CreateOption)
		apiGroup.PUT("/options/:id", menuHandler.UpdateOption)
		apiGroup.DELETE("/options/:id", menuHandler.DeleteOption)

		// Trigger Routes
		apiGroup.GET("/triggers", triggerHandler.GetTriggers)
		apiGroup.POST("/triggers", triggerHandler.CreateTrigger)
		apiGroup.PUT("/triggers/:id", triggerHandler.UpdateTrigger)
		apiGroup.POST("/triggers/:id/toggle", triggerHandler.ToggleTrigger)
		apiGroup.DELETE("/triggers/:id", triggerHandler.DeleteTrigger)

		// Variable Routes
		apiGroup.GET("/variables", variableHandler.GetVariables)
		apiGroup.POST("/variables", variableHandler.SetVariable)
		apiGroup.DELETE("/variables/:key", variableHandler.DeleteVariable)

		// Instance Settings Routes
		apiGroup.GET("/instances", settingsHandler.GetInstances)
		apiGroup.POST("/instances", settingsHandler.CreateInstance)
		apiGroup.GET("/settings", settingsHandler.GetSettings)
		apiGroup.PUT("/settings", settingsHandler.UpdateSettings)

		// Contact Routes
		apiGroup.GET("/contacts", contactHandler.GetContacts)
		apiGroup.POST("/contacts/:phone/reset", contactHandler.ResetNavigation)
		apiGroup.POST("/contacts/:phone/release", contactHandler.ReleaseHandoff)

		// Log Routes
		apiGroup.GET("/logs", logHandler.GetLogs)
		apiGroup.GET("/stats", logHandler.GetStats)

		// Broadcast Routes
		apiGroup.POST("/broadcast", broadcastHandler.SendBroadcast)
	}

	// Live dashboard updates
	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
