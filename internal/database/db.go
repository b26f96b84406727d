package database

import (
	"fmt"
	"log"

	"chatbot-gateway/internal/config"
	"chatbot-gateway/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var GormDB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	switch cfg.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
		GormDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	default:
		GormDB, err = gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	}

	if err != nil {
		log.Fatalf("Failed to connect to database (%s): %v", cfg.DBDriver, err)
	}

	log.Printf("Connected to %s database", cfg.DBDriver)

	err = GormDB.AutoMigrate(
		&models.Instance{},
		&models.Contact{},
		&models.Menu{},
		&models.MenuOption{},
		&models.GlobalTrigger{},
		&models.Variable{},
		&models.MessageLog{},
		&models.Message{},
	)
	if err != nil {
		log.Fatalf("Failed to run auto-migration: %v", err)
	}

	log.Println("Database migration completed")
}

// EnsureDefaultInstance creates the configured instance row on first boot so
// the webhook has something to resolve against.
func EnsureDefaultInstance(name string) {
	var instance models.Instance
	err := GormDB.Where("name = ?", name).First(&instance).Error
	if err == nil {
		return
	}

	instance = models.Instance{
		Name:            name,
		BotEnabled:      true,
		FallbackMessage: "Desculpe, não entendi. Digite *00* para voltar ao menu principal.",
		ListButtonLabel: "Ver opções",
	}
	if err := GormDB.Create(&instance).Error; err != nil {
		log.Printf("Error creating default instance %s: %v", name, err)
		return
	}
	log.Printf("Created default instance %s", name)
}
