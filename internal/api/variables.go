package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"

	"chatbot-gateway/internal/database"
	"chatbot-gateway/internal/models"
)

type VariableHandler struct {
	DefaultInstance string
	Cache           Invalidator
}

func NewVariableHandler(defaultInstance string, cache Invalidator) *VariableHandler {
	return &VariableHandler{DefaultInstance: defaultInstance, Cache: cache}
}

func (h *VariableHandler) GetVariables(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	var variables []models.Variable
	if err := database.GormDB.Where("instance_id = ?", instance.ID).
		Order("variable_key ASC").
		Find(&variables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if variables == nil {
		variables = []models.Variable{}
	}
	c.JSON(http.StatusOK, variables)
}

// SetVariable creates or overwrites one variable.
func (h *VariableHandler) SetVariable(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	variable := models.Variable{
		InstanceID:    instance.ID,
		VariableKey:   strings.TrimSpace(req.Key),
		VariableValue: req.Value,
	}
	err := database.GormDB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "instance_id"}, {Name: "variable_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"variable_value"}),
	}).Create(&variable).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Cache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "Variable saved successfully"})
}

func (h *VariableHandler) DeleteVariable(c *gin.Context) {
	instance := resolveInstance(c, h.DefaultInstance)
	if instance == nil {
		return
	}

	if err := database.GormDB.Where("instance_id = ? AND variable_key = ?", instance.ID, c.Param("key")).
		Delete(&models.Variable{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Cache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "Variable deleted successfully"})
}
