// Package store is the gorm-backed persistence layer behind the engine's
// storage interfaces.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"chatbot-gateway/internal/models"
)

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) InstanceByName(ctx context.Context, name string) (*models.Instance, error) {
	var instance models.Instance
	err := s.DB.WithContext(ctx).Where("name = ?", name).First(&instance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (s *Store) MenuByKey(ctx context.Context, instanceID uint, key string) (*models.Menu, error) {
	var menu models.Menu
	err := s.DB.WithContext(ctx).
		Preload("Options").
		Where("instance_id = ? AND menu_key = ?", instanceID, key).
		First(&menu).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

func (s *Store) Triggers(ctx context.Context, instanceID uint) ([]models.GlobalTrigger, error) {
	var triggers []models.GlobalTrigger
	err := s.DB.WithContext(ctx).
		Where("instance_id = ? AND enabled = ?", instanceID, true).
		Order("priority DESC, sort_order ASC").
		Find(&triggers).Error
	return triggers, err
}

func (s *Store) OptionBySelectionID(ctx context.Context, instanceID uint, selectionID string) (*models.MenuOption, error) {
	var option models.MenuOption
	err := s.DB.WithContext(ctx).
		Where("instance_id = ? AND LOWER(list_id) = LOWER(?)", instanceID, selectionID).
		First(&option).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &option, nil
}

func (s *Store) Variables(ctx context.Context, instanceID uint) (map[string]string, error) {
	var variables []models.Variable
	if err := s.DB.WithContext(ctx).Where("instance_id = ?", instanceID).Find(&variables).Error; err != nil {
		return nil, err
	}
	vars := make(map[string]string, len(variables))
	for _, v := range variables {
		vars[v.VariableKey] = v.VariableValue
	}
	return vars, nil
}

func (s *Store) GetOrCreate(ctx context.Context, instanceID uint, phoneNumber, name string) (*models.Contact, error) {
	var contact models.Contact
	err := s.DB.WithContext(ctx).
		Where(models.Contact{InstanceID: instanceID, Phone: phoneNumber}).
		Attrs(models.Contact{Name: name, CurrentMenuKey: "main", NavigationStack: "[]"}).
		FirstOrCreate(&contact).Error
	if err != nil {
		return nil, err
	}
	if name != "" && contact.Name == "" {
		s.DB.WithContext(ctx).Model(&contact).Update("name", name)
		contact.Name = name
	}
	return &contact, nil
}

// Save writes the navigation fields and bumps interaction_count in a single
// UPDATE, so two concurrent webhook deliveries cannot lose a count.
func (s *Store) Save(ctx context.Context, contact *models.Contact) error {
	err := s.DB.WithContext(ctx).Model(&models.Contact{}).
		Where("id = ?", contact.ID).
		Updates(map[string]interface{}{
			"current_menu_key":   contact.CurrentMenuKey,
			"previous_menu_key":  contact.PreviousMenuKey,
			"last_sent_menu_key": contact.LastSentMenuKey,
			"navigation_stack":   contact.NavigationStack,
			"awaiting_human":     contact.AwaitingHuman,
			"interaction_count":  gorm.Expr("interaction_count + 1"),
		}).Error
	if err == nil {
		contact.InteractionCount++
	}
	return err
}

func (s *Store) Append(ctx context.Context, entry *models.MessageLog) error {
	return s.DB.WithContext(ctx).Create(entry).Error
}
