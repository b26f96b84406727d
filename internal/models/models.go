package models

import (
	"time"
)

// Instance represents one WhatsApp instance on the gateway (one seller).
// Bot behaviour settings live here so the engine reads a single record.
type Instance struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	BotEnabled       bool      `gorm:"default:true" json:"bot_enabled"`
	FallbackMessage  string    `gorm:"type:text" json:"fallback_message"`
	TypingSimulation bool      `gorm:"default:true" json:"typing_simulation"`
	DelayMinMs       int       `gorm:"default:800" json:"delay_min_ms"`
	DelayMaxMs       int       `gorm:"default:2500" json:"delay_max_ms"`
	IgnoreGroups     bool      `gorm:"default:true" json:"ignore_groups"`
	UseListMessages  bool      `gorm:"default:true" json:"use_list_messages"`
	ListButtonLabel  string    `gorm:"type:varchar(60)" json:"list_button_label"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Instance) TableName() string {
	return "instances"
}

// Contact is the durable per-phone conversation state. One row per
// (instance, phone); mutated exactly once per processed inbound message.
type Contact struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	InstanceID       uint      `gorm:"not null;uniqueIndex:idx_contact_phone,priority:1" json:"instance_id"`
	Phone            string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_contact_phone,priority:2" json:"phone"`
	Name             string    `gorm:"type:varchar(255)" json:"name"`
	CurrentMenuKey   string    `gorm:"type:varchar(100);default:'main'" json:"current_menu_key"`
	PreviousMenuKey  string    `gorm:"type:varchar(100)" json:"previous_menu_key"`
	LastSentMenuKey  string    `gorm:"type:varchar(100)" json:"last_sent_menu_key"`
	NavigationStack  string    `gorm:"type:text;default:'[]'" json:"navigation_stack"` // JSON array of ancestor menu keys
	AwaitingHuman    bool      `gorm:"default:false" json:"awaiting_human"`
	InteractionCount int       `gorm:"default:0" json:"interaction_count"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// Menu is a node in the conversation tree.
type Menu struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	InstanceID    uint         `gorm:"not null;uniqueIndex:idx_menu_key,priority:1" json:"instance_id"`
	MenuKey       string       `gorm:"type:varchar(100);not null;uniqueIndex:idx_menu_key,priority:2" json:"menu_key"`
	Title         string       `gorm:"type:varchar(255)" json:"title"`
	MessageText   string       `gorm:"type:text" json:"message_text"` // supports {variable} placeholders
	ImageURL      string       `gorm:"type:text" json:"image_url"`
	ParentMenuKey string       `gorm:"type:varchar(100)" json:"parent_menu_key"` // informational; navigation uses the stack
	Options       []MenuOption `gorm:"foreignKey:MenuID;constraint:OnDelete:CASCADE;" json:"options"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Menu) TableName() string {
	return "menus"
}

// MenuOption is one selectable row of a menu. ListID must be unique across
// the whole instance because selection matching falls back to a global search.
type MenuOption struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	MenuID        uint      `gorm:"not null;index" json:"menu_id"`
	InstanceID    uint      `gorm:"not null;index" json:"instance_id"`
	OptionNumber  int       `gorm:"not null" json:"option_number"`
	OptionText    string    `gorm:"type:varchar(255)" json:"option_text"`
	Description   string    `gorm:"type:varchar(255)" json:"description"`
	ListID        string    `gorm:"type:varchar(100);index" json:"list_id"`
	Keywords      string    `gorm:"type:text" json:"keywords"` // comma separated
	ActionType    string    `gorm:"type:varchar(20);not null" json:"action_type"`
	TargetMenuKey string    `gorm:"type:varchar(100)" json:"target_menu_key"`
	ResponseText  string    `gorm:"type:text" json:"response_text"`
	SortOrder     int       `gorm:"default:0" json:"sort_order"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MenuOption) TableName() string {
	return "menu_options"
}

// GlobalTrigger is an instance-wide keyword rule evaluated before any
// menu-local option.
type GlobalTrigger struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	InstanceID     uint      `gorm:"not null;index" json:"instance_id"`
	TriggerName    string    `gorm:"type:varchar(100);not null" json:"trigger_name"`
	Keywords       string    `gorm:"type:text" json:"keywords"` // comma separated
	Priority       int       `gorm:"default:0" json:"priority"`
	ActionType     string    `gorm:"type:varchar(20);not null" json:"action_type"`
	TargetMenuKey  string    `gorm:"type:varchar(100)" json:"target_menu_key"`
	ResponseText   string    `gorm:"type:text" json:"response_text"`
	ConditionType  string    `gorm:"type:varchar(20);default:'always'" json:"condition_type"`
	ConditionValue string    `gorm:"type:text" json:"condition_value"`
	Enabled        bool      `gorm:"default:true" json:"enabled"`
	SortOrder      int       `gorm:"default:0" json:"sort_order"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (GlobalTrigger) TableName() string {
	return "global_triggers"
}

// Variable is an instance-scoped value substituted into message text via
// {key} placeholders.
type Variable struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	InstanceID    uint      `gorm:"not null;uniqueIndex:idx_variable_key,priority:1" json:"instance_id"`
	VariableKey   string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_variable_key,priority:2" json:"variable_key"`
	VariableValue string    `gorm:"type:text" json:"variable_value"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Variable) TableName() string {
	return "variables"
}

// MessageLog is the append-only per-processed-message observability record.
// The engine writes it and never reads it back.
type MessageLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	InstanceID     uint      `gorm:"not null;index" json:"instance_id"`
	Phone          string    `gorm:"type:varchar(30);index" json:"phone"`
	InboundText    string    `gorm:"type:text" json:"inbound_text"`
	OutboundText   string    `gorm:"type:text" json:"outbound_text"`
	MenuKey        string    `gorm:"type:varchar(100)" json:"menu_key"`
	MatchedTrigger string    `gorm:"type:varchar(100)" json:"matched_trigger"`
	Fallback       bool      `gorm:"default:false" json:"fallback"`
	Outcome        string    `gorm:"type:varchar(20)" json:"outcome"` // replied, skipped, ignored, handoff, failed
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (MessageLog) TableName() string {
	return "message_logs"
}

// Message is a raw inbound/outbound message row kept for the dashboard
// conversation view.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	InstanceID uint      `gorm:"index" json:"instance_id"`
	Phone      string    `gorm:"type:varchar(30);index;not null" json:"phone"`
	Content    string    `gorm:"type:text" json:"content"`
	Direction  string    `gorm:"type:varchar(10)" json:"direction"` // received, sent
	Type       string    `gorm:"type:varchar(50)" json:"type"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
