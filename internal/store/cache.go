package store

import (
	"context"
	"sync"
	"time"

	"chatbot-gateway/internal/bot"
	"chatbot-gateway/internal/models"
)

// ConfigCache wraps a ConfigStore with a TTL cache for the read-heavy
// configuration lookups the engine makes on every message. Contact rows are
// deliberately not cached. Admin handlers call Invalidate after every write.
type ConfigCache struct {
	Inner bot.ConfigStore
	TTL   time.Duration

	mu        sync.Mutex
	instances map[string]cached[*models.Instance]
	menus     map[menuKey]cached[*models.Menu]
	triggers  map[uint]cached[[]models.GlobalTrigger]
	variables map[uint]cached[map[string]string]
}

type menuKey struct {
	instanceID uint
	key        string
}

type cached[T any] struct {
	value   T
	expires time.Time
}

func NewConfigCache(inner bot.ConfigStore, ttl time.Duration) *ConfigCache {
	return &ConfigCache{
		Inner:     inner,
		TTL:       ttl,
		instances: make(map[string]cached[*models.Instance]),
		menus:     make(map[menuKey]cached[*models.Menu]),
		triggers:  make(map[uint]cached[[]models.GlobalTrigger]),
		variables: make(map[uint]cached[map[string]string]),
	}
}

// Invalidate drops everything. Config writes are rare enough that a full
// flush beats tracking per-key dependencies.
func (c *ConfigCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances = make(map[string]cached[*models.Instance])
	c.menus = make(map[menuKey]cached[*models.Menu])
	c.triggers = make(map[uint]cached[[]models.GlobalTrigger])
	c.variables = make(map[uint]cached[map[string]string])
}

func (c *ConfigCache) InstanceByName(ctx context.Context, name string) (*models.Instance, error) {
	c.mu.Lock()
	if entry, ok := c.instances[name]; ok && time.Now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.value, nil
	}
	c.mu.Unlock()

	instance, err := c.Inner.InstanceByName(ctx, name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.instances[name] = cached[*models.Instance]{value: instance, expires: time.Now().Add(c.TTL)}
	c.mu.Unlock()
	return instance, nil
}

func (c *ConfigCache) MenuByKey(ctx context.Context, instanceID uint, key string) (*models.Menu, error) {
	k := menuKey{instanceID: instanceID, key: key}
	c.mu.Lock()
	if entry, ok := c.menus[k]; ok && time.Now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.value, nil
	}
	c.mu.Unlock()

	menu, err := c.Inner.MenuByKey(ctx, instanceID, key)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.menus[k] = cached[*models.Menu]{value: menu, expires: time.Now().Add(c.TTL)}
	c.mu.Unlock()
	return menu, nil
}

func (c *ConfigCache) Triggers(ctx context.Context, instanceID uint) ([]models.GlobalTrigger, error) {
	c.mu.Lock()
	if entry, ok := c.triggers[instanceID]; ok && time.Now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.value, nil
	}
	c.mu.Unlock()

	triggers, err := c.Inner.Triggers(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.triggers[instanceID] = cached[[]models.GlobalTrigger]{value: triggers, expires: time.Now().Add(c.TTL)}
	c.mu.Unlock()
	return triggers, nil
}

// OptionBySelectionID is the stale-selection fallback path; it is rare, so
// it always goes to the database.
func (c *ConfigCache) OptionBySelectionID(ctx context.Context, instanceID uint, selectionID string) (*models.MenuOption, error) {
	return c.Inner.OptionBySelectionID(ctx, instanceID, selectionID)
}

func (c *ConfigCache) Variables(ctx context.Context, instanceID uint) (map[string]string, error) {
	c.mu.Lock()
	if entry, ok := c.variables[instanceID]; ok && time.Now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.value, nil
	}
	c.mu.Unlock()

	vars, err := c.Inner.Variables(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.variables[instanceID] = cached[map[string]string]{value: vars, expires: time.Now().Add(c.TTL)}
	c.mu.Unlock()
	return vars, nil
}
