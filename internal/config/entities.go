package config

// EntityConfig holds per-entity overrides for a single crawl target.
// This allows tuning discovery behavior for entities the operator already
// knows about without touching global settings.
type EntityConfig struct {
	// PriorityBoost is added to the entity's frontier priority when it
	// is first discovered. Negative values deprioritize.
	PriorityBoost float64 `yaml:"priorityBoost,omitempty"`

	// Skip excludes the entity from discovery entirely. References to
	// it are dropped instead of entering the frontier.
	Skip bool `yaml:"skip,omitempty"`

	// MaxDepth overrides the global depth budget for content discovered
	// through this entity. Zero means use the global value.
	MaxDepth int `yaml:"maxDepth,omitempty"`
}

// File represents the structure of the .fedcrawl configuration file.
type File struct {
	// Entities maps entity identifiers to their overrides.
	Entities map[string]EntityConfig `yaml:"entities,omitempty"`

	// Defaults contains overrides applied to every entity unless the
	// entity-specific entry sets its own value.
	Defaults EntityConfig `yaml:"defaults,omitempty"`
}

// GetEntityConfig returns the effective overrides for an entity,
// merging the entity-specific entry over the defaults.
func (cf *File) GetEntityConfig(entityID string) EntityConfig {
	result := cf.Defaults

	if ec, ok := cf.Entities[entityID]; ok {
		if ec.PriorityBoost != 0 {
			result.PriorityBoost = ec.PriorityBoost
		}
		if ec.Skip {
			result.Skip = true
		}
		if ec.MaxDepth != 0 {
			result.MaxDepth = ec.MaxDepth
		}
	}

	return result
}
