package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EntityTypeDefinition describes one entity type the external system
// exposes: what it is called and which record fields sync jobs mirror.
type EntityTypeDefinition struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Fields      []string `yaml:"fields,omitempty"`
}

// EntityTypesConfig is the YAML entity type catalog loaded at startup.
type EntityTypesConfig struct {
	EntityTypes []EntityTypeDefinition `yaml:"entity_types"`
}

// LoadEntityTypes reads and validates the entity type catalog.
func LoadEntityTypes(path string) (*EntityTypesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entity types file: %w", err)
	}

	var config EntityTypesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse entity types file: %w", err)
	}

	if len(config.EntityTypes) == 0 {
		return nil, fmt.Errorf("entity types file %s defines no entity types", path)
	}
	seen := make(map[string]bool, len(config.EntityTypes))
	for _, def := range config.EntityTypes {
		if def.Name == "" {
			return nil, fmt.Errorf("entity types file %s contains an unnamed entity type", path)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("entity type %q defined twice", def.Name)
		}
		seen[def.Name] = true
	}
	return &config, nil
}

// Names returns the defined entity type names in file order.
func (c *EntityTypesConfig) Names() []string {
	names := make([]string, len(c.EntityTypes))
	for i, def := range c.EntityTypes {
		names[i] = def.Name
	}
	return names
}
