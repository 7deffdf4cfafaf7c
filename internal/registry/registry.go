// Package registry serves the component and widget definitions the studio editors build
// pages and dashboards from.
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	TypeComponent = "component"
	TypeWidget    = "widget"
)

// Definition describes one block editors can place on a page or dashboard.
type Definition struct {
	Key         string                 `yaml:"key" json:"key"`
	Name        string                 `yaml:"name" json:"name"`
	Type        string                 `yaml:"type" json:"type"`
	Category    string                 `yaml:"category" json:"category"`
	Description string                 `yaml:"description" json:"description,omitempty"`
	Enabled     bool                   `yaml:"enabled" json:"enabled"`
	Schema      map[string]interface{} `yaml:"schema" json:"schema,omitempty"`
}

type file struct {
	Definitions []Definition `yaml:"definitions"`
}

// Registry holds the enabled definitions ordered by category, name and key.
type Registry struct {
	definitions []Definition
}

// Load reads a registry file. A missing file yields an empty registry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Registry{}, nil
		}
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Definitions))
	enabled := make([]Definition, 0, len(f.Definitions))
	for i, def := range f.Definitions {
		def.Key = strings.TrimSpace(def.Key)
		if def.Key == "" {
			return nil, fmt.Errorf("registry definition %d: key is required", i)
		}
		if def.Type == "" {
			def.Type = TypeComponent
		}
		if def.Type != TypeComponent && def.Type != TypeWidget {
			return nil, fmt.Errorf("registry definition %q: unknown type %q", def.Key, def.Type)
		}
		id := def.Type + "/" + def.Key
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("registry definition %q declared twice", id)
		}
		seen[id] = struct{}{}
		if def.Name == "" {
			def.Name = def.Key
		}
		if def.Category == "" {
			def.Category = "general"
		}
		if def.Enabled {
			enabled = append(enabled, def)
		}
	}

	sort.SliceStable(enabled, func(i, j int) bool {
		a, b := enabled[i], enabled[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Key < b.Key
	})
	return &Registry{definitions: enabled}, nil
}

// Definitions returns the enabled definitions, optionally restricted to one type.
func (r *Registry) Definitions(kind string) []Definition {
	out := make([]Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		if kind == "" || def.Type == kind {
			out = append(out, def)
		}
	}
	return out
}
