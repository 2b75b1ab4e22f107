// File: internal/registry/registry.go
// Description: Loads the post-filter model registry and resolves named entries.

package registry

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the registry document is missing.
var ErrConfigNotFound = errors.New("model registry not found")

// ErrModelNotFound is returned when the requested name has no registry entry.
var ErrModelNotFound = errors.New("model not found in registry")

// Entry is the static configuration for one post-filter model.
type Entry struct {
	Name             string   `yaml:"name"`
	URI              string   `yaml:"uri"`
	Version          string   `yaml:"version"`
	SHA256           string   `yaml:"sha256,omitempty"`
	Framework        string   `yaml:"framework"`
	DefaultThreshold float64  `yaml:"default_threshold"`
	Labels           []string `yaml:"labels"`
}

type document struct {
	Models []Entry `yaml:"models"`
}

// Registry is a parsed model registry. It is loaded once per invocation and
// read-only thereafter.
type Registry struct {
	path    string
	entries map[string]Entry
}

// Load parses the registry document at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}

	entries := make(map[string]Entry, len(doc.Models))
	for _, entry := range doc.Models {
		entries[entry.Name] = entry
	}
	return &Registry{path: path, entries: entries}, nil
}

// Resolve looks up one named model's metadata.
func (r *Registry) Resolve(name string) (Entry, error) {
	entry, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q (registry: %s)", ErrModelNotFound, name, r.path)
	}
	return entry, nil
}

// Names returns the registered model names, for diagnostics.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}
