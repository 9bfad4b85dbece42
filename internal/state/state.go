// Package state persists the defaults a user settles on between sessions,
// so an interactive "query -lastmod" sticks for the next plain "query".
package state

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileName = "state.yml"

// QueryDefaults are the sticky knobs of the query command.
type QueryDefaults struct {
	Sort   string `yaml:"sort,omitempty"`
	Suffix string `yaml:"suffix,omitempty"`
	TopN   int    `yaml:"top_n,omitempty"`
}

// State is everything remembered between sessions.
type State struct {
	Query QueryDefaults `yaml:"query"`
}

// Load reads the persisted state from dir. A missing file yields zero state,
// not an error.
func Load(dir string) (*State, error) {
	var st State
	data, err := os.ReadFile(filepath.Join(dir, fileName))
	if os.IsNotExist(err) {
		return &st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	return &st, nil
}

// Save writes the state to dir, creating it if needed.
func (s *State) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, fileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}
