// Package blacklist answers whether a passport id is disqualified from recruitment.
package blacklist

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Gate is the lookup the assembler and the HTTP layer depend on.
type Gate interface {
	IsBlacklisted(id string) bool
}

// Checker is an immutable set of disqualified ids.
type Checker struct {
	ids map[string]struct{}
}

// New builds a Checker. Entries are trimmed and blank entries dropped.
func New(ids ...string) *Checker {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return &Checker{ids: set}
}

// IsBlacklisted trims id and matches it exactly. Case is significant.
// An empty id is never blacklisted; callers reject it first.
func (c *Checker) IsBlacklisted(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	_, ok := c.ids[id]
	return ok
}

// Len returns the number of entries.
func (c *Checker) Len() int {
	return len(c.ids)
}

type file struct {
	IDs []string `yaml:"ids"`
}

// LoadFile reads `ids: [...]` from a YAML file.
func LoadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blacklist %s: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse blacklist %s: %w", path, err)
	}
	return f.IDs, nil
}

// FromConfig merges inline ids with those from path, if set.
func FromConfig(inline []string, path string) (*Checker, error) {
	ids := append([]string{}, inline...)
	if path != "" {
		fromFile, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		ids = append(ids, fromFile...)
	}
	return New(ids...), nil
}
