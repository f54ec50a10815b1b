package feeder

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Prompt is a single prompt definition from a prompt set.
// Zero-valued fields fall back to the run-level provider defaults.
type Prompt struct {
	Name        string            `yaml:"name" json:"name"`
	Text        string            `yaml:"text" json:"text"`
	System      string            `yaml:"system" json:"system"`
	MaxTokens   int               `yaml:"max_tokens" json:"max_tokens"`
	Temperature *float64          `yaml:"temperature" json:"temperature"`
	Vars        map[string]string `yaml:"vars" json:"vars"`
}

// Set is an ordered, immutable collection of prompts. The scheduler cycles
// through it by index; Set itself holds no cursor state.
type Set struct {
	prompts []Prompt
}

// NewSet builds a Set from inline prompt texts.
func NewSet(prompts []Prompt) (*Set, error) {
	if len(prompts) == 0 {
		return nil, fmt.Errorf("prompt set is empty")
	}
	for i, p := range prompts {
		if strings.TrimSpace(p.Text) == "" {
			return nil, fmt.Errorf("prompt %d has empty text", i)
		}
	}
	return &Set{prompts: append([]Prompt(nil), prompts...)}, nil
}

// Load reads a prompt set from a YAML, JSON, or CSV file, dispatching on the
// file extension.
func Load(path string) (*Set, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".json":
		return LoadJSON(path)
	case ".csv":
		return LoadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported prompt file extension %q: use .yaml, .json, or .csv", filepath.Ext(path))
	}
}

// Len returns the number of prompts in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.prompts)
}

// At returns the prompt at index i modulo the set length, so callers can use
// a monotonically growing counter without bounds checks.
func (s *Set) At(i int) Prompt {
	return s.prompts[i%len(s.prompts)]
}

// Prompts returns a copy of the underlying prompt slice.
func (s *Set) Prompts() []Prompt {
	return append([]Prompt(nil), s.prompts...)
}

// Names returns the prompt names in set order, substituting "prompt-N" for
// unnamed entries.
func (s *Set) Names() []string {
	names := make([]string, len(s.prompts))
	for i, p := range s.prompts {
		if p.Name != "" {
			names[i] = p.Name
		} else {
			names[i] = fmt.Sprintf("prompt-%d", i)
		}
	}
	return names
}
