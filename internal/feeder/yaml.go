package feeder

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type yamlPromptFile struct {
	Prompts []Prompt `yaml:"prompts"`
}

// LoadYAML reads a prompt set from a YAML file. The file must contain a
// top-level "prompts" list; a bare list of prompts is also accepted.
func LoadYAML(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open prompt file: %w", err)
	}

	var file yamlPromptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		var bare []Prompt
		if bareErr := yaml.Unmarshal(data, &bare); bareErr != nil {
			return nil, fmt.Errorf("decode YAML prompts: %w", err)
		}
		file.Prompts = bare
	}

	if len(file.Prompts) == 0 {
		return nil, fmt.Errorf("prompt file %s contains no prompts", path)
	}
	return NewSet(file.Prompts)
}
