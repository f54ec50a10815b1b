package feeder

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadJSON reads a prompt set from a JSON file containing an array of prompt
// objects.
func LoadJSON(path string) (*Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prompt file: %w", err)
	}
	defer file.Close()

	var prompts []Prompt
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&prompts); err != nil {
		return nil, fmt.Errorf("decode JSON prompts: %w", err)
	}

	if len(prompts) == 0 {
		return nil, fmt.Errorf("prompt file %s contains an empty array", path)
	}
	return NewSet(prompts)
}
