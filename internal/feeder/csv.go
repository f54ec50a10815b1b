package feeder

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// LoadCSV reads a prompt set from a CSV file. The first row is the header;
// a "text" column is required, "name", "system", "max_tokens", and
// "temperature" are recognized, and any remaining columns become
// substitution vars.
func LoadCSV(path string) (*Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prompt file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV prompts: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV prompt file must have a header row and at least one data row")
	}

	header := rows[0]
	textCol := -1
	for i, name := range header {
		if name == "text" {
			textCol = i
		}
	}
	if textCol == -1 {
		return nil, fmt.Errorf("CSV prompt file is missing a \"text\" column")
	}

	prompts := make([]Prompt, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, expected %d", i+2, len(row), len(header))
		}
		p := Prompt{Vars: map[string]string{}}
		for j, col := range header {
			val := row[j]
			switch col {
			case "text":
				p.Text = val
			case "name":
				p.Name = val
			case "system":
				p.System = val
			case "max_tokens":
				if val != "" {
					n, err := strconv.Atoi(val)
					if err != nil {
						return nil, fmt.Errorf("row %d: invalid max_tokens %q", i+2, val)
					}
					p.MaxTokens = n
				}
			case "temperature":
				if val != "" {
					t, err := strconv.ParseFloat(val, 64)
					if err != nil {
						return nil, fmt.Errorf("row %d: invalid temperature %q", i+2, val)
					}
					p.Temperature = &t
				}
			default:
				p.Vars[col] = val
			}
		}
		if len(p.Vars) == 0 {
			p.Vars = nil
		}
		prompts = append(prompts, p)
	}

	return NewSet(prompts)
}
