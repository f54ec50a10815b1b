package metrics

import (
	"strings"
)

// CategoryOther is the fallback bucket for unclassified failures.
const CategoryOther = "other"

// errorCategories is checked in order; the first match wins, so a message
// mentioning both a 429 and a timeout counts as rate_limit.
var errorCategories = []struct {
	name    string
	needles []string
}{
	{"rate_limit", []string{"rate_limit", "429"}},
	{"timeout", []string{"timeout", "etimedout"}},
	{"authentication", []string{"401", "authentication"}},
	{"server_error", []string{"500", "502", "503"}},
	{"network_error", []string{"network", "econnrefused"}},
}

// Categorize maps a failure message to exactly one error category by
// case-insensitive substring match.
func Categorize(message string) string {
	lowered := strings.ToLower(message)
	for _, category := range errorCategories {
		for _, needle := range category.needles {
			if strings.Contains(lowered, needle) {
				return category.name
			}
		}
	}
	return CategoryOther
}
