package feeder

import (
	"strings"
)

// Substitute replaces all occurrences of {{key}} in the template with the
// corresponding value from vars. Placeholders without a matching key are
// left unchanged.
func Substitute(template string, vars map[string]string) string {
	result := template
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}
