package metrics_test

import (
	"testing"

	"github.com/tokenstorm/tokenstorm/internal/metrics"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    string
	}{
		{"http 429", "provider returned 429: rate limit exceeded", "rate_limit"},
		{"rate limit phrase", "Rate limit reached for requests", "rate_limit"},
		{"deadline", "request timeout: context deadline exceeded", "timeout"},
		{"client timeout", "Post \"http://h\": net/http: Client.Timeout exceeded while awaiting headers", "timeout"},
		{"http 401", "provider returned 401: invalid api key", "authentication"},
		{"auth phrase", "authentication failed", "authentication"},
		{"http 500", "provider returned 500: internal error", "server_error"},
		{"http 502", "provider returned 502: bad gateway", "server_error"},
		{"http 503", "provider returned 503: overloaded", "server_error"},
		{"refused", "network error: dial tcp 127.0.0.1:9999: connect: connection refused", "network_error"},
		{"reset", "network error: read tcp: connection reset by peer", "network_error"},
		{"unmatched", "unexpected end of JSON input", "other"},
		{"empty", "", "other"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := metrics.Categorize(tc.message); got != tc.want {
				t.Errorf("Categorize(%q) = %q, want %q", tc.message, got, tc.want)
			}
		})
	}
}

// A message matching several needles takes the first category in taxonomy
// order, so a rate-limited request that also timed out reports rate_limit.
func TestCategorizeOrderIsFixed(t *testing.T) {
	if got := metrics.Categorize("429 after timeout waiting for capacity"); got != "rate_limit" {
		t.Errorf("got %q, want rate_limit to win over timeout", got)
	}
	if got := metrics.Categorize("timeout talking to 401 endpoint"); got != "timeout" {
		t.Errorf("got %q, want timeout to win over authentication", got)
	}
}
