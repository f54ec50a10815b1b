// llmstub is a stand-in OpenAI-compatible endpoint for local load runs.
// It answers /v1/chat/completions with canned text after a configurable
// latency, and can inject 429/500 responses at a fixed rate.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
)

var (
	port         = flag.Int("port", 8080, "Listening port")
	baseLatency  = flag.Duration("latency", 200*time.Millisecond, "Base response latency")
	jitter       = flag.Duration("jitter", 100*time.Millisecond, "Uniform latency jitter added on top")
	errorRate    = flag.Float64("error-rate", 0, "Fraction of requests answered with 500")
	throttleRate = flag.Float64("throttle-rate", 0, "Fraction of requests answered with 429")
	outputTokens = flag.Int("output-tokens", 50, "completion_tokens reported per response")
)

var served atomic.Int64

func main() {
	flag.Parse()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		delay := *baseLatency
		if *jitter > 0 {
			delay += time.Duration(rnd.Int63n(int64(*jitter)))
		}
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}

		roll := rnd.Float64()
		switch {
		case roll < *throttleRate:
			writeError(w, http.StatusTooManyRequests, "rate_limit_error", "Rate limit reached for requests")
			return
		case roll < *throttleRate+*errorRate:
			writeError(w, http.StatusInternalServerError, "server_error", "The server had an error while processing your request")
			return
		}

		body, _ := readBody(r)
		model := gjson.GetBytes(body, "model").String()
		prompt := gjson.GetBytes(body, "messages|@reverse|0.content").String()

		n := served.Add(1)
		writeJSON(w, map[string]interface{}{
			"id":      fmt.Sprintf("chatcmpl-stub-%d", n),
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   model,
			"choices": []map[string]interface{}{
				{
					"index": 0,
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": fmt.Sprintf("Stub reply %d to: %.60s", n, prompt),
					},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]interface{}{
				"prompt_tokens":     approximateTokens(prompt),
				"completion_tokens": *outputTokens,
				"total_tokens":      approximateTokens(prompt) + *outputTokens,
			},
		})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("llmstub listening on %s (latency %s +%s jitter, error rate %.2f, throttle rate %.2f)",
		addr, *baseLatency, *jitter, *errorRate, *throttleRate)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, 1<<20))
}

// approximateTokens mimics the usual 4-characters-per-token rule of thumb.
func approximateTokens(text string) int {
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
	})
}
