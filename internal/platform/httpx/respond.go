// Package httpx provides the JSON envelope used by every API response.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every API response. Success bodies carry their
// entity under a named key next to "success".
type Envelope map[string]any

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK writes {"success":true,"<key>":v}.
func OK(w http.ResponseWriter, status int, key string, v any) {
	JSON(w, status, Envelope{"success": true, key: v})
}

// OKMany writes a success envelope with several entity keys.
func OKMany(w http.ResponseWriter, status int, entities Envelope) {
	body := Envelope{"success": true}
	for k, v := range entities {
		body[k] = v
	}
	JSON(w, status, body)
}
