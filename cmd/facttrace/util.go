// cmd/facttrace/util.go
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"
)

// HTTP Response Helpers
func respondWithHTTPError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithAppError answers with the status and client message derived from err
func respondWithAppError(w http.ResponseWriter, err error) {
	respondWithHTTPError(w, StatusFor(err), ClientMessage(err))
}

// RecoverFromPanic logs a recovered panic with its stack. It returns true when a panic occurred.
func RecoverFromPanic(component string, r interface{}) bool {
	if r == nil {
		return false
	}
	stack := make([]byte, 4096)
	stack = stack[:runtime.Stack(stack, false)]
	Logger().Error("Panic in %s: %v\n%s", component, r, stack)
	return true
}

// FormatDuration renders d as "1d 2h 3m 4s"
func FormatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	parts := []string{}
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}

	return strings.Join(parts, " ")
}

// collapseWhitespace replaces every run of whitespace (including U+00A0) with one space and trims
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// charCount counts characters, not bytes
func charCount(s string) int {
	return utf8.RuneCountInString(s)
}

// truncateChars returns at most n characters of s
func truncateChars(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// stringPtr returns nil for the empty string
func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}
