package http

import (
	"net/http"
	"strings"
)

// sanitizeInput removes control characters other than tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// userID returns the sanitized {userID} path value.
func userID(r *http.Request) string {
	return sanitizeInput(r.PathValue("userID"))
}
