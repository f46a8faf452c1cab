package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// SessionPath names a session directory after its start time, a sanitized
// request snippet and a short ID, so archive listings read chronologically.
// Format: 2026-08-26_2130_brave-little-mouse_82f06b15
func SessionPath(sessionID, request string, at time.Time) string {
	timestamp := at.Format("2006-01-02_1504")
	shortID := sessionID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	sanitized := sanitizeForFilename(request, 30)

	return filepath.Join("sessions", fmt.Sprintf("%s_%s_%s", timestamp, sanitized, shortID))
}

// sanitizeForFilename converts a string to a safe filename component.
func sanitizeForFilename(s string, maxLen int) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == '/' || r == '\\' || r == ':' || r == '.':
			b.WriteRune('-')
		}
	}
	s = b.String()

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")

	if len(s) > maxLen {
		s = s[:maxLen]
		s = strings.TrimRight(s, "-")
	}

	if s == "" {
		s = "story"
	}

	return s
}
