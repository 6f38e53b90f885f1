package utils

import (
	"os"
	"strings"
)

// Slugify converts a name to a filename-safe slug
// Example: "Fix the login bug" -> "fix-the-login-bug"
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	var result strings.Builder
	result.Grow(len(slug))
	for _, c := range slug {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			result.WriteRune(c)
		}
	}
	return result.String()
}

// FileExists checks if a file exists at the given path
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ShortName extracts a short display name from a task description
// Takes the first sentence, capped at 80 chars
func ShortName(task string) string {
	name := task
	if idx := strings.IndexByte(name, '.'); idx > 0 {
		name = name[:idx]
	}
	name = strings.TrimSpace(name)
	if len(name) > 80 {
		name = name[:77] + "..."
	}
	return name
}
