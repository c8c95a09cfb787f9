package tui

import "time"

// truncate shortens a string to max runes with ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// formatDate renders timestamps the way the post cards show them
func formatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// formatDateTime renders comment timestamps
func formatDateTime(t time.Time) string {
	return t.Format("Jan 2, 2006 15:04")
}
