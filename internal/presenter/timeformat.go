package presenter

import (
	"fmt"
	"time"
)

// TimestampLayout is how event timestamps are printed in listings
const TimestampLayout = "2006-01-02 15:04:05Z07:00"

// FormatTimestamp prints t in UTC with TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FormatTimeSince formats the time between t and now as a human-readable "X ago" string.
// Returns formats like "5 minutes ago", "2.5 hours ago", or "3 days ago".
// This is the verbose format suitable for detailed displays.
func FormatTimeSince(t, now time.Time) string {
	duration := now.Sub(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		return fmt.Sprintf("%.0f minutes ago", duration.Minutes())
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%.1f hours ago", duration.Hours())
	} else {
		return fmt.Sprintf("%.0f days ago", duration.Hours()/24)
	}
}

// FormatTimeSinceCompact formats the time between t and now as a compact "X ago" string.
// Returns formats like "5m ago", "2.5h ago", or "3d ago".
// This is the compact format suitable for table displays with limited space.
func FormatTimeSinceCompact(t, now time.Time) string {
	duration := now.Sub(t)

	if duration < time.Minute {
		return "now"
	} else if duration < time.Hour {
		return fmt.Sprintf("%.0fm ago", duration.Minutes())
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%.1fh ago", duration.Hours())
	} else {
		return fmt.Sprintf("%.0fd ago", duration.Hours()/24)
	}
}
