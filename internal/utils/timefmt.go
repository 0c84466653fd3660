package utils

import (
	"fmt"
	"time"
)

// TimeAgo renders a human-readable relative time string. API payloads carry
// this next to the raw timestamp.
func TimeAgo(t time.Time, now time.Time) string {
	seconds := int(now.Sub(t).Seconds())
	if seconds < 0 {
		seconds = 0
	}

	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return plural(seconds/60, "minute")
	case seconds < 86400:
		return plural(seconds/3600, "hour")
	case seconds < 2592000:
		return plural(seconds/86400, "day")
	case seconds < 31536000:
		return plural(seconds/2592000, "month")
	default:
		return plural(seconds/31536000, "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
