package transform

import (
	"fmt"
	"time"
)

func changeSuffix(n int) string {
	return fmt.Sprintf("_change_%d", n)
}

func movingAverageSuffix(window time.Duration) string {
	return fmt.Sprintf("_%s_moving_average", formatWindow(window))
}

// formatWindow renders whole days as "7d", whole hours as "24h", whole
// minutes as "30m", anything else with time.Duration formatting.
func formatWindow(window time.Duration) string {
	switch {
	case window%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", window/(24*time.Hour))
	case window%time.Hour == 0:
		return fmt.Sprintf("%dh", window/time.Hour)
	case window%time.Minute == 0:
		return fmt.Sprintf("%dm", window/time.Minute)
	default:
		return window.String()
	}
}
