package sanapi

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseInterval converts an API interval string such as "5m", "1h", "1d" or
// "1w" into a duration.
func ParseInterval(interval string) (time.Duration, error) {
	if n, ok := strings.CutSuffix(interval, "d"); ok {
		if days, err := strconv.ParseInt(n, 10, 64); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour, nil
		}
		return 0, fmt.Errorf("invalid interval %q", interval)
	}
	if n, ok := strings.CutSuffix(interval, "w"); ok {
		if weeks, err := strconv.ParseInt(n, 10, 64); err == nil && weeks > 0 {
			return time.Duration(weeks) * 7 * 24 * time.Hour, nil
		}
		return 0, fmt.Errorf("invalid interval %q", interval)
	}

	d, err := time.ParseDuration(interval)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid interval %q", interval)
	}
	return d, nil
}
