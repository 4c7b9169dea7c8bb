package output

import (
	"fmt"
	"time"
)

var byteUnits = []string{"B", "KB", "MB", "GB"}

// FormatBytes renders n in base-1024 units with two decimals. Sizes past the
// gigabyte range stay in GB.
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	value := float64(n)
	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", value, byteUnits[unit])
}

// FormatDuration renders d as seconds with two decimals.
func FormatDuration(d time.Duration) string {
	return FormatSeconds(d.Seconds())
}

// FormatSeconds renders a second count with two decimals.
func FormatSeconds(s float64) string {
	return fmt.Sprintf("%.2fs", s)
}

func formatMs(ms float64) string {
	return fmt.Sprintf("%.2fms", ms)
}
