package util

import (
	"fmt"
	"time"
)

// FormatElapsed renders a duration for log and CLI output with a
// resolution that matches its magnitude.
func FormatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

// CurrentYear is the reference year for lifespan arithmetic on living
// subjects.
func CurrentYear() int {
	return time.Now().Year()
}
