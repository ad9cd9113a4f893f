package clock

import (
	"fmt"
	"time"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Fixed is a Clock that always returns the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Hours is the store opening window evaluated at a fixed UTC offset.
type Hours struct {
	OpenHour    int
	CloseHour   int
	CloseMinute int
	Offset      time.Duration
}

func (h Hours) location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", int(h.Offset.Hours())), int(h.Offset.Seconds()))
}

// Local converts t to the store's wall clock.
func (h Hours) Local(t time.Time) time.Time {
	return t.In(h.location())
}

// IsOpen reports whether the store is open at t.
func (h Hours) IsOpen(t time.Time) bool {
	local := h.Local(t)
	hour, minute := local.Hour(), local.Minute()

	if hour < h.OpenHour {
		return false
	}
	if hour > h.CloseHour {
		return false
	}
	if hour == h.CloseHour && minute >= h.CloseMinute {
		return false
	}
	return true
}

// Describe renders the opening window, e.g. "9:00 a 18:30".
func (h Hours) Describe() string {
	return fmt.Sprintf("%d:00 a %d:%02d", h.OpenHour, h.CloseHour, h.CloseMinute)
}
