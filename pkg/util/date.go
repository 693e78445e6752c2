package util

import (
	"strconv"
	"time"
	_ "time/tzdata"
)

// ParseTime tries RFC3339, RFC3339Nano, unix seconds and unix milliseconds.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		if ts >= 1e12 {
			return time.UnixMilli(ts), true
		}
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// LoadLocation resolves an IANA zone name, falling back to UTC for an empty name.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// TimeframeLabel renders a bar length in seconds the way chart alerts name it:
// whole minutes as "5", anything else as seconds ("30s").
func TimeframeLabel(seconds int) string {
	if seconds > 0 && seconds%60 == 0 {
		return strconv.Itoa(seconds / 60)
	}
	return strconv.Itoa(seconds) + "s"
}
