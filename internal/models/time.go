package models

import (
	"fmt"
	"time"
)

// Timestamps are written as RFC 3339 in UTC. Files produced by older
// deployments may carry offsets other than Z or no zone at all; zone-less
// values are read as UTC.
var stampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// NowStamp returns the current time as a persisted timestamp.
func NowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Stamp formats t as a persisted timestamp.
func Stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseStamp parses a persisted timestamp, tolerating the formats described
// above.
func ParseStamp(s string) (time.Time, error) {
	for _, layout := range stampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
