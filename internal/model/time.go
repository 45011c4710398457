package model

import "strings"

// NoTimestamp is the persisted placeholder for a missing timestamp.
const NoTimestamp = "N/A"

// NormalizeTime rewrites an RFC3339 remote timestamp
// ("2024-03-01T10:20:30.000Z") into the persisted human form
// ("2024-03-01 10:20:30"). Empty input yields NoTimestamp.
func NormalizeTime(ts string) string {
	if ts == "" {
		return NoTimestamp
	}
	ts = strings.ReplaceAll(ts, "T", " ")
	ts = strings.ReplaceAll(ts, "Z", "")
	ts = strings.ReplaceAll(ts, ".000", "")
	return ts
}

// LaterTimestamp returns the greater of two normalized timestamps.
// Missing values (empty or NoTimestamp) never win: the watermark only
// advances on real observations. Normalized same-zone timestamps order
// correctly under plain string comparison.
func LaterTimestamp(a, b string) string {
	if b == "" || b == NoTimestamp {
		return a
	}
	if a == "" || a == NoTimestamp {
		return b
	}
	if b > a {
		return b
	}
	return a
}
