package util

import "time"

// TimestampLayout is the ISO-8601 UTC form stored for created_at and sold_at.
const TimestampLayout = "2006-01-02T15:04:05Z"

// FormatTimestamp renders t in UTC with second precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
