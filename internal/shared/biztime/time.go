// Package biztime centralizes time handling. All storage and transport use
// UTC; implicit local-timezone reads are prohibited.
package biztime

import "time"

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatMetadataTime formats a UTC time using RFC3339 format.
// This ensures consistent timestamp serialization across the application.
func FormatMetadataTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
