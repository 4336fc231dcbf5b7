package util

import (
	"time"
)

// dateLayouts covers the timestamp shapes seen across source APIs.
var dateLayouts = []string{
	"2006/01/02 15:04:05 -0700",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"2006-01-02",
	"20060102",
}

// UnifiedStrdate normalizes a source-provided timestamp to YYYYMMDD, or "" if no known layout
// matches.
func UnifiedStrdate(value string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("20060102")
		}
	}
	return ""
}
