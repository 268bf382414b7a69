package utils

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are the timestamp formats seen across news providers:
// RSS feeds (RFC1123 and RFC 822 with a one digit day), NewsAPI (RFC3339)
// and AlphaVantage (compact "20060102T150405").
var dateLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"20060102T150405",
	"20060102T1504",
}

// ParseDate parses a date string or a unix timestamp into a time.Time object in UTC.
func ParseDate(dateString Datable) (time.Time, error) {
	var timestamp int64
	switch dateString := dateString.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return dateString.UTC(), nil
	case *time.Time:
		if dateString == nil {
			return time.Time{}, nil
		}
		return dateString.UTC(), nil
	case string:
		if dateString == "" {
			return time.Time{}, nil
		}

		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, dateString); err == nil {
				return parsed.UTC(), nil
			}
		}

		return time.Time{}, fmt.Errorf("error parsing date: %s", dateString)
	case int:
		timestamp = int64(dateString)
	case int32:
		timestamp = int64(dateString)
	case int64:
		timestamp = dateString
	case float64:
		timestamp = int64(dateString)
	default:
		return time.Time{}, fmt.Errorf("unknown type: %T of value %v", dateString, dateString)
	}

	if timestamp == 0 {
		return time.Time{}, nil
	}

	// If Unix milliseconds - convert to seconds
	if timestamp > 9999999999 {
		return time.Unix(timestamp/1000, 0).UTC(), nil
	}
	return time.Unix(timestamp, 0).UTC(), nil
}

// Datable is a type that can be parsed into a date (hopefully).
type Datable interface{}

// StrValueToFloat parses provider numbers sent as strings ("150.25", "1,35", "1.35%").
// Anything unparsable is 0.
func StrValueToFloat(value string) float64 {
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "%"))
	var result float64
	_, err := fmt.Sscanf(strings.ReplaceAll(value, ",", "."), "%f", &result)
	if err != nil {
		return 0
	}
	return result
}

// Truncate cuts s to at most n runes and marks the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
