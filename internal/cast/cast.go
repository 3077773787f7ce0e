// Package cast provides tolerant conversions from raw registry cell values
// to typed domain values. Every function here is pure: bad input yields the
// documented fallback, never an error, so callers can apply the silent
// exclusion policy uniformly.
package cast

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"epipulse/pkg/contracts/domain"
)

// ISODateFormat is the calendar-date granularity used throughout the
// standardized output.
const ISODateFormat = "2006-01-02"

// dateLayouts are tried in order. Registry exports have shipped all of
// these at one point or another.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
}

// ParseDate parses a raw date cell into a calendar date, or nil when the
// cell is blank or does not parse. The returned date is truncated to day
// granularity in UTC; time-of-day never survives.
func ParseDate(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		return &day
	}
	return nil
}

// FormatDate renders a calendar date as an ISO-8601 date string.
func FormatDate(day time.Time) string {
	return day.Format(ISODateFormat)
}

// AgeGroup maps a raw numeric age to a decade band: "0-9" through "80-89",
// with "90-" open-ended at the top. Missing, non-numeric, negative, or
// implausible (>120) ages map to the explicit unknown band rather than a
// silent default.
func AgeGroup(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return domain.AgeBandUnknown
	}

	age, err := strconv.ParseFloat(value, 64)
	if err != nil || age < 0 || age > 120 {
		return domain.AgeBandUnknown
	}

	if age >= 90 {
		return "90-"
	}
	lo := (int(age) / 10) * 10
	return fmt.Sprintf("%d-%d", lo, lo+9)
}

// NormalizeSex lowercases and trims a free-text sex label.
func NormalizeSex(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
