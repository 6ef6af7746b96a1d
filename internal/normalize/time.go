package normalize

import (
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
	"2006-01-02T15:04:05Z07:00",
}

var clockLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"15:04",
	"3 PM",
	"3PM",
}

// ResolveLocalTime converts a source-local date and clock string to UTC.
//
// The offset is found by a round trip rather than a zone-offset table:
// build a provisional instant reading the literal local fields as UTC,
// observe the wall-clock that instant maps to inside the target zone, and
// shift by the discrepancy. The zone database then accounts for daylight
// saving on the event's own date. An empty clock resolves to local midnight.
func ResolveLocalTime(dateText, clockText, tzName string) (time.Time, error) {
	year, month, day, err := parseDateParts(dateText)
	if err != nil {
		return time.Time{}, err
	}

	hour, minute := 0, 0
	if clock := strings.TrimSpace(clockText); clock != "" {
		hour, minute, err = parseClock(clock)
		if err != nil {
			return time.Time{}, err
		}
	}

	locName := strings.TrimSpace(tzName)
	if locName == "" {
		locName = "UTC"
	}
	loc, err := time.LoadLocation(locName)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unknown timezone %q", ErrMalformedInput, tzName)
	}

	provisional := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	wall := provisional.In(loc)
	literalWall := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), 0, 0, time.UTC)

	return provisional.Add(provisional.Sub(literalWall)).UTC(), nil
}

func parseDateParts(raw string) (int, time.Month, int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, 0, 0, fmt.Errorf("%w: empty event date", ErrMalformedInput)
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.Year(), parsed.Month(), parsed.Day(), nil
		}
	}
	return 0, 0, 0, fmt.Errorf("%w: unparseable event date %q", ErrMalformedInput, raw)
}

func parseClock(raw string) (int, int, error) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	for _, layout := range clockLayouts {
		if parsed, err := time.Parse(layout, upper); err == nil {
			return parsed.Hour(), parsed.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("%w: unparseable clock %q", ErrMalformedInput, raw)
}
