package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fighter"
)

// Sources sometimes append a no-contest note, e.g. "21-1-1 (1 NC)".
var recordSuffixRegex = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// ParseRecord parses a "W-L-D" record line. Missing components default to
// zero; non-numeric components are malformed.
func ParseRecord(raw string) (fighter.Record, error) {
	trimmed := strings.TrimSpace(recordSuffixRegex.ReplaceAllString(raw, ""))
	if trimmed == "" {
		return fighter.Record{}, fmt.Errorf("%w: empty record", ErrMalformedInput)
	}

	parts := strings.Split(trimmed, "-")
	if len(parts) > 3 {
		return fighter.Record{}, fmt.Errorf("%w: record %q has too many components", ErrMalformedInput, raw)
	}

	var values [3]int
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 {
			return fighter.Record{}, fmt.Errorf("%w: record %q component %q is not a number", ErrMalformedInput, raw, part)
		}
		values[i] = value
	}

	return fighter.Record{Wins: values[0], Losses: values[1], Draws: values[2]}, nil
}
