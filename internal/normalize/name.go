package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

// Nicknames appear inline between straight or curly double quotes,
// e.g. `Israel "The Last Stylebender" Adesanya`.
var nicknameRegex = regexp.MustCompile(`["\x{201C}\x{201D}]([^"\x{201C}\x{201D}]+)["\x{201C}\x{201D}]`)

// SplitName separates a display name into first name, last name and
// nickname. A single remaining token yields an empty last name; that is a
// documented edge case, not an error.
func SplitName(raw string) (first, last, nickname string, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", "", fmt.Errorf("%w: empty fighter name", ErrMalformedInput)
	}

	if match := nicknameRegex.FindStringSubmatch(trimmed); len(match) == 2 {
		nickname = strings.TrimSpace(match[1])
		trimmed = strings.TrimSpace(strings.Replace(trimmed, match[0], " ", 1))
	}

	parts := strings.Fields(trimmed)
	if len(parts) == 0 {
		return "", "", "", fmt.Errorf("%w: name %q is only a nickname", ErrMalformedInput, raw)
	}

	first = parts[0]
	if len(parts) > 1 {
		last = strings.Join(parts[1:], " ")
	}
	return first, last, nickname, nil
}
