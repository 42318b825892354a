package introspect

import (
	"regexp"
	"strconv"
	"strings"
)

var yearPattern = regexp.MustCompile(`[\(\[\s]((?:19|20)\d{2})[\)\]\s]?`)

// SplitTitleYear pulls a release year out of an extracted title such as
// "Nightfall (2019) clip", returning the cleaned title and the year, or the
// trimmed input and 0 when no year is embedded.
func SplitTitleYear(raw string) (string, int) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", 0
	}
	loc := yearPattern.FindStringSubmatchIndex(trimmed)
	if loc == nil {
		return trimmed, 0
	}
	year, err := strconv.Atoi(trimmed[loc[2]:loc[3]])
	if err != nil {
		return trimmed, 0
	}
	title := strings.TrimSpace(trimmed[:loc[0]])
	title = strings.Trim(title, "-–:|([")
	title = strings.TrimSpace(title)
	if title == "" {
		return trimmed, 0
	}
	return title, year
}
