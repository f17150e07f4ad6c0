package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// placeNameRe allows letters, digits, spaces, hyphens, periods and apostrophes.
var placeNameRe = regexp.MustCompile(`^[-.\p{L}0-9' ]+$`)

// ParseLocation splits "City, Country" input. Anything after the first comma
// is the country, so "Springfield, Illinois, United States" keeps its region.
func ParseLocation(input string) (city, country string, err error) {
	var parts []string
	for _, p := range strings.Split(input, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return "", "", fmt.Errorf(`%w: location %q must look like "City, Country"`, ErrInvalidQuery, input)
	}
	for _, p := range parts {
		if !placeNameRe.MatchString(p) {
			return "", "", fmt.Errorf("%w: invalid place name %q", ErrInvalidQuery, p)
		}
	}
	return parts[0], strings.Join(parts[1:], ", "), nil
}
