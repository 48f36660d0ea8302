package shared

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseYear reads a calendar year query value, falling back when empty.
func ParseYear(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	year, err := strconv.Atoi(value)
	if err != nil || year < 2000 || year > 2100 {
		return 0, fmt.Errorf("invalid year %q", value)
	}
	return year, nil
}
