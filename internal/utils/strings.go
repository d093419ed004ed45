package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// ParseIntCSV parses a comma-separated list of integers such as per-year funding levels
func ParseIntCSV(s string) ([]int, error) {
	parts := ParseCSV(s)
	if parts == nil {
		return nil, nil
	}
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("item %d (%q) is not an integer: %w", i+1, p, err)
		}
		out[i] = n
	}
	return out, nil
}
