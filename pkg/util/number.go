package util

import (
	"strconv"
	"strings"
)

// IntOr reads a base-10 int, falling back to def for blank or malformed input.
func IntOr(s string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return v
	}
	return def
}
