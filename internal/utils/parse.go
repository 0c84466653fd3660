package utils

import (
	"strconv"
)

// ParseID parses a decimal row id from a URL segment. Anything that is not a
// positive integer comes back as 0.
func ParseID(s string) uint {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

// ParseIntDefault parses s, falling back to def on empty or junk input.
func ParseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
