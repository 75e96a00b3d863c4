package util

import (
	"math"
	"strconv"
	"strings"
)

// ParseFinite parses a decimal string. Placeholders such as "." and
// NaN or Inf values report false.
func ParseFinite(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
