// Package service implements the dashboard tools on top of the static catalog.
package service

import (
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders v as the shortest decimal that round-trips, keeping a
// trailing ".0" on integral values and switching to exponent form outside
// [1e-4, 1e16). This is the representation swap amounts have always used.
func FormatFloat(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
