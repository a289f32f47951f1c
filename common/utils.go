package common

// Coalesce returns the first non-zero argument. It picks between layered settings such as a
// command-line flag, an environment variable and a built-in default.
//
// Parameters:
//   - values: candidates in priority order
//
// Returns:
//   - T: the first non-zero candidate, or the zero value if every candidate is zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Percent converts a byte count into a completion percentage.
//
// Parameters:
//   - loaded: bytes received so far
//   - total: expected size, 0 or negative when unknown
//
// Returns:
//   - float64: the percentage, capped at 100
//   - bool: false when total is unknown
func Percent(loaded, total int64) (float64, bool) {
	if total <= 0 {
		return 0, false
	}
	p := float64(loaded) / float64(total) * 100
	if p > 100 {
		p = 100
	}
	return p, true
}
