package calibration

import "slices"

// Median returns the median of values: the middle element for an odd count,
// the mean of the two middle elements for an even count. ok is false when
// values is empty. values is not modified.
func Median(values []uint16) (median float64, ok bool) {
	n := len(values)
	if n == 0 {
		return 0, false
	}
	s := slices.Clone(values)
	slices.Sort(s)
	if n%2 == 1 {
		return float64(s[n/2]), true
	}
	return (float64(s[n/2-1]) + float64(s[n/2])) / 2, true
}
