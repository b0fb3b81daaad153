package layout

import "math"

// PackLabel truncates name to floor(r/3) characters.
func PackLabel(name string, r float64) string {
	return truncate(name, int(math.Floor(r/PackLabelDivisor)))
}

// ForceLabel truncates name to floor(r/4) characters and hides labels on
// bubbles smaller than ForceMinLabelR.
func ForceLabel(name string, r float64) string {
	if r < ForceMinLabelR {
		return ""
	}
	return truncate(name, int(math.Floor(r/ForceLabelDivisor)))
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
