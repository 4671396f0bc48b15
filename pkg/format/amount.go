package format

import "strings"

// FormatAmount reshapes raw keystroke text into a decimal string. Only
// digits and dots survive; the first dot is the decimal point and any later
// dots are dropped so their digits join the fractional part. Magnitude and
// sign are left to validation.
func FormatAmount(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)

	whole, frac, found := strings.Cut(cleaned, ".")
	if !found {
		return cleaned
	}
	return whole + "." + strings.ReplaceAll(frac, ".", "")
}
