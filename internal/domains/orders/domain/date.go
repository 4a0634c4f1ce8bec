package domain

import (
	"fmt"
	"strings"
)

// NormalizeDeliveryDate rewrites DD/MM/YYYY, DD-MM-YYYY, YYYY/MM/DD and YYYY-MM-DD into DD/MM/YYYY.
// A value that does not split into exactly three tokens normalizes to the empty string.
func NormalizeDeliveryDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '/' || r == '-' })
	if len(parts) != 3 || strings.Count(raw, "/")+strings.Count(raw, "-") != 2 {
		return ""
	}
	var day, month, year string
	if len(parts[0]) == 4 {
		year, month, day = parts[0], parts[1], parts[2]
	} else {
		day, month, year = parts[0], parts[1], parts[2]
	}
	return fmt.Sprintf("%s/%s/%s", padTwo(day), padTwo(month), year)
}

func padTwo(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}
