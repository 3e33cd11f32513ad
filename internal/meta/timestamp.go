package meta

import (
	"fmt"
	"strings"
	"time"
)

// FormatTimestamp renders t with a YYYY/MM/DD/HH/mm/ss token format. Other
// characters pass through unchanged.
func FormatTimestamp(t time.Time, format string) string {
	return strings.NewReplacer(
		"YYYY", fmt.Sprintf("%04d", t.Year()),
		"MM", fmt.Sprintf("%02d", int(t.Month())),
		"DD", fmt.Sprintf("%02d", t.Day()),
		"HH", fmt.Sprintf("%02d", t.Hour()),
		"mm", fmt.Sprintf("%02d", t.Minute()),
		"ss", fmt.Sprintf("%02d", t.Second()),
	).Replace(format)
}
