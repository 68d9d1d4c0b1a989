package display

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration spells out a duration as hours, minutes and seconds,
// e.g. "1 Hour, 2 Minutes, 5 Seconds". Hours and minutes are omitted
// when zero; seconds always appear, even as "0 Seconds". A unit value of
// exactly 1 takes the singular label and every other value the plural,
// so zero pluralizes.
func FormatDuration(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	total %= 3600
	minutes := total / 60
	seconds := total % 60

	var b strings.Builder
	if hours != 0 {
		fmt.Fprintf(&b, "%d Hour", hours)
		if hours != 1 {
			b.WriteByte('s')
		}
		b.WriteString(", ")
	}
	if minutes != 0 {
		fmt.Fprintf(&b, "%d Minute", minutes)
		if minutes != 1 {
			b.WriteByte('s')
		}
		b.WriteString(", ")
	}
	fmt.Fprintf(&b, "%d Second", seconds)
	if seconds != 1 {
		b.WriteByte('s')
	}
	return b.String()
}
