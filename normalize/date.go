package normalize

import (
	"strconv"
	"time"
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// WordPress `date` has no zone; `date_gmt` and feeds use RFC 3339.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses the timestamp formats WordPress emits.
func ParseDate(iso string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders iso as "March 5, 2024". The calendar date is read as
// written in the timestamp, so the result does not depend on the local
// zone. Unparseable input is returned unchanged.
func FormatDate(iso string) string {
	t, ok := ParseDate(iso)
	if !ok {
		return iso
	}
	return monthNames[t.Month()-1] + " " + strconv.Itoa(t.Day()) + ", " + strconv.Itoa(t.Year())
}
