package normalize

import (
	"strings"
	"time"

	"github.com/Sternrassler/epias-client/pkg/epias"
)

const dateLayout = "2006-01-02"

// Date-time layouts tried in order. Values without an offset are read in
// market time.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
}

// ParseTimestamp parses a wire date. Strings containing a T are read as
// date-times, anything else must be a plain date. The zero time and false
// are returned for unparseable input.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if strings.Contains(s, "T") {
		for _, layout := range dateTimeLayouts {
			if t, err := time.ParseInLocation(layout, s, epias.MarketLocation); err == nil {
				return t.In(epias.MarketLocation), true
			}
		}
		return time.Time{}, false
	}

	t, err := time.ParseInLocation(dateLayout, s, epias.MarketLocation)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// hourTimestamp is the start of the parent's day advanced by hour hours.
// An invalid parent stays invalid.
func hourTimestamp(parent time.Time, hour int) time.Time {
	if parent.IsZero() {
		return time.Time{}
	}
	y, m, d := parent.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, parent.Location()).Add(time.Duration(hour) * time.Hour)
}
