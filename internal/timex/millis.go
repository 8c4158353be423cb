package timex

import "time"

// isoLayout always renders exactly three fractional digits and a Z suffix.
const isoLayout = "2006-01-02T15:04:05.000Z"

// NowMillis returns the current wall-clock time in epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// ToISO formats epoch milliseconds as a UTC ISO-8601 string.
func ToISO(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(isoLayout)
}

// ParseISO converts an RFC 3339 timestamp to epoch milliseconds.
func ParseISO(s string) (int64, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// FromISO is ParseISO that yields 0 for unparsable input.
func FromISO(s string) int64 {
	ms, err := ParseISO(s)
	if err != nil {
		return 0
	}
	return ms
}
