package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the exclusive upper bound of a clock time.
const MinutesPerDay = 24 * 60

// Interval is a span of minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// ExtractTime returns the "HH:MM" part of an ISO date-time string, or the
// input itself when it has no date part.
func ExtractTime(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[i+1:]
	}
	if len(s) > 5 {
		s = s[:5]
	}
	return s
}

// ExtractDate returns the "YYYY-MM-DD" part of an ISO date or date-time string.
func ExtractDate(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// ValidDate reports whether s starts with a parseable calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", ExtractDate(s))
	return err == nil
}

// ToMinutes converts "HH:MM" (or an ISO date-time) to minutes since midnight.
func ToMinutes(s string) (int, error) {
	t := ExtractTime(s)
	hh, mm, ok := strings.Cut(t, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", s)
	}
	if h*60+m > MinutesPerDay {
		return 0, fmt.Errorf("time %q is past midnight", s)
	}
	return h*60 + m, nil
}

// MustMinutes is ToMinutes for values that have already been validated.
func MustMinutes(s string) int {
	m, err := ToMinutes(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromMinutes formats minutes since midnight as zero-padded "HH:MM".
// Values past midnight are clamped to "24:00".
func FromMinutes(m int) string {
	if m < 0 {
		m = 0
	}
	if m > MinutesPerDay {
		m = MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// AddMinutes returns the clock time s shifted by minutes.
func AddMinutes(s string, minutes int) string {
	return FromMinutes(MustMinutes(s) + minutes)
}

// Overlaps reports whether two intervals overlap. Intervals sharing a start
// or an end overlap, as do intervals where one starts strictly inside the
// other. Intervals that only touch (a.End == b.Start) do not.
func Overlaps(a, b Interval) bool {
	if a.Start == b.Start || a.End == b.End {
		return true
	}
	if a.Start > b.Start && a.Start < b.End {
		return true
	}
	return b.Start > a.Start && b.Start < a.End
}

// Intersects is a half-open intersection test on clock times. The times are
// compared as minutes, so "9:00" and "09:00" are the same instant.
func Intersects(aStart, aEnd, bStart, bEnd string) bool {
	return MustMinutes(aStart) < MustMinutes(bEnd) && MustMinutes(aEnd) > MustMinutes(bStart)
}

// Later returns the later of two clock times. An empty string counts as
// unset.
func Later(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if MustMinutes(b) > MustMinutes(a) {
		return b
	}
	return a
}

// Normalize rewrites a clock time (or the time part of an ISO date-time) as
// zero-padded "HH:MM".
func Normalize(s string) (string, error) {
	m, err := ToMinutes(s)
	if err != nil {
		return "", err
	}
	return FromMinutes(m), nil
}
