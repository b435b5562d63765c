package event

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrBadClock is returned when a wall-clock spec cannot be parsed.
var ErrBadClock = errors.New("event: bad clock spec")

// ParseClock interprets an "HH:MM" spec as that time of day on now's date,
// in now's location. Single-digit hours are accepted ("7:30").
func ParseClock(spec string, now time.Time) (time.Time, error) {
	hh, mm, ok := splitClock(spec)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q (want HH:MM)", ErrBadClock, spec)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, now.Location()), nil
}

func splitClock(spec string) (hh, mm int, ok bool) {
	h, m, found := strings.Cut(strings.TrimSpace(spec), ":")
	if !found {
		return 0, 0, false
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return 0, 0, false
	}
	mm, err = strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, 0, false
	}
	return hh, mm, true
}

// UnixSeconds converts a time to float seconds since the epoch. Seconds
// and nanoseconds are combined separately; a single UnixNano conversion
// would overflow float64's integer range and lose sub-second precision.
func UnixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

// TimeFromUnix converts float seconds since the epoch back to a time in
// loc. It is the inverse of UnixSeconds up to nanosecond resolution.
func TimeFromUnix(unix float64, loc *time.Location) time.Time {
	sec, frac := math.Modf(unix)
	return time.Unix(int64(sec), int64(math.Round(frac*float64(time.Second)))).In(loc)
}
