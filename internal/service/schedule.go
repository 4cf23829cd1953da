package service

import (
	"strconv"
	"strings"
)

// daySchedule is a parsed section descriptor: a weekday plus a time interval
// in minutes since midnight. The interval is half-open [Start, End).
type daySchedule struct {
	Day   string
	Start int
	End   int
}

var weekdays = map[string]string{
	"mon": "mon", "monday": "mon",
	"tue": "tue", "tues": "tue", "tuesday": "tue",
	"wed": "wed", "wednesday": "wed",
	"thu": "thu", "thur": "thu", "thurs": "thu", "thursday": "thu",
	"fri": "fri", "friday": "fri",
	"sat": "sat", "saturday": "sat",
	"sun": "sun", "sunday": "sun",
}

// parseSchedule reads a "Day HH:MM-HH:MM" descriptor (hours alone are also
// accepted, e.g. "Mon 9-11"). The boolean result is false for anything
// malformed; callers treat that as "no schedule" rather than an error.
func parseSchedule(raw string) (daySchedule, bool) {
	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return daySchedule{}, false
	}

	day, ok := weekdays[strings.ToLower(fields[0])]
	if !ok {
		return daySchedule{}, false
	}

	parts := strings.SplitN(fields[1], "-", 2)
	if len(parts) != 2 {
		return daySchedule{}, false
	}
	start, ok := parseClock(parts[0])
	if !ok {
		return daySchedule{}, false
	}
	end, ok := parseClock(parts[1])
	if !ok || end <= start {
		return daySchedule{}, false
	}

	return daySchedule{Day: day, Start: start, End: end}, true
}

func parseClock(raw string) (int, bool) {
	hh, mm := raw, "0"
	if idx := strings.IndexByte(raw, ':'); idx >= 0 {
		hh, mm = raw[:idx], raw[idx+1:]
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// SchedulesConflict reports whether two section descriptors overlap: same day
// and intersecting half-open intervals, so back-to-back sections do not
// conflict. Malformed or missing schedule data yields false: bad catalog
// data never blocks admission. Known risk, kept permissive on purpose.
func SchedulesConflict(a, b string) bool {
	sa, ok := parseSchedule(a)
	if !ok {
		return false
	}
	sb, ok := parseSchedule(b)
	if !ok {
		return false
	}
	if sa.Day != sb.Day {
		return false
	}
	return sa.Start < sb.End && sb.Start < sa.End
}
