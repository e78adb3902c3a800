package entity

// Grain is the resolution of a single time value
type Grain string

const (
	GrainYear   Grain = "year"
	GrainMonth  Grain = "month"
	GrainDay    Grain = "day"
	GrainHour   Grain = "hour"
	GrainMinute Grain = "minute"
	GrainSecond Grain = "second"
)

// ParseGrain maps a wire token to a Grain
func ParseGrain(s string) (Grain, bool) {
	switch g := Grain(s); g {
	case GrainYear, GrainMonth, GrainDay, GrainHour, GrainMinute, GrainSecond:
		return g, true
	}
	return "", false
}

// Components is a set of calendar fields
type Components uint8

const (
	ComponentTimeZone Components = 1 << iota
	ComponentYear
	ComponentMonth
	ComponentDay
	ComponentHour
	ComponentMinute
	ComponentSecond
)

// Has reports whether every field in c is also in s
func (s Components) Has(c Components) bool {
	return s&c == c
}

// Components returns the calendar fields a value of this grain carries:
// the time zone plus every field down to and including the grain itself.
func (g Grain) Components() Components {
	set := ComponentTimeZone | ComponentYear
	switch g {
	case GrainYear:
		return set
	case GrainMonth:
		return set | ComponentMonth
	case GrainDay:
		return set | ComponentMonth | ComponentDay
	case GrainHour:
		return set | ComponentMonth | ComponentDay | ComponentHour
	case GrainMinute:
		return set | ComponentMonth | ComponentDay | ComponentHour | ComponentMinute
	case GrainSecond:
		return set | ComponentMonth | ComponentDay | ComponentHour | ComponentMinute | ComponentSecond
	}
	return 0
}
