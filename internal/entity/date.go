package entity

import (
	"fmt"
	"time"
)

// timestampLayout is the only timestamp shape the service emits: millisecond
// precision and a numeric UTC offset ("Z" is rejected)
const timestampLayout = "2006-01-02T15:04:05.000-07:00"

// DateComponents holds the calendar fields of an instant, as seen from a
// location. Only the fields named by its component set are populated.
type DateComponents struct {
	set    Components
	loc    *time.Location
	year   int
	month  time.Month
	day    int
	hour   int
	minute int
	second int
}

// Set returns which fields are populated
func (c DateComponents) Set() Components { return c.set }

// Location returns the time zone the fields were projected into
func (c DateComponents) Location() *time.Location { return c.loc }

func (c DateComponents) Year() (int, bool)         { return c.year, c.set.Has(ComponentYear) }
func (c DateComponents) Month() (time.Month, bool) { return c.month, c.set.Has(ComponentMonth) }
func (c DateComponents) Day() (int, bool)          { return c.day, c.set.Has(ComponentDay) }
func (c DateComponents) Hour() (int, bool)         { return c.hour, c.set.Has(ComponentHour) }
func (c DateComponents) Minute() (int, bool)       { return c.minute, c.set.Has(ComponentMinute) }
func (c DateComponents) Second() (int, bool)       { return c.second, c.set.Has(ComponentSecond) }

// Equal compares two component sets field by field. Locations are compared by
// name, so two separately loaded copies of the same zone are equal.
func (c DateComponents) Equal(o DateComponents) bool {
	if c.set != o.set || locationName(c.loc) != locationName(o.loc) {
		return false
	}
	return c.year == o.year && c.month == o.month && c.day == o.day &&
		c.hour == o.hour && c.minute == o.minute && c.second == o.second
}

// Time rebuilds the earliest instant the components describe, filling absent
// fields with their minimum
func (c DateComponents) Time() time.Time {
	loc := c.loc
	if loc == nil {
		loc = time.UTC
	}
	month := c.month
	if !c.set.Has(ComponentMonth) {
		month = time.January
	}
	day := c.day
	if !c.set.Has(ComponentDay) {
		day = 1
	}
	return time.Date(c.year, month, day, c.hour, c.minute, c.second, 0, loc)
}

// String formats the populated fields, coarsest first, followed by the zone
func (c DateComponents) String() string {
	var s string
	switch {
	case c.set.Has(ComponentSecond):
		s = fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", c.year, c.month, c.day, c.hour, c.minute, c.second)
	case c.set.Has(ComponentMinute):
		s = fmt.Sprintf("%04d-%02d-%02dT%02d:%02d", c.year, c.month, c.day, c.hour, c.minute)
	case c.set.Has(ComponentHour):
		s = fmt.Sprintf("%04d-%02d-%02dT%02d", c.year, c.month, c.day, c.hour)
	case c.set.Has(ComponentDay):
		s = fmt.Sprintf("%04d-%02d-%02d", c.year, c.month, c.day)
	case c.set.Has(ComponentMonth):
		s = fmt.Sprintf("%04d-%02d", c.year, c.month)
	default:
		s = fmt.Sprintf("%04d", c.year)
	}
	if c.set.Has(ComponentTimeZone) {
		s += " " + locationName(c.loc)
	}
	return s
}

// materialize parses a service timestamp and projects it onto loc, keeping
// only the requested fields
func materialize(raw string, loc *time.Location, set Components) (DateComponents, error) {
	t, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return DateComponents{}, invalidDate(raw)
	}
	local := t.In(loc)

	c := DateComponents{set: set}
	if set.Has(ComponentTimeZone) {
		c.loc = loc
	}
	if set.Has(ComponentYear) {
		c.year = local.Year()
	}
	if set.Has(ComponentMonth) {
		c.month = local.Month()
	}
	if set.Has(ComponentDay) {
		c.day = local.Day()
	}
	if set.Has(ComponentHour) {
		c.hour = local.Hour()
	}
	if set.Has(ComponentMinute) {
		c.minute = local.Minute()
	}
	if set.Has(ComponentSecond) {
		c.second = local.Second()
	}
	return c, nil
}

func locationName(loc *time.Location) string {
	if loc == nil {
		return ""
	}
	return loc.String()
}
