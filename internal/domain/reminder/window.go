// internal/domain/reminder/window.go
package reminder

import "time"

// PostCourseDelayDays is how many days after the end date the post-course reminder goes out.
const PostCourseDelayDays = 7

// Day is a calendar day in a fixed location, as the half-open interval [Start, End).
type Day struct {
	Start time.Time
	End   time.Time
}

// DayOf returns the calendar day containing t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return Day{Start: start, End: start.AddDate(0, 0, 1)}
}

// AddDays shifts the day by n calendar days. DST transitions keep midnight boundaries.
func (d Day) AddDays(n int) Day {
	start := d.Start.AddDate(0, 0, n)
	return Day{Start: start, End: start.AddDate(0, 0, 1)}
}

// Contains reports whether the unix timestamp ts falls inside the day.
func (d Day) Contains(ts int64) bool {
	return ts >= d.Start.Unix() && ts < d.End.Unix()
}

func (d Day) String() string {
	return d.Start.Format("2006-01-02")
}

// InviteThreshold returns start + ceil((end-start) * 0.75), the instant at which
// three quarters of the course duration have elapsed.
func InviteThreshold(start, end int64) int64 {
	n := 3 * (end - start)
	q := n / 4 // truncation toward zero is the ceiling for negative n
	if n%4 > 0 {
		q++
	}
	return start + q
}

// HasValidDates reports whether both course dates are set.
func HasValidDates(start, end int64) bool {
	return start > 0 && end > 0
}

// InInviteWindow reports whether the 75% threshold falls on today.
func InInviteWindow(start, end int64, today Day) bool {
	return today.Contains(InviteThreshold(start, end))
}

// EndsOn reports whether the end timestamp falls on the calendar day.
func EndsOn(end int64, day Day) bool {
	return day.Contains(end)
}

// InPostCourseWindow reports whether the course ended exactly PostCourseDelayDays
// calendar days before today and had already started by today.
func InPostCourseWindow(start, end int64, today Day) bool {
	return start <= today.Start.Unix() && EndsOn(end, today.AddDays(-PostCourseDelayDays))
}

// InWindow applies the date predicate of the given stage. Courses without valid
// dates never match.
func InWindow(stage Stage, start, end int64, today Day) bool {
	if !HasValidDates(start, end) {
		return false
	}
	switch stage {
	case StageInvite:
		return InInviteWindow(start, end, today)
	case StageEndCourse:
		return EndsOn(end, today)
	case StagePostCourse:
		return InPostCourseWindow(start, end, today)
	}
	return false
}
