package schedule

import "time"

// Weekday is the domain's own day-of-week numbering: the week starts on
// Saturday (= 0). This differs from the stdlib's time.Weekday (Sunday = 0);
// all calendar arithmetic must convert through CalendarDay/FromCalendarDay
// instead of inlining the offset.
type Weekday int

const (
	Saturday Weekday = iota
	Sunday
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
)

var weekdayNames = [7]string{"Saturday", "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

func (d Weekday) String() string {
	if !d.IsValid() {
		return "Weekday(?)"
	}
	return weekdayNames[d]
}

func (d Weekday) IsValid() bool {
	return Saturday <= d && d <= Friday
}

// CalendarDay converts a domain weekday to the stdlib representation.
func (d Weekday) CalendarDay() time.Weekday {
	return time.Weekday((int(d) + 6) % 7)
}

// FromCalendarDay converts a stdlib weekday to the domain representation.
func FromCalendarDay(w time.Weekday) Weekday {
	return Weekday((int(w) + 1) % 7)
}
