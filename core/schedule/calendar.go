package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// TimeOfDay is a wall-clock time with minute precision, independent of any
// date or zone. It marshals as "15:04" and maps to the SQL TIME type.
type TimeOfDay int // minutes since midnight

func NewTimeOfDay(hour, min int) TimeOfDay {
	return TimeOfDay(hour*60 + min)
}

// ParseTimeOfDay parses "15:04" (seconds, if present, are dropped).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	var hour, min int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &min); err != nil {
		return 0, errors.Errorf("invalid time of day %q", s)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, errors.Errorf("invalid time of day %q", s)
	}
	return NewTimeOfDay(hour, min), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On anchors the time of day on the given date, in the date's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location())
}

// Sub returns the duration from `other` to `t`.
func (t TimeOfDay) Sub(other TimeOfDay) time.Duration {
	return time.Duration(int(t)-int(other)) * time.Minute
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = tod
	return nil
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String() + ":00", nil
}

func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case time.Time:
		*t = NewTimeOfDay(v.Hour(), v.Minute())
	case []byte:
		tod, err := ParseTimeOfDay(string(v))
		if err != nil {
			return err
		}
		*t = tod
	case string:
		tod, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = tod
	default:
		return errors.Errorf("cannot scan %T into TimeOfDay", src)
	}
	return nil
}

// DateOf truncates `t` to midnight in its own location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// dateIter walks calendar dates from `from` to `to` (both inclusive),
// one day at a time.
type dateIter struct {
	cur, end time.Time
}

func newDateIter(from, to time.Time) *dateIter {
	return &dateIter{cur: DateOf(from), end: DateOf(to)}
}

func (it *dateIter) next() (time.Time, bool) {
	if it.cur.After(it.end) {
		return time.Time{}, false
	}
	day := it.cur
	it.cur = it.cur.AddDate(0, 0, 1)
	return day, true
}
