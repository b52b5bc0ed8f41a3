package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// errors
	ErrTemplateNotFound = errors.New("recurrence template not found")
	ErrLectureNotFound  = errors.New("lecture not found")
)

// Lecture lifecycle statuses
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// allowedTransitions maps a lecture status to the statuses it may move to.
var allowedTransitions = map[string][]string{
	StatusScheduled: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

func IsValidStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

// CanTransition reports whether a lecture may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Template is a weekly recurrence rule (weekday + time range) from which a
// course's lectures are derived. Every mutation reruns generation for its
// course.
type Template struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Weekday   Weekday   `json:"weekday"`
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Lecture is one concrete, dated occurrence of a recurring course meeting.
type Lecture struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Title    string `json:"title"`

	Day       time.Time  `json:"day"` // local date, midnight
	StartTime *TimeOfDay `json:"start_time"`
	EndTime   *TimeOfDay `json:"end_time"`

	// Number is unique and contiguous (from 1) within a course.
	Number int `json:"number"`

	InstructorID    *string   `json:"instructor_id"`
	Status          string    `json:"status"`
	AttendanceTaken bool      `json:"attendance_taken"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// StartDateTime returns the lecture's start instant; falls back to the start
// of its day when no time is set.
func (l Lecture) StartDateTime() time.Time {
	if l.StartTime != nil {
		return l.StartTime.On(l.Day)
	}
	return DateOf(l.Day)
}

// EndDateTime returns the lecture's end instant; falls back to the end of its
// day when no time is set.
func (l Lecture) EndDateTime() time.Time {
	if l.EndTime != nil {
		return l.EndTime.On(l.Day)
	}
	return DateOf(l.Day).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// Duration returns the lecture duration, or 0 when either time is unset.
func (l Lecture) Duration() time.Duration {
	if l.StartTime == nil || l.EndTime == nil {
		return 0
	}
	return l.EndTime.Sub(*l.StartTime)
}

func (l Lecture) String() string {
	title := l.Title
	if title == "" {
		title = fmt.Sprintf("Lecture %d", l.Number)
	}
	return fmt.Sprintf("%s @ %s", title, l.Day.Format("2006-01-02"))
}

type (
	Repository interface {
		CreateTemplate(ctx context.Context, tpl Template) (Template, error)
		GetTemplate(ctx context.Context, id string) (Template, error)
		QueryCourseTemplates(ctx context.Context, courseID string) ([]Template, error)
		UpdateTemplate(ctx context.Context, tpl Template) (Template, error)
		DeleteTemplate(ctx context.Context, id string) error

		GetLecture(ctx context.Context, id string) (Lecture, error)
		// QueryLectures returns a course's lectures within [from, to]
		// (zero bounds are open), ordered by day then start time.
		QueryLectures(ctx context.Context, courseID string, from, to time.Time) ([]Lecture, error)
		// QueryLecturesByDay returns all courses' lectures on the given date.
		QueryLecturesByDay(ctx context.Context, day time.Time) ([]Lecture, error)
		UpdateLecture(ctx context.Context, lec Lecture) (Lecture, error)
		DeleteLecture(ctx context.Context, id string) error

		// ReplaceUpcoming atomically deletes the course's future lectures
		// (day >= from, attendance-taken ones excluded), hands the preserved
		// set to `build`, and inserts the lectures it returns. Either the full
		// swap commits or none of it does.
		ReplaceUpcoming(ctx context.Context, courseID string, from time.Time,
			build func(preserved []Lecture) ([]Lecture, error)) ([]Lecture, error)
	}
)
