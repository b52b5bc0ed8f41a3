package schedule

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
)

var (
	weekdayTag  = "weekday"
	weekdayText = "weekday must be between 0 (Saturday) and 6 (Friday)"

	timeOrderTag  = "timeorder"
	timeOrderText = "end time must be after start time"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(weekdayTag, weekdayValidation)
	core.RegisterCustomTranslation(weekdayTag, weekdayText)

	core.Validate.RegisterStructValidation(templateStructValidation, NewTemplate{})
	core.Validate.RegisterStructValidation(templateStructValidation, UpdateTemplate{})
	core.RegisterCustomTranslation(timeOrderTag, timeOrderText)
}

type NewTemplate struct {
	CourseID  string    `json:"course_id" validate:"required"`
	Weekday   Weekday   `json:"weekday" validate:"weekday"`
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
}

func (nt *NewTemplate) Validate() error {
	return core.Validate.Struct(nt)
}

type UpdateTemplate struct {
	Weekday   Weekday   `json:"weekday" validate:"weekday"`
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
}

func (ut *UpdateTemplate) Validate() error {
	return core.Validate.Struct(ut)
}

// UpdateLecture overrides a generated lecture's inherited times, title or
// instructor.
type UpdateLecture struct {
	Title        string     `json:"title"`
	StartTime    *TimeOfDay `json:"start_time"`
	EndTime      *TimeOfDay `json:"end_time"`
	InstructorID *string    `json:"instructor_id"`
}

func (ul *UpdateLecture) Validate() error {
	if ul.StartTime != nil && ul.EndTime != nil && *ul.EndTime <= *ul.StartTime {
		return core.NewFieldError("end_time", timeOrderText)
	}
	return nil
}

// Custom Validators

// weekdayValidation checks that the value is a valid domain weekday.
func weekdayValidation(fl validator.FieldLevel) bool {
	return Weekday(fl.Field().Int()).IsValid()
}

// templateStructValidation checks time coherence on template payloads.
func templateStructValidation(sl validator.StructLevel) {
	var start, end TimeOfDay
	switch tpl := sl.Current().Interface().(type) {
	case NewTemplate:
		start, end = tpl.StartTime, tpl.EndTime
	case UpdateTemplate:
		start, end = tpl.StartTime, tpl.EndTime
	default:
		return
	}
	if end <= start {
		sl.ReportError(end, "end_time", "EndTime", timeOrderTag, "")
	}
}
