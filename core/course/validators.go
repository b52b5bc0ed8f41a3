package course

import (
	"time"

	"github.com/trezcool/ratiba/core"
)

const dateLayout = "2006-01-02"

var (
	errEndBeforeStart = "end date must be on or after start date"
	errClearAndSet    = "cannot clear and set this field in the same update"
)

func (nc *NewCourse) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	return validateDates(nc.StartDate, nc.EndDate)
}

func (uc *UpdateCourse) Validate() error {
	uc.Name = core.CleanString(uc.Name)
	if err := core.Validate.Struct(uc); err != nil {
		return err
	}
	if uc.ClearEndDate && uc.EndDate != "" {
		return core.NewFieldError("end_date", errClearAndSet)
	}
	if uc.ClearNumLectures && uc.NumLectures != nil {
		return core.NewFieldError("num_lectures", errClearAndSet)
	}
	if uc.StartDate != "" && uc.EndDate != "" {
		return validateDates(uc.StartDate, uc.EndDate)
	}
	return nil
}

// validateDates checks that the (already format-validated) end date does not
// precede the start date.
func validateDates(start, end string) error {
	if end == "" {
		return nil
	}
	s, _ := time.Parse(dateLayout, start)
	e, _ := time.Parse(dateLayout, end)
	if e.Before(s) {
		return core.NewFieldError("end_date", errEndBeforeStart)
	}
	return nil
}
