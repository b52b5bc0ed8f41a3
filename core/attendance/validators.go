package attendance

import (
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
)

func init() {
	core.RegisterStringChoices("devicekind", DeviceRFID, DeviceBiometric, DeviceQRCode, DeviceMobileApp, DeviceFingerprint)
	core.RegisterCustomTranslation("devicekind", "invalid device kind")
	core.RegisterStringChoices("checkinmethod", MethodFingerprint, MethodRFID, MethodQRCode, MethodMobileApp, MethodAdmin)
	core.RegisterCustomTranslation("checkinmethod", "invalid check-in method")
}

type NewShift struct {
	InstructorID       string             `json:"instructor_id" validate:"required"`
	Weekday            schedule.Weekday   `json:"weekday" validate:"weekday"`
	StartTime          schedule.TimeOfDay `json:"start_time"`
	EndTime            schedule.TimeOfDay `json:"end_time"`
	GracePeriodMin     int                `json:"grace_period_minutes" validate:"omitempty,min=0"`
	AutoAbsentAfterMin int                `json:"auto_absent_after_minutes" validate:"omitempty,min=0"`
}

func (s *NewShift) Validate() error {
	if err := core.Validate.Struct(s); err != nil {
		return err
	}
	if s.EndTime <= s.StartTime {
		return core.NewFieldError("end_time", "end time must be after start time")
	}
	return nil
}

type UpdateShift struct {
	StartTime          *schedule.TimeOfDay `json:"start_time"`
	EndTime            *schedule.TimeOfDay `json:"end_time"`
	GracePeriodMin     *int                `json:"grace_period_minutes" validate:"omitempty,min=0"`
	AutoAbsentAfterMin *int                `json:"auto_absent_after_minutes" validate:"omitempty,min=0"`
}

func (s *UpdateShift) Validate() error {
	if err := core.Validate.Struct(s); err != nil {
		return err
	}
	if s.StartTime != nil && s.EndTime != nil && *s.EndTime <= *s.StartTime {
		return core.NewFieldError("end_time", "end time must be after start time")
	}
	return nil
}

type CheckInRequest struct {
	InstructorID string `json:"instructor_id" validate:"required"`
	Method       string `json:"method" validate:"required,checkinmethod"`
	DeviceID     string `json:"device_id"` // external device identifier; optional for admin
	LectureID    string `json:"lecture_id"`
	Notes        string `json:"notes"`
}

func (r *CheckInRequest) Validate() error { return core.Validate.Struct(r) }

type CheckOutRequest struct {
	InstructorID string `json:"instructor_id" validate:"required"`
}

func (r *CheckOutRequest) Validate() error { return core.Validate.Struct(r) }

type RateRequest struct {
	Rating    int    `json:"rating" validate:"rating"`
	RatedByID string `json:"rated_by_id" validate:"required"`
	Notes     string `json:"notes"`
}

func (r *RateRequest) Validate() error { return core.Validate.Struct(r) }

type NewDevice struct {
	DeviceID string `json:"device_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Kind     string `json:"kind" validate:"required,devicekind"`
	Location string `json:"location"`
}

func (d *NewDevice) Validate() error { return core.Validate.Struct(d) }
