package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trezcool/ratiba/core/schedule"
)

var (
	// errors
	ErrRecordNotFound = errors.New("attendance record not found")
	ErrShiftNotFound  = errors.New("supervisor shift not found")
	ErrDeviceNotFound = errors.New("attendance device not found")
	ErrShiftExists    = errors.New("a shift for this instructor and weekday already exists")
)

// Attendance record statuses
const (
	StatusNotStarted = "not_started"
	StatusPending    = "pending"
	StatusPresent    = "present"
	StatusLate       = "late"
	StatusAbsent     = "absent"
)

// Check-in methods
const (
	MethodFingerprint = "fingerprint"
	MethodRFID        = "rfid"
	MethodQRCode      = "qr_code"
	MethodMobileApp   = "mobile_app"
	MethodAdmin       = "admin"
)

// Device kinds
const (
	DeviceRFID        = "rfid"
	DeviceBiometric   = "biometric"
	DeviceQRCode      = "qr_code"
	DeviceMobileApp   = "mobile_app"
	DeviceFingerprint = "finger_print"
)

// Shift is a supervisor's recurring weekly duty period; the instructor-presence
// analogue of a recurrence template. Unique per (instructor, weekday).
type Shift struct {
	ID           string             `json:"id"`
	InstructorID string             `json:"instructor_id"`
	Weekday      schedule.Weekday   `json:"weekday"`
	StartTime    schedule.TimeOfDay `json:"start_time"`
	EndTime      schedule.TimeOfDay `json:"end_time"`

	GracePeriodMin     int `json:"grace_period_minutes"`      // default 20
	AutoAbsentAfterMin int `json:"auto_absent_after_minutes"` // default 60
}

func (s Shift) String() string {
	return fmt.Sprintf("%s: %s %s-%s", s.InstructorID, s.Weekday, s.StartTime, s.EndTime)
}

// Record tracks one instructor's attendance for one calendar date
// (check-in/check-out, lateness, absence, daily rating).
type Record struct {
	ID           string    `json:"id"`
	InstructorID string    `json:"instructor_id"`
	Date         time.Time `json:"date"` // local date, midnight

	CheckInTime   *time.Time `json:"check_in_time"`
	CheckOutTime  *time.Time `json:"check_out_time"`
	CheckInMethod string     `json:"check_in_method"` // fingerprint, rfid, admin...
	DeviceID      *string    `json:"check_in_device_id"`

	Status string `json:"status"`

	// linked duty: a supervisor shift, or the lecture the instructor is
	// assigned to that day. Both may be unset.
	ShiftID   *string `json:"shift_id"`
	LectureID *string `json:"lecture_id"`

	Rating    *int    `json:"rating"` // 1-10
	RatedByID *string `json:"rated_by_id"`
	Notes     string  `json:"notes"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (r Record) String() string {
	return fmt.Sprintf("%s: %s on %s", r.InstructorID, r.Status, r.Date.Format("2006-01-02"))
}

// Device is a registered check-in device (RFID reader, fingerprint scanner...).
type Device struct {
	ID       string `json:"id"`
	DeviceID string `json:"device_id"` // external identifier, unique
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Location string `json:"location"`
	IsActive bool   `json:"is_active"`
}

// JobLog records one run of a batch job (generate-ahead, mark-absent).
type JobLog struct {
	ID      string    `json:"id"`
	JobName string    `json:"job_name"`
	RunAt   time.Time `json:"run_at"` // UTC
	Details string    `json:"details"`
}

type (
	Repository interface {
		CreateShift(ctx context.Context, sh Shift) (Shift, error)
		GetShift(ctx context.Context, id string) (Shift, error)
		QueryShiftsByWeekday(ctx context.Context, wd schedule.Weekday) ([]Shift, error)
		QueryInstructorShifts(ctx context.Context, instructorID string) ([]Shift, error)
		UpdateShift(ctx context.Context, sh Shift) (Shift, error)
		DeleteShift(ctx context.Context, id string) error

		// GetOrCreateRecord inserts the record unless one already exists for
		// its (instructor, date); an existing record's accumulated state is
		// never overwritten. The bool reports whether a row was created.
		GetOrCreateRecord(ctx context.Context, rec Record) (Record, bool, error)
		GetRecord(ctx context.Context, id string) (Record, error)
		GetRecordByInstructorDate(ctx context.Context, instructorID string, date time.Time) (Record, error)
		QueryRecordsByDate(ctx context.Context, date time.Time) ([]Record, error)
		UpdateRecord(ctx context.Context, rec Record) (Record, error)
		// MarkAbsentByDate sweeps every record on `date` whose status is in
		// `statuses` to absent, in one batch update; returns the number swept.
		MarkAbsentByDate(ctx context.Context, date time.Time, statuses ...string) (int, error)

		GetDeviceByDeviceID(ctx context.Context, deviceID string) (Device, error)
		CreateDevice(ctx context.Context, dev Device) (Device, error)
		QueryAllDevices(ctx context.Context) ([]Device, error)

		CreateJobLog(ctx context.Context, jl JobLog) (JobLog, error)
		QueryJobLogs(ctx context.Context, jobName string) ([]JobLog, error)
	}

	// LectureSource is the narrow schedule access the attendance engine
	// needs. Satisfied by schedule.Repository.
	LectureSource interface {
		QueryLecturesByDay(ctx context.Context, day time.Time) ([]schedule.Lecture, error)
	}
)
