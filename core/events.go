package core

import "time"

// AttendanceEvent is published whenever an instructor attendance record
// changes state (check-in, check-out). It is consumed by the real-time
// notification layer; delivery is best-effort, at-most-once.
type AttendanceEvent struct {
	InstructorID string    `json:"instructor_id"`
	RecordID     string    `json:"record_id"`
	Status       string    `json:"status"`
	Date         string    `json:"date"`
	Time         time.Time `json:"time"`
}

// EventService is any service that can broadcast attendance events to live
// subscribers. Publishing must be fire-and-forget: a delivery failure never
// fails the state transition that produced the event.
type EventService interface {
	// Publish sends events concurrently
	Publish(events ...*AttendanceEvent)
}
