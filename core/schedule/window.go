package schedule

import "time"

// markingWindow is how far around a lecture's start attendance may legally be
// recorded.
const markingWindow = 24 * time.Hour

// CanMarkAttendance reports whether attendance may be recorded for the
// lecture at `now`. A lecture whose start is still in the future can never be
// marked; otherwise `now` must fall within 24 hours of the start (inclusive).
// Note the pre-start half of the window is unreachable given the future-start
// rule; it is kept to match the stated window bounds.
// An administrator may bypass this check entirely; that is the caller's call.
func (l Lecture) CanMarkAttendance(now time.Time) bool {
	start := l.StartDateTime()
	if start.After(now) {
		return false
	}
	windowStart := start.Add(-markingWindow)
	windowEnd := start.Add(markingWindow)
	return !now.Before(windowStart) && !now.After(windowEnd)
}
