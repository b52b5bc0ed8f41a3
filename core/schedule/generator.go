package schedule

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Regenerate rederives the course's future lectures from its recurrence
// templates. Lectures dated before today, and any lecture with taken
// attendance, are never touched; numbering resumes after the highest
// preserved number so (course, number) stays unique and contiguous.
// The whole swap runs in one storage transaction, and runs are serialized
// per course, so re-running after every template edit is safe and
// idempotent.
//
// A course with neither an end date nor a target lecture count never
// generates; this is an explicit no-op, not an error.
func (svc *Service) Regenerate(ctx context.Context, courseID string) error {
	mu := svc.courseLock(courseID)
	mu.Lock()
	defer mu.Unlock()

	crs, err := svc.courseRepo.GetCourse(ctx, courseID)
	if err != nil {
		return errors.Wrap(err, "loading course")
	}
	if !crs.HasGenerationBound() {
		return nil
	}

	templates, err := svc.repo.QueryCourseTemplates(ctx, courseID)
	if err != nil {
		return errors.Wrap(err, "loading templates")
	}

	loc := svc.conf.Location()
	now := nowFunc().In(loc)
	today := DateOf(now)

	windowStart := today
	if start := DateOf(crs.StartDate.In(loc)); start.After(today) {
		windowStart = start
	}

	// termination: target count wins when both bounds are set
	countMode := crs.NumLectures != nil
	var target int
	var endBound time.Time
	if countMode {
		target = *crs.NumLectures
		endBound = windowStart.AddDate(svc.conf.GenerationHorizonYears, 0, 0)
	} else {
		endBound = DateOf(crs.EndDate.In(loc))
	}

	byDay := groupTemplatesByCalendarDay(templates)
	buffer := time.Duration(svc.conf.TodayStartBufferMin) * time.Minute

	var pastCount, createdCount int
	var lastDay time.Time

	_, err = svc.repo.ReplaceUpcoming(ctx, courseID, today, func(preserved []Lecture) ([]Lecture, error) {
		pastCount = len(preserved)
		next := maxLectureNumber(preserved) + 1
		created := time.Now().UTC()

		var out []Lecture
		it := newDateIter(windowStart, endBound)
		for {
			day, ok := it.next()
			if !ok {
				break
			}
			if countMode && pastCount+len(out) >= target {
				break
			}
			for _, tpl := range byDay[day.Weekday()] {
				if countMode && pastCount+len(out) >= target {
					break
				}
				// never fabricate a lecture for a near-past slot today
				if SameDate(day, today) && now.After(tpl.StartTime.On(day).Add(buffer)) {
					continue
				}
				start, end := tpl.StartTime, tpl.EndTime
				out = append(out, Lecture{
					CourseID:     courseID,
					Title:        defaultTitle(next),
					Day:          day,
					StartTime:    &start,
					EndTime:      &end,
					Number:       next,
					InstructorID: crs.InstructorID,
					Status:       StatusScheduled,
					CreatedAt:    created,
					UpdatedAt:    created,
				})
				lastDay = day
				next++
			}
		}
		createdCount = len(out)
		return out, nil
	})
	if err != nil {
		return errors.Wrap(err, "replacing upcoming lectures")
	}

	// persist derived schedule bounds (best effort, outside the swap)
	if countMode {
		if !lastDay.IsZero() {
			if err = svc.courseRepo.SetDerivedSchedule(ctx, courseID, lastDay, target); err != nil {
				svc.logger.Warn("persisting derived end date failed", err)
			}
		}
	} else if pastCount+createdCount > 0 {
		// a zero count would flip the course into count mode with target 0
		if err = svc.courseRepo.SetDerivedSchedule(ctx, courseID, endBound, pastCount+createdCount); err != nil {
			svc.logger.Warn("persisting derived lecture count failed", err)
		}
	}
	return nil
}

func defaultTitle(number int) string {
	return "Lecture " + strconv.Itoa(number)
}

// groupTemplatesByCalendarDay buckets templates by calendar weekday (via the
// codec), each bucket sorted by start time for deterministic same-day order.
func groupTemplatesByCalendarDay(templates []Template) map[time.Weekday][]Template {
	byDay := make(map[time.Weekday][]Template, len(templates))
	for _, tpl := range templates {
		wd := tpl.Weekday.CalendarDay()
		byDay[wd] = append(byDay[wd], tpl)
	}
	for wd := range byDay {
		group := byDay[wd]
		sort.Slice(group, func(i, j int) bool { return group[i].StartTime < group[j].StartTime })
	}
	return byDay
}

func maxLectureNumber(lectures []Lecture) int {
	var max int
	for _, lec := range lectures {
		if lec.Number > max {
			max = lec.Number
		}
	}
	return max
}
