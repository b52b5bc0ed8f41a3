package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/course"
)

var nowFunc = time.Now // mockable

var (
	errAttendanceTaken   = "cannot delete a lecture with taken attendance"
	errOutsideWindow     = "attendance can only be marked from the lecture start until 24 hours after"
	errInvalidTransition = "cannot transition from %s to %s"
	errInvalidStatus     = "invalid status: %s"
)

type (
	// CourseRepository is the narrow course access the scheduler needs.
	// Satisfied by course.Repository.
	CourseRepository interface {
		GetCourse(ctx context.Context, id string) (course.Course, error)
		SetDerivedSchedule(ctx context.Context, id string, endDate time.Time, numLectures int) error
	}

	Service struct {
		repo       Repository
		courseRepo CourseRepository
		logger     core.Logger
		conf       *core.Config

		// locks serializes regenerations per course; see Regenerate.
		locks struct {
			sync.Mutex
			m map[string]*sync.Mutex
		}
	}
)

func NewService(repo Repository, courseRepo CourseRepository, logger core.Logger, conf *core.Config) *Service {
	svc := &Service{
		repo:       repo,
		courseRepo: courseRepo,
		logger:     logger,
		conf:       conf,
	}
	svc.locks.m = make(map[string]*sync.Mutex)
	return svc
}

func (svc *Service) courseLock(courseID string) *sync.Mutex {
	svc.locks.Lock()
	defer svc.locks.Unlock()
	mu, ok := svc.locks.m[courseID]
	if !ok {
		mu = new(sync.Mutex)
		svc.locks.m[courseID] = mu
	}
	return mu
}

// Templates

func (svc *Service) CreateTemplate(ctx context.Context, nt NewTemplate) (Template, error) {
	if err := nt.Validate(); err != nil {
		return Template{}, err
	}
	if _, err := svc.courseRepo.GetCourse(ctx, nt.CourseID); err != nil {
		return Template{}, err
	}

	now := time.Now().UTC()
	tpl, err := svc.repo.CreateTemplate(ctx, Template{
		CourseID:  nt.CourseID,
		Weekday:   nt.Weekday,
		StartTime: nt.StartTime,
		EndTime:   nt.EndTime,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Template{}, err
	}
	if err = svc.Regenerate(ctx, tpl.CourseID); err != nil {
		return Template{}, err
	}
	return tpl, nil
}

func (svc *Service) GetTemplate(ctx context.Context, id string) (Template, error) {
	return svc.repo.GetTemplate(ctx, id)
}

func (svc *Service) QueryTemplates(ctx context.Context, courseID string) ([]Template, error) {
	return svc.repo.QueryCourseTemplates(ctx, courseID)
}

func (svc *Service) UpdateTemplate(ctx context.Context, id string, ut UpdateTemplate) (Template, error) {
	if err := ut.Validate(); err != nil {
		return Template{}, err
	}
	tpl, err := svc.repo.GetTemplate(ctx, id)
	if err != nil {
		return Template{}, err
	}

	tpl.Weekday = ut.Weekday
	tpl.StartTime = ut.StartTime
	tpl.EndTime = ut.EndTime
	tpl.UpdatedAt = time.Now().UTC()
	if tpl, err = svc.repo.UpdateTemplate(ctx, tpl); err != nil {
		return Template{}, err
	}
	if err = svc.Regenerate(ctx, tpl.CourseID); err != nil {
		return Template{}, err
	}
	return tpl, nil
}

func (svc *Service) DeleteTemplate(ctx context.Context, id string) error {
	tpl, err := svc.repo.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	return svc.Regenerate(ctx, tpl.CourseID)
}

// Lectures

func (svc *Service) GetLecture(ctx context.Context, id string) (Lecture, error) {
	return svc.repo.GetLecture(ctx, id)
}

func (svc *Service) QueryLectures(ctx context.Context, courseID string, from, to time.Time) ([]Lecture, error) {
	return svc.repo.QueryLectures(ctx, courseID, from, to)
}

func (svc *Service) QueryLecturesByDay(ctx context.Context, day time.Time) ([]Lecture, error) {
	return svc.repo.QueryLecturesByDay(ctx, day)
}

func (svc *Service) UpdateLecture(ctx context.Context, id string, ul UpdateLecture) (Lecture, error) {
	if err := ul.Validate(); err != nil {
		return Lecture{}, err
	}
	lec, err := svc.repo.GetLecture(ctx, id)
	if err != nil {
		return Lecture{}, err
	}

	if ul.Title != "" {
		lec.Title = ul.Title
	}
	if ul.StartTime != nil {
		lec.StartTime = ul.StartTime
	}
	if ul.EndTime != nil {
		lec.EndTime = ul.EndTime
	}
	if ul.InstructorID != nil {
		lec.InstructorID = ul.InstructorID
	}
	if lec.StartTime != nil && lec.EndTime != nil && *lec.EndTime <= *lec.StartTime {
		return Lecture{}, core.NewFieldError("end_time", timeOrderText)
	}
	lec.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLecture(ctx, lec)
}

// UpdateLectureStatus moves a lecture through its lifecycle;
// only scheduled lectures may be completed or cancelled.
func (svc *Service) UpdateLectureStatus(ctx context.Context, id, newStatus string) (Lecture, error) {
	lec, err := svc.repo.GetLecture(ctx, id)
	if err != nil {
		return Lecture{}, err
	}
	if !IsValidStatus(newStatus) {
		return Lecture{}, core.NewFieldError("status", fmt.Sprintf(errInvalidStatus, newStatus))
	}
	if !CanTransition(lec.Status, newStatus) {
		return Lecture{}, core.NewFieldError("status", fmt.Sprintf(errInvalidTransition, lec.Status, newStatus))
	}
	lec.Status = newStatus
	lec.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLecture(ctx, lec)
}

// DeleteLecture removes a lecture; one with recorded attendance is immutable
// with respect to deletion.
func (svc *Service) DeleteLecture(ctx context.Context, id string) error {
	lec, err := svc.repo.GetLecture(ctx, id)
	if err != nil {
		return err
	}
	if lec.AttendanceTaken {
		return core.NewValidationError(errors.New(errAttendanceTaken))
	}
	return svc.repo.DeleteLecture(ctx, id)
}

// CanMarkNow reports whether attendance marking is currently permitted for
// the lecture.
func (svc *Service) CanMarkNow(ctx context.Context, id string) (bool, error) {
	lec, err := svc.repo.GetLecture(ctx, id)
	if err != nil {
		return false, err
	}
	return lec.CanMarkAttendance(nowFunc().In(svc.conf.Location())), nil
}

// MarkAttendanceTaken flags the lecture once its roster has been recorded.
// `override` skips the marking-window check (admin action).
func (svc *Service) MarkAttendanceTaken(ctx context.Context, id string, override bool) (Lecture, error) {
	lec, err := svc.repo.GetLecture(ctx, id)
	if err != nil {
		return Lecture{}, err
	}
	if !override && !lec.CanMarkAttendance(nowFunc().In(svc.conf.Location())) {
		return Lecture{}, core.NewFieldError("lecture", errOutsideWindow)
	}
	lec.AttendanceTaken = true
	lec.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLecture(ctx, lec)
}
