package course

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/ratiba/core"
)

var ErrNotFound = errors.New("course not found")

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error

		// SetDerivedSchedule persists the end date / lecture count the
		// generator derived for the course.
		SetDerivedSchedule(ctx context.Context, id string, endDate time.Time, numLectures int) error
	}

	// Regenerator rebuilds a course's future lecture set. Implemented by the
	// schedule service; wired after construction to avoid an import cycle.
	Regenerator interface {
		Regenerate(ctx context.Context, courseID string) error
	}

	Service struct {
		repo   Repository
		sched  Regenerator
		logger core.Logger
		conf   *core.Config
	}
)

func NewService(repo Repository, logger core.Logger, conf *core.Config) *Service {
	return &Service{repo: repo, logger: logger, conf: conf}
}

// SetRegenerator wires the schedule service in; must be called before any
// course mutation.
func (svc *Service) SetRegenerator(r Regenerator) {
	svc.sched = r
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	if err := nc.Validate(); err != nil {
		return Course{}, err
	}

	now := time.Now().UTC()
	crs := Course{
		Name:         nc.Name,
		Description:  nc.Description,
		InstructorID: nc.InstructorID,
		NumLectures:  nc.NumLectures,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	crs.StartDate, _ = time.ParseInLocation(dateLayout, nc.StartDate, svc.conf.Location())
	if nc.EndDate != "" {
		end, _ := time.ParseInLocation(dateLayout, nc.EndDate, svc.conf.Location())
		crs.EndDate = &end
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

// Update edits a course; any change to its dates, target lecture count or
// default instructor reruns generation for the course.
func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	if err := uc.Validate(); err != nil {
		return Course{}, err
	}

	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}

	var regen bool
	if uc.ClearEndDate && crs.EndDate != nil {
		crs.EndDate = nil
		regen = true
	}
	if uc.ClearNumLectures && crs.NumLectures != nil {
		crs.NumLectures = nil
		regen = true
	}
	if uc.Name != "" {
		crs.Name = uc.Name
	}
	if uc.Description != "" {
		crs.Description = uc.Description
	}
	if uc.StartDate != "" {
		start, _ := time.ParseInLocation(dateLayout, uc.StartDate, svc.conf.Location())
		if !start.Equal(crs.StartDate) {
			crs.StartDate = start
			regen = true
		}
	}
	if uc.EndDate != "" {
		end, _ := time.ParseInLocation(dateLayout, uc.EndDate, svc.conf.Location())
		if crs.EndDate == nil || !end.Equal(*crs.EndDate) {
			crs.EndDate = &end
			regen = true
		}
		if crs.EndDate.Before(crs.StartDate) {
			return Course{}, core.NewFieldError("end_date", errEndBeforeStart)
		}
	}
	if uc.NumLectures != nil {
		if crs.NumLectures == nil || *uc.NumLectures != *crs.NumLectures {
			crs.NumLectures = uc.NumLectures
			regen = true
		}
	}
	if uc.InstructorID != nil {
		crs.InstructorID = uc.InstructorID
		regen = true
	}
	if uc.IsActive != nil {
		crs.IsActive = *uc.IsActive
	}
	crs.UpdatedAt = time.Now().UTC()

	crs, err = svc.repo.UpdateCourse(ctx, crs)
	if err != nil {
		return Course{}, err
	}

	if regen && svc.sched != nil {
		if err = svc.sched.Regenerate(ctx, crs.ID); err != nil {
			return Course{}, err
		}
		return svc.repo.GetCourse(ctx, crs.ID) // reload derived fields
	}
	return crs, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}
