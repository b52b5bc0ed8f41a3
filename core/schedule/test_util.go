package schedule

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/course"
)

// test doubles; the sqlx/in-mem repositories cannot be imported here without
// an import cycle.

var pkCount int

func nextPK(prefix string) string {
	pkCount++
	return prefix + strconv.Itoa(pkCount)
}

type repoMock struct {
	templates map[string]*Template
	lectures  map[string]*Lecture
}

var _ Repository = (*repoMock)(nil)

func newRepoMock() *repoMock {
	return &repoMock{
		templates: make(map[string]*Template),
		lectures:  make(map[string]*Lecture),
	}
}

func (r *repoMock) CreateTemplate(_ context.Context, tpl Template) (Template, error) {
	tpl.ID = nextPK("tpl")
	r.templates[tpl.ID] = &tpl
	return tpl, nil
}

func (r *repoMock) GetTemplate(_ context.Context, id string) (Template, error) {
	if tpl, ok := r.templates[id]; ok {
		return *tpl, nil
	}
	return Template{}, ErrTemplateNotFound
}

func (r *repoMock) QueryCourseTemplates(_ context.Context, courseID string) ([]Template, error) {
	tpls := make([]Template, 0)
	for _, tpl := range r.templates {
		if tpl.CourseID == courseID {
			tpls = append(tpls, *tpl)
		}
	}
	sort.Slice(tpls, func(i, j int) bool {
		if tpls[i].Weekday != tpls[j].Weekday {
			return tpls[i].Weekday < tpls[j].Weekday
		}
		return tpls[i].StartTime < tpls[j].StartTime
	})
	return tpls, nil
}

func (r *repoMock) UpdateTemplate(_ context.Context, tpl Template) (Template, error) {
	if _, ok := r.templates[tpl.ID]; !ok {
		return Template{}, ErrTemplateNotFound
	}
	r.templates[tpl.ID] = &tpl
	return tpl, nil
}

func (r *repoMock) DeleteTemplate(_ context.Context, id string) error {
	delete(r.templates, id)
	return nil
}

func (r *repoMock) GetLecture(_ context.Context, id string) (Lecture, error) {
	if lec, ok := r.lectures[id]; ok {
		return *lec, nil
	}
	return Lecture{}, ErrLectureNotFound
}

func (r *repoMock) sorted(lects []Lecture) []Lecture {
	sort.Slice(lects, func(i, j int) bool {
		if !lects[i].Day.Equal(lects[j].Day) {
			return lects[i].Day.Before(lects[j].Day)
		}
		return lects[i].StartDateTime().Before(lects[j].StartDateTime())
	})
	return lects
}

func (r *repoMock) QueryLectures(_ context.Context, courseID string, from, to time.Time) ([]Lecture, error) {
	lects := make([]Lecture, 0)
	for _, lec := range r.lectures {
		if lec.CourseID != courseID {
			continue
		}
		if !from.IsZero() && lec.Day.Before(from) {
			continue
		}
		if !to.IsZero() && lec.Day.After(to) {
			continue
		}
		lects = append(lects, *lec)
	}
	return r.sorted(lects), nil
}

func (r *repoMock) QueryLecturesByDay(_ context.Context, day time.Time) ([]Lecture, error) {
	lects := make([]Lecture, 0)
	for _, lec := range r.lectures {
		if SameDate(lec.Day, day) {
			lects = append(lects, *lec)
		}
	}
	return r.sorted(lects), nil
}

func (r *repoMock) UpdateLecture(_ context.Context, lec Lecture) (Lecture, error) {
	if _, ok := r.lectures[lec.ID]; !ok {
		return Lecture{}, ErrLectureNotFound
	}
	r.lectures[lec.ID] = &lec
	return lec, nil
}

func (r *repoMock) DeleteLecture(_ context.Context, id string) error {
	delete(r.lectures, id)
	return nil
}

func (r *repoMock) ReplaceUpcoming(
	_ context.Context, courseID string, from time.Time,
	build func(preserved []Lecture) ([]Lecture, error),
) ([]Lecture, error) {
	preserved := make([]Lecture, 0)
	doomed := make([]string, 0)
	for _, lec := range r.lectures {
		if lec.CourseID != courseID {
			continue
		}
		if !lec.Day.Before(from) && !lec.AttendanceTaken {
			doomed = append(doomed, lec.ID)
			continue
		}
		preserved = append(preserved, *lec)
	}
	r.sorted(preserved)

	created, err := build(preserved)
	if err != nil {
		return nil, err
	}

	for _, id := range doomed {
		delete(r.lectures, id)
	}
	out := make([]Lecture, 0, len(created))
	for _, lec := range created {
		lec := lec
		lec.ID = nextPK("lec")
		r.lectures[lec.ID] = &lec
		out = append(out, lec)
	}
	return out, nil
}

type courseRepoMock struct {
	courses map[string]*course.Course
}

var _ CourseRepository = (*courseRepoMock)(nil)

func newCourseRepoMock(courses ...course.Course) *courseRepoMock {
	r := &courseRepoMock{courses: make(map[string]*course.Course)}
	for i := range courses {
		crs := courses[i]
		r.courses[crs.ID] = &crs
	}
	return r
}

func (r *courseRepoMock) GetCourse(_ context.Context, id string) (course.Course, error) {
	if crs, ok := r.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (r *courseRepoMock) SetDerivedSchedule(_ context.Context, id string, endDate time.Time, numLectures int) error {
	crs, ok := r.courses[id]
	if !ok {
		return course.ErrNotFound
	}
	crs.EndDate = &endDate
	crs.NumLectures = &numLectures
	return nil
}

type loggerMock struct{}

var _ core.Logger = (*loggerMock)(nil)

func (loggerMock) Enable(bool)                    {}
func (loggerMock) Debug(string, ...interface{})   {}
func (loggerMock) Info(string, ...interface{})    {}
func (loggerMock) Warn(string, ...interface{})    {}
func (loggerMock) Error(string, ...interface{})   {}

func testConf() *core.Config {
	return &core.Config{
		TestMode:               true,
		AppName:                "Ratiba",
		SecretKey:              "secret",
		TimeZone:               "UTC",
		GenerateAheadDays:      7,
		GenerationHorizonYears: 2,
		TodayStartBufferMin:    5,
	}
}
