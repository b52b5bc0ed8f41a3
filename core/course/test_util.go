package course

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/trezcool/ratiba/core"
)

// mocks

var pkCount int

func nextPK() string {
	pkCount++
	return "crs" + strconv.Itoa(pkCount)
}

type repoMock struct {
	mu      sync.Mutex
	courses map[string]*Course
}

var _ Repository = (*repoMock)(nil)

func newRepoMock() *repoMock {
	return &repoMock{courses: make(map[string]*Course)}
}

func (r *repoMock) CreateCourse(_ context.Context, crs Course) (Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	crs.ID = nextPK()
	r.courses[crs.ID] = &crs
	return crs, nil
}

func (r *repoMock) GetCourse(_ context.Context, id string) (Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if crs, ok := r.courses[id]; ok {
		return *crs, nil
	}
	return Course{}, ErrNotFound
}

func (r *repoMock) QueryAllCourses(_ context.Context) ([]Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Course, 0, len(r.courses))
	for _, crs := range r.courses {
		out = append(out, *crs)
	}
	return out, nil
}

func (r *repoMock) UpdateCourse(_ context.Context, crs Course) (Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[crs.ID]; !ok {
		return Course{}, ErrNotFound
	}
	r.courses[crs.ID] = &crs
	return crs, nil
}

func (r *repoMock) DeleteCourse(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[id]; !ok {
		return ErrNotFound
	}
	delete(r.courses, id)
	return nil
}

func (r *repoMock) SetDerivedSchedule(_ context.Context, id string, endDate time.Time, numLectures int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	crs, ok := r.courses[id]
	if !ok {
		return ErrNotFound
	}
	crs.EndDate = &endDate
	crs.NumLectures = &numLectures
	return nil
}

// regenMock counts regeneration calls.
type regenMock struct {
	calls []string
}

func (r *regenMock) Regenerate(_ context.Context, courseID string) error {
	r.calls = append(r.calls, courseID)
	return nil
}

type loggerMock struct{}

var _ core.Logger = (*loggerMock)(nil)

func (loggerMock) Enable(bool)                  {}
func (loggerMock) Debug(string, ...interface{}) {}
func (loggerMock) Info(string, ...interface{})  {}
func (loggerMock) Warn(string, ...interface{})  {}
func (loggerMock) Error(string, ...interface{}) {}

func testConf() *core.Config {
	return &core.Config{
		TestMode: true,
		AppName:  "Ratiba",
		TimeZone: "UTC",
	}
}
