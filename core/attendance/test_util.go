package attendance

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
)

// mocks

var pkCount int

func nextPK(prefix string) string {
	pkCount++
	return prefix + strconv.Itoa(pkCount)
}

type repoMock struct {
	mu      sync.Mutex
	shifts  map[string]*Shift
	records map[string]*Record
	devices map[string]*Device
	jobLogs []JobLog
}

var _ Repository = (*repoMock)(nil)

func newRepoMock() *repoMock {
	return &repoMock{
		shifts:  make(map[string]*Shift),
		records: make(map[string]*Record),
		devices: make(map[string]*Device),
	}
}

func (r *repoMock) CreateShift(_ context.Context, sh Shift) (Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shifts {
		if s.InstructorID == sh.InstructorID && s.Weekday == sh.Weekday {
			return Shift{}, ErrShiftExists
		}
	}
	sh.ID = nextPK("shf")
	r.shifts[sh.ID] = &sh
	return sh, nil
}

func (r *repoMock) GetShift(_ context.Context, id string) (Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sh, ok := r.shifts[id]; ok {
		return *sh, nil
	}
	return Shift{}, ErrShiftNotFound
}

func (r *repoMock) QueryShiftsByWeekday(_ context.Context, wd schedule.Weekday) ([]Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Shift
	for _, sh := range r.shifts {
		if sh.Weekday == wd {
			out = append(out, *sh)
		}
	}
	return out, nil
}

func (r *repoMock) QueryInstructorShifts(_ context.Context, instructorID string) ([]Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Shift
	for _, sh := range r.shifts {
		if sh.InstructorID == instructorID {
			out = append(out, *sh)
		}
	}
	return out, nil
}

func (r *repoMock) UpdateShift(_ context.Context, sh Shift) (Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shifts[sh.ID]; !ok {
		return Shift{}, ErrShiftNotFound
	}
	r.shifts[sh.ID] = &sh
	return sh, nil
}

func (r *repoMock) DeleteShift(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shifts[id]; !ok {
		return ErrShiftNotFound
	}
	delete(r.shifts, id)
	return nil
}

func (r *repoMock) GetOrCreateRecord(_ context.Context, rec Record) (Record, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.InstructorID == rec.InstructorID && schedule.SameDate(existing.Date, rec.Date) {
			return *existing, false, nil
		}
	}
	rec.ID = nextPK("rec")
	r.records[rec.ID] = &rec
	return rec, true, nil
}

func (r *repoMock) GetRecord(_ context.Context, id string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok {
		return *rec, nil
	}
	return Record{}, ErrRecordNotFound
}

func (r *repoMock) GetRecordByInstructorDate(_ context.Context, instructorID string, date time.Time) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.InstructorID == instructorID && schedule.SameDate(rec.Date, date) {
			return *rec, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (r *repoMock) QueryRecordsByDate(_ context.Context, date time.Time) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Record
	for _, rec := range r.records {
		if schedule.SameDate(rec.Date, date) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *repoMock) UpdateRecord(_ context.Context, rec Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; !ok {
		return Record{}, ErrRecordNotFound
	}
	r.records[rec.ID] = &rec
	return rec, nil
}

func (r *repoMock) MarkAbsentByDate(_ context.Context, date time.Time, statuses ...string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept int
	for _, rec := range r.records {
		if !schedule.SameDate(rec.Date, date) {
			continue
		}
		for _, status := range statuses {
			if rec.Status == status {
				rec.Status = StatusAbsent
				swept++
				break
			}
		}
	}
	return swept, nil
}

func (r *repoMock) GetDeviceByDeviceID(_ context.Context, deviceID string) (Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dev := range r.devices {
		if dev.DeviceID == deviceID {
			return *dev, nil
		}
	}
	return Device{}, ErrDeviceNotFound
}

func (r *repoMock) CreateDevice(_ context.Context, dev Device) (Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dev.ID = nextPK("dev")
	r.devices[dev.ID] = &dev
	return dev, nil
}

func (r *repoMock) QueryAllDevices(_ context.Context) ([]Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Device, 0, len(r.devices))
	for _, dev := range r.devices {
		out = append(out, *dev)
	}
	return out, nil
}

func (r *repoMock) CreateJobLog(_ context.Context, jl JobLog) (JobLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	jl.ID = nextPK("job")
	r.jobLogs = append(r.jobLogs, jl)
	return jl, nil
}

func (r *repoMock) QueryJobLogs(_ context.Context, jobName string) ([]JobLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []JobLog
	for _, jl := range r.jobLogs {
		if jl.JobName == jobName {
			out = append(out, jl)
		}
	}
	return out, nil
}

type lectureSourceMock struct {
	lectures []schedule.Lecture
}

func (l *lectureSourceMock) QueryLecturesByDay(_ context.Context, day time.Time) ([]schedule.Lecture, error) {
	var out []schedule.Lecture
	for _, lec := range l.lectures {
		if schedule.SameDate(lec.Day, day) {
			out = append(out, lec)
		}
	}
	return out, nil
}

// eventsMock records published events synchronously.
type eventsMock struct {
	mu     sync.Mutex
	events []*core.AttendanceEvent
}

func (e *eventsMock) Publish(events ...*core.AttendanceEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, events...)
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
		TestMode:          true,
		AppName:           "Ratiba",
		TimeZone:          "UTC",
		GenerateAheadDays: 7,
	}
}
