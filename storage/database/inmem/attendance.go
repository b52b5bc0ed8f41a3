package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/schedule"
)

type attendanceRepository struct {
	db *DB
}

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

// Shifts

func (repo *attendanceRepository) CreateShift(_ context.Context, sh attendance.Shift) (attendance.Shift, error) {
	repo.db.shift.mutex.Lock()
	defer repo.db.shift.mutex.Unlock()

	for _, existing := range repo.db.shift.table {
		if existing.InstructorID == sh.InstructorID && existing.Weekday == sh.Weekday {
			return attendance.Shift{}, attendance.ErrShiftExists
		}
	}
	sh.ID = uuid.New().String()
	repo.db.shift.table[sh.ID] = &sh
	return sh, nil
}

func (repo *attendanceRepository) GetShift(_ context.Context, id string) (attendance.Shift, error) {
	repo.db.shift.mutex.RLock()
	defer repo.db.shift.mutex.RUnlock()

	if sh, ok := repo.db.shift.table[id]; ok {
		return *sh, nil
	}
	return attendance.Shift{}, attendance.ErrShiftNotFound
}

func (repo *attendanceRepository) QueryShiftsByWeekday(_ context.Context, wd schedule.Weekday) ([]attendance.Shift, error) {
	repo.db.shift.mutex.RLock()
	defer repo.db.shift.mutex.RUnlock()

	shifts := make([]attendance.Shift, 0)
	for _, sh := range repo.db.shift.table {
		if sh.Weekday == wd {
			shifts = append(shifts, *sh)
		}
	}
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].StartTime < shifts[j].StartTime })
	return shifts, nil
}

func (repo *attendanceRepository) QueryInstructorShifts(_ context.Context, instructorID string) ([]attendance.Shift, error) {
	repo.db.shift.mutex.RLock()
	defer repo.db.shift.mutex.RUnlock()

	shifts := make([]attendance.Shift, 0)
	for _, sh := range repo.db.shift.table {
		if sh.InstructorID == instructorID {
			shifts = append(shifts, *sh)
		}
	}
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].Weekday < shifts[j].Weekday })
	return shifts, nil
}

func (repo *attendanceRepository) UpdateShift(_ context.Context, sh attendance.Shift) (attendance.Shift, error) {
	repo.db.shift.mutex.Lock()
	defer repo.db.shift.mutex.Unlock()

	if _, ok := repo.db.shift.table[sh.ID]; !ok {
		return attendance.Shift{}, attendance.ErrShiftNotFound
	}
	repo.db.shift.table[sh.ID] = &sh
	return sh, nil
}

func (repo *attendanceRepository) DeleteShift(_ context.Context, id string) error {
	repo.db.shift.mutex.Lock()
	defer repo.db.shift.mutex.Unlock()

	delete(repo.db.shift.table, id)
	return nil
}

// Records

func (repo *attendanceRepository) GetOrCreateRecord(_ context.Context, rec attendance.Record) (attendance.Record, bool, error) {
	repo.db.record.mutex.Lock()
	defer repo.db.record.mutex.Unlock()

	for _, existing := range repo.db.record.table {
		if existing.InstructorID == rec.InstructorID && schedule.SameDate(existing.Date, rec.Date) {
			return *existing, false, nil
		}
	}
	rec.ID = uuid.New().String()
	repo.db.record.table[rec.ID] = &rec
	return rec, true, nil
}

func (repo *attendanceRepository) GetRecord(_ context.Context, id string) (attendance.Record, error) {
	repo.db.record.mutex.RLock()
	defer repo.db.record.mutex.RUnlock()

	if rec, ok := repo.db.record.table[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (repo *attendanceRepository) GetRecordByInstructorDate(_ context.Context, instructorID string, date time.Time) (attendance.Record, error) {
	repo.db.record.mutex.RLock()
	defer repo.db.record.mutex.RUnlock()

	for _, rec := range repo.db.record.table {
		if rec.InstructorID == instructorID && schedule.SameDate(rec.Date, date) {
			return *rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (repo *attendanceRepository) QueryRecordsByDate(_ context.Context, date time.Time) ([]attendance.Record, error) {
	repo.db.record.mutex.RLock()
	defer repo.db.record.mutex.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.db.record.table {
		if schedule.SameDate(rec.Date, date) {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].InstructorID < recs[j].InstructorID })
	return recs, nil
}

func (repo *attendanceRepository) UpdateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.record.mutex.Lock()
	defer repo.db.record.mutex.Unlock()

	if _, ok := repo.db.record.table[rec.ID]; !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	repo.db.record.table[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) MarkAbsentByDate(_ context.Context, date time.Time, statuses ...string) (int, error) {
	repo.db.record.mutex.Lock()
	defer repo.db.record.mutex.Unlock()

	var swept int
	for _, rec := range repo.db.record.table {
		if !schedule.SameDate(rec.Date, date) {
			continue
		}
		for _, s := range statuses {
			if rec.Status == s {
				rec.Status = attendance.StatusAbsent
				swept++
				break
			}
		}
	}
	return swept, nil
}

// Devices

func (repo *attendanceRepository) CreateDevice(_ context.Context, dev attendance.Device) (attendance.Device, error) {
	repo.db.device.mutex.Lock()
	defer repo.db.device.mutex.Unlock()

	dev.ID = uuid.New().String()
	repo.db.device.table[dev.ID] = &dev
	return dev, nil
}

func (repo *attendanceRepository) GetDeviceByDeviceID(_ context.Context, deviceID string) (attendance.Device, error) {
	repo.db.device.mutex.RLock()
	defer repo.db.device.mutex.RUnlock()

	for _, dev := range repo.db.device.table {
		if dev.DeviceID == deviceID {
			return *dev, nil
		}
	}
	return attendance.Device{}, attendance.ErrDeviceNotFound
}

func (repo *attendanceRepository) QueryAllDevices(_ context.Context) ([]attendance.Device, error) {
	repo.db.device.mutex.RLock()
	defer repo.db.device.mutex.RUnlock()

	devs := make([]attendance.Device, 0, len(repo.db.device.table))
	for _, dev := range repo.db.device.table {
		devs = append(devs, *dev)
	}
	sort.Slice(devs, func(i, j int) bool { return devs[i].Name < devs[j].Name })
	return devs, nil
}

// Job logs

func (repo *attendanceRepository) CreateJobLog(_ context.Context, jl attendance.JobLog) (attendance.JobLog, error) {
	repo.db.jobLog.mutex.Lock()
	defer repo.db.jobLog.mutex.Unlock()

	jl.ID = uuid.New().String()
	repo.db.jobLog.table[jl.ID] = &jl
	return jl, nil
}

func (repo *attendanceRepository) QueryJobLogs(_ context.Context, jobName string) ([]attendance.JobLog, error) {
	repo.db.jobLog.mutex.RLock()
	defer repo.db.jobLog.mutex.RUnlock()

	logs := make([]attendance.JobLog, 0)
	for _, jl := range repo.db.jobLog.table {
		if jl.JobName == jobName {
			logs = append(logs, *jl)
		}
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].RunAt.Before(logs[j].RunAt) })
	return logs, nil
}
