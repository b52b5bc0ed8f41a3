package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
)

var nowFunc = time.Now // mockable

// defaults applied when a shift leaves them unset
const (
	defaultGracePeriodMin     = 20
	defaultAutoAbsentAfterMin = 60
)

// Batch job names, recorded in the job log.
const (
	JobGenerateAhead = "generate_attendance_records"
	JobMarkAbsent    = "mark_absent_daily"
)

var (
	errAlreadyCheckedIn = "already checked in today"
	errMarkedAbsent     = "cannot check in: marked absent"
	errNotCheckedIn     = "cannot check out before checking in"
	errAlreadyOut       = "already checked out today"
	errDeviceInactive   = "this device is disabled"
)

type Service struct {
	repo     Repository
	lectures LectureSource
	events   core.EventService
	logger   core.Logger
	conf     *core.Config
}

func NewService(repo Repository, lectures LectureSource, events core.EventService, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		lectures: lectures,
		events:   events,
		logger:   logger,
		conf:     conf,
	}
}

// Shifts

func (svc *Service) CreateShift(ctx context.Context, ns NewShift) (Shift, error) {
	if err := ns.Validate(); err != nil {
		return Shift{}, err
	}

	sh := Shift{
		InstructorID:       ns.InstructorID,
		Weekday:            ns.Weekday,
		StartTime:          ns.StartTime,
		EndTime:            ns.EndTime,
		GracePeriodMin:     ns.GracePeriodMin,
		AutoAbsentAfterMin: ns.AutoAbsentAfterMin,
	}
	if sh.GracePeriodMin == 0 {
		sh.GracePeriodMin = defaultGracePeriodMin
	}
	if sh.AutoAbsentAfterMin == 0 {
		sh.AutoAbsentAfterMin = defaultAutoAbsentAfterMin
	}

	sh, err := svc.repo.CreateShift(ctx, sh)
	if err != nil {
		if err == ErrShiftExists {
			return Shift{}, core.NewFieldError("weekday", err.Error())
		}
		return Shift{}, errors.Wrap(err, "creating shift")
	}
	return sh, nil
}

func (svc *Service) GetShift(ctx context.Context, id string) (Shift, error) {
	return svc.repo.GetShift(ctx, id)
}

func (svc *Service) QueryInstructorShifts(ctx context.Context, instructorID string) ([]Shift, error) {
	return svc.repo.QueryInstructorShifts(ctx, instructorID)
}

func (svc *Service) UpdateShift(ctx context.Context, id string, us UpdateShift) (Shift, error) {
	if err := us.Validate(); err != nil {
		return Shift{}, err
	}
	sh, err := svc.repo.GetShift(ctx, id)
	if err != nil {
		return Shift{}, err
	}

	if us.StartTime != nil {
		sh.StartTime = *us.StartTime
	}
	if us.EndTime != nil {
		sh.EndTime = *us.EndTime
	}
	if sh.EndTime <= sh.StartTime {
		return Shift{}, core.NewFieldError("end_time", "end time must be after start time")
	}
	if us.GracePeriodMin != nil {
		sh.GracePeriodMin = *us.GracePeriodMin
	}
	if us.AutoAbsentAfterMin != nil {
		sh.AutoAbsentAfterMin = *us.AutoAbsentAfterMin
	}
	return svc.repo.UpdateShift(ctx, sh)
}

func (svc *Service) DeleteShift(ctx context.Context, id string) error {
	return svc.repo.DeleteShift(ctx, id)
}

// Records

func (svc *Service) GetRecord(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetRecord(ctx, id)
}

func (svc *Service) QueryRecordsByDate(ctx context.Context, date time.Time) ([]Record, error) {
	return svc.repo.QueryRecordsByDate(ctx, schedule.DateOf(date))
}

// CheckIn stamps an instructor in for today and resolves their status.
// A shift-linked record is late past the shift's grace period and absent past
// its auto-absent cutoff; otherwise the instructor is simply present.
func (svc *Service) CheckIn(ctx context.Context, req CheckInRequest) (Record, error) {
	if err := req.Validate(); err != nil {
		return Record{}, err
	}

	if req.DeviceID != "" {
		dev, err := svc.repo.GetDeviceByDeviceID(ctx, req.DeviceID)
		if err != nil {
			return Record{}, err
		}
		if !dev.IsActive {
			return Record{}, core.NewFieldError("device_id", errDeviceInactive)
		}
	}

	now := nowFunc().In(svc.conf.Location())
	today := schedule.DateOf(now)

	rec, _, err := svc.repo.GetOrCreateRecord(ctx, Record{
		InstructorID: req.InstructorID,
		Date:         today,
		Status:       StatusNotStarted,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	})
	if err != nil {
		return Record{}, errors.Wrap(err, "fetching attendance record")
	}
	if rec.CheckInTime != nil {
		return Record{}, core.NewFieldError("instructor_id", errAlreadyCheckedIn)
	}
	if rec.Status == StatusAbsent {
		return Record{}, core.NewFieldError("instructor_id", errMarkedAbsent)
	}

	status := StatusPresent
	if rec.ShiftID != nil {
		sh, err := svc.repo.GetShift(ctx, *rec.ShiftID)
		if err != nil {
			return Record{}, err
		}
		start := sh.StartTime.On(today)
		if now.After(start.Add(time.Duration(sh.AutoAbsentAfterMin) * time.Minute)) {
			rec.Status = StatusAbsent
			rec.UpdatedAt = now.UTC()
			if rec, err = svc.repo.UpdateRecord(ctx, rec); err != nil {
				return Record{}, errors.Wrap(err, "marking record absent")
			}
			return Record{}, core.NewFieldError("instructor_id", errMarkedAbsent)
		}
		if now.After(start.Add(time.Duration(sh.GracePeriodMin) * time.Minute)) {
			status = StatusLate
		}
	}

	in := now.UTC()
	rec.CheckInTime = &in
	rec.CheckInMethod = req.Method
	if req.DeviceID != "" {
		devID := req.DeviceID
		rec.DeviceID = &devID
	}
	if req.LectureID != "" {
		lecID := req.LectureID
		rec.LectureID = &lecID
	}
	if req.Notes != "" {
		rec.Notes = req.Notes
	}
	rec.Status = status
	rec.UpdatedAt = in

	rec, err = svc.repo.UpdateRecord(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "saving check-in")
	}
	svc.publish(rec, now)
	return rec, nil
}

// CheckOut stamps an instructor out for today. The resolved status is kept;
// checking out never changes present or late.
func (svc *Service) CheckOut(ctx context.Context, req CheckOutRequest) (Record, error) {
	if err := req.Validate(); err != nil {
		return Record{}, err
	}

	now := nowFunc().In(svc.conf.Location())
	today := schedule.DateOf(now)

	rec, err := svc.repo.GetRecordByInstructorDate(ctx, req.InstructorID, today)
	if err != nil {
		return Record{}, err
	}
	if rec.CheckInTime == nil || (rec.Status != StatusPresent && rec.Status != StatusLate) {
		return Record{}, core.NewFieldError("instructor_id", errNotCheckedIn)
	}
	if rec.CheckOutTime != nil {
		return Record{}, core.NewFieldError("instructor_id", errAlreadyOut)
	}

	out := now.UTC()
	rec.CheckOutTime = &out
	rec.UpdatedAt = out

	rec, err = svc.repo.UpdateRecord(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "saving check-out")
	}
	svc.publish(rec, now)
	return rec, nil
}

// MarkAbsent marks a single instructor absent for the given date. Records
// already resolved to present or late are left alone.
func (svc *Service) MarkAbsent(ctx context.Context, instructorID string, date time.Time) (Record, error) {
	rec, err := svc.repo.GetRecordByInstructorDate(ctx, instructorID, schedule.DateOf(date))
	if err != nil {
		return Record{}, err
	}
	if rec.Status == StatusPresent || rec.Status == StatusLate {
		return Record{}, core.NewFieldError("instructor_id", "instructor has already checked in")
	}

	rec.Status = StatusAbsent
	rec.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateRecord(ctx, rec)
}

// Rate sets the daily performance rating and notes on a record, overwriting
// any previous rating.
func (svc *Service) Rate(ctx context.Context, recordID string, req RateRequest) (Record, error) {
	if err := req.Validate(); err != nil {
		return Record{}, err
	}
	rec, err := svc.repo.GetRecord(ctx, recordID)
	if err != nil {
		return Record{}, err
	}

	rating := req.Rating
	ratedBy := req.RatedByID
	rec.Rating = &rating
	rec.RatedByID = &ratedBy
	rec.Notes = req.Notes
	rec.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateRecord(ctx, rec)
}

// Devices

func (svc *Service) RegisterDevice(ctx context.Context, nd NewDevice) (Device, error) {
	if err := nd.Validate(); err != nil {
		return Device{}, err
	}
	return svc.repo.CreateDevice(ctx, Device{
		DeviceID: nd.DeviceID,
		Name:     nd.Name,
		Kind:     nd.Kind,
		Location: nd.Location,
		IsActive: true,
	})
}

func (svc *Service) QueryAllDevices(ctx context.Context) ([]Device, error) {
	return svc.repo.QueryAllDevices(ctx)
}

// Batch jobs

// GenerateForDateRange creates the missing attendance records for every day
// in [start, end]: one per supervisor shift falling on that weekday and one
// per scheduled lecture with an assigned instructor. Existing records are
// left untouched, so the job can be re-run over the same range freely.
func (svc *Service) GenerateForDateRange(ctx context.Context, start, end time.Time) (int, error) {
	start, end = schedule.DateOf(start), schedule.DateOf(end)
	now := nowFunc().UTC()

	var created int
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		wd := schedule.FromCalendarDay(day.Weekday())

		shifts, err := svc.repo.QueryShiftsByWeekday(ctx, wd)
		if err != nil {
			return created, errors.Wrap(err, "querying shifts")
		}
		for _, sh := range shifts {
			shiftID := sh.ID
			_, isNew, err := svc.repo.GetOrCreateRecord(ctx, Record{
				InstructorID: sh.InstructorID,
				Date:         day,
				Status:       StatusNotStarted,
				ShiftID:      &shiftID,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
			if err != nil {
				return created, errors.Wrap(err, "creating shift record")
			}
			if isNew {
				created++
			}
		}

		lects, err := svc.lectures.QueryLecturesByDay(ctx, day)
		if err != nil {
			return created, errors.Wrap(err, "querying lectures")
		}
		for _, lec := range lects {
			if lec.InstructorID == nil || lec.Status != schedule.StatusScheduled {
				continue
			}
			lecID := lec.ID
			_, isNew, err := svc.repo.GetOrCreateRecord(ctx, Record{
				InstructorID: *lec.InstructorID,
				Date:         day,
				Status:       StatusNotStarted,
				LectureID:    &lecID,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
			if err != nil {
				return created, errors.Wrap(err, "creating lecture record")
			}
			if isNew {
				created++
			}
		}
	}
	return created, nil
}

// GenerateAhead runs GenerateForDateRange over the configured look-ahead
// window starting today, and logs a single job run.
func (svc *Service) GenerateAhead(ctx context.Context) (int, error) {
	now := nowFunc().In(svc.conf.Location())
	start := schedule.DateOf(now)
	end := start.AddDate(0, 0, svc.conf.GenerateAheadDays-1)

	created, err := svc.GenerateForDateRange(ctx, start, end)
	if err != nil {
		return created, err
	}

	details := fmt.Sprintf("Created %d attendance records from %s to %s",
		created, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if _, err = svc.repo.CreateJobLog(ctx, JobLog{JobName: JobGenerateAhead, RunAt: now.UTC(), Details: details}); err != nil {
		svc.logger.Warn("logging job run", "job", JobGenerateAhead, "error", err)
	}
	svc.logger.Info(details)
	return created, nil
}

// SweepAbsent marks every unresolved record for today absent, in one batch,
// and logs a single job run. Re-running it the same day sweeps nothing new.
func (svc *Service) SweepAbsent(ctx context.Context) (int, error) {
	now := nowFunc().In(svc.conf.Location())
	today := schedule.DateOf(now)

	swept, err := svc.repo.MarkAbsentByDate(ctx, today, StatusPending, StatusNotStarted)
	if err != nil {
		return 0, errors.Wrap(err, "sweeping absences")
	}

	details := fmt.Sprintf("Marked %d instructors as ABSENT for %s", swept, today.Format("2006-01-02"))
	if _, err = svc.repo.CreateJobLog(ctx, JobLog{JobName: JobMarkAbsent, RunAt: now.UTC(), Details: details}); err != nil {
		svc.logger.Warn("logging job run", "job", JobMarkAbsent, "error", err)
	}
	svc.logger.Info(details)
	return swept, nil
}

func (svc *Service) QueryJobLogs(ctx context.Context, jobName string) ([]JobLog, error) {
	return svc.repo.QueryJobLogs(ctx, jobName)
}

func (svc *Service) publish(rec Record, now time.Time) {
	if svc.events == nil {
		return
	}
	svc.events.Publish(&core.AttendanceEvent{
		InstructorID: rec.InstructorID,
		RecordID:     rec.ID,
		Status:       rec.Status,
		Date:         rec.Date.Format("2006-01-02"),
		Time:         now.UTC(),
	})
}
