package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/schedule"
)

type attendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

// Shifts

type shiftRow struct {
	ID                 string             `db:"id"`
	InstructorID       string             `db:"instructor_id"`
	Weekday            schedule.Weekday   `db:"weekday"`
	StartTime          schedule.TimeOfDay `db:"start_time"`
	EndTime            schedule.TimeOfDay `db:"end_time"`
	GracePeriodMin     int                `db:"grace_period_min"`
	AutoAbsentAfterMin int                `db:"auto_absent_after_min"`
}

func (r shiftRow) shift() attendance.Shift {
	return attendance.Shift(r)
}

// isUniqueViolation reports a Postgres unique_violation error.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

func (repo *attendanceRepository) CreateShift(ctx context.Context, sh attendance.Shift) (attendance.Shift, error) {
	sh.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO supervisor_shifts (id, instructor_id, weekday, start_time, end_time, grace_period_min, auto_absent_after_min)
		VALUES (:id, :instructor_id, :weekday, :start_time, :end_time, :grace_period_min, :auto_absent_after_min)`,
		shiftRow(sh))
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Shift{}, attendance.ErrShiftExists
		}
		return attendance.Shift{}, err
	}
	return sh, nil
}

func (repo *attendanceRepository) GetShift(ctx context.Context, id string) (attendance.Shift, error) {
	var r shiftRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM supervisor_shifts WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Shift{}, attendance.ErrShiftNotFound
		}
		return attendance.Shift{}, err
	}
	return r.shift(), nil
}

func (repo *attendanceRepository) QueryShiftsByWeekday(ctx context.Context, wd schedule.Weekday) ([]attendance.Shift, error) {
	var rows []shiftRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM supervisor_shifts WHERE weekday = $1 ORDER BY start_time`, wd)
	if err != nil {
		return nil, err
	}
	shifts := make([]attendance.Shift, 0, len(rows))
	for _, r := range rows {
		shifts = append(shifts, r.shift())
	}
	return shifts, nil
}

func (repo *attendanceRepository) QueryInstructorShifts(ctx context.Context, instructorID string) ([]attendance.Shift, error) {
	var rows []shiftRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM supervisor_shifts WHERE instructor_id = $1 ORDER BY weekday`, instructorID)
	if err != nil {
		return nil, err
	}
	shifts := make([]attendance.Shift, 0, len(rows))
	for _, r := range rows {
		shifts = append(shifts, r.shift())
	}
	return shifts, nil
}

func (repo *attendanceRepository) UpdateShift(ctx context.Context, sh attendance.Shift) (attendance.Shift, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE supervisor_shifts
		SET start_time = :start_time, end_time = :end_time,
		    grace_period_min = :grace_period_min, auto_absent_after_min = :auto_absent_after_min
		WHERE id = :id`,
		shiftRow(sh))
	if err != nil {
		return attendance.Shift{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.Shift{}, attendance.ErrShiftNotFound
	}
	return sh, nil
}

func (repo *attendanceRepository) DeleteShift(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM supervisor_shifts WHERE id = $1`, id)
	return err
}

// Records

type recordRow struct {
	ID            string         `db:"id"`
	InstructorID  string         `db:"instructor_id"`
	Date          time.Time      `db:"date"`
	CheckInTime   sql.NullTime   `db:"check_in_time"`
	CheckOutTime  sql.NullTime   `db:"check_out_time"`
	CheckInMethod string         `db:"check_in_method"`
	DeviceID      sql.NullString `db:"device_id"`
	Status        string         `db:"status"`
	ShiftID       sql.NullString `db:"shift_id"`
	LectureID     sql.NullString `db:"lecture_id"`
	Rating        sql.NullInt64  `db:"rating"`
	RatedByID     sql.NullString `db:"rated_by_id"`
	Notes         string         `db:"notes"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r recordRow) record() attendance.Record {
	rec := attendance.Record{
		ID:            r.ID,
		InstructorID:  r.InstructorID,
		Date:          r.Date,
		CheckInMethod: r.CheckInMethod,
		Status:        r.Status,
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.CheckInTime.Valid {
		t := r.CheckInTime.Time
		rec.CheckInTime = &t
	}
	if r.CheckOutTime.Valid {
		t := r.CheckOutTime.Time
		rec.CheckOutTime = &t
	}
	if r.DeviceID.Valid {
		s := r.DeviceID.String
		rec.DeviceID = &s
	}
	if r.ShiftID.Valid {
		s := r.ShiftID.String
		rec.ShiftID = &s
	}
	if r.LectureID.Valid {
		s := r.LectureID.String
		rec.LectureID = &s
	}
	if r.Rating.Valid {
		n := int(r.Rating.Int64)
		rec.Rating = &n
	}
	if r.RatedByID.Valid {
		s := r.RatedByID.String
		rec.RatedByID = &s
	}
	return rec
}

func newRecordRow(rec attendance.Record) recordRow {
	r := recordRow{
		ID:            rec.ID,
		InstructorID:  rec.InstructorID,
		Date:          rec.Date,
		CheckInMethod: rec.CheckInMethod,
		Status:        rec.Status,
		Notes:         rec.Notes,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
	if rec.CheckInTime != nil {
		r.CheckInTime = sql.NullTime{Time: *rec.CheckInTime, Valid: true}
	}
	if rec.CheckOutTime != nil {
		r.CheckOutTime = sql.NullTime{Time: *rec.CheckOutTime, Valid: true}
	}
	if rec.DeviceID != nil {
		r.DeviceID = sql.NullString{String: *rec.DeviceID, Valid: true}
	}
	if rec.ShiftID != nil {
		r.ShiftID = sql.NullString{String: *rec.ShiftID, Valid: true}
	}
	if rec.LectureID != nil {
		r.LectureID = sql.NullString{String: *rec.LectureID, Valid: true}
	}
	if rec.Rating != nil {
		r.Rating = sql.NullInt64{Int64: int64(*rec.Rating), Valid: true}
	}
	if rec.RatedByID != nil {
		r.RatedByID = sql.NullString{String: *rec.RatedByID, Valid: true}
	}
	return r
}

func (repo *attendanceRepository) GetOrCreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, bool, error) {
	rec.ID = uuid.New().String()
	res, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO attendance_records (id, instructor_id, date, check_in_time, check_out_time, check_in_method,
		                                device_id, status, shift_id, lecture_id, rating, rated_by_id, notes, created_at, updated_at)
		VALUES (:id, :instructor_id, :date, :check_in_time, :check_out_time, :check_in_method,
		        :device_id, :status, :shift_id, :lecture_id, :rating, :rated_by_id, :notes, :created_at, :updated_at)
		ON CONFLICT (instructor_id, date) DO NOTHING`,
		newRecordRow(rec))
	if err != nil {
		return attendance.Record{}, false, err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return rec, true, nil
	}
	existing, err := repo.GetRecordByInstructorDate(ctx, rec.InstructorID, rec.Date)
	return existing, false, err
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, id string) (attendance.Record, error) {
	var r recordRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM attendance_records WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, err
	}
	return r.record(), nil
}

func (repo *attendanceRepository) GetRecordByInstructorDate(ctx context.Context, instructorID string, date time.Time) (attendance.Record, error) {
	var r recordRow
	err := repo.db.GetContext(ctx, &r, `
		SELECT * FROM attendance_records WHERE instructor_id = $1 AND date = $2`, instructorID, date)
	if err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, err
	}
	return r.record(), nil
}

func (repo *attendanceRepository) QueryRecordsByDate(ctx context.Context, date time.Time) ([]attendance.Record, error) {
	var rows []recordRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM attendance_records WHERE date = $1 ORDER BY instructor_id`, date)
	if err != nil {
		return nil, err
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.record())
	}
	return recs, nil
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE attendance_records
		SET check_in_time = :check_in_time, check_out_time = :check_out_time, check_in_method = :check_in_method,
		    device_id = :device_id, status = :status, shift_id = :shift_id, lecture_id = :lecture_id,
		    rating = :rating, rated_by_id = :rated_by_id, notes = :notes, updated_at = :updated_at
		WHERE id = :id`,
		newRecordRow(rec))
	if err != nil {
		return attendance.Record{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return rec, nil
}

func (repo *attendanceRepository) MarkAbsentByDate(ctx context.Context, date time.Time, statuses ...string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE attendance_records SET status = $1, updated_at = now()
		WHERE date = $2 AND status = ANY($3)`,
		attendance.StatusAbsent, date, pq.Array(statuses))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Devices

type deviceRow struct {
	ID       string `db:"id"`
	DeviceID string `db:"device_id"`
	Name     string `db:"name"`
	Kind     string `db:"kind"`
	Location string `db:"location"`
	IsActive bool   `db:"is_active"`
}

func (repo *attendanceRepository) CreateDevice(ctx context.Context, dev attendance.Device) (attendance.Device, error) {
	dev.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO attendance_devices (id, device_id, name, kind, location, is_active)
		VALUES (:id, :device_id, :name, :kind, :location, :is_active)`,
		deviceRow(dev))
	if err != nil {
		return attendance.Device{}, err
	}
	return dev, nil
}

func (repo *attendanceRepository) GetDeviceByDeviceID(ctx context.Context, deviceID string) (attendance.Device, error) {
	var r deviceRow
	err := repo.db.GetContext(ctx, &r, `SELECT * FROM attendance_devices WHERE device_id = $1`, deviceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return attendance.Device{}, attendance.ErrDeviceNotFound
		}
		return attendance.Device{}, err
	}
	return attendance.Device(r), nil
}

func (repo *attendanceRepository) QueryAllDevices(ctx context.Context) ([]attendance.Device, error) {
	var rows []deviceRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM attendance_devices ORDER BY name`); err != nil {
		return nil, err
	}
	devs := make([]attendance.Device, 0, len(rows))
	for _, r := range rows {
		devs = append(devs, attendance.Device(r))
	}
	return devs, nil
}

// Job logs

type jobLogRow struct {
	ID      string    `db:"id"`
	JobName string    `db:"job_name"`
	RunAt   time.Time `db:"run_at"`
	Details string    `db:"details"`
}

func (repo *attendanceRepository) CreateJobLog(ctx context.Context, jl attendance.JobLog) (attendance.JobLog, error) {
	jl.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO job_logs (id, job_name, run_at, details)
		VALUES (:id, :job_name, :run_at, :details)`,
		jobLogRow(jl))
	if err != nil {
		return attendance.JobLog{}, err
	}
	return jl, nil
}

func (repo *attendanceRepository) QueryJobLogs(ctx context.Context, jobName string) ([]attendance.JobLog, error) {
	var rows []jobLogRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM job_logs WHERE job_name = $1 ORDER BY run_at`, jobName)
	if err != nil {
		return nil, err
	}
	logs := make([]attendance.JobLog, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, attendance.JobLog(r))
	}
	return logs, nil
}
