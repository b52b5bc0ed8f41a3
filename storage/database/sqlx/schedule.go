package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/schedule"
)

type scheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

// Templates

type templateRow struct {
	ID        string             `db:"id"`
	CourseID  string             `db:"course_id"`
	Weekday   schedule.Weekday   `db:"weekday"`
	StartTime schedule.TimeOfDay `db:"start_time"`
	EndTime   schedule.TimeOfDay `db:"end_time"`
	CreatedAt time.Time          `db:"created_at"`
	UpdatedAt time.Time          `db:"updated_at"`
}

func (r templateRow) template() schedule.Template {
	return schedule.Template(r)
}

func (repo *scheduleRepository) CreateTemplate(ctx context.Context, tpl schedule.Template) (schedule.Template, error) {
	tpl.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO lecture_templates (id, course_id, weekday, start_time, end_time, created_at, updated_at)
		VALUES (:id, :course_id, :weekday, :start_time, :end_time, :created_at, :updated_at)`,
		templateRow(tpl))
	if err != nil {
		return schedule.Template{}, err
	}
	return tpl, nil
}

func (repo *scheduleRepository) GetTemplate(ctx context.Context, id string) (schedule.Template, error) {
	var r templateRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM lecture_templates WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return schedule.Template{}, schedule.ErrTemplateNotFound
		}
		return schedule.Template{}, err
	}
	return r.template(), nil
}

func (repo *scheduleRepository) QueryCourseTemplates(ctx context.Context, courseID string) ([]schedule.Template, error) {
	var rows []templateRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM lecture_templates WHERE course_id = $1 ORDER BY weekday, start_time`, courseID)
	if err != nil {
		return nil, err
	}
	tpls := make([]schedule.Template, 0, len(rows))
	for _, r := range rows {
		tpls = append(tpls, r.template())
	}
	return tpls, nil
}

func (repo *scheduleRepository) UpdateTemplate(ctx context.Context, tpl schedule.Template) (schedule.Template, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE lecture_templates
		SET weekday = :weekday, start_time = :start_time, end_time = :end_time, updated_at = :updated_at
		WHERE id = :id`,
		templateRow(tpl))
	if err != nil {
		return schedule.Template{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.Template{}, schedule.ErrTemplateNotFound
	}
	return tpl, nil
}

func (repo *scheduleRepository) DeleteTemplate(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM lecture_templates WHERE id = $1`, id)
	return err
}

// Lectures

type lectureRow struct {
	ID              string         `db:"id"`
	CourseID        string         `db:"course_id"`
	Title           string         `db:"title"`
	Day             time.Time      `db:"day"`
	StartTime       sql.NullString `db:"start_time"`
	EndTime         sql.NullString `db:"end_time"`
	Number          int            `db:"number"`
	InstructorID    sql.NullString `db:"instructor_id"`
	Status          string         `db:"status"`
	AttendanceTaken bool           `db:"attendance_taken"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r lectureRow) lecture() (schedule.Lecture, error) {
	lec := schedule.Lecture{
		ID:              r.ID,
		CourseID:        r.CourseID,
		Title:           r.Title,
		Day:             r.Day,
		Number:          r.Number,
		Status:          r.Status,
		AttendanceTaken: r.AttendanceTaken,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.StartTime.Valid {
		t, err := schedule.ParseTimeOfDay(r.StartTime.String)
		if err != nil {
			return schedule.Lecture{}, errors.Wrap(err, "parsing start_time")
		}
		lec.StartTime = &t
	}
	if r.EndTime.Valid {
		t, err := schedule.ParseTimeOfDay(r.EndTime.String)
		if err != nil {
			return schedule.Lecture{}, errors.Wrap(err, "parsing end_time")
		}
		lec.EndTime = &t
	}
	if r.InstructorID.Valid {
		instr := r.InstructorID.String
		lec.InstructorID = &instr
	}
	return lec, nil
}

func newLectureRow(lec schedule.Lecture) lectureRow {
	r := lectureRow{
		ID:              lec.ID,
		CourseID:        lec.CourseID,
		Title:           lec.Title,
		Day:             lec.Day,
		Number:          lec.Number,
		Status:          lec.Status,
		AttendanceTaken: lec.AttendanceTaken,
		CreatedAt:       lec.CreatedAt,
		UpdatedAt:       lec.UpdatedAt,
	}
	if lec.StartTime != nil {
		r.StartTime = sql.NullString{String: lec.StartTime.String() + ":00", Valid: true}
	}
	if lec.EndTime != nil {
		r.EndTime = sql.NullString{String: lec.EndTime.String() + ":00", Valid: true}
	}
	if lec.InstructorID != nil {
		r.InstructorID = sql.NullString{String: *lec.InstructorID, Valid: true}
	}
	return r
}

func lecturesFromRows(rows []lectureRow) ([]schedule.Lecture, error) {
	lects := make([]schedule.Lecture, 0, len(rows))
	for _, r := range rows {
		lec, err := r.lecture()
		if err != nil {
			return nil, err
		}
		lects = append(lects, lec)
	}
	return lects, nil
}

func (repo *scheduleRepository) GetLecture(ctx context.Context, id string) (schedule.Lecture, error) {
	var r lectureRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM lectures WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return schedule.Lecture{}, schedule.ErrLectureNotFound
		}
		return schedule.Lecture{}, err
	}
	return r.lecture()
}

func (repo *scheduleRepository) QueryLectures(ctx context.Context, courseID string, from, to time.Time) ([]schedule.Lecture, error) {
	q := `SELECT * FROM lectures WHERE course_id = $1`
	args := []interface{}{courseID}
	if !from.IsZero() {
		args = append(args, from)
		q += fmt.Sprintf(` AND day >= $%d`, len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		q += fmt.Sprintf(` AND day <= $%d`, len(args))
	}
	q += ` ORDER BY day, start_time NULLS FIRST`

	var rows []lectureRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return lecturesFromRows(rows)
}

func (repo *scheduleRepository) QueryLecturesByDay(ctx context.Context, day time.Time) ([]schedule.Lecture, error) {
	var rows []lectureRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM lectures WHERE day = $1 ORDER BY start_time NULLS FIRST`, day)
	if err != nil {
		return nil, err
	}
	return lecturesFromRows(rows)
}

func (repo *scheduleRepository) UpdateLecture(ctx context.Context, lec schedule.Lecture) (schedule.Lecture, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE lectures
		SET title = :title, day = :day, start_time = :start_time, end_time = :end_time, number = :number,
		    instructor_id = :instructor_id, status = :status, attendance_taken = :attendance_taken, updated_at = :updated_at
		WHERE id = :id`,
		newLectureRow(lec))
	if err != nil {
		return schedule.Lecture{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.Lecture{}, schedule.ErrLectureNotFound
	}
	return lec, nil
}

func (repo *scheduleRepository) DeleteLecture(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM lectures WHERE id = $1`, id)
	return err
}

func (repo *scheduleRepository) ReplaceUpcoming(
	ctx context.Context, courseID string, from time.Time,
	build func(preserved []schedule.Lecture) ([]schedule.Lecture, error),
) ([]schedule.Lecture, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning swap")
	}
	defer func() { _ = tx.Rollback() }()

	// lock the course's lectures for the duration of the swap
	var rows []lectureRow
	err = tx.SelectContext(ctx, &rows, `
		SELECT * FROM lectures WHERE course_id = $1 ORDER BY day, start_time NULLS FIRST FOR UPDATE`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting lectures")
	}

	preserved := make([]schedule.Lecture, 0, len(rows))
	for _, r := range rows {
		lec, err := r.lecture()
		if err != nil {
			return nil, err
		}
		if !lec.Day.Before(from) && !lec.AttendanceTaken {
			continue // will be replaced
		}
		preserved = append(preserved, lec)
	}

	created, err := build(preserved)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM lectures WHERE course_id = $1 AND day >= $2 AND NOT attendance_taken`, courseID, from)
	if err != nil {
		return nil, errors.Wrap(err, "deleting upcoming lectures")
	}

	out := make([]schedule.Lecture, 0, len(created))
	for _, lec := range created {
		lec.ID = uuid.New().String()
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO lectures (id, course_id, title, day, start_time, end_time, number, instructor_id, status, attendance_taken, created_at, updated_at)
			VALUES (:id, :course_id, :title, :day, :start_time, :end_time, :number, :instructor_id, :status, :attendance_taken, :created_at, :updated_at)`,
			newLectureRow(lec))
		if err != nil {
			return nil, errors.Wrap(err, "inserting lecture")
		}
		out = append(out, lec)
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing swap")
	}
	return out, nil
}
