package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ratiba/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

type courseRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Description  string         `db:"description"`
	StartDate    time.Time      `db:"start_date"`
	EndDate      sql.NullTime   `db:"end_date"`
	NumLectures  sql.NullInt64  `db:"num_lectures"`
	InstructorID sql.NullString `db:"instructor_id"`
	IsActive     bool           `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r courseRow) course() course.Course {
	crs := course.Course{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		StartDate:   r.StartDate,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.EndDate.Valid {
		end := r.EndDate.Time
		crs.EndDate = &end
	}
	if r.NumLectures.Valid {
		n := int(r.NumLectures.Int64)
		crs.NumLectures = &n
	}
	if r.InstructorID.Valid {
		instr := r.InstructorID.String
		crs.InstructorID = &instr
	}
	return crs
}

func newCourseRow(crs course.Course) courseRow {
	r := courseRow{
		ID:          crs.ID,
		Name:        crs.Name,
		Description: crs.Description,
		StartDate:   crs.StartDate,
		IsActive:    crs.IsActive,
		CreatedAt:   crs.CreatedAt,
		UpdatedAt:   crs.UpdatedAt,
	}
	if crs.EndDate != nil {
		r.EndDate = sql.NullTime{Time: *crs.EndDate, Valid: true}
	}
	if crs.NumLectures != nil {
		r.NumLectures = sql.NullInt64{Int64: int64(*crs.NumLectures), Valid: true}
	}
	if crs.InstructorID != nil {
		r.InstructorID = sql.NullString{String: *crs.InstructorID, Valid: true}
	}
	return r
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO courses (id, name, description, start_date, end_date, num_lectures, instructor_id, is_active, created_at, updated_at)
		VALUES (:id, :name, :description, :start_date, :end_date, :num_lectures, :instructor_id, :is_active, :created_at, :updated_at)`,
		newCourseRow(crs))
	if err != nil {
		return course.Course{}, err
	}
	return crs, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var r courseRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM courses WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, err
	}
	return r.course(), nil
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM courses ORDER BY name`); err != nil {
		return nil, err
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE courses
		SET name = :name, description = :description, start_date = :start_date, end_date = :end_date,
		    num_lectures = :num_lectures, instructor_id = :instructor_id, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`,
		newCourseRow(crs))
	if err != nil {
		return course.Course{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	return err
}

func (repo *courseRepository) SetDerivedSchedule(ctx context.Context, id string, endDate time.Time, numLectures int) error {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE courses SET end_date = $2, num_lectures = $3, updated_at = now() WHERE id = $1`,
		id, endDate, numLectures)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotFound
	}
	return nil
}
