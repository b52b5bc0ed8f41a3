package course

import (
	"time"
)

type Course struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`

	// one of EndDate or NumLectures drives lecture generation; a course with
	// neither never generates.
	EndDate     *time.Time `json:"end_date"`
	NumLectures *int       `json:"num_lectures"`

	InstructorID *string   `json:"instructor_id"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// HasGenerationBound reports whether the course can drive lecture generation.
func (c Course) HasGenerationBound() bool {
	return c.EndDate != nil || c.NumLectures != nil
}

type NewCourse struct {
	Name         string  `json:"name" validate:"required"`
	Description  string  `json:"description"`
	StartDate    string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	NumLectures  *int    `json:"num_lectures" validate:"omitempty,min=1"`
	InstructorID *string `json:"instructor_id"`
}

type UpdateCourse struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	StartDate    string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	NumLectures  *int    `json:"num_lectures" validate:"omitempty,min=1"`
	InstructorID *string `json:"instructor_id"`
	IsActive     *bool   `json:"is_active"`

	// omitted fields are left unchanged, so clearing a generation bound
	// (switching between count and end-date mode) must be asked for
	// explicitly
	ClearEndDate     bool `json:"clear_end_date"`
	ClearNumLectures bool `json:"clear_num_lectures"`
}
