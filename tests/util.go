package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/course"
	"github.com/trezcool/ratiba/core/schedule"
)

func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	name string,
	startDate time.Time,
	endDate *time.Time,
	numLectures *int,
	instructorID *string,
) course.Course {
	t.Helper()
	now := time.Now().UTC()
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Name:         name,
		StartDate:    startDate,
		EndDate:      endDate,
		NumLectures:  numLectures,
		InstructorID: instructorID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateTemplate(
	t *testing.T,
	repo schedule.Repository,
	courseID string,
	wd schedule.Weekday,
	start, end schedule.TimeOfDay,
) schedule.Template {
	t.Helper()
	now := time.Now().UTC()
	tpl, err := repo.CreateTemplate(context.Background(), schedule.Template{
		CourseID:  courseID,
		Weekday:   wd,
		StartTime: start,
		EndTime:   end,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateTemplate() failed: %v", err)
	}
	return tpl
}

func CreateLecture(
	t *testing.T,
	repo schedule.Repository,
	courseID string,
	day time.Time,
	number int,
	instructorID *string,
) schedule.Lecture {
	t.Helper()
	now := time.Now().UTC()
	start, end := schedule.NewTimeOfDay(10, 0), schedule.NewTimeOfDay(12, 0)
	lec := schedule.Lecture{
		CourseID:     courseID,
		Title:        "Lecture",
		Day:          day,
		StartTime:    &start,
		EndTime:      &end,
		Number:       number,
		InstructorID: instructorID,
		Status:       schedule.StatusScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// insert via the swap primitive; the far-future cutoff dooms nothing
	farFuture := Date(3000, 1, 1)
	lects, err := repo.ReplaceUpcoming(context.Background(), courseID, farFuture, func([]schedule.Lecture) ([]schedule.Lecture, error) {
		return []schedule.Lecture{lec}, nil
	})
	if err != nil {
		t.Fatalf("CreateLecture() failed: %v", err)
	}
	return lects[0]
}

func CreateShift(
	t *testing.T,
	repo attendance.Repository,
	instructorID string,
	wd schedule.Weekday,
	start, end schedule.TimeOfDay,
) attendance.Shift {
	t.Helper()
	sh, err := repo.CreateShift(context.Background(), attendance.Shift{
		InstructorID:       instructorID,
		Weekday:            wd,
		StartTime:          start,
		EndTime:            end,
		GracePeriodMin:     20,
		AutoAbsentAfterMin: 60,
	})
	if err != nil {
		t.Fatalf("CreateShift() failed: %v", err)
	}
	return sh
}

func CreateDevice(
	t *testing.T,
	repo attendance.Repository,
	deviceID, name, kind string,
	isActive bool,
) attendance.Device {
	t.Helper()
	dev, err := repo.CreateDevice(context.Background(), attendance.Device{
		DeviceID: deviceID,
		Name:     name,
		Kind:     kind,
		IsActive: isActive,
	})
	if err != nil {
		t.Fatalf("CreateDevice() failed: %v", err)
	}
	return dev
}

func CreateRecord(
	t *testing.T,
	repo attendance.Repository,
	instructorID string,
	date time.Time,
	status string,
) attendance.Record {
	t.Helper()
	now := time.Now().UTC()
	rec, _, err := repo.GetOrCreateRecord(context.Background(), attendance.Record{
		InstructorID: instructorID,
		Date:         date,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return rec
}
