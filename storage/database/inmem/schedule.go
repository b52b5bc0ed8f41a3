package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

// Templates

func (repo *scheduleRepository) CreateTemplate(_ context.Context, tpl schedule.Template) (schedule.Template, error) {
	repo.db.template.mutex.Lock()
	defer repo.db.template.mutex.Unlock()

	tpl.ID = uuid.New().String()
	repo.db.template.table[tpl.ID] = &tpl
	return tpl, nil
}

func (repo *scheduleRepository) GetTemplate(_ context.Context, id string) (schedule.Template, error) {
	repo.db.template.mutex.RLock()
	defer repo.db.template.mutex.RUnlock()

	if tpl, ok := repo.db.template.table[id]; ok {
		return *tpl, nil
	}
	return schedule.Template{}, schedule.ErrTemplateNotFound
}

func (repo *scheduleRepository) QueryCourseTemplates(_ context.Context, courseID string) ([]schedule.Template, error) {
	repo.db.template.mutex.RLock()
	defer repo.db.template.mutex.RUnlock()

	tpls := make([]schedule.Template, 0)
	for _, tpl := range repo.db.template.table {
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

func (repo *scheduleRepository) UpdateTemplate(_ context.Context, tpl schedule.Template) (schedule.Template, error) {
	repo.db.template.mutex.Lock()
	defer repo.db.template.mutex.Unlock()

	if _, ok := repo.db.template.table[tpl.ID]; !ok {
		return schedule.Template{}, schedule.ErrTemplateNotFound
	}
	repo.db.template.table[tpl.ID] = &tpl
	return tpl, nil
}

func (repo *scheduleRepository) DeleteTemplate(_ context.Context, id string) error {
	repo.db.template.mutex.Lock()
	defer repo.db.template.mutex.Unlock()

	delete(repo.db.template.table, id)
	return nil
}

// Lectures

func sortLectures(lects []schedule.Lecture) {
	sort.Slice(lects, func(i, j int) bool {
		if !lects[i].Day.Equal(lects[j].Day) {
			return lects[i].Day.Before(lects[j].Day)
		}
		return lects[i].StartDateTime().Before(lects[j].StartDateTime())
	})
}

func (repo *scheduleRepository) GetLecture(_ context.Context, id string) (schedule.Lecture, error) {
	repo.db.lecture.mutex.RLock()
	defer repo.db.lecture.mutex.RUnlock()

	if lec, ok := repo.db.lecture.table[id]; ok {
		return *lec, nil
	}
	return schedule.Lecture{}, schedule.ErrLectureNotFound
}

func (repo *scheduleRepository) QueryLectures(_ context.Context, courseID string, from, to time.Time) ([]schedule.Lecture, error) {
	repo.db.lecture.mutex.RLock()
	defer repo.db.lecture.mutex.RUnlock()

	lects := make([]schedule.Lecture, 0)
	for _, lec := range repo.db.lecture.table {
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
	sortLectures(lects)
	return lects, nil
}

func (repo *scheduleRepository) QueryLecturesByDay(_ context.Context, day time.Time) ([]schedule.Lecture, error) {
	repo.db.lecture.mutex.RLock()
	defer repo.db.lecture.mutex.RUnlock()

	lects := make([]schedule.Lecture, 0)
	for _, lec := range repo.db.lecture.table {
		if schedule.SameDate(lec.Day, day) {
			lects = append(lects, *lec)
		}
	}
	sortLectures(lects)
	return lects, nil
}

func (repo *scheduleRepository) UpdateLecture(_ context.Context, lec schedule.Lecture) (schedule.Lecture, error) {
	repo.db.lecture.mutex.Lock()
	defer repo.db.lecture.mutex.Unlock()

	if _, ok := repo.db.lecture.table[lec.ID]; !ok {
		return schedule.Lecture{}, schedule.ErrLectureNotFound
	}
	repo.db.lecture.table[lec.ID] = &lec
	return lec, nil
}

func (repo *scheduleRepository) DeleteLecture(_ context.Context, id string) error {
	repo.db.lecture.mutex.Lock()
	defer repo.db.lecture.mutex.Unlock()

	delete(repo.db.lecture.table, id)
	return nil
}

func (repo *scheduleRepository) ReplaceUpcoming(
	ctx context.Context, courseID string, from time.Time,
	build func(preserved []schedule.Lecture) ([]schedule.Lecture, error),
) ([]schedule.Lecture, error) {
	repo.db.scheduleMu.Lock()
	defer repo.db.scheduleMu.Unlock()

	repo.db.lecture.mutex.Lock()
	defer repo.db.lecture.mutex.Unlock()

	preserved := make([]schedule.Lecture, 0)
	doomed := make([]string, 0)
	for _, lec := range repo.db.lecture.table {
		if lec.CourseID != courseID {
			continue
		}
		if !lec.Day.Before(from) && !lec.AttendanceTaken {
			doomed = append(doomed, lec.ID)
			continue
		}
		preserved = append(preserved, *lec)
	}
	sortLectures(preserved)

	created, err := build(preserved)
	if err != nil {
		return nil, err // nothing touched yet, swap aborted
	}

	for _, id := range doomed {
		delete(repo.db.lecture.table, id)
	}
	out := make([]schedule.Lecture, 0, len(created))
	for _, lec := range created {
		lec := lec
		lec.ID = uuid.New().String()
		repo.db.lecture.table[lec.ID] = &lec
		out = append(out, lec)
	}
	return out, nil
}
