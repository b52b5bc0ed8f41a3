package inmemdb

import (
	"sync"

	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/course"
	"github.com/trezcool/ratiba/core/schedule"
)

type (
	DB struct {
		course     *courseTable
		template   *templateTable
		lecture    *lectureTable
		shift      *shiftTable
		record     *recordTable
		device     *deviceTable
		jobLog     *jobLogTable
		scheduleMu sync.Mutex // serializes ReplaceUpcoming swaps
	}

	courseTable struct {
		table map[string]*course.Course
		mutex sync.RWMutex
	}
	templateTable struct {
		table map[string]*schedule.Template
		mutex sync.RWMutex
	}
	lectureTable struct {
		table map[string]*schedule.Lecture
		mutex sync.RWMutex
	}
	shiftTable struct {
		table map[string]*attendance.Shift
		mutex sync.RWMutex
	}
	recordTable struct {
		table map[string]*attendance.Record
		mutex sync.RWMutex
	}
	deviceTable struct {
		table map[string]*attendance.Device
		mutex sync.RWMutex
	}
	jobLogTable struct {
		table map[string]*attendance.JobLog
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		course:   &courseTable{table: make(map[string]*course.Course)},
		template: &templateTable{table: make(map[string]*schedule.Template)},
		lecture:  &lectureTable{table: make(map[string]*schedule.Lecture)},
		shift:    &shiftTable{table: make(map[string]*attendance.Shift)},
		record:   &recordTable{table: make(map[string]*attendance.Record)},
		device:   &deviceTable{table: make(map[string]*attendance.Device)},
		jobLog:   &jobLogTable{table: make(map[string]*attendance.JobLog)},
	}
}
