package attendance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func setup() (*Service, *repoMock, *lectureSourceMock, *eventsMock) {
	repo := newRepoMock()
	lectures := new(lectureSourceMock)
	events := new(eventsMock)
	svc := NewService(repo, lectures, events, loggerMock{}, testConf())
	return svc, repo, lectures, events
}

func mustCreateShift(t *testing.T, svc *Service, ns NewShift) Shift {
	t.Helper()
	sh, err := svc.CreateShift(context.Background(), ns)
	if err != nil {
		t.Fatalf("CreateShift() error = %v", err)
	}
	return sh
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	verr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("error = %v, want validation error on %q", err, field)
	}
	for _, fld := range verr.Fields {
		if fld.Field == field {
			return
		}
	}
	t.Fatalf("validation error %v has no field %q", verr.Fields, field)
}

// 2021-03-06 is a Saturday.

func TestCreateShift(t *testing.T) {
	svc, _, _, _ := setup()

	sh := mustCreateShift(t, svc, NewShift{
		InstructorID: "instr1",
		Weekday:      schedule.Saturday,
		StartTime:    schedule.NewTimeOfDay(8, 0),
		EndTime:      schedule.NewTimeOfDay(16, 0),
	})
	if sh.GracePeriodMin != defaultGracePeriodMin {
		t.Errorf("grace period = %d, want default %d", sh.GracePeriodMin, defaultGracePeriodMin)
	}
	if sh.AutoAbsentAfterMin != defaultAutoAbsentAfterMin {
		t.Errorf("auto-absent cutoff = %d, want default %d", sh.AutoAbsentAfterMin, defaultAutoAbsentAfterMin)
	}

	// one shift per instructor per weekday
	_, err := svc.CreateShift(context.Background(), NewShift{
		InstructorID: "instr1",
		Weekday:      schedule.Saturday,
		StartTime:    schedule.NewTimeOfDay(9, 0),
		EndTime:      schedule.NewTimeOfDay(17, 0),
	})
	assertFieldError(t, err, "weekday")
}

func TestUpdateShift(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := setup()
	sh := mustCreateShift(t, svc, NewShift{
		InstructorID: "instr1",
		Weekday:      schedule.Saturday,
		StartTime:    schedule.NewTimeOfDay(8, 0),
		EndTime:      schedule.NewTimeOfDay(16, 0),
	})

	grace := 30
	got, err := svc.UpdateShift(ctx, sh.ID, UpdateShift{GracePeriodMin: &grace})
	if err != nil {
		t.Fatalf("UpdateShift() error = %v", err)
	}
	if got.GracePeriodMin != 30 {
		t.Errorf("grace period = %d, want 30", got.GracePeriodMin)
	}

	// cannot move the end before the (unchanged) start
	end := schedule.NewTimeOfDay(7, 0)
	_, err = svc.UpdateShift(ctx, sh.ID, UpdateShift{EndTime: &end})
	assertFieldError(t, err, "end_time")
}

func TestCheckIn_unlinked(t *testing.T) {
	ctx := context.Background()
	svc, _, _, events := setup()

	nowFunc = func() time.Time { return time.Date(2021, 3, 6, 9, 30, 0, 0, time.UTC) }
	defer func() { nowFunc = time.Now }()

	rec, err := svc.CheckIn(ctx, CheckInRequest{InstructorID: "instr1", Method: MethodAdmin})
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if rec.Status != StatusPresent {
		t.Errorf("status = %s, want %s", rec.Status, StatusPresent)
	}
	if rec.CheckInTime == nil || !rec.CheckInTime.Equal(time.Date(2021, 3, 6, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("check-in time = %v", rec.CheckInTime)
	}
	if len(events.events) != 1 || events.events[0].Status != StatusPresent {
		t.Errorf("events = %+v, want one present event", events.events)
	}

	// a second check-in the same day is rejected
	_, err = svc.CheckIn(ctx, CheckInRequest{InstructorID: "instr1", Method: MethodAdmin})
	assertFieldError(t, err, "instructor_id")
}

func TestCheckIn_shiftStatus(t *testing.T) {
	tests := []struct {
		name       string
		at         time.Time
		wantStatus string
	}{
		{"before start", time.Date(2021, 3, 6, 7, 45, 0, 0, time.UTC), StatusPresent},
		{"within grace", time.Date(2021, 3, 6, 8, 15, 0, 0, time.UTC), StatusPresent},
		{"at grace boundary", time.Date(2021, 3, 6, 8, 20, 0, 0, time.UTC), StatusPresent},
		{"past grace", time.Date(2021, 3, 6, 8, 21, 0, 0, time.UTC), StatusLate},
		{"just before cutoff", time.Date(2021, 3, 6, 9, 0, 0, 0, time.UTC), StatusLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, _, _, _ := setup()
			mustCreateShift(t, svc, NewShift{
				InstructorID: "instr1",
				Weekday:      schedule.Saturday,
				StartTime:    schedule.NewTimeOfDay(8, 0),
				EndTime:      schedule.NewTimeOfDay(16, 0),
			})
			defer func() { nowFunc = time.Now }()

			// materialize the shift-linked record for the day
			nowFunc = func() time.Time { return tt.at }
			if _, err := svc.GenerateForDateRange(ctx, tt.at, tt.at); err != nil {
				t.Fatalf("GenerateForDateRange() error = %v", err)
			}

			rec, err := svc.CheckIn(ctx, CheckInRequest{InstructorID: "instr1", Method: MethodFingerprint})
			if err != nil {
				t.Fatalf("CheckIn() error = %v", err)
			}
			if rec.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", rec.Status, tt.wantStatus)
			}
		})
	}
}

func TestCheckIn_pastCutoffMarksAbsent(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := setup()
	mustCreateShift(t, svc, NewShift{
		InstructorID: "instr1",
		Weekday:      schedule.Saturday,
		StartTime:    schedule.NewTimeOfDay(8, 0),
		EndTime:      schedule.NewTimeOfDay(16, 0),
	})
	defer func() { nowFunc = time.Now }()

	// 8:00 start, 60 min cutoff; 9:01 is too late
	nowFunc = func() time.Time { return time.Date(2021, 3, 6, 9, 1, 0, 0, time.UTC) }
	if _, err := svc.GenerateForDateRange(ctx, nowFunc(), nowFunc()); err != nil {
		t.Fatalf("GenerateForDateRange() error = %v", err)
	}

	_, err := svc.CheckIn(ctx, CheckInRequest{InstructorID: "instr1", Method: MethodFingerprint})
	assertFieldError(t, err, "instructor_id")

	rec, err := repo.GetRecordByInstructorDate(ctx, "instr1", date(2021, 3, 6))
	if err != nil {
		t.Fatalf("GetRecordByInstructorDate() error = %v", err)
	}
	if rec.Status != StatusAbsent {
		t.Errorf("status = %s, want %s", rec.Status, StatusAbsent)
	}

	// and the absence is final
	_, err = svc.CheckIn(ctx, CheckInRequest{InstructorID: "instr1", Method: MethodFingerprint})
	assertFieldError(t, err, "instructor_id")
}

func TestCheckIn_device(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := setup()

	dev, err := svc.RegisterDevice(ctx, NewDevice{
		DeviceID: "gate-01",
		Name:     "Main gate reader",
		Kind:     DeviceRFID,
		Location: "Main gate",
	})
	if err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	nowFunc = func() time.Time { return time.Date(2021, 3, 6, 9, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = time.Now }()

	rec, err := svc.CheckIn(ctx, CheckInRequest{InstructorID: "instr1", Method: MethodRFID, DeviceID: "gate-01"})
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if rec.DeviceID == nil || *rec.DeviceID != "gate-01" {
		t.Errorf("device id = %v, want gate-01", rec.DeviceID)
	}

	// unknown device
	_, err = svc.CheckIn(ctx, CheckInRequest{InstructorID: "instr2", Method: MethodRFID, DeviceID: "gate-99"})
	if err != ErrDeviceNotFound {
		t.Errorf("CheckIn() error = %v, want %v", err, ErrDeviceNotFound)
	}

	// disabled device
	repo.devices[dev.ID].IsActive = false
	_, err = svc.CheckIn(ctx, CheckInRequest{InstructorID: "instr2", Method: MethodRFID, DeviceID: "gate-01"})
	assertFieldError(t, err, "device_id")
}

func TestCheckOut(t *testing.T) {
	ctx := context.Background()
	svc, _, _, events := setup()
	defer func() { nowFunc = time.Now }()

	// not checked in yet
	nowFunc = func() time.Time { return time.Date(2021, 3, 6, 17, 0, 0, 0, time.UTC) }
	_, err := svc.CheckOut(ctx, CheckOutRequest{InstructorID: "instr1"})
	if err != ErrRecordNotFound {
		t.Fatalf("CheckOut() error = %v, want %v", err, ErrRecordNotFound)
	}

	nowFunc = func() time.Time { return time.Date(2021, 3, 6, 9, 0, 0, 0, time.UTC) }
	if _, err = svc.CheckIn(ctx, CheckInRequest{InstructorID: "instr1", Method: MethodAdmin}); err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}

	nowFunc = func() time.Time { return time.Date(2021, 3, 6, 17, 0, 0, 0, time.UTC) }
	rec, err := svc.CheckOut(ctx, CheckOutRequest{InstructorID: "instr1"})
	if err != nil {
		t.Fatalf("CheckOut() error = %v", err)
	}
	if rec.CheckOutTime == nil || !rec.CheckOutTime.Equal(time.Date(2021, 3, 6, 17, 0, 0, 0, time.UTC)) {
		t.Errorf("check-out time = %v", rec.CheckOutTime)
	}
	if rec.Status != StatusPresent {
		t.Errorf("status = %s, checking out must not change it", rec.Status)
	}
	if len(events.events) != 2 {
		t.Errorf("published %d events, want 2", len(events.events))
	}

	// twice
	_, err = svc.CheckOut(ctx, CheckOutRequest{InstructorID: "instr1"})
	assertFieldError(t, err, "instructor_id")
}

func TestMarkAbsent(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := setup()
	defer func() { nowFunc = time.Now }()
	nowFunc = func() time.Time { return time.Date(2021, 3, 6, 12, 0, 0, 0, time.UTC) }

	repo.GetOrCreateRecord(ctx, Record{InstructorID: "instr1", Date: date(2021, 3, 6), Status: StatusNotStarted})

	rec, err := svc.MarkAbsent(ctx, "instr1", date(2021, 3, 6))
	if err != nil {
		t.Fatalf("MarkAbsent() error = %v", err)
	}
	if rec.Status != StatusAbsent {
		t.Errorf("status = %s, want %s", rec.Status, StatusAbsent)
	}

	// a checked-in instructor cannot be marked absent
	if _, err = svc.CheckIn(ctx, CheckInRequest{InstructorID: "instr2", Method: MethodAdmin}); err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	_, err = svc.MarkAbsent(ctx, "instr2", date(2021, 3, 6))
	assertFieldError(t, err, "instructor_id")
}

func TestRate(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := setup()

	rec, _, _ := repo.GetOrCreateRecord(ctx, Record{InstructorID: "instr1", Date: date(2021, 3, 6), Status: StatusPresent})

	got, err := svc.Rate(ctx, rec.ID, RateRequest{Rating: 8, RatedByID: "admin1", Notes: "strong start"})
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if got.Rating == nil || *got.Rating != 8 || got.RatedByID == nil || *got.RatedByID != "admin1" {
		t.Errorf("rating = %v by %v", got.Rating, got.RatedByID)
	}
	if got.Notes != "strong start" {
		t.Errorf("notes = %q, want %q", got.Notes, "strong start")
	}

	// re-rating overwrites, notes included
	got, err = svc.Rate(ctx, rec.ID, RateRequest{Rating: 5, RatedByID: "admin2", Notes: "left early"})
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if *got.Rating != 5 || *got.RatedByID != "admin2" || got.Notes != "left early" {
		t.Errorf("rating = %v by %v (%q), want 5 by admin2 (left early)", *got.Rating, *got.RatedByID, got.Notes)
	}

	// out of range
	if _, err = svc.Rate(ctx, rec.ID, RateRequest{Rating: 11, RatedByID: "admin1"}); err == nil {
		t.Error("Rate() accepted an out-of-range rating")
	}
}

func TestGenerateAhead(t *testing.T) {
	ctx := context.Background()
	svc, repo, lectures, _ := setup()
	defer func() { nowFunc = time.Now }()

	// Saturday shift for instr1, Tuesday lecture for instr2
	mustCreateShift(t, svc, NewShift{
		InstructorID: "instr1",
		Weekday:      schedule.Saturday,
		StartTime:    schedule.NewTimeOfDay(8, 0),
		EndTime:      schedule.NewTimeOfDay(16, 0),
	})
	instr2 := "instr2"
	// lec2 has no instructor and lec3 is cancelled; neither gets a record
	lectures.lectures = []schedule.Lecture{
		{ID: "lec1", CourseID: "crs1", Day: date(2021, 3, 9), Number: 1, InstructorID: &instr2, Status: schedule.StatusScheduled},
		{ID: "lec2", CourseID: "crs1", Day: date(2021, 3, 9), Number: 2, Status: schedule.StatusScheduled},
		{ID: "lec3", CourseID: "crs2", Day: date(2021, 3, 9), Number: 1, InstructorID: &instr2, Status: schedule.StatusCancelled},
	}

	// Saturday; the 7 day window covers Sat through Fri
	nowFunc = func() time.Time { return time.Date(2021, 3, 6, 6, 0, 0, 0, time.UTC) }

	created, err := svc.GenerateAhead(ctx)
	if err != nil {
		t.Fatalf("GenerateAhead() error = %v", err)
	}
	// instr1's Saturday shift + instr2's Tuesday lecture
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}

	rec, err := repo.GetRecordByInstructorDate(ctx, "instr1", date(2021, 3, 6))
	if err != nil {
		t.Fatalf("shift record missing: %v", err)
	}
	if rec.ShiftID == nil || rec.Status != StatusNotStarted {
		t.Errorf("shift record = %+v", rec)
	}
	rec, err = repo.GetRecordByInstructorDate(ctx, "instr2", date(2021, 3, 9))
	if err != nil {
		t.Fatalf("lecture record missing: %v", err)
	}
	if rec.LectureID == nil || *rec.LectureID != "lec1" {
		t.Errorf("lecture record = %+v", rec)
	}

	// re-running creates nothing new
	created, err = svc.GenerateAhead(ctx)
	if err != nil {
		t.Fatalf("GenerateAhead() rerun error = %v", err)
	}
	if created != 0 {
		t.Errorf("rerun created = %d, want 0", created)
	}

	logs, err := svc.QueryJobLogs(ctx, JobGenerateAhead)
	if err != nil {
		t.Fatalf("QueryJobLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d job logs, want 2", len(logs))
	}
	if want := "Created 2 attendance records from 2021-03-06 to 2021-03-12"; logs[0].Details != want {
		t.Errorf("details = %q, want %q", logs[0].Details, want)
	}
}

func TestSweepAbsent(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := setup()
	defer func() { nowFunc = time.Now }()
	nowFunc = func() time.Time { return time.Date(2021, 3, 6, 23, 0, 0, 0, time.UTC) }

	repo.GetOrCreateRecord(ctx, Record{InstructorID: "instr1", Date: date(2021, 3, 6), Status: StatusNotStarted})
	repo.GetOrCreateRecord(ctx, Record{InstructorID: "instr2", Date: date(2021, 3, 6), Status: StatusPending})
	repo.GetOrCreateRecord(ctx, Record{InstructorID: "instr3", Date: date(2021, 3, 6), Status: StatusPresent})
	repo.GetOrCreateRecord(ctx, Record{InstructorID: "instr4", Date: date(2021, 3, 6), Status: StatusLate})
	// yesterday's leftovers are out of scope
	repo.GetOrCreateRecord(ctx, Record{InstructorID: "instr5", Date: date(2021, 3, 5), Status: StatusNotStarted})

	swept, err := svc.SweepAbsent(ctx)
	if err != nil {
		t.Fatalf("SweepAbsent() error = %v", err)
	}
	if swept != 2 {
		t.Fatalf("swept = %d, want 2", swept)
	}

	wantStatuses := []struct {
		instructorID string
		day          time.Time
		status       string
	}{
		{"instr1", date(2021, 3, 6), StatusAbsent},
		{"instr2", date(2021, 3, 6), StatusAbsent},
		{"instr3", date(2021, 3, 6), StatusPresent},
		{"instr4", date(2021, 3, 6), StatusLate},
		{"instr5", date(2021, 3, 5), StatusNotStarted},
	}
	for _, want := range wantStatuses {
		rec, err := repo.GetRecordByInstructorDate(ctx, want.instructorID, want.day)
		if err != nil {
			t.Fatalf("record for %s missing: %v", want.instructorID, err)
		}
		if rec.Status != want.status {
			t.Errorf("%s status = %s, want %s", want.instructorID, rec.Status, want.status)
		}
	}

	// re-running sweeps nothing new
	swept, err = svc.SweepAbsent(ctx)
	if err != nil {
		t.Fatalf("SweepAbsent() rerun error = %v", err)
	}
	if swept != 0 {
		t.Errorf("rerun swept = %d, want 0", swept)
	}

	logs, _ := svc.QueryJobLogs(ctx, JobMarkAbsent)
	if len(logs) != 2 {
		t.Fatalf("got %d job logs, want 2", len(logs))
	}
	if !strings.Contains(logs[0].Details, "Marked 2 instructors as ABSENT for 2021-03-06") {
		t.Errorf("details = %q", logs[0].Details)
	}
}
