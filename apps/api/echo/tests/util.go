package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/ratiba/apps/api/echo"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/course"
	"github.com/trezcool/ratiba/core/schedule"
	notifsvc "github.com/trezcool/ratiba/services/notifier"
	inmemdb "github.com/trezcool/ratiba/storage/database/inmem"
)

var (
	conf = &core.Config{
		TestMode:               true,
		AppName:                "Ratiba",
		SecretKey:              "secret",
		TimeZone:               "UTC",
		GenerateAheadDays:      7,
		GenerationHorizonYears: 2,
		TodayStartBufferMin:    5,
		Server:                 core.ServerConfig{JWTExpirationDelta: time.Hour},
	}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

type testApp struct {
	server     Server
	courseRepo course.Repository
	schedRepo  schedule.Repository
	attRepo    attendance.Repository
}

func setup(t *testing.T) *testApp {
	t.Helper()

	// set up DB & repos
	db := inmemdb.Open()
	courseRepo := inmemdb.NewCourseRepository(db)
	schedRepo := inmemdb.NewScheduleRepository(db)
	attRepo := inmemdb.NewAttendanceRepository(db)

	// set up services
	logger := loggerMock{}
	events := notifsvc.NewConsoleServiceMock()
	notifsvc.ClearSentEvents()
	schedSvc := schedule.NewService(schedRepo, courseRepo, logger, conf)
	courseSvc := course.NewService(courseRepo, logger, conf)
	courseSvc.SetRegenerator(schedSvc)
	attSvc := attendance.NewService(attRepo, schedRepo, events, logger, conf)

	// set up server
	server := NewServer(&Options{
		DisableReqLogs: true,
		Logger:         logger,
		CourseSvc:      courseSvc,
		ScheduleSvc:    schedSvc,
		AttendanceSvc:  attSvc,
	})
	return &testApp{
		server:     server,
		courseRepo: courseRepo,
		schedRepo:  schedRepo,
		attRepo:    attRepo,
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, instructorID string, isAdmin bool) string {
	t.Helper()
	token, err := GenerateToken(NewClaims("tester", instructorID, isAdmin))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// nextWeekday returns the next future date (tomorrow at the earliest) that
// falls on the given calendar weekday.
func nextWeekday(wd time.Weekday) time.Time {
	day := schedule.DateOf(time.Now().In(conf.Location())).AddDate(0, 0, 1)
	for day.Weekday() != wd {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

type loggerMock struct{}

func (loggerMock) Enable(bool)                  {}
func (loggerMock) Debug(string, ...interface{}) {}
func (loggerMock) Info(string, ...interface{})  {}
func (loggerMock) Warn(string, ...interface{})  {}
func (loggerMock) Error(string, ...interface{}) {}
