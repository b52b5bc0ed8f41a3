package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/ratiba/core/schedule"
	testutil "github.com/trezcool/ratiba/tests"
)

func TestTemplateAPI(t *testing.T) {
	app := setup(t)
	adminToken := getToken(t, "", true)
	instrToken := getToken(t, "instr1", false)

	target := 2
	start := nextWeekday(time.Wednesday)
	crs := testutil.CreateCourse(t, app.courseRepo, "Physics", start, nil, &target, nil)

	body := marchallObj(t, schedule.NewTemplate{
		CourseID:  crs.ID,
		Weekday:   schedule.Wednesday,
		StartTime: schedule.NewTimeOfDay(10, 0),
		EndTime:   schedule.NewTimeOfDay(12, 0),
	})

	t.Run("non-admin cannot create", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/templates", instrToken, body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	var tpl schedule.Template
	t.Run("create generates the schedule", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/templates", adminToken, body)
		app.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &tpl); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/lectures", instrToken)
		app.server.ServeHTTP(rec, req)
		var lects []schedule.Lecture
		if err := json.Unmarshal(rec.Body.Bytes(), &lects); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(lects) != target {
			t.Errorf("got %d lectures, want %d", len(lects), target)
		}
	})

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/templates/"+tpl.ID, instrToken)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("delete drops upcoming lectures", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/templates/"+tpl.ID, adminToken)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/lectures", instrToken)
		app.server.ServeHTTP(rec, req)
		var lects []schedule.Lecture
		if err := json.Unmarshal(rec.Body.Bytes(), &lects); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(lects) != 0 {
			t.Errorf("got %d lectures, want none", len(lects))
		}
	})
}

func TestLectureAPI_queryByDay(t *testing.T) {
	app := setup(t)
	token := getToken(t, "instr1", false)
	crs := testutil.CreateCourse(t, app.courseRepo, "Physics", testutil.Date(2030, 3, 2), nil, nil, nil)
	testutil.CreateLecture(t, app.schedRepo, crs.ID, testutil.Date(2030, 3, 4), 1, nil)

	t.Run("date param is required", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"date":"this query param is required"}`),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/lectures", token)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("by day", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/lectures?date=2030-03-04", token)
		app.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var lects []schedule.Lecture
		if err := json.Unmarshal(rec.Body.Bytes(), &lects); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(lects) != 1 {
			t.Errorf("got %d lectures, want 1", len(lects))
		}
	})
}

func TestLectureAPI_updateStatus(t *testing.T) {
	app := setup(t)
	adminToken := getToken(t, "", true)
	crs := testutil.CreateCourse(t, app.courseRepo, "Physics", testutil.Date(2030, 3, 2), nil, nil, nil)
	lec := testutil.CreateLecture(t, app.schedRepo, crs.ID, testutil.Date(2030, 3, 4), 1, nil)

	body := []byte(`{"status":"cancelled"}`)
	req, rec := newAuthRequest(http.MethodPut, "/v1/lectures/"+lec.ID+"/status", adminToken, body)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
	}

	// cancelled is final
	body = []byte(`{"status":"completed"}`)
	req, rec = newAuthRequest(http.MethodPut, "/v1/lectures/"+lec.ID+"/status", adminToken, body)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestLectureAPI_attendanceMarking(t *testing.T) {
	app := setup(t)
	adminToken := getToken(t, "", true)
	instrToken := getToken(t, "instr1", false)
	crs := testutil.CreateCourse(t, app.courseRepo, "Physics", testutil.Date(2030, 3, 2), nil, nil, nil)

	// far in the future; outside the marking window
	future := testutil.CreateLecture(t, app.schedRepo, crs.ID, testutil.Date(2030, 3, 4), 1, nil)

	t.Run("can-mark is false outside the window", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: []byte(`{"can_mark":false}`),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/lectures/"+future.ID+"/can-mark", instrToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("marking outside the window fails", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"lecture":"attendance can only be marked from the lecture start until 24 hours after"}`),
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/lectures/"+future.ID+"/attendance-taken", instrToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("admin overrides the window", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/lectures/"+future.ID+"/attendance-taken", adminToken)
		app.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var lec schedule.Lecture
		if err := json.Unmarshal(rec.Body.Bytes(), &lec); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !lec.AttendanceTaken {
			t.Error("lecture not flagged")
		}
	})
}
