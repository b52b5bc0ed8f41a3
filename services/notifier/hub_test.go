package notifsvc

import (
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/ratiba/core"
)

type loggerMock struct{}

var _ core.Logger = (*loggerMock)(nil)

func (loggerMock) Enable(bool)                  {}
func (loggerMock) Debug(string, ...interface{}) {}
func (loggerMock) Info(string, ...interface{})  {}
func (loggerMock) Warn(string, ...interface{})  {}
func (loggerMock) Error(string, ...interface{}) {}

func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	app := echo.New()
	app.GET("/live", hub.Handler)
	srv := httptest.NewServer(app)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("Dial() error = %v", err)
	}
	waitForSubscribers(t, hub, 1)
	return conn, func() {
		_ = conn.Close()
		srv.Close()
	}
}

func waitForSubscribers(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.Lock()
		n := len(hub.clients)
		hub.mu.Unlock()
		if n == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscriber count = %d, want %d", n, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_publishDelivers(t *testing.T) {
	hub := NewHub(loggerMock{})
	defer hub.Close()
	conn, teardown := dialHub(t, hub)
	defer teardown()

	want := core.AttendanceEvent{
		InstructorID: "instr1",
		RecordID:     "rec1",
		Status:       "present",
		Date:         "2021-03-06",
		Time:         time.Date(2021, 3, 6, 8, 0, 0, 0, time.UTC),
	}
	hub.Publish(&want)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got core.AttendanceEvent
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got.InstructorID != want.InstructorID || got.RecordID != want.RecordID ||
		got.Status != want.Status || got.Date != want.Date || !got.Time.Equal(want.Time) {
		t.Errorf("got event %+v, want %+v", got, want)
	}
}

// Check-ins for different instructors may publish at the same time; every
// queued event must still reach the subscriber intact, one at a time.
func TestHub_publishConcurrent(t *testing.T) {
	hub := NewHub(loggerMock{})
	defer hub.Close()
	conn, teardown := dialHub(t, hub)
	defer teardown()

	publishers := 4
	var wg sync.WaitGroup
	wg.Add(publishers)
	for p := 0; p < publishers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := 0; i < subscriberBuffer; i++ {
				hub.Publish(&core.AttendanceEvent{
					InstructorID: "instr" + strconv.Itoa(p),
					Status:       "present",
					Date:         "2021-03-06",
				})
			}
		}(p)
	}

	// the buffer never rejects an event while a reader keeps up, so at
	// least its capacity must arrive
	received := 0
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for received < subscriberBuffer {
		var evt core.AttendanceEvent
		if err := conn.ReadJSON(&evt); err != nil {
			t.Fatalf("ReadJSON() error = %v after %d events", err, received)
		}
		if evt.Status != "present" || evt.Date != "2021-03-06" {
			t.Fatalf("got malformed event %+v", evt)
		}
		received++
	}
	wg.Wait()
}

func TestHub_removesGoneSubscriber(t *testing.T) {
	hub := NewHub(loggerMock{})
	defer hub.Close()
	conn, teardown := dialHub(t, hub)
	defer teardown()

	_ = conn.Close()
	waitForSubscribers(t, hub, 0)

	// publishing to an empty hub is a no-op
	hub.Publish(&core.AttendanceEvent{InstructorID: "instr1"})
}
