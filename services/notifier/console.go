package notifsvc

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/trezcool/ratiba/core"
)

var (
	// SentEvents collects events published by the console service; inspected in tests.
	SentEvents = make([]core.AttendanceEvent, 0)
	mu         sync.Mutex
)

// consoleService prints attendance events to the log instead of pushing them
// to live subscribers; used in local dev.
type consoleService struct {
	disableOutput bool
}

var _ core.EventService = (*consoleService)(nil)

func NewConsoleService() core.EventService {
	return &consoleService{}
}

func (svc consoleService) Publish(events ...*core.AttendanceEvent) {
	for _, evt := range events {
		go svc.publish(evt)
	}
}

func (svc consoleService) publish(evt *core.AttendanceEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("marshalling event: %v", err)
		return
	}
	if !svc.disableOutput {
		log.Printf("attendance event: %s", data)
	}
	mu.Lock()
	SentEvents = append(SentEvents, *evt)
	mu.Unlock()
}

type consoleServiceMock struct {
	consoleService
}

func NewConsoleServiceMock() core.EventService {
	return &consoleServiceMock{consoleService{disableOutput: true}}
}

func (svc *consoleServiceMock) Publish(events ...*core.AttendanceEvent) {
	for _, evt := range events {
		// run synchronously
		svc.publish(evt)
	}
}

// ClearSentEvents resets the captured events between tests.
func ClearSentEvents() {
	mu.Lock()
	SentEvents = SentEvents[:0]
	mu.Unlock()
}
