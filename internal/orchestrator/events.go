package orchestrator

import (
	"log/slog"
	"sync"
	"time"
)

// EventType names a notification published by the orchestrator.
type EventType string

const (
	EventStateChanged     EventType = "state_changed"
	EventMetadataReady    EventType = "metadata_ready"
	EventValidationFailed EventType = "validation_failed"

	// EventJobFinished is published exactly once per submission that was not
	// preempted. Result is nil when the job failed or reported no destination
	// URL.
	EventJobFinished EventType = "job_finished"
)

// Event is a single notification. Events are published in the order the
// orchestrator applied the changes they describe.
type Event struct {
	Type         EventType            `json:"type"`
	State        State                `json:"state"`
	Previous     State                `json:"previous,omitempty"`
	SourceID     string               `json:"source_id,omitempty"`
	Metadata     *SourceVideoMetadata `json:"metadata,omitempty"`
	Problems     []string             `json:"problems,omitempty"`
	SubmissionID string               `json:"submission_id,omitempty"`
	Result       *ClipJobResult       `json:"result,omitempty"`
	At           time.Time            `json:"at"`
}

// DefaultSubscriberBuffer is used when Subscribe is called with a
// non-positive buffer size.
const DefaultSubscriberBuffer = 32

type hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	nextID  int
	subs    map[int]chan Event
	dropped map[int]int
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger:  logger,
		subs:    make(map[int]chan Event),
		dropped: make(map[int]int),
	}
}

func (h *hub) subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, buffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				delete(h.dropped, id)
				close(sub)
			}
		})
	}
}

// publish never blocks; a subscriber whose buffer is full misses the event.
func (h *hub) publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- evt:
		default:
			h.dropped[id]++
			h.logger.Warn("event dropped for slow subscriber",
				"subscriber", id,
				"event", evt.Type,
				"dropped_total", h.dropped[id],
			)
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.dropped = make(map[int]int)
}
