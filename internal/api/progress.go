package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/montecarlo"
	"leap-portfolio-lab/internal/observability"
)

const (
	subscriberBuffer = 256
	writeTimeout     = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ProgressEvent is one message on the progress stream.
type ProgressEvent struct {
	Job       string `json:"job"`
	Run       int    `json:"run"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Error     string `json:"error,omitempty"`
	Done      bool   `json:"done"`
	ResultID  string `json:"result_id,omitempty"`
}

func progressEvent(job string, p montecarlo.Progress) ProgressEvent {
	ev := ProgressEvent{Job: job, Run: p.Run, Completed: p.Completed, Total: p.Total}
	if p.Err != nil {
		ev.Error = p.Err.Error()
	}
	return ev
}

func doneEvent(job string, res *domain.Result, err error) ProgressEvent {
	ev := ProgressEvent{Job: job, Done: true}
	if err != nil {
		ev.Error = err.Error()
	}
	if res != nil {
		ev.ResultID = res.ID
		if res.MonteCarlo != nil {
			ev.Completed = res.MonteCarlo.Runs
			ev.Total = res.MonteCarlo.Runs
		}
	}
	return ev
}

type subscriber struct {
	job  string // empty receives every job
	send chan ProgressEvent
}

// ProgressHub fans progress events out to websocket subscribers.
type ProgressHub struct {
	mu      sync.Mutex
	subs    map[*subscriber]struct{}
	metrics *observability.Metrics
	logger  *log.Logger
}

// NewProgressHub creates an empty hub.
func NewProgressHub(m *observability.Metrics, logger *log.Logger) *ProgressHub {
	return &ProgressHub{
		subs:    make(map[*subscriber]struct{}),
		metrics: m,
		logger:  logger,
	}
}

// Publish delivers ev to matching subscribers without blocking.
// Events for a subscriber with a full buffer are dropped.
func (h *ProgressHub) Publish(ev ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if sub.job != "" && sub.job != ev.Job {
			continue
		}
		select {
		case sub.send <- ev:
		default:
			h.log("progress subscriber for job %q is full, dropping event", sub.job)
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (h *ProgressHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *ProgressHub) subscribe(job string) *subscriber {
	sub := &subscriber{job: job, send: make(chan ProgressEvent, subscriberBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	h.metrics.ProgressSubscribers.Inc()
	return sub
}

func (h *ProgressHub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()
	if ok {
		h.metrics.ProgressSubscribers.Dec()
	}
}

// ServeHTTP upgrades the request and streams events for ?job= (all jobs when empty).
// The subscription is registered before the handshake completes, so events
// published after the client's dial returns are delivered.
func (h *ProgressHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub := h.subscribe(r.URL.Query().Get("job"))
	defer h.unsubscribe(sub)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Reader detects client close; incoming messages are ignored.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				h.log("websocket write failed: %v", err)
				return
			}
		}
	}
}

func (h *ProgressHub) log(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
