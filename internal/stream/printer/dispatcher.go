package printer

import (
	"sync"
	"time"

	"github.com/cinepos/concession-service/internal/domain/ports"
	"github.com/cinepos/concession-service/pkg/observability"
)

// ackHistoryLimit bounds how many delivery confirmations are kept per
// theater.
const ackHistoryLimit = 50

// AgentConn is the outbound half of a print agent's websocket session.
// *websocket.Conn satisfies it.
type AgentConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// printMessage is the frame sent to the agent.
type printMessage struct {
	Type string `json:"type"`
	ports.PrintJob
}

// Ack is a delivery confirmation reported back by the agent.
type Ack struct {
	JobID      string    `json:"jobId"`
	OrderID    string    `json:"orderId,omitempty"`
	Status     string    `json:"status"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// session is one theater's live agent connection.
type session struct {
	conn AgentConn
	// writeMu serializes frames; gorilla connections allow one concurrent
	// writer.
	writeMu sync.Mutex
}

func (s *session) send(job ports.PrintJob) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(printMessage{Type: "print_job", PrintJob: job})
}

// Dispatcher routes print jobs to per-theater agent sessions, buffering jobs
// in memory while an agent is offline. Queues do not survive restarts; that
// trade is deliberate.
type Dispatcher struct {
	mu       sync.Mutex
	sessions map[string]*session
	queues   map[string][]ports.PrintJob
	acks     map[string][]Ack
	logger   ports.Logger
}

var _ ports.PrintQueue = (*Dispatcher)(nil)

// NewDispatcher creates a print dispatcher.
func NewDispatcher(logger ports.Logger) *Dispatcher {
	return &Dispatcher{
		sessions: make(map[string]*session),
		queues:   make(map[string][]ports.PrintJob),
		acks:     make(map[string][]Ack),
		logger:   logger,
	}
}

// Register installs the theater's agent session, replacing any previous one,
// then drains the pending queue in order.
func (d *Dispatcher) Register(theaterID string, conn AgentConn) {
	d.mu.Lock()
	if prev, ok := d.sessions[theaterID]; ok {
		_ = prev.conn.Close()
	}
	sess := &session{conn: conn}
	d.sessions[theaterID] = sess
	pending := d.queues[theaterID]
	delete(d.queues, theaterID)
	d.mu.Unlock()

	observability.SetPrintQueueDepth(theaterID, 0)
	d.logger.Info("print agent registered",
		ports.String("theaterID", theaterID),
		ports.Int("queuedJobs", len(pending)))

	for i, job := range pending {
		if err := sess.send(job); err != nil {
			d.logger.Warn("print agent write failed while draining, requeueing",
				ports.String("theaterID", theaterID),
				ports.String("jobID", job.JobID),
				ports.Err(err))
			d.requeueAndDrop(theaterID, sess, pending[i:])
			return
		}
	}
}

// requeueAndDrop puts undelivered jobs back at the head of the queue and
// drops the broken session.
func (d *Dispatcher) requeueAndDrop(theaterID string, sess *session, undelivered []ports.PrintJob) {
	d.mu.Lock()
	if d.sessions[theaterID] == sess {
		delete(d.sessions, theaterID)
		_ = sess.conn.Close()
	}
	d.queues[theaterID] = append(append([]ports.PrintJob{}, undelivered...), d.queues[theaterID]...)
	depth := len(d.queues[theaterID])
	d.mu.Unlock()
	observability.SetPrintQueueDepth(theaterID, depth)
}

// Unregister removes the theater's session if conn is still the live one.
func (d *Dispatcher) Unregister(theaterID string, conn AgentConn) {
	d.mu.Lock()
	if sess, ok := d.sessions[theaterID]; ok && sess.conn == conn {
		delete(d.sessions, theaterID)
	}
	d.mu.Unlock()
	d.logger.Info("print agent disconnected", ports.String("theaterID", theaterID))
}

// Enqueue delivers the job immediately when an agent is live, otherwise
// buffers it. A failed live write falls back to the queue.
func (d *Dispatcher) Enqueue(theaterID string, job ports.PrintJob) ports.EnqueueResult {
	d.mu.Lock()
	sess, live := d.sessions[theaterID]
	d.mu.Unlock()

	if live {
		err := sess.send(job)
		if err == nil {
			return ports.EnqueueResult{Sent: true}
		}
		d.logger.Warn("print agent write failed, queueing job",
			ports.String("theaterID", theaterID),
			ports.String("jobID", job.JobID),
			ports.Err(err))
		d.mu.Lock()
		if d.sessions[theaterID] == sess {
			delete(d.sessions, theaterID)
			_ = sess.conn.Close()
		}
		d.mu.Unlock()
	}

	d.mu.Lock()
	d.queues[theaterID] = append(d.queues[theaterID], job)
	depth := len(d.queues[theaterID])
	d.mu.Unlock()

	observability.SetPrintQueueDepth(theaterID, depth)
	return ports.EnqueueResult{Queued: true}
}

// RecordAck appends a delivery confirmation to the theater's bounded
// history.
func (d *Dispatcher) RecordAck(theaterID string, ack Ack) {
	if ack.ReceivedAt.IsZero() {
		ack.ReceivedAt = time.Now()
	}
	d.mu.Lock()
	history := append(d.acks[theaterID], ack)
	if len(history) > ackHistoryLimit {
		history = history[len(history)-ackHistoryLimit:]
	}
	d.acks[theaterID] = history
	d.mu.Unlock()
}

// Acks returns a copy of the theater's recent delivery confirmations.
func (d *Dispatcher) Acks(theaterID string) []Ack {
	d.mu.Lock()
	defer d.mu.Unlock()
	history := make([]Ack, len(d.acks[theaterID]))
	copy(history, d.acks[theaterID])
	return history
}

// QueueDepth reports how many jobs are buffered for a theater.
func (d *Dispatcher) QueueDepth(theaterID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues[theaterID])
}
