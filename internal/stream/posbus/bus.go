package posbus

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cinepos/concession-service/internal/domain/ports"
	"github.com/cinepos/concession-service/pkg/observability"
)

const (
	// heartbeatInterval is how often comment keep-alives go out.
	heartbeatInterval = 30 * time.Second

	// subscriberBuffer is each subscriber's frame buffer. A subscriber that
	// cannot drain this many frames is considered dead and evicted.
	subscriberBuffer = 16
)

// keepAliveFrame is the SSE comment written on each heartbeat.
var keepAliveFrame = []byte(": keep-alive\n\n")

// Subscription is one live SSE consumer. Frames arrive pre-encoded in SSE
// wire format; the HTTP handler only writes and flushes them.
type Subscription struct {
	ID        string
	TheaterID string
	Frames    chan []byte
}

// Bus fans POS events out to per-theater SSE subscribers. Membership is
// process-local and unreplayed; subscribers reconnect after restarts.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string]map[string]*Subscription
	logger      ports.Logger
	stop        chan struct{}
	stopOnce    sync.Once
}

var _ ports.POSPublisher = (*Bus)(nil)

// NewBus creates a bus and starts its heartbeat loop.
func NewBus(logger ports.Logger) *Bus {
	b := &Bus{
		subscribers: make(map[string]map[string]*Subscription),
		logger:      logger,
		stop:        make(chan struct{}),
	}
	go b.heartbeatLoop()
	return b
}

// Subscribe registers a consumer for a theater. The first frame is the
// connected event.
func (b *Bus) Subscribe(theaterID string) *Subscription {
	sub := &Subscription{
		ID:        uuid.NewString(),
		TheaterID: theaterID,
		Frames:    make(chan []byte, subscriberBuffer),
	}
	sub.Frames <- encodeFrame(map[string]string{
		"type":      "connected",
		"theaterId": theaterID,
	})

	b.mu.Lock()
	set, ok := b.subscribers[theaterID]
	if !ok {
		set = make(map[string]*Subscription)
		b.subscribers[theaterID] = set
	}
	set[sub.ID] = sub
	count := len(set)
	b.mu.Unlock()

	observability.SetPOSSubscribers(theaterID, count)
	b.logger.Info("POS subscriber registered",
		ports.String("theaterID", theaterID),
		ports.Int("subscribers", count))
	return sub
}

// Unsubscribe removes a consumer. Safe to call more than once.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	count := b.removeLocked(sub)
	b.mu.Unlock()
	observability.SetPOSSubscribers(sub.TheaterID, count)
}

// removeLocked removes the subscription and returns the remaining count.
// Caller holds b.mu.
func (b *Bus) removeLocked(sub *Subscription) int {
	set, ok := b.subscribers[sub.TheaterID]
	if !ok {
		return 0
	}
	if _, present := set[sub.ID]; present {
		delete(set, sub.ID)
		close(sub.Frames)
	}
	if len(set) == 0 {
		delete(b.subscribers, sub.TheaterID)
		return 0
	}
	return len(set)
}

// Broadcast delivers an event to every live subscriber of the theater and
// returns the number of successful writes. A subscriber whose buffer is full
// is evicted.
func (b *Bus) Broadcast(theaterID string, event ports.POSEvent) int {
	frame := encodeFrame(event)

	b.mu.Lock()
	delivered := 0
	for _, sub := range b.snapshotLocked(theaterID) {
		select {
		case sub.Frames <- frame:
			delivered++
		default:
			b.logger.Warn("evicting stalled POS subscriber",
				ports.String("theaterID", theaterID),
				ports.String("subscriberID", sub.ID))
			b.removeLocked(sub)
		}
	}
	count := len(b.subscribers[theaterID])
	b.mu.Unlock()

	observability.SetPOSSubscribers(theaterID, count)
	return delivered
}

// snapshotLocked returns the theater's subscribers as a slice so eviction
// during iteration is safe. Caller holds b.mu.
func (b *Bus) snapshotLocked(theaterID string) []*Subscription {
	set := b.subscribers[theaterID]
	subs := make([]*Subscription, 0, len(set))
	for _, sub := range set {
		subs = append(subs, sub)
	}
	return subs
}

func (b *Bus) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.heartbeat()
		}
	}
}

func (b *Bus) heartbeat() {
	b.mu.Lock()
	for theaterID := range b.subscribers {
		for _, sub := range b.snapshotLocked(theaterID) {
			select {
			case sub.Frames <- keepAliveFrame:
			default:
				b.removeLocked(sub)
			}
		}
	}
	b.mu.Unlock()
}

// Close stops the heartbeat loop and drops every subscriber.
func (b *Bus) Close() {
	b.stopOnce.Do(func() { close(b.stop) })

	b.mu.Lock()
	for theaterID := range b.subscribers {
		for _, sub := range b.snapshotLocked(theaterID) {
			b.removeLocked(sub)
		}
		observability.SetPOSSubscribers(theaterID, 0)
	}
	b.mu.Unlock()
}

// encodeFrame renders one SSE data frame: "data: <json>\n\n".
func encodeFrame(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("{}")
	}
	frame := make([]byte, 0, len(data)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, data...)
	frame = append(frame, "\n\n"...)
	return frame
}
