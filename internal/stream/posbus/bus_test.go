package posbus

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinepos/concession-service/internal/adapters/logging"
	"github.com/cinepos/concession-service/internal/domain/ports"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	bus := NewBus(logging.NewZapLogger(zap.NewNop()))
	t.Cleanup(bus.Close)
	return bus
}

func readFrame(t *testing.T, sub *Subscription) map[string]interface{} {
	t.Helper()
	select {
	case frame := <-sub.Frames:
		text := string(frame)
		require.True(t, strings.HasPrefix(text, "data: "), "not a data frame: %q", text)
		require.True(t, strings.HasSuffix(text, "\n\n"), "unterminated frame: %q", text)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSuffix(strings.TrimPrefix(text, "data: "), "\n\n")), &payload))
		return payload
	default:
		t.Fatal("no frame buffered")
		return nil
	}
}

func TestSubscribe_FirstFrameIsConnected(t *testing.T) {
	bus := newTestBus(t)

	sub := bus.Subscribe("th-1")
	payload := readFrame(t, sub)
	assert.Equal(t, "connected", payload["type"])
	assert.Equal(t, "th-1", payload["theaterId"])
}

func TestBroadcast(t *testing.T) {
	bus := newTestBus(t)
	sub1 := bus.Subscribe("th-1")
	sub2 := bus.Subscribe("th-1")
	other := bus.Subscribe("th-2")

	delivered := bus.Broadcast("th-1", ports.POSEvent{Type: "pos_order", Event: "paid", OrderID: "ord-1"})
	assert.Equal(t, 2, delivered)

	for _, sub := range []*Subscription{sub1, sub2} {
		readFrame(t, sub) // connected
		payload := readFrame(t, sub)
		assert.Equal(t, "pos_order", payload["type"])
		assert.Equal(t, "paid", payload["event"])
		assert.Equal(t, "ord-1", payload["orderId"])
	}

	// The other theater's subscriber only has its connected frame.
	readFrame(t, other)
	assert.Empty(t, other.Frames)
}

func TestBroadcast_NoSubscribers(t *testing.T) {
	bus := newTestBus(t)
	assert.Equal(t, 0, bus.Broadcast("th-ghost", ports.POSEvent{Type: "pos_order"}))
}

func TestBroadcast_EvictsStalledSubscriber(t *testing.T) {
	bus := newTestBus(t)
	stalled := bus.Subscribe("th-1")
	healthy := bus.Subscribe("th-1")

	// Drain only the healthy subscriber; fill the stalled one's buffer. Its
	// connected frame already occupies one slot.
	readFrame(t, healthy)
	for i := 0; i < subscriberBuffer-1; i++ {
		bus.Broadcast("th-1", ports.POSEvent{Type: "pos_order", Event: "paid"})
		readFrame(t, healthy)
	}

	// Buffer is now full; this delivery evicts the stalled subscriber.
	delivered := bus.Broadcast("th-1", ports.POSEvent{Type: "pos_order", Event: "paid"})
	assert.Equal(t, 1, delivered)

	// The evicted channel is closed after draining its backlog.
	drained := 0
	for range stalled.Frames {
		drained++
	}
	assert.Equal(t, subscriberBuffer, drained)

	// The healthy subscriber is unaffected.
	assert.Equal(t, 1, bus.Broadcast("th-1", ports.POSEvent{Type: "pos_order"}))
}

func TestUnsubscribe(t *testing.T) {
	bus := newTestBus(t)
	sub := bus.Subscribe("th-1")

	bus.Unsubscribe(sub)
	assert.Equal(t, 0, bus.Broadcast("th-1", ports.POSEvent{Type: "pos_order"}))

	// Idempotent.
	bus.Unsubscribe(sub)
}

func TestClose_DropsAllSubscribers(t *testing.T) {
	bus := NewBus(logging.NewZapLogger(zap.NewNop()))
	sub := bus.Subscribe("th-1")

	bus.Close()
	// Channel closes once the backlog is drained.
	readFrame(t, sub)
	_, open := <-sub.Frames
	assert.False(t, open)
}

func TestEncodeFrame(t *testing.T) {
	frame := encodeFrame(ports.POSEvent{Type: "pos_order", Event: "paid", OrderID: "o1"})
	assert.Equal(t, "data: {\"type\":\"pos_order\",\"event\":\"paid\",\"orderId\":\"o1\"}\n\n", string(frame))
}
