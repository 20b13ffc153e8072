package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littlelemon/internal/sl"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestNew(t *testing.T) {
	ev, err := New("little-lemon", ResourceBooking, ActionCreated, 7, map[string]string{"name": "Bob"})
	require.NoError(t, err)

	assert.Equal(t, "booking.created", ev.EventType)
	assert.Equal(t, uint(7), ev.ObjectID)
	assert.NotEmpty(t, ev.EventID)
	assert.JSONEq(t, `{"name":"Bob"}`, string(ev.Payload))
	assert.Equal(t, "booking:7", string(ev.Key()))

	del, err := New("little-lemon", ResourceMenu, ActionDeleted, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(del.Payload))

	b, err := json.Marshal(del)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"payload":null`)
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	ev, _ := New("p", ResourceMenu, ActionUpdated, 1, nil)

	Multi{a, Nop{}, b}.Publish(ev)

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestKafkaProducer_FlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaProducer(w, 16, sl.Discard())
	p.Start(context.Background())

	for i := uint(1); i <= 3; i++ {
		ev, _ := New("p", ResourceBooking, ActionCreated, i, nil)
		p.Publish(ev)
	}
	p.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.msgs, 3)
	assert.Equal(t, "booking:1", string(w.msgs[0].Key))
	assert.Equal(t, "x-event-type", w.msgs[0].Headers[0].Key)
	assert.True(t, w.closed)

	// publishing after close is dropped, not a panic
	ev, _ := New("p", ResourceBooking, ActionCreated, 4, nil)
	p.Publish(ev)
}

func TestKafkaProducer_StopsWithContext(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaProducer(w, 16, sl.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	ev, _ := New("p", ResourceMenu, ActionCreated, 1, nil)
	p.Publish(ev)
	cancel()
	p.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Len(t, w.msgs, 1)
	assert.True(t, w.closed)
}
