// Package events describes change notifications emitted after successful
// writes and fans them out to the configured sinks.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ResourceMenu    = "menu"
	ResourceBooking = "booking"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event is the envelope shared by every sink.
type Event struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"` // <resource>.<action>
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Resource   string          `json:"resource"`
	ObjectID   uint            `json:"object_id"`
	Payload    json.RawMessage `json:"payload"` // object JSON, null on delete
}

// Key partitions events so that all changes to one object stay ordered.
func (e Event) Key() []byte {
	return []byte(fmt.Sprintf("%s:%d", e.Resource, e.ObjectID))
}

// New builds an event for obj. A nil obj yields a null payload.
func New(producer, resource, action string, id uint, obj interface{}) (Event, error) {
	payload := json.RawMessage("null")
	if obj != nil {
		b, err := json.Marshal(obj)
		if err != nil {
			return Event{}, fmt.Errorf("encode %s payload: %w", resource, err)
		}
		payload = b
	}

	return Event{
		EventID:    uuid.NewString(),
		EventType:  resource + "." + action,
		OccurredAt: time.Now().UTC(),
		Producer:   producer,
		Resource:   resource,
		ObjectID:   id,
		Payload:    payload,
	}, nil
}

// Publisher delivers events. Implementations must not block the caller for
// long and never fail the originating request.
type Publisher interface {
	Publish(ev Event)
}

// Multi publishes to every publisher in order.
type Multi []Publisher

func (m Multi) Publish(ev Event) {
	for _, p := range m {
		p.Publish(ev)
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(Event) {}
