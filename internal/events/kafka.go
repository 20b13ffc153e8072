package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"littlelemon/internal/sl"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer queues events in memory and writes them from one goroutine.
type KafkaProducer struct {
	w     messageWriter
	log   *slog.Logger
	inbox chan kafka.Message

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewKafkaProducer(brokers []string, topic string, buf int, log *slog.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Warn("kafka write failed", slog.Int("messages", len(msgs)), sl.Err(err))
			}
		},
	}
	return newKafkaProducer(w, buf, log)
}

func newKafkaProducer(w messageWriter, buf int, log *slog.Logger) *KafkaProducer {
	return &KafkaProducer{
		w:     w,
		log:   log,
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
	}
}

// Start runs the write loop until ctx is done or Close is called, then
// flushes whatever is still queued.
func (p *KafkaProducer) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					p.closeWriter()
					return
				}
				p.write(m)
			}
		}
	}()
}

// Publish enqueues ev, dropping it when the queue is full.
func (p *KafkaProducer) Publish(ev Event) {
	value, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("encode event", sl.Err(err))
		return
	}

	msg := kafka.Message{
		Key:   ev.Key(),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(ev.EventType)},
		},
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.Warn("kafka producer closed, dropping event", slog.String("event_id", ev.EventID))
		return
	}
	select {
	case p.inbox <- msg:
	default:
		p.log.Warn("kafka queue full, dropping event", slog.String("event_id", ev.EventID))
	}
}

// Close stops accepting events and waits for the queue to be written.
// Start must have been called.
func (p *KafkaProducer) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()
	<-p.done
}

func (p *KafkaProducer) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				p.closeWriter()
				return
			}
			p.write(m)
		default:
			p.closeWriter()
			return
		}
	}
}

func (p *KafkaProducer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Warn("kafka write failed", sl.Err(err))
	}
}

func (p *KafkaProducer) closeWriter() {
	if err := p.w.Close(); err != nil {
		p.log.Warn("kafka writer close", sl.Err(err))
	}
}
