// Package events implements the abstract event sink (§6 "Emitted events"):
// on signal creation and terminal transitions the core publishes an event
// record, for fan-out to listeners (e.g. a WebSocket hub) it never speaks
// to directly.
package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

// Kind tags why an event was emitted.
type Kind string

const (
	KindCreated    Kind = "CREATED"
	KindTerminated Kind = "TERMINATED"
	KindExpired    Kind = "EXPIRED"
)

// Event mirrors the Signal record plus an eventKind and a correlation ID,
// exactly as the teacher's HTTP handlers mint a correlation ID per
// request (§6).
type Event struct {
	CorrelationID string       `json:"correlation_id"`
	Kind          Kind         `json:"event_kind"`
	Signal        models.Signal `json:"signal"`
}

// Sink is the abstract publish target (§6). Implementations must not
// block the caller for long: the generator/tracker loops publish
// synchronously on their hot path.
type Sink interface {
	Publish(Event)
}

// NewEvent stamps a fresh correlation ID onto an event for kind/signal.
func NewEvent(kind Kind, signal models.Signal) Event {
	return Event{
		CorrelationID: uuid.New().String(),
		Kind:          kind,
		Signal:        signal,
	}
}

// ChannelSink fans events out over a buffered channel to any number of
// subscribers (e.g. the read-only HTTP/WebSocket presentation layer this
// core never imports directly). Publish never blocks: a full buffer
// drops the oldest pending event rather than stalling the generator or
// tracker tick.
type ChannelSink struct {
	mu   sync.Mutex
	subs []chan Event
}

// NewChannelSink constructs an empty fan-out sink.
func NewChannelSink() *ChannelSink {
	return &ChannelSink{}
}

// Subscribe registers a new listener channel with the given buffer size.
// Callers must keep draining it; Unsubscribe removes it when done.
func (s *ChannelSink) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a previously subscribed channel.
func (s *ChannelSink) Unsubscribe(ch <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub == ch {
			close(sub)
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Publish implements Sink, fanning the event out to every subscriber
// without blocking on a slow or abandoned one.
func (s *ChannelSink) Publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		select {
		case sub <- e:
		default:
			// Slow subscriber: drop the oldest queued event to make room
			// rather than let a stalled listener block the core loop.
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- e:
			default:
			}
		}
	}
}

// NoopSink discards every event; used where no downstream listener is
// configured (e.g. CLI one-shot commands).
type NoopSink struct{}

func (NoopSink) Publish(Event) {}
