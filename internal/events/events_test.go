package events

import (
	"testing"
	"time"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

func TestNewEvent_StampsCorrelationID(t *testing.T) {
	sig := models.Signal{ID: "sig-1"}
	e1 := NewEvent(KindCreated, sig)
	e2 := NewEvent(KindCreated, sig)

	if e1.CorrelationID == "" {
		t.Fatal("expected a non-empty correlation ID")
	}
	if e1.CorrelationID == e2.CorrelationID {
		t.Error("expected distinct correlation IDs across events")
	}
	if e1.Kind != KindCreated || e1.Signal.ID != "sig-1" {
		t.Errorf("unexpected event contents: %+v", e1)
	}
}

func TestChannelSink_PublishFansOutToAllSubscribers(t *testing.T) {
	sink := NewChannelSink()
	sub1 := sink.Subscribe(1)
	sub2 := sink.Subscribe(1)

	sink.Publish(NewEvent(KindCreated, models.Signal{ID: "sig-1"}))

	select {
	case e := <-sub1:
		if e.Signal.ID != "sig-1" {
			t.Errorf("sub1 got unexpected signal: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sub1 to receive the event")
	}
	select {
	case e := <-sub2:
		if e.Signal.ID != "sig-1" {
			t.Errorf("sub2 got unexpected signal: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sub2 to receive the event")
	}
}

func TestChannelSink_PublishNeverBlocksOnAFullSubscriber(t *testing.T) {
	sink := NewChannelSink()
	sub := sink.Subscribe(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			sink.Publish(NewEvent(KindCreated, models.Signal{ID: "sig"}))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full, undrained subscriber channel")
	}
	<-sub // drain one to avoid leaking a goroutine reference in the test
}

func TestChannelSink_Unsubscribe_StopsDelivery(t *testing.T) {
	sink := NewChannelSink()
	sub := sink.Subscribe(1)
	sink.Unsubscribe(sub)

	sink.Publish(NewEvent(KindCreated, models.Signal{ID: "sig-1"}))

	select {
	case _, ok := <-sub:
		if ok {
			t.Error("expected the unsubscribed channel to be closed, not receive an event")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("expected the unsubscribed channel to be closed promptly")
	}
}

func TestNoopSink_DiscardsWithoutPanic(t *testing.T) {
	var sink Sink = NoopSink{}
	sink.Publish(NewEvent(KindCreated, models.Signal{ID: "sig-1"}))
}
