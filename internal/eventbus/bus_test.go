package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(4)
	defer unsub()

	b.Publish(Event{Type: TypeTaskAdded, Data: int64(1)})

	select {
	case e := <-ch:
		if e.Type != TypeTaskAdded {
			t.Fatalf("type = %q", e.Type)
		}
		if e.Time.IsZero() {
			t.Fatal("publish did not stamp time")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	b := New()
	_, unsub := b.Subscribe(1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(Event{Type: TypeTaskAdded})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(4)
	unsub()
	unsub() // idempotent

	// Publishing after unsubscribe must not panic even though ch is closed.
	b.Publish(Event{Type: TypeTaskRemoved})

	if _, ok := <-ch; ok {
		t.Fatal("received event after unsubscribe")
	}
}
