package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub Subscriber) *Event {
	t.Helper()
	select {
	case ev := <-sub:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestBrokerDeliversToSubscribers(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	s1 := b.Subscribe()
	s2 := b.Subscribe()
	assert.Equal(t, 2, b.SubscriberCount())

	b.Emit(EventTaskLaunched, "launched", "task_id", "slavenode.NodeExecutor.1", "host", "h1")

	for _, sub := range []Subscriber{s1, s2} {
		ev := receive(t, sub)
		assert.Equal(t, EventTaskLaunched, ev.Type)
		assert.NotEmpty(t, ev.ID)
		assert.False(t, ev.Timestamp.IsZero())
		assert.Equal(t, "h1", ev.Metadata["host"])
	}

	b.Unsubscribe(s1)
	b.Unsubscribe(s1)
	assert.Equal(t, 1, b.SubscriberCount())
	_, open := <-s1
	assert.False(t, open)
}

func TestBrokerRecent(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	for i := 0; i < 3; i++ {
		b.Emit(EventOfferDeclined, "declined")
		receive(t, sub)
	}
	b.Emit(EventPhaseChanged, "phase")
	receive(t, sub)

	recent := b.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, EventOfferDeclined, recent[0].Type)
	assert.Equal(t, EventPhaseChanged, recent[1].Type)
	assert.Len(t, b.Recent(0), 4)
}

func TestPublishDoesNotBlockWhenStopped(t *testing.T) {
	b := NewBroker()
	b.Stop()
	b.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			b.Emit(EventOfferDeclined, "declined")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked")
	}
}
