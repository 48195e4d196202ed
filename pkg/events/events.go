package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventRegistered      EventType = "framework.registered"
	EventReregistered    EventType = "framework.reregistered"
	EventDisconnected    EventType = "framework.disconnected"
	EventPhaseChanged    EventType = "phase.changed"
	EventReconcileStart  EventType = "reconcile.started"
	EventReconcileDone   EventType = "reconcile.completed"
	EventNodePurged      EventType = "node.purged"
	EventOfferDeclined   EventType = "offer.declined"
	EventTaskLaunched    EventType = "task.launched"
	EventTaskRunning     EventType = "task.running"
	EventTaskTerminated  EventType = "task.terminated"
	EventConfigReloaded  EventType = "config.reload"
	EventSchedulerFailed EventType = "scheduler.failed"
)

// Event represents a scheduler event
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// historySize is how many recent events the broker keeps for late readers
const historySize = 256

// Broker manages event subscriptions and distribution
type Broker struct {
	subscribers map[Subscriber]bool
	history     []*Event
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100), // Buffer up to 100 events
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker
func (b *Broker) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50) // Buffer per subscriber
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[sub] {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// Publish queues an event for all subscribers. It never blocks: when the
// queue is full the event is dropped, since the scheduler loop must not
// wait on observers.
func (b *Broker) Publish(event *Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	default:
	}
}

// Emit builds and publishes an event from key/value pairs
func (b *Broker) Emit(typ EventType, msg string, kv ...string) {
	var meta map[string]string
	if len(kv) > 0 {
		meta = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			meta[kv[i]] = kv[i+1]
		}
	}
	b.Publish(&Event{Type: typ, Message: msg, Metadata: meta})
}

// Recent returns up to n of the latest events, oldest first
func (b *Broker) Recent(n int) []*Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || n > len(b.history) {
		n = len(b.history)
	}
	out := make([]*Event, n)
	copy(out, b.history[len(b.history)-n:])
	return out
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.history = append(b.history, event)
	if len(b.history) > historySize {
		b.history = b.history[len(b.history)-historySize:]
	}

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
