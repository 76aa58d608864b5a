package bus

import (
	"time"

	"github.com/google/uuid"
)

// EventBus is an in-process pub/sub bus for interaction events.
//
// Key characteristics:
// - Kind-based fan-out: handlers subscribe to one Kind, or to every kind.
// - Synchronous delivery: Publish calls handlers in the caller goroutine, in
//   subscription order. Kind subscribers run before catch-all subscribers.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Optional observability: metrics are collected only while observers are
//   registered.
//
// All methods are safe for concurrent use. Handlers may subscribe or cancel
// from inside a delivery; the change applies to the next Publish.
type EventBus interface {
	// Publish delivers the event to subscribers of event.Kind and to
	// catch-all subscribers.
	Publish(event Event) error
	// PublishWithFilters drops the event silently if any filter rejects it.
	PublishWithFilters(event Event, filters ...Filter) error
	// PublishBatch publishes events in order and joins their errors.
	PublishBatch(events ...Event) error

	// Subscribe registers a handler for one kind.
	Subscribe(kind Kind, handler Handler) (Subscription, error)
	// SubscribeAll registers a handler for every kind.
	SubscribeAll(handler Handler) (Subscription, error)
	// Unsubscribe cancels sub. Nil is ignored.
	Unsubscribe(sub Subscription) error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	// Metrics returns a snapshot of the counters.
	Metrics() Metrics
}

// Kind routes an event to its subscribers.
type Kind string

const (
	KindHoverBegin    Kind = "hover.begin"
	KindHoverEnd      Kind = "hover.end"
	KindHoverLock     Kind = "hover.lock"
	KindHoverUnlock   Kind = "hover.unlock"
	KindAttach        Kind = "attach"
	KindDetach        Kind = "detach"
	KindFocusAcquired Kind = "focus.acquired"
	KindFocusLost     Kind = "focus.lost"
	KindPulse         Kind = "haptic.pulse"
	KindSpawn         Kind = "spawn"
	KindSubmit        Kind = "ui.submit"
)

// Event describes one interaction. Hand and Object carry scene node names so
// the bus does not depend on the interaction types. Treat events as values.
type Event struct {
	ID        uuid.UUID
	Kind      Kind
	Hand      string
	Object    string
	Frame     uint64
	Timestamp time.Time
	Data      map[string]any
}

// NewEvent stamps a fresh ID and the current time.
func NewEvent(kind Kind, hand, object string, frame uint64) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      kind,
		Hand:      hand,
		Object:    object,
		Frame:     frame,
		Timestamp: time.Now(),
	}
}

type (
	// Handler is called once per delivered event. Returned errors are joined
	// into the Publish result.
	Handler func(event Event) error
	// Filter decides whether an event is delivered at all.
	Filter func(event Event) bool
)

// Subscription is a registered handler. Cancel is safe to call repeatedly.
type Subscription interface {
	ID() string
	// Kind is the subscribed kind, or empty for catch-all subscriptions.
	Kind() Kind
	IsActive() bool
	Cancel() error
}

// Observer is notified about every publish and delivery. Observers should
// return quickly.
type Observer interface {
	OnPublish(event Event)
	OnDelivered(event Event, handlers int, err error, duration time.Duration)
}

// Metrics counters are updated only while at least one observer is
// registered.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	DroppedByFilters  uint64
	SubscribersActive uint64
}
