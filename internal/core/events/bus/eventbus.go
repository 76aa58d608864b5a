package bus

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// allKinds keys catch-all subscriptions.
const allKinds Kind = ""

// subscription implements Subscription.
type subscription struct {
	id     string
	kind   Kind
	fn     Handler
	mu     sync.Mutex
	active bool
	cancel func()
}

func (s *subscription) ID() string { return s.id }
func (s *subscription) Kind() Kind { return s.kind }

func (s *subscription) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() error {
	s.mu.Lock()
	wasActive := s.active
	s.active = false
	s.mu.Unlock()
	if wasActive && s.cancel != nil {
		s.cancel()
	}
	return nil
}

// inMemoryBus keeps subscriptions per kind in registration order.
type inMemoryBus struct {
	mu        sync.RWMutex
	handlers  map[Kind][]*subscription
	metrics   Metrics
	observers map[Observer]struct{}
}

// New creates an empty bus.
func New() EventBus {
	return &inMemoryBus{
		handlers:  make(map[Kind][]*subscription),
		observers: make(map[Observer]struct{}),
	}
}

func (b *inMemoryBus) Publish(event Event) error {
	return b.deliver(event)
}

func (b *inMemoryBus) PublishWithFilters(event Event, filters ...Filter) error {
	for _, f := range filters {
		if !f(event) {
			b.mu.Lock()
			if len(b.observers) > 0 {
				b.metrics.DroppedByFilters++
			}
			b.mu.Unlock()
			return nil
		}
	}
	return b.Publish(event)
}

func (b *inMemoryBus) PublishBatch(events ...Event) error {
	var all error
	for _, e := range events {
		if err := b.Publish(e); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

func (b *inMemoryBus) Subscribe(kind Kind, handler Handler) (Subscription, error) {
	if kind == allKinds {
		return nil, errors.New("bus: empty kind, use SubscribeAll")
	}
	return b.subscribe(kind, handler)
}

func (b *inMemoryBus) SubscribeAll(handler Handler) (Subscription, error) {
	return b.subscribe(allKinds, handler)
}

func (b *inMemoryBus) subscribe(kind Kind, handler Handler) (Subscription, error) {
	if handler == nil {
		return nil, errors.New("bus: nil handler")
	}
	s := &subscription{id: uuid.NewString(), kind: kind, fn: handler, active: true}
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.handlers[kind] = slices.DeleteFunc(slices.Clone(b.handlers[kind]), func(o *subscription) bool {
			return o == s
		})
		if len(b.handlers[kind]) == 0 {
			delete(b.handlers, kind)
		}
	}

	b.mu.Lock()
	b.handlers[kind] = append(b.handlers[kind], s)
	b.mu.Unlock()
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) AddObserver(obs Observer) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *inMemoryBus) RemoveObserver(obs Observer) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) Metrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

func (b *inMemoryBus) deliver(event Event) error {
	start := time.Now()

	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.handlers[event.Kind])+len(b.handlers[allKinds]))
	if event.Kind != allKinds {
		subs = append(subs, b.handlers[event.Kind]...)
	}
	subs = append(subs, b.handlers[allKinds]...)
	observers := make([]Observer, 0, len(b.observers))
	for obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	for _, obs := range observers {
		obs.OnPublish(event)
	}

	var all error
	delivered := 0
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		delivered++
		if err := s.fn(event); err != nil {
			all = errors.Join(all, err)
		}
	}

	if len(observers) > 0 {
		dur := time.Since(start)
		for _, obs := range observers {
			obs.OnDelivered(event, delivered, all, dur)
		}
		b.mu.Lock()
		b.metrics.Published++
		b.metrics.DeliveredHandlers += uint64(delivered)
		if all != nil {
			b.metrics.Errors++
		}
		var active uint64
		for _, list := range b.handlers {
			active += uint64(len(list))
		}
		b.metrics.SubscribersActive = active
		b.mu.Unlock()
	}
	return all
}
