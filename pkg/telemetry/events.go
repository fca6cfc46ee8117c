package telemetry

import (
	"context"
	"fmt"
	"sync"

	"github.com/openalign/openalign/pkg/solver"
)

// EventSubscriber is a function that handles solver events.
type EventSubscriber func(event solver.Event)

// EventFilter determines whether an event is delivered.
type EventFilter func(event solver.Event) bool

// EventBus fans solver run events out to subscribers. It implements
// solver.EventPublisher and is handed to the runner via Options.Events.
//
// Delivery is synchronous by default so subscribers observe events in
// execution order; async mode buffers on a channel and delivers from a
// background goroutine, dropping events when the buffer is full rather
// than stalling the solver loop.
type EventBus struct {
	config EventsConfig

	mu          sync.RWMutex
	subscribers []subscriberEntry

	buffer chan solver.Event
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventBus creates an event bus with the given configuration.
func NewEventBus(cfg EventsConfig) (*EventBus, error) {
	bus := &EventBus{config: cfg}
	if !cfg.Enabled {
		return bus, nil
	}

	if cfg.EnableAsync {
		ctx, cancel := context.WithCancel(context.Background())
		bus.ctx = ctx
		bus.cancel = cancel
		bus.buffer = make(chan solver.Event, cfg.BufferSize)
		bus.wg.Add(1)
		go bus.deliverLoop()
	}
	return bus, nil
}

// Publish implements solver.EventPublisher.
func (b *EventBus) Publish(_ context.Context, event *solver.Event) error {
	if !b.config.Enabled || event == nil {
		return nil
	}

	if b.buffer == nil {
		b.deliver(*event)
		return nil
	}

	select {
	case b.buffer <- *event:
		return nil
	case <-b.ctx.Done():
		return fmt.Errorf("event bus stopped")
	default:
		return fmt.Errorf("event buffer full, event dropped")
	}
}

// Subscribe adds a subscriber with an optional filter. A nil filter
// receives every event.
func (b *EventBus) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, subscriberEntry{
		subscriber: subscriber,
		filter:     filter,
	})
}

func (b *EventBus) deliverLoop() {
	defer b.wg.Done()
	for {
		select {
		case event := <-b.buffer:
			b.deliver(event)
		case <-b.ctx.Done():
			// Drain what is already buffered before exiting.
			for {
				select {
				case event := <-b.buffer:
					b.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (b *EventBus) deliver(event solver.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, entry := range b.subscribers {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// Shutdown stops async delivery, draining buffered events first.
func (b *EventBus) Shutdown(ctx context.Context) error {
	if b.cancel == nil {
		return nil
	}
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus shutdown timeout")
	}
}

// Common event filters.

// FilterByType creates a filter that only allows events of specific types.
func FilterByType(types ...solver.EventType) EventFilter {
	typeSet := make(map[solver.EventType]bool)
	for _, t := range types {
		typeSet[t] = true
	}
	return func(event solver.Event) bool {
		return typeSet[event.Type]
	}
}

// FilterByRunID creates a filter that only allows events for one run.
func FilterByRunID(runID string) EventFilter {
	return func(event solver.Event) bool {
		return event.RunID == runID
	}
}

// FilterByStatus creates a filter that only allows constraint events
// with specific statuses.
func FilterByStatus(statuses ...solver.ConstraintStatus) EventFilter {
	statusSet := make(map[solver.ConstraintStatus]bool)
	for _, s := range statuses {
		statusSet[s] = true
	}
	return func(event solver.Event) bool {
		return statusSet[event.Status]
	}
}
