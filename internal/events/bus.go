package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher for in-process broadcasting.
// Delivery is asynchronous: each subscriber has its own queue.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers of its concrete type.
// A nil bus is a valid no-op sink.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case ChildLaunchedEvent:
		event.Publish(b.dispatcher, e)
	case ChildLaunchFailedEvent:
		event.Publish(b.dispatcher, e)
	case GroupLaunchedEvent:
		event.Publish(b.dispatcher, e)
	case ChildExitedEvent:
		event.Publish(b.dispatcher, e)
	case SweepStartedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a typed handler; the handler's parameter type selects
// the events it receives. Returns an unsubscribe function.
//
//	unsub := bus.Subscribe(func(e events.ChildExitedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ChildLaunchedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ChildLaunchFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(GroupLaunchedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ChildExitedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SweepStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// SubscribeToChannel bridges a typed subscription onto a channel.
// Events are dropped when the channel is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- T) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// ForwardTo is SubscribeToChannel for a channel shared by several event
// types, as used by SSE streams.
func ForwardTo[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
