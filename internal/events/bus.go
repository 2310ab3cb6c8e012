package events

import (
	"github.com/kelindar/event"
)

// Bus carries daemon events between the control loop, the layout manager
// and anything else that wants to observe LED state. Delivery is
// asynchronous; handlers must not block the publisher.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// publishers routes an Event value to the typed kelindar publish call.
var publishers = map[uint32]func(*event.Dispatcher, Event){
	TypeLEDStateChanged: publishAs[LEDStateChangedEvent],
	TypeSequenceChanged: publishAs[SequenceChangedEvent],
	TypeLayoutReloaded:  publishAs[LayoutReloadedEvent],
	TypeLoopStopped:     publishAs[LoopStoppedEvent],
}

func publishAs[T Event](d *event.Dispatcher, ev Event) {
	if typed, ok := ev.(T); ok {
		event.Publish(d, typed)
	}
}

// Publish delivers ev to every subscriber of its type. Unknown event types
// are dropped.
func (b *Bus) Publish(ev Event) {
	if publish, ok := publishers[ev.Type()]; ok {
		publish(b.dispatcher, ev)
	}
}

// On subscribes fn to events of type T and returns the unsubscribe func.
func On[T Event](b *Bus, fn func(T)) func() {
	return event.Subscribe(b.dispatcher, fn)
}

// Subscribe is the untyped form of On: the handler's parameter type picks
// the events it receives. Handlers of any other shape are ignored and get
// a no-op unsubscribe.
//
//	unsub := bus.Subscribe(func(e LayoutReloadedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(LEDStateChangedEvent):
		return On(b, h)
	case func(SequenceChangedEvent):
		return On(b, h)
	case func(LayoutReloadedEvent):
		return On(b, h)
	case func(LoopStoppedEvent):
		return On(b, h)
	}
	return func() {}
}
