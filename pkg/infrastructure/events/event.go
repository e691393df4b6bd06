package events

import (
	"slices"
	"time"
)

// Event is an immutable fact recorded on a stream
type Event interface {
	Type() string
	StreamID() string
	Data() any
	Timestamp() time.Time
	Version() int
}

type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore appends events to streams and fans them out to subscribers
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// BaseEvent is the stored form of every event
type BaseEvent struct {
	EventType    string
	Stream       string
	EventData    any
	EventTime    time.Time
	EventVersion int
}

func (e BaseEvent) Type() string         { return e.EventType }
func (e BaseEvent) StreamID() string     { return e.Stream }
func (e BaseEvent) Data() any            { return e.EventData }
func (e BaseEvent) Timestamp() time.Time { return e.EventTime }
func (e BaseEvent) Version() int         { return e.EventVersion }

// NewEvent creates an unversioned event; the store assigns the stream and version on append
func NewEvent(eventType, streamID string, data any) Event {
	return BaseEvent{
		EventType: eventType,
		Stream:    streamID,
		EventData: data,
		EventTime: time.Now().UTC(),
	}
}

// HandlerFunc adapts a function to EventHandler for the listed event types.
// An empty type list handles everything.
type HandlerFunc struct {
	Types []string
	Fn    func(Event) error
}

func (h *HandlerFunc) Handle(event Event) error {
	return h.Fn(event)
}

func (h *HandlerFunc) CanHandle(eventType string) bool {
	return len(h.Types) == 0 || slices.Contains(h.Types, eventType)
}
