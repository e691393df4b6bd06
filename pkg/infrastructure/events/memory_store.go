package events

import (
	"sync"

	"go.uber.org/zap"
)

// anyType is the subscription key for handlers registered without event types
const anyType = "*"

// StoreOption configures an InMemoryEventStore
type StoreOption func(*InMemoryEventStore)

// WithRetention keeps at most n events; older ones are dropped oldest first.
// Positions and stream versions stay absolute after a drop.
func WithRetention(n int) StoreOption {
	return func(s *InMemoryEventStore) { s.retention = n }
}

// stream holds the retained events of one stream; base is the version of events[0]
type stream struct {
	base   int
	events []Event
}

// InMemoryEventStore is an append-only event log with asynchronous subscribers
type InMemoryEventStore struct {
	mu          sync.RWMutex
	streams     map[string]*stream
	log         []Event
	dropped     int // events trimmed from the head of log
	retention   int
	subscribers map[string][]EventHandler
	inflight    sync.WaitGroup
	logger      *zap.Logger
}

func NewInMemoryEventStore(logger *zap.Logger, opts ...StoreOption) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &InMemoryEventStore{
		streams:     make(map[string]*stream),
		subscribers: make(map[string][]EventHandler),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendEvent stores event on streamID with the next stream version and
// notifies subscribers in the background.
func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[streamID]
	if !ok {
		st = &stream{base: 1}
		s.streams[streamID] = st
	}
	stored := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: st.base + len(st.events),
	}
	st.events = append(st.events, stored)
	s.log = append(s.log, stored)
	s.trim()

	handlers := s.handlersFor(stored.EventType)
	if len(handlers) > 0 {
		s.inflight.Add(1)
		go s.notifySubscribers(handlers, stored)
	}
	return nil
}

// trim drops the oldest events beyond the retention limit. Callers hold mu.
func (s *InMemoryEventStore) trim() {
	if s.retention <= 0 {
		return
	}
	for len(s.log) > s.retention {
		oldest := s.log[0]
		s.log = s.log[1:]
		s.dropped++

		st := s.streams[oldest.StreamID()]
		st.events = st.events[1:]
		st.base++
	}
}

func (s *InMemoryEventStore) handlersFor(eventType string) []EventHandler {
	handlers := append([]EventHandler(nil), s.subscribers[eventType]...)
	return append(handlers, s.subscribers[anyType]...)
}

// ReadEvents returns the retained events of streamID from version fromVersion on
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.streams[streamID]
	if !ok {
		return []Event{}, nil
	}
	offset := max(fromVersion-st.base, 0)
	if offset >= len(st.events) {
		return []Event{}, nil
	}
	return append([]Event(nil), st.events[offset:]...), nil
}

// ReadAllEvents returns the retained events at or after the absolute position fromPosition
func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offset := max(fromPosition-s.dropped, 0)
	if offset >= len(s.log) {
		return []Event{}, nil
	}
	return append([]Event(nil), s.log[offset:]...), nil
}

// Position returns the absolute position the next appended event will take
func (s *InMemoryEventStore) Position() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped + len(s.log)
}

// Subscribe registers handler for eventTypes, or for every event when none are given
func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(eventTypes) == 0 {
		eventTypes = []string{anyType}
	}
	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
	return nil
}

func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for eventType, handlers := range s.subscribers {
		kept := handlers[:0:0]
		for _, h := range handlers {
			if h != handler {
				kept = append(kept, h)
			}
		}
		s.subscribers[eventType] = kept
	}
	return nil
}

// Flush blocks until every handler notified so far has returned
func (s *InMemoryEventStore) Flush() {
	s.inflight.Wait()
}

func (s *InMemoryEventStore) notifySubscribers(handlers []EventHandler, event Event) {
	defer s.inflight.Done()

	for _, handler := range handlers {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		if err := handler.Handle(event); err != nil {
			s.logger.Warn("event handler failed",
				zap.String("event_type", event.Type()),
				zap.String("stream", event.StreamID()),
				zap.Error(err),
			)
		}
	}
}
