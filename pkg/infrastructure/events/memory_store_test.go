package events

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

func TestInMemoryEventStore_VersionsPerStream(t *testing.T) {
	store := NewInMemoryEventStore(nil)
	order := &entities.PlannedOrder{ID: "po-1", PartNumber: "Y", Quantity: entities.Qty(100)}

	require.NoError(t, store.AppendEvent("Y", NewOrderPlannedEvent(order)))
	require.NoError(t, store.AppendEvent("Y", NewOrderFirmedEvent(order)))
	require.NoError(t, store.AppendEvent("X", NewOrderPlannedEvent(&entities.PlannedOrder{ID: "po-2", PartNumber: "X"})))

	events, err := store.ReadEvents("Y", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Version())
	assert.Equal(t, 2, events[1].Version())
	assert.Equal(t, OrderFirmedEvent, events[1].Type())

	later, err := store.ReadEvents("Y", 2)
	require.NoError(t, err)
	assert.Len(t, later, 1)

	all, err := store.ReadAllEvents(1)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInMemoryEventStore_NotifiesSubscribers(t *testing.T) {
	store := NewInMemoryEventStore(nil)

	var mu sync.Mutex
	var received []string
	handler := &HandlerFunc{Fn: func(e Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e.Type())
		return nil
	}}
	failing := &HandlerFunc{Fn: func(Event) error { return errors.New("boom") }}

	require.NoError(t, store.Subscribe([]string{RunStartedEvent, RunCompletedEvent}, handler))
	require.NoError(t, store.Subscribe([]string{RunStartedEvent}, failing))

	run := &entities.MRPRun{ID: "run-1", Scope: "PLANT", Status: entities.RunCompleted}
	require.NoError(t, store.AppendEvent(run.ID, NewRunStartedEvent(run)))
	require.NoError(t, store.AppendEvent(run.ID, NewRunFinishedEvent(run)))
	require.NoError(t, store.AppendEvent("Y", NewOrderFirmedEvent(&entities.PlannedOrder{ID: "po"})))
	store.Flush()

	snapshot := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), received...)
	}
	assert.ElementsMatch(t, []string{RunStartedEvent, RunCompletedEvent}, snapshot())

	require.NoError(t, store.Unsubscribe(handler))
	require.NoError(t, store.AppendEvent(run.ID, NewRunStartedEvent(run)))
	store.Flush()
	assert.Len(t, snapshot(), 2)
}

func TestNewRunFinishedEvent_FailedRun(t *testing.T) {
	run := &entities.MRPRun{ID: "run-1", Status: entities.RunFailed, FailureReason: "timeout"}

	event := NewRunFinishedEvent(run)

	assert.Equal(t, RunFailedEvent, event.Type())
	assert.Equal(t, "timeout", event.Data().(RunFinished).FailureReason)
}

func TestInMemoryEventStore_Retention(t *testing.T) {
	store := NewInMemoryEventStore(nil, WithRetention(3))
	for i := 0; i < 5; i++ {
		order := &entities.PlannedOrder{ID: "po", PartNumber: "Y"}
		streamID := "Y"
		if i == 0 {
			streamID = "X"
		}
		require.NoError(t, store.AppendEvent(streamID, NewOrderPlannedEvent(order)))
	}

	assert.Equal(t, 5, store.Position())

	all, err := store.ReadAllEvents(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	tail, err := store.ReadAllEvents(4)
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	// X lost its only event; Y keeps versions 2..4
	x, err := store.ReadEvents("X", 0)
	require.NoError(t, err)
	assert.Empty(t, x)

	y, err := store.ReadEvents("Y", 0)
	require.NoError(t, err)
	require.Len(t, y, 3)
	assert.Equal(t, 2, y[0].Version())
	assert.Equal(t, 4, y[2].Version())

	// appends after a trim continue the stream numbering
	require.NoError(t, store.AppendEvent("Y", NewOrderFirmedEvent(&entities.PlannedOrder{ID: "po"})))
	y, err = store.ReadEvents("Y", 5)
	require.NoError(t, err)
	require.Len(t, y, 1)
	assert.Equal(t, 5, y[0].Version())
}

func TestInMemoryEventStore_SubscribeWithoutTypes(t *testing.T) {
	store := NewInMemoryEventStore(nil)

	var mu sync.Mutex
	count := 0
	require.NoError(t, store.Subscribe(nil, &HandlerFunc{Fn: func(Event) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	}}))

	run := &entities.MRPRun{ID: "run-1", Status: entities.RunCompleted}
	require.NoError(t, store.AppendEvent(run.ID, NewRunStartedEvent(run)))
	require.NoError(t, store.AppendEvent("Y", NewOrderFirmedEvent(&entities.PlannedOrder{ID: "po"})))
	store.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, count)
}
