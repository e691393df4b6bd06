package events

import (
	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

const (
	RunStartedEvent   = "run.started"
	RunCompletedEvent = "run.completed"
	RunFailedEvent    = "run.failed"

	OrderPlannedEvent = "order.planned"
	OrderFirmedEvent  = "order.firmed"

	ShortageIdentifiedEvent = "shortage.identified"
	WarningRecordedEvent    = "warning.recorded"
)

// AllEventTypes lists every event the engine emits
var AllEventTypes = []string{
	RunStartedEvent,
	RunCompletedEvent,
	RunFailedEvent,
	OrderPlannedEvent,
	OrderFirmedEvent,
	ShortageIdentifiedEvent,
	WarningRecordedEvent,
}

type RunStarted struct {
	RunID string `json:"run_id"`
	Scope string `json:"scope"`
	AsOf  string `json:"as_of"`
}

type RunFinished struct {
	RunID         string              `json:"run_id"`
	Scope         string              `json:"scope"`
	Status        entities.RunStatus  `json:"status"`
	Counts        entities.RunCounts  `json:"counts"`
	FailureReason string              `json:"failure_reason,omitempty"`
	FailedItem    entities.PartNumber `json:"failed_item,omitempty"`
}

type OrderPlanned struct {
	Order entities.PlannedOrder `json:"order"`
}

type OrderFirmed struct {
	OrderID    string              `json:"order_id"`
	PartNumber entities.PartNumber `json:"part_number"`
}

type ShortageIdentified struct {
	Requirement entities.NetRequirement `json:"requirement"`
}

type WarningRecorded struct {
	RunID   string              `json:"run_id"`
	Warning entities.RunWarning `json:"warning"`
}

// Runs stream under their run id; orders and shortages under their part number.

func NewRunStartedEvent(run *entities.MRPRun) Event {
	return NewEvent(RunStartedEvent, run.ID, RunStarted{
		RunID: run.ID,
		Scope: run.Scope,
		AsOf:  run.AsOf.Format("2006-01-02"),
	})
}

func NewRunFinishedEvent(run *entities.MRPRun) Event {
	eventType := RunCompletedEvent
	if run.Status == entities.RunFailed {
		eventType = RunFailedEvent
	}
	return NewEvent(eventType, run.ID, RunFinished{
		RunID:         run.ID,
		Scope:         run.Scope,
		Status:        run.Status,
		Counts:        run.Counts,
		FailureReason: run.FailureReason,
		FailedItem:    run.FailedItem,
	})
}

func NewOrderPlannedEvent(order *entities.PlannedOrder) Event {
	return NewEvent(OrderPlannedEvent, string(order.PartNumber), OrderPlanned{Order: *order})
}

func NewOrderFirmedEvent(order *entities.PlannedOrder) Event {
	return NewEvent(OrderFirmedEvent, string(order.PartNumber), OrderFirmed{
		OrderID:    order.ID,
		PartNumber: order.PartNumber,
	})
}

func NewShortageIdentifiedEvent(req *entities.NetRequirement) Event {
	return NewEvent(ShortageIdentifiedEvent, string(req.PartNumber), ShortageIdentified{Requirement: *req})
}

func NewWarningRecordedEvent(runID string, warning entities.RunWarning) Event {
	return NewEvent(WarningRecordedEvent, runID, WarningRecorded{RunID: runID, Warning: warning})
}
