package dto

import (
	"time"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

// RunStatusView summarizes a run for callers polling its progress
type RunStatusView struct {
	RunID         string                `json:"run_id"`
	Scope         string                `json:"scope"`
	AsOf          time.Time             `json:"as_of"`
	Status        entities.RunStatus    `json:"status"`
	StartedAt     *time.Time            `json:"started_at,omitempty"`
	FinishedAt    *time.Time            `json:"finished_at,omitempty"`
	Counts        entities.RunCounts    `json:"counts"`
	Warnings      []entities.RunWarning `json:"warnings"`
	FailureReason string                `json:"failure_reason,omitempty"`
	FailedItem    entities.PartNumber   `json:"failed_item,omitempty"`
}

// NewRunStatusView builds the view of run
func NewRunStatusView(run *entities.MRPRun) *RunStatusView {
	view := &RunStatusView{
		RunID:         run.ID,
		Scope:         run.Scope,
		AsOf:          run.AsOf,
		Status:        run.Status,
		Counts:        run.Counts,
		Warnings:      append([]entities.RunWarning{}, run.Warnings...),
		FailureReason: run.FailureReason,
		FailedItem:    run.FailedItem,
	}
	if !run.StartedAt.IsZero() {
		started := run.StartedAt
		view.StartedAt = &started
	}
	if !run.FinishedAt.IsZero() {
		finished := run.FinishedAt
		view.FinishedAt = &finished
	}
	return view
}

// Duration returns how long the run took, or zero while it is unfinished
func (v *RunStatusView) Duration() time.Duration {
	if v.StartedAt == nil || v.FinishedAt == nil {
		return 0
	}
	return v.FinishedAt.Sub(*v.StartedAt)
}

// MRPResult contains the complete output of an MRP run
type MRPResult struct {
	Run             *RunStatusView             `json:"run"`
	NetRequirements []*entities.NetRequirement `json:"net_requirements"`
	PlannedOrders   []*entities.PlannedOrder   `json:"planned_orders"`
}
