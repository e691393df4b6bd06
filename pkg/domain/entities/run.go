package entities

import (
	"fmt"
	"time"
)

// RunStatus represents the lifecycle state of an MRP run
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// IsTerminal reports whether the run has finished
func (s RunStatus) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed
}

// WarningKind classifies a recoverable planning problem
type WarningKind string

const (
	WarningCircularBOM      WarningKind = "circular_bom"
	WarningUOMConversion    WarningKind = "uom_conversion"
	WarningInvalidScrap     WarningKind = "invalid_scrap_factor"
	WarningInvalidLotSize   WarningKind = "invalid_lot_size_policy"
	WarningMissingItem      WarningKind = "missing_item_master"
	WarningInvalidOrderLine WarningKind = "invalid_order_line"
	WarningInvalidBOMLine   WarningKind = "invalid_bom_line"
)

// RunWarning is a structured, recoverable problem recorded on a run
type RunWarning struct {
	Kind    WarningKind `json:"kind"`
	Item    PartNumber  `json:"item"`
	Message string      `json:"message"`
}

// RunCounts summarizes the output of a run
type RunCounts struct {
	ItemsProcessed   int `json:"items_processed"`
	ShortagesFound   int `json:"shortages_found"`
	PlannedOrders    int `json:"planned_orders"`
	WarningsRecorded int `json:"warnings_recorded"`
}

// MRPRun is one invocation of the planning engine for a scope
type MRPRun struct {
	ID            string       `json:"id"`
	Scope         string       `json:"scope"`
	AsOf          time.Time    `json:"as_of"`
	Status        RunStatus    `json:"status"`
	StartedAt     time.Time    `json:"started_at"`
	FinishedAt    time.Time    `json:"finished_at"`
	Counts        RunCounts    `json:"counts"`
	Warnings      []RunWarning `json:"warnings"`
	FailureReason string       `json:"failure_reason,omitempty"`
	FailedItem    PartNumber   `json:"failed_item,omitempty"`
}

// NewMRPRun creates a pending run
func NewMRPRun(id, scope string, asOf time.Time) (*MRPRun, error) {
	if id == "" {
		return nil, fmt.Errorf("run id cannot be empty")
	}
	if scope == "" {
		return nil, fmt.Errorf("scope cannot be empty")
	}
	if asOf.IsZero() {
		return nil, fmt.Errorf("as-of date cannot be empty")
	}
	return &MRPRun{
		ID:     id,
		Scope:  scope,
		AsOf:   asOf,
		Status: RunPending,
	}, nil
}

// Start moves a pending run to running
func (r *MRPRun) Start(now time.Time) error {
	if r.Status != RunPending {
		return fmt.Errorf("run %s cannot start from status %s", r.ID, r.Status)
	}
	r.Status = RunRunning
	r.StartedAt = now
	return nil
}

// Complete moves a running run to completed
func (r *MRPRun) Complete(now time.Time) error {
	if r.Status != RunRunning {
		return fmt.Errorf("run %s cannot complete from status %s", r.ID, r.Status)
	}
	r.Status = RunCompleted
	r.FinishedAt = now
	return nil
}

// Fail moves a pending or running run to failed
func (r *MRPRun) Fail(now time.Time, reason string, item PartNumber) error {
	if r.Status.IsTerminal() {
		return fmt.Errorf("run %s already finished with status %s", r.ID, r.Status)
	}
	r.Status = RunFailed
	r.FinishedAt = now
	r.FailureReason = reason
	r.FailedItem = item
	return nil
}

// AddWarnings appends warnings, skipping exact duplicates
func (r *MRPRun) AddWarnings(warnings ...RunWarning) {
	seen := make(map[RunWarning]bool, len(r.Warnings))
	for _, w := range r.Warnings {
		seen[w] = true
	}
	for _, w := range warnings {
		if seen[w] {
			continue
		}
		seen[w] = true
		r.Warnings = append(r.Warnings, w)
	}
	r.Counts.WarningsRecorded = len(r.Warnings)
}
