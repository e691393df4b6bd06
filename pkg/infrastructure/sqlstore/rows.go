package sqlstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

type runRow struct {
	ID               string `db:"id"`
	Scope            string `db:"scope"`
	AsOf             string `db:"as_of"`
	Status           string `db:"status"`
	StartedAt        string `db:"started_at"`
	FinishedAt       string `db:"finished_at"`
	ItemsProcessed   int    `db:"items_processed"`
	ShortagesFound   int    `db:"shortages_found"`
	PlannedOrders    int    `db:"planned_orders"`
	WarningsRecorded int    `db:"warnings_recorded"`
	Warnings         string `db:"warnings"`
	FailureReason    string `db:"failure_reason"`
	FailedItem       string `db:"failed_item"`
}

type requirementRow struct {
	ID               string            `db:"id"`
	RunID            string            `db:"run_id"`
	PartNumber       string            `db:"part_number"`
	LowLevelCode     int               `db:"low_level_code"`
	BucketIndex      int               `db:"bucket_index"`
	BucketStart      string            `db:"bucket_start"`
	GrossRequirement entities.Quantity `db:"gross_requirement"`
	ScheduledSupply  entities.Quantity `db:"scheduled_supply"`
	AvailableSupply  entities.Quantity `db:"available_supply"`
	NetRequirement   entities.Quantity `db:"net_requirement"`
	ProjectedBalance entities.Quantity `db:"projected_balance"`
}

type orderRow struct {
	ID                string            `db:"id"`
	RunID             string            `db:"run_id"`
	Scope             string            `db:"scope"`
	PartNumber        string            `db:"part_number"`
	Quantity          entities.Quantity `db:"quantity"`
	ReleaseDate       string            `db:"release_date"`
	DueDate           string            `db:"due_date"`
	Status            string            `db:"status"`
	Kind              string            `db:"kind"`
	NetRequirementIDs string            `db:"net_requirement_ids"`
	Incomplete        int               `db:"incomplete"`
	SupersededBy      string            `db:"superseded_by"`
	CreatedAt         string            `db:"created_at"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func toRunRow(run *entities.MRPRun) (runRow, error) {
	warnings := run.Warnings
	if warnings == nil {
		warnings = []entities.RunWarning{}
	}
	encoded, err := json.Marshal(warnings)
	if err != nil {
		return runRow{}, fmt.Errorf("failed to encode warnings: %w", err)
	}
	return runRow{
		ID:               run.ID,
		Scope:            run.Scope,
		AsOf:             formatTime(run.AsOf),
		Status:           string(run.Status),
		StartedAt:        formatTime(run.StartedAt),
		FinishedAt:       formatTime(run.FinishedAt),
		ItemsProcessed:   run.Counts.ItemsProcessed,
		ShortagesFound:   run.Counts.ShortagesFound,
		PlannedOrders:    run.Counts.PlannedOrders,
		WarningsRecorded: run.Counts.WarningsRecorded,
		Warnings:         string(encoded),
		FailureReason:    run.FailureReason,
		FailedItem:       string(run.FailedItem),
	}, nil
}

func (r runRow) toEntity() (*entities.MRPRun, error) {
	run := &entities.MRPRun{
		ID:     r.ID,
		Scope:  r.Scope,
		Status: entities.RunStatus(r.Status),
		Counts: entities.RunCounts{
			ItemsProcessed:   r.ItemsProcessed,
			ShortagesFound:   r.ShortagesFound,
			PlannedOrders:    r.PlannedOrders,
			WarningsRecorded: r.WarningsRecorded,
		},
		FailureReason: r.FailureReason,
		FailedItem:    entities.PartNumber(r.FailedItem),
	}
	var err error
	if run.AsOf, err = parseTime(r.AsOf); err != nil {
		return nil, err
	}
	if run.StartedAt, err = parseTime(r.StartedAt); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseTime(r.FinishedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(r.Warnings), &run.Warnings); err != nil {
		return nil, fmt.Errorf("failed to decode warnings of run %s: %w", r.ID, err)
	}
	if len(run.Warnings) == 0 {
		run.Warnings = nil
	}
	return run, nil
}

func toRequirementRow(req *entities.NetRequirement) requirementRow {
	return requirementRow{
		ID:               req.ID,
		RunID:            req.RunID,
		PartNumber:       string(req.PartNumber),
		LowLevelCode:     req.LowLevelCode,
		BucketIndex:      req.BucketIndex,
		BucketStart:      formatTime(req.BucketStart),
		GrossRequirement: req.GrossRequirement,
		ScheduledSupply:  req.ScheduledSupply,
		AvailableSupply:  req.AvailableSupply,
		NetRequirement:   req.NetRequirement,
		ProjectedBalance: req.ProjectedBalance,
	}
}

func (r requirementRow) toEntity() (*entities.NetRequirement, error) {
	start, err := parseTime(r.BucketStart)
	if err != nil {
		return nil, err
	}
	return &entities.NetRequirement{
		ID:               r.ID,
		RunID:            r.RunID,
		PartNumber:       entities.PartNumber(r.PartNumber),
		LowLevelCode:     r.LowLevelCode,
		BucketIndex:      r.BucketIndex,
		BucketStart:      start,
		GrossRequirement: r.GrossRequirement,
		ScheduledSupply:  r.ScheduledSupply,
		AvailableSupply:  r.AvailableSupply,
		NetRequirement:   r.NetRequirement,
		ProjectedBalance: r.ProjectedBalance,
	}, nil
}

func toOrderRow(order *entities.PlannedOrder) (orderRow, error) {
	ids := order.NetRequirementIDs
	if ids == nil {
		ids = []string{}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return orderRow{}, fmt.Errorf("failed to encode net requirement ids: %w", err)
	}
	return orderRow{
		ID:                order.ID,
		RunID:             order.RunID,
		Scope:             order.Scope,
		PartNumber:        string(order.PartNumber),
		Quantity:          order.Quantity,
		ReleaseDate:       formatTime(order.ReleaseDate),
		DueDate:           formatTime(order.DueDate),
		Status:            string(order.Status),
		Kind:              string(order.Kind),
		NetRequirementIDs: string(encoded),
		Incomplete:        boolToInt(order.Incomplete),
		SupersededBy:      order.SupersededBy,
		CreatedAt:         formatTime(order.CreatedAt),
	}, nil
}

func (r orderRow) toEntity() (*entities.PlannedOrder, error) {
	order := &entities.PlannedOrder{
		ID:           r.ID,
		RunID:        r.RunID,
		Scope:        r.Scope,
		PartNumber:   entities.PartNumber(r.PartNumber),
		Quantity:     r.Quantity,
		Status:       entities.OrderStatus(r.Status),
		Kind:         entities.OrderKind(r.Kind),
		Incomplete:   r.Incomplete != 0,
		SupersededBy: r.SupersededBy,
	}
	var err error
	if order.ReleaseDate, err = parseTime(r.ReleaseDate); err != nil {
		return nil, err
	}
	if order.DueDate, err = parseTime(r.DueDate); err != nil {
		return nil, err
	}
	if order.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(r.NetRequirementIDs), &order.NetRequirementIDs); err != nil {
		return nil, fmt.Errorf("failed to decode net requirement ids of order %s: %w", r.ID, err)
	}
	return order, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
