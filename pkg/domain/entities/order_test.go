package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlannedOrder_Validation(t *testing.T) {
	releaseDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	dueDate := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	reqs := []string{"nr-1"}

	validOrder, err := NewPlannedOrder("po-1", "run-1", "PLANT", "PART123", Qty(5), releaseDate, dueDate, PlannedProduction, reqs)
	require.NoError(t, err)
	assert.Equal(t, OrderPlanned, validOrder.Status)
	assert.True(t, validOrder.Quantity.Equal(Qty(5)))

	testCases := []struct {
		name        string
		partNumber  PartNumber
		quantity    Quantity
		releaseDate time.Time
		dueDate     time.Time
		reqs        []string
		expectError string
	}{
		{"empty part number", "", Qty(5), releaseDate, dueDate, reqs, "part number cannot be empty"},
		{"zero quantity", "PART", Qty(0), releaseDate, dueDate, reqs, "quantity must be positive, got 0"},
		{"negative quantity", "PART", Qty(-1), releaseDate, dueDate, reqs, "quantity must be positive, got -1"},
		{
			"release after due",
			"PART", Qty(5), dueDate, releaseDate, reqs,
			"release date 2025-01-10 00:00:00 +0000 UTC cannot be after due date 2025-01-01 00:00:00 +0000 UTC",
		},
		{"no net requirement", "PART", Qty(5), releaseDate, dueDate, nil, "planned order for PART must reference at least one net requirement"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPlannedOrder("po", "run", "PLANT", tc.partNumber, tc.quantity, tc.releaseDate, tc.dueDate, PlannedPurchase, tc.reqs)
			require.Error(t, err)
			assert.Equal(t, tc.expectError, err.Error())
		})
	}
}

func TestPlannedOrder_Firm(t *testing.T) {
	t.Run("planned becomes firmed", func(t *testing.T) {
		order := &PlannedOrder{ID: "po-1", Status: OrderPlanned}
		require.NoError(t, order.Firm())
		assert.Equal(t, OrderFirmed, order.Status)
		assert.True(t, order.IsCommitted())
	})

	t.Run("firming twice is a no-op", func(t *testing.T) {
		order := &PlannedOrder{ID: "po-1", Status: OrderFirmed}
		require.NoError(t, order.Firm())
		assert.Equal(t, OrderFirmed, order.Status)
	})

	t.Run("released cannot be firmed", func(t *testing.T) {
		order := &PlannedOrder{ID: "po-1", Status: OrderReleased}
		err := order.Firm()
		require.Error(t, err)
		assert.Equal(t, "planned order po-1 cannot be firmed from status released", err.Error())
	})

	t.Run("superseded cannot be firmed", func(t *testing.T) {
		order := &PlannedOrder{ID: "po-1", Status: OrderPlanned, SupersededBy: "run-2"}
		require.Error(t, order.Firm())
		assert.False(t, order.IsCommitted())
	})
}

func TestParseOrderKind(t *testing.T) {
	kind, err := ParseOrderKind("make")
	require.NoError(t, err)
	assert.Equal(t, PlannedProduction, kind)

	kind, err = ParseOrderKind("planned_purchase")
	require.NoError(t, err)
	assert.Equal(t, PlannedPurchase, kind)

	_, err = ParseOrderKind("transfer")
	assert.Error(t, err)
}
