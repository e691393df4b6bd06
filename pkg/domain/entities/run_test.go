package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMRPRun_Lifecycle(t *testing.T) {
	asOf := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := asOf.Add(time.Hour)

	run, err := NewMRPRun("run-1", "PLANT", asOf)
	require.NoError(t, err)
	assert.Equal(t, RunPending, run.Status)

	require.NoError(t, run.Start(now))
	assert.Equal(t, RunRunning, run.Status)
	assert.Error(t, run.Start(now), "a running run cannot start again")

	require.NoError(t, run.Complete(now.Add(time.Minute)))
	assert.True(t, run.Status.IsTerminal())
	assert.Error(t, run.Fail(now, "late", ""), "a completed run cannot fail")
}

func TestMRPRun_Fail(t *testing.T) {
	run, err := NewMRPRun("run-1", "PLANT", time.Now())
	require.NoError(t, err)

	require.NoError(t, run.Fail(time.Now(), "item master not found: X", "X"))
	assert.Equal(t, RunFailed, run.Status)
	assert.Equal(t, PartNumber("X"), run.FailedItem)
	assert.Error(t, run.Complete(time.Now()))
}

func TestMRPRun_AddWarningsDeduplicates(t *testing.T) {
	run := &MRPRun{ID: "run-1"}
	w := RunWarning{Kind: WarningCircularBOM, Item: "A", Message: "A -> B -> A"}

	run.AddWarnings(w, w)
	run.AddWarnings(w, RunWarning{Kind: WarningUOMConversion, Item: "B", Message: "kg to EA"})

	assert.Len(t, run.Warnings, 2)
	assert.Equal(t, 2, run.Counts.WarningsRecorded)
}

func TestNewMRPRun_Validation(t *testing.T) {
	_, err := NewMRPRun("", "PLANT", time.Now())
	assert.EqualError(t, err, "run id cannot be empty")
	_, err = NewMRPRun("run", "", time.Now())
	assert.EqualError(t, err, "scope cannot be empty")
	_, err = NewMRPRun("run", "PLANT", time.Time{})
	assert.EqualError(t, err, "as-of date cannot be empty")
}

func TestErrors(t *testing.T) {
	cycle := &CircularBOMError{Root: "A", Path: []PartNumber{"A", "B", "A"}}
	assert.Equal(t, "circular BOM reachable from A: A -> B -> A", cycle.Error())

	missing := &MissingItemMasterError{Item: "X"}
	assert.False(t, missing.Fatal())
	missing.Parents = []PartNumber{"P"}
	assert.True(t, missing.Fatal())
}
