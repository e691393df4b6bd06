package entities

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by repositories when a record does not exist
var ErrNotFound = errors.New("not found")

// CircularBOMError reports a cycle reachable from a root item
type CircularBOMError struct {
	Root PartNumber
	Path []PartNumber // first and last element are the same item
}

func (e *CircularBOMError) Error() string {
	parts := make([]string, len(e.Path))
	for i, pn := range e.Path {
		parts[i] = string(pn)
	}
	return fmt.Sprintf("circular BOM reachable from %s: %s", e.Root, strings.Join(parts, " -> "))
}

// UOMConversionError reports a quantity that could not be converted to an item's canonical unit
type UOMConversionError struct {
	Item    PartNumber
	From    string
	To      string
	Context string
}

func (e *UOMConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s from %s to %s (%s)", e.Item, e.From, e.To, e.Context)
}

// InvalidScrapFactorError reports a scrap factor outside [0, 1)
type InvalidScrapFactorError struct {
	Parent    PartNumber
	Component PartNumber
	Scrap     Quantity
}

func (e *InvalidScrapFactorError) Error() string {
	return fmt.Sprintf("scrap factor %s on %s -> %s must be in [0, 1)", e.Scrap, e.Parent, e.Component)
}

// InvalidLotSizePolicyError reports malformed order-policy configuration on an item
type InvalidLotSizePolicyError struct {
	Item   PartNumber
	Reason string
}

func (e *InvalidLotSizePolicyError) Error() string {
	return fmt.Sprintf("invalid lot size policy for %s: %s", e.Item, e.Reason)
}

// RunAlreadyActiveError is returned when a run is started while another is running for the scope
type RunAlreadyActiveError struct {
	Scope       string
	ActiveRunID string
}

func (e *RunAlreadyActiveError) Error() string {
	if e.ActiveRunID == "" {
		return fmt.Sprintf("an MRP run is already active for scope %s", e.Scope)
	}
	return fmt.Sprintf("MRP run %s is already active for scope %s", e.ActiveRunID, e.Scope)
}

// MissingItemMasterError reports a referenced item with no master record
type MissingItemMasterError struct {
	Item    PartNumber
	Parents []PartNumber
}

func (e *MissingItemMasterError) Error() string {
	if len(e.Parents) == 0 {
		return fmt.Sprintf("item master not found: %s", e.Item)
	}
	return fmt.Sprintf("item master not found: %s (used by %v)", e.Item, e.Parents)
}

// Fatal reports whether the missing item invalidates the run
func (e *MissingItemMasterError) Fatal() bool {
	return len(e.Parents) > 0
}
