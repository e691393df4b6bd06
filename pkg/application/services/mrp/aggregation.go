package mrp

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/repositories"
)

// Bucketing maps dates onto fixed-width periods counted from the as-of date.
// Dates before as-of land in bucket 0.
type Bucketing struct {
	AsOf  time.Time
	Width int // days
}

// NewBucketing truncates asOf to midnight UTC. Widths below one day are raised to one.
func NewBucketing(asOf time.Time, widthDays int) Bucketing {
	if widthDays < 1 {
		widthDays = 1
	}
	y, m, d := asOf.UTC().Date()
	return Bucketing{AsOf: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Width: widthDays}
}

// Index returns the bucket holding date
func (b Bucketing) Index(date time.Time) int {
	days := int(math.Floor(date.Sub(b.AsOf).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days / b.Width
}

// Start returns the first day of bucket idx
func (b Bucketing) Start(idx int) time.Time {
	return b.AsOf.AddDate(0, 0, idx*b.Width)
}

// SeriesEntry is one dated quantity on an item's demand or supply timeline
type SeriesEntry struct {
	Bucket   int
	Date     time.Time
	Quantity entities.Quantity
	Ref      string
}

// Series is a time-ordered list of entries, ties broken by Ref
type Series []SeriesEntry

func (s Series) order() {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].Date.Equal(s[j].Date) {
			return s[i].Date.Before(s[j].Date)
		}
		return s[i].Ref < s[j].Ref
	})
}

// Totals sums the series per bucket
func (s Series) Totals() map[int]entities.Quantity {
	totals := make(map[int]entities.Quantity)
	for _, entry := range s {
		totals[entry.Bucket] = totals[entry.Bucket].Add(entry.Quantity)
	}
	return totals
}

// AggregateDemand buckets independent demand lines and dependent gross requirements
// for item. Lines that cannot be converted to the item's unit are excluded with a warning.
func AggregateDemand(
	item *entities.Item,
	lines []*entities.DemandLine,
	dependent []entities.GrossRequirement,
	b Bucketing,
	units repositories.UnitConverter,
) (Series, []entities.RunWarning) {
	series := make(Series, 0, len(lines)+len(dependent))
	var warnings []entities.RunWarning

	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			warnings = append(warnings, entities.RunWarning{
				Kind:    entities.WarningInvalidOrderLine,
				Item:    item.PartNumber,
				Message: fmt.Sprintf("demand %s has non-positive quantity %s", line.SourceRef, line.Quantity),
			})
			continue
		}
		qty, err := convertToCanonical(units, item, line.Quantity, line.Unit, fmt.Sprintf("demand %s", line.SourceRef))
		if err != nil {
			warnings = append(warnings, conversionWarning(item.PartNumber, err))
			continue
		}
		series = append(series, SeriesEntry{
			Bucket:   b.Index(line.NeedDate),
			Date:     line.NeedDate,
			Quantity: qty,
			Ref:      string(line.Source) + ":" + line.SourceRef,
		})
	}

	for _, req := range dependent {
		series = append(series, SeriesEntry{
			Bucket:   b.Index(req.NeedDate),
			Date:     req.NeedDate,
			Quantity: req.Quantity,
			Ref:      "dependent:" + req.DemandTrace,
		})
	}

	series.order()
	return series, warnings
}

// AggregateSupply buckets open purchase and production orders plus committed planned
// orders carried over from earlier runs.
func AggregateSupply(
	item *entities.Item,
	lines []*entities.SupplyLine,
	committed []*entities.PlannedOrder,
	b Bucketing,
	units repositories.UnitConverter,
) (Series, []entities.RunWarning) {
	series := make(Series, 0, len(lines)+len(committed))
	var warnings []entities.RunWarning

	for _, line := range lines {
		if line.Quantity.IsNegative() {
			warnings = append(warnings, entities.RunWarning{
				Kind:    entities.WarningInvalidOrderLine,
				Item:    item.PartNumber,
				Message: fmt.Sprintf("supply %s has negative quantity %s", line.SourceRef, line.Quantity),
			})
			continue
		}
		qty, err := convertToCanonical(units, item, line.Quantity, line.Unit, fmt.Sprintf("supply %s", line.SourceRef))
		if err != nil {
			warnings = append(warnings, conversionWarning(item.PartNumber, err))
			continue
		}
		series = append(series, SeriesEntry{
			Bucket:   b.Index(line.ExpectedDate),
			Date:     line.ExpectedDate,
			Quantity: qty,
			Ref:      string(line.Source) + ":" + line.SourceRef,
		})
	}

	for _, order := range committed {
		if !order.IsCommitted() {
			continue
		}
		series = append(series, SeriesEntry{
			Bucket:   b.Index(order.DueDate),
			Date:     order.DueDate,
			Quantity: order.Quantity,
			Ref:      string(entities.SupplyPlannedOrder) + ":" + order.ID,
		})
	}

	series.order()
	return series, warnings
}

func conversionWarning(pn entities.PartNumber, err error) entities.RunWarning {
	return entities.RunWarning{Kind: entities.WarningUOMConversion, Item: pn, Message: err.Error()}
}
