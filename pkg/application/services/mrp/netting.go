package mrp

import (
	"sort"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

// NettingInput is everything known about one item's position before netting
type NettingInput struct {
	OnHand entities.Quantity
	Gross  map[int]entities.Quantity // by bucket
	Supply map[int]entities.Quantity // by bucket
	Floor  entities.Quantity         // safety stock, zero when not enforced
}

// BucketPosition is the netting result for one shortage bucket
type BucketPosition struct {
	Bucket    int
	Gross     entities.Quantity
	Scheduled entities.Quantity
	Available entities.Quantity // opening balance plus scheduled supply
	Net       entities.Quantity
	OrderQty  entities.Quantity // planned receipt sized by the order policy
	Projected entities.Quantity // closing balance including the planned receipt
}

// Net walks the buckets in date order and returns only the buckets with a shortage.
// A bucket is short when the balance after supply and demand drops below the floor.
// The planned receipt sized by policy restores the balance; any lot sizing surplus
// stays in the balance for later buckets.
func Net(in NettingInput, policy *OrderPolicy) []BucketPosition {
	buckets := make(map[int]bool, len(in.Gross)+len(in.Supply)+1)
	for bucket := range in.Gross {
		buckets[bucket] = true
	}
	for bucket := range in.Supply {
		buckets[bucket] = true
	}
	if in.Floor.IsPositive() {
		buckets[0] = true
	}

	ordered := make([]int, 0, len(buckets))
	for bucket := range buckets {
		ordered = append(ordered, bucket)
	}
	sort.Ints(ordered)

	var shortages []BucketPosition
	balance := in.OnHand
	for _, bucket := range ordered {
		scheduled := in.Supply[bucket]
		gross := in.Gross[bucket]

		balance = balance.Add(scheduled)
		available := balance
		balance = balance.Sub(gross)

		if !balance.LessThan(in.Floor) {
			continue
		}

		net := in.Floor.Sub(balance)
		orderQty := policy.Quantity(net)
		balance = balance.Add(orderQty)

		shortages = append(shortages, BucketPosition{
			Bucket:    bucket,
			Gross:     gross,
			Scheduled: scheduled,
			Available: available,
			Net:       net,
			OrderQty:  orderQty,
			Projected: balance,
		})
	}

	return shortages
}
