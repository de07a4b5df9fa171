package shipping

import (
	"github.com/mnldiecast/storefront-backend/pkg/enums"
)

// Item is one cart line viewed through the packing lens: what kind of box
// space it needs and how many units of it.
type Item struct {
	Class enums.ShipClass
	Qty   int
}

// Counts aggregates quantities per ship class.
type Counts map[enums.ShipClass]int

// CountsFromItems buckets items by ship class. Unknown or empty classes
// fall back to the default bucket, and non-positive quantities are skipped.
func CountsFromItems(items []Item) Counts {
	counts := Counts{}
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		counts[it.Class.OrDefault()] += it.Qty
	}
	return counts
}

// Total returns the unit count across all classes.
func (c Counts) Total() int {
	total := 0
	for _, qty := range c {
		total += qty
	}
	return total
}

// FitsIn reports whether every class bucket fits the package capacity.
// A class missing from the capacity table means the package cannot carry
// it at all.
func (c Counts) FitsIn(capacity map[enums.ShipClass]int) bool {
	for class, qty := range c {
		if qty > capacity[class] {
			return false
		}
	}
	return true
}
