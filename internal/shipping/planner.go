package shipping

import (
	"fmt"

	"github.com/mnldiecast/storefront-backend/pkg/enums"
	pkgerrors "github.com/mnldiecast/storefront-backend/pkg/errors"
)

// Quote is the planner's answer for one carrier/region/cart combination.
// Package is nil for carriers without a box catalog (Lalamove, pickup),
// where the fee is arranged outside the storefront.
type Quote struct {
	Carrier          enums.Carrier
	Region           enums.Region
	Package          *Package
	FeeCents         int
	RequiresApproval bool
	ApprovalReason   string
}

// RecommendPackage picks the smallest package of the carrier that fits the
// cart, walking the catalog smallest to largest. Carriers without a catalog
// always succeed with no package and no fee. When nothing fits, LBC carts
// go to manual approval (staff book a Medium Box by hand) and J&T carts are
// rejected outright.
func RecommendPackage(carrier enums.Carrier, region enums.Region, counts Counts) (Quote, error) {
	quote := Quote{Carrier: carrier, Region: region}

	packages := PackagesFor(carrier)
	if packages == nil {
		// Lalamove and pickup take anything, dioramas included.
		return quote, nil
	}

	for i := range packages {
		pkg := packages[i]
		if !counts.FitsIn(pkg.Capacity) {
			continue
		}
		fee, ok := pkg.Fee(region)
		if !ok {
			return Quote{}, pkgerrors.New(pkgerrors.CodeInfeasiblePackage,
				fmt.Sprintf("no %s fee for region %s", pkg.Code, region))
		}
		quote.Package = &pkg
		quote.FeeCents = fee
		return quote, nil
	}

	if carrier == enums.CarrierLBC {
		quote.RequiresApproval = true
		quote.ApprovalReason = "cart exceeds LBC Small Box capacity; requires LBC Medium Box booked manually"
		return quote, nil
	}

	return Quote{}, pkgerrors.New(pkgerrors.CodeInfeasiblePackage,
		fmt.Sprintf("cart does not fit any %s package", carrier)).
		WithDetails(map[string]any{"carrier": carrier, "units": counts.Total()})
}

// QuoteItems is the convenience path used by the HTTP layer: classify the
// items, then plan.
func QuoteItems(carrier enums.Carrier, region enums.Region, items []Item) (Quote, error) {
	return RecommendPackage(carrier, region, CountsFromItems(items))
}
