package shipping

import (
	"github.com/mnldiecast/storefront-backend/pkg/enums"
)

// Package is one bookable box size for a courier, with per-class capacity
// and a flat fee per destination region. Capacities come from physically
// test-packing each box; they are not volumetric math.
type Package struct {
	Carrier  enums.Carrier
	Code     enums.PackageCode
	Capacity map[enums.ShipClass]int
	Fees     map[enums.Region]int
}

// Fee returns the centavo fee for shipping this package to the region.
func (p Package) Fee(region enums.Region) (int, bool) {
	fee, ok := p.Fees[region]
	return fee, ok
}

// Packages per carrier, ordered smallest to largest. The planner walks
// these in order and takes the first fit, so a larger cart can never get
// a cheaper package than a smaller one.
var jntPackages = []Package{
	{
		Carrier: enums.CarrierJNT,
		Code:    enums.PackageJNTSmall,
		Capacity: map[enums.ShipClass]int{
			enums.ShipClassMiniGT:           4,
			enums.ShipClassKaido:            3,
			enums.ShipClassTomica:           6,
			enums.ShipClassHotWheelsBasic:   8,
			enums.ShipClassAcrylicMini:      2,
			enums.ShipClassAcrylicTrueScale: 1,
		},
		Fees: map[enums.Region]int{
			enums.RegionMetroManila: 6500,
			enums.RegionLuzon:       8500,
			enums.RegionVisayas:     9500,
			enums.RegionMindanao:    10500,
		},
	},
	{
		Carrier: enums.CarrierJNT,
		Code:    enums.PackageJNTMedium,
		Capacity: map[enums.ShipClass]int{
			enums.ShipClassMiniGT:           8,
			enums.ShipClassKaido:            6,
			enums.ShipClassTomica:           12,
			enums.ShipClassHotWheelsBasic:   16,
			enums.ShipClassAcrylicMini:      4,
			enums.ShipClassAcrylicTrueScale: 2,
		},
		Fees: map[enums.Region]int{
			enums.RegionMetroManila: 8500,
			enums.RegionLuzon:       10500,
			enums.RegionVisayas:     11500,
			enums.RegionMindanao:    12500,
		},
	},
}

var lbcPackages = []Package{
	{
		Carrier: enums.CarrierLBC,
		Code:    enums.PackageLBCNSakto,
		Capacity: map[enums.ShipClass]int{
			enums.ShipClassMiniGT:           2,
			enums.ShipClassKaido:            2,
			enums.ShipClassTomica:           4,
			enums.ShipClassHotWheelsBasic:   6,
			enums.ShipClassAcrylicMini:      1,
			enums.ShipClassAcrylicTrueScale: 0,
		},
		Fees: map[enums.Region]int{
			enums.RegionMetroManila: 9900,
			enums.RegionLuzon:       12500,
			enums.RegionVisayas:     14500,
			enums.RegionMindanao:    15500,
		},
	},
	{
		Carrier: enums.CarrierLBC,
		Code:    enums.PackageLBCMinibox,
		Capacity: map[enums.ShipClass]int{
			enums.ShipClassMiniGT:           6,
			enums.ShipClassKaido:            4,
			enums.ShipClassTomica:           8,
			enums.ShipClassHotWheelsBasic:   12,
			enums.ShipClassAcrylicMini:      3,
			enums.ShipClassAcrylicTrueScale: 1,
		},
		Fees: map[enums.Region]int{
			enums.RegionMetroManila: 14500,
			enums.RegionLuzon:       17000,
			enums.RegionVisayas:     19000,
			enums.RegionMindanao:    20500,
		},
	},
	{
		Carrier: enums.CarrierLBC,
		Code:    enums.PackageLBCSmallBox,
		Capacity: map[enums.ShipClass]int{
			enums.ShipClassMiniGT:           10,
			enums.ShipClassKaido:            8,
			enums.ShipClassTomica:           16,
			enums.ShipClassHotWheelsBasic:   20,
			enums.ShipClassAcrylicMini:      5,
			enums.ShipClassAcrylicTrueScale: 3,
		},
		Fees: map[enums.Region]int{
			enums.RegionMetroManila: 19500,
			enums.RegionLuzon:       22500,
			enums.RegionVisayas:     25500,
			enums.RegionMindanao:    27500,
		},
	},
}

// Dioramas never appear in the capacity tables above: a missing class key
// reads as capacity zero, which forces every courier box to reject them.
// They only move via Lalamove or pickup.

// PackagesFor returns the ordered package list for a carrier, or nil when
// the carrier has no box catalog (Lalamove, pickup).
func PackagesFor(carrier enums.Carrier) []Package {
	switch carrier {
	case enums.CarrierJNT:
		return jntPackages
	case enums.CarrierLBC:
		return lbcPackages
	default:
		return nil
	}
}

// Protector add-on fee per unit, by ship class. Acrylic cases and dioramas
// ship in their own protection, so the add-on is free (and pointless) there.
var protectorFees = map[enums.ShipClass]int{
	enums.ShipClassMiniGT:           3000,
	enums.ShipClassKaido:            3000,
	enums.ShipClassTomica:           2000,
	enums.ShipClassHotWheelsBasic:   1500,
	enums.ShipClassAcrylicMini:      0,
	enums.ShipClassAcrylicTrueScale: 0,
	enums.ShipClassDiorama:          0,
}

// ProtectorFeeCents returns the per-unit protector add-on fee for a class.
func ProtectorFeeCents(class enums.ShipClass) int {
	return protectorFees[class.OrDefault()]
}
