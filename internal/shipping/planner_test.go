package shipping

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mnldiecast/storefront-backend/pkg/enums"
	pkgerrors "github.com/mnldiecast/storefront-backend/pkg/errors"
)

func TestCountsFromItemsDefaultsClass(t *testing.T) {
	t.Parallel()

	counts := CountsFromItems([]Item{
		{Class: enums.ShipClassMiniGT, Qty: 2},
		{Class: "", Qty: 1},
		{Class: "SOMETHING_NEW", Qty: 1},
		{Class: enums.ShipClassKaido, Qty: 0},
		{Class: enums.ShipClassTomica, Qty: -3},
	})

	require.Equal(t, 4, counts[enums.ShipClassMiniGT])
	require.Zero(t, counts[enums.ShipClassKaido])
	require.Zero(t, counts[enums.ShipClassTomica])
	require.Equal(t, 4, counts.Total())
}

func TestRecommendPackageSmallFit(t *testing.T) {
	t.Parallel()

	quote, err := RecommendPackage(enums.CarrierJNT, enums.RegionMetroManila,
		Counts{enums.ShipClassMiniGT: 2})
	require.NoError(t, err)
	require.NotNil(t, quote.Package)
	require.Equal(t, enums.PackageJNTSmall, quote.Package.Code)
	require.Equal(t, 6500, quote.FeeCents)
	require.False(t, quote.RequiresApproval)
}

func TestRecommendPackageStepsUp(t *testing.T) {
	t.Parallel()

	quote, err := RecommendPackage(enums.CarrierJNT, enums.RegionLuzon,
		Counts{enums.ShipClassMiniGT: 5})
	require.NoError(t, err)
	require.Equal(t, enums.PackageJNTMedium, quote.Package.Code)
	require.Equal(t, 10500, quote.FeeCents)
}

func TestRecommendPackageMixedClasses(t *testing.T) {
	t.Parallel()

	// Fits Small on every axis.
	quote, err := RecommendPackage(enums.CarrierJNT, enums.RegionMetroManila, Counts{
		enums.ShipClassMiniGT:         3,
		enums.ShipClassHotWheelsBasic: 8,
	})
	require.NoError(t, err)
	require.Equal(t, enums.PackageJNTSmall, quote.Package.Code)

	// One class over its Small cap pushes the whole cart to Medium.
	quote, err = RecommendPackage(enums.CarrierJNT, enums.RegionMetroManila, Counts{
		enums.ShipClassMiniGT:         3,
		enums.ShipClassHotWheelsBasic: 9,
	})
	require.NoError(t, err)
	require.Equal(t, enums.PackageJNTMedium, quote.Package.Code)
}

func TestRecommendPackageJNTOverflowFails(t *testing.T) {
	t.Parallel()

	_, err := RecommendPackage(enums.CarrierJNT, enums.RegionMetroManila,
		Counts{enums.ShipClassMiniGT: 10})
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInfeasiblePackage))
}

func TestRecommendPackageLBCOverflowNeedsApproval(t *testing.T) {
	t.Parallel()

	quote, err := RecommendPackage(enums.CarrierLBC, enums.RegionVisayas,
		Counts{enums.ShipClassMiniGT: 11})
	require.NoError(t, err)
	require.Nil(t, quote.Package)
	require.True(t, quote.RequiresApproval)
	require.Contains(t, quote.ApprovalReason, "Medium Box")
}

func TestRecommendPackageDioramaIsCourierInfeasible(t *testing.T) {
	t.Parallel()

	counts := Counts{enums.ShipClassDiorama: 1}

	_, err := RecommendPackage(enums.CarrierJNT, enums.RegionMetroManila, counts)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInfeasiblePackage))

	quote, err := RecommendPackage(enums.CarrierLBC, enums.RegionMetroManila, counts)
	require.NoError(t, err)
	require.True(t, quote.RequiresApproval)

	quote, err = RecommendPackage(enums.CarrierLalamove, enums.RegionMetroManila, counts)
	require.NoError(t, err)
	require.Nil(t, quote.Package)
	require.Zero(t, quote.FeeCents)
}

func TestRecommendPackagePickupAlwaysFree(t *testing.T) {
	t.Parallel()

	quote, err := RecommendPackage(enums.CarrierPickup, enums.RegionMindanao,
		Counts{enums.ShipClassMiniGT: 50})
	require.NoError(t, err)
	require.Zero(t, quote.FeeCents)
	require.False(t, quote.RequiresApproval)
}

func TestRecommendPackageMonotonicFees(t *testing.T) {
	t.Parallel()

	// Growing a cart can never make shipping cheaper.
	for _, carrier := range []enums.Carrier{enums.CarrierJNT, enums.CarrierLBC} {
		prevFee := 0
		for qty := 1; qty <= 10; qty++ {
			quote, err := RecommendPackage(carrier, enums.RegionMetroManila,
				Counts{enums.ShipClassMiniGT: qty})
			if err != nil || quote.RequiresApproval {
				break
			}
			require.GreaterOrEqual(t, quote.FeeCents, prevFee, "%s qty=%d", carrier, qty)
			prevFee = quote.FeeCents
		}
	}
}

func TestProtectorFeeCents(t *testing.T) {
	t.Parallel()

	require.Equal(t, 3000, ProtectorFeeCents(enums.ShipClassMiniGT))
	require.Equal(t, 1500, ProtectorFeeCents(enums.ShipClassHotWheelsBasic))
	require.Zero(t, ProtectorFeeCents(enums.ShipClassAcrylicTrueScale))
	// Unknown classes price like the default class.
	require.Equal(t, ProtectorFeeCents(enums.ShipClassDefault), ProtectorFeeCents("UNSEEN"))
}
