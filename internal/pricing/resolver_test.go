package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mnldiecast/storefront-backend/pkg/db/models"
)

func intPtr(v int) *int { return &v }

func pctPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestResolveBasePriceOnly(t *testing.T) {
	t.Parallel()

	eff := Resolve(models.Variant{BasePriceCents: 100000})
	require.Equal(t, 100000, eff.UnitPriceCents)
	require.Zero(t, eff.DiscountCents)
	require.False(t, eff.SaleApplied)
	require.False(t, eff.PercentApplied)
}

func TestResolveSaleWinsOverPercent(t *testing.T) {
	t.Parallel()

	eff := Resolve(models.Variant{
		BasePriceCents:  100000,
		SalePriceCents:  intPtr(75000),
		DiscountPercent: pctPtr("20"),
	})
	require.Equal(t, 75000, eff.UnitPriceCents)
	require.Equal(t, 25000, eff.DiscountCents)
	require.True(t, eff.SaleApplied)
	require.False(t, eff.PercentApplied)
}

func TestResolvePercentDiscount(t *testing.T) {
	t.Parallel()

	// 1000.00 at 20% off comes to 800.00.
	eff := Resolve(models.Variant{
		BasePriceCents:  100000,
		DiscountPercent: pctPtr("20"),
	})
	require.Equal(t, 80000, eff.UnitPriceCents)
	require.Equal(t, 20000, eff.DiscountCents)
	require.True(t, eff.PercentApplied)
}

func TestResolvePercentRoundsHalfUp(t *testing.T) {
	t.Parallel()

	// 333 centavos at 25% off = 249.75, rounds to 250.
	eff := Resolve(models.Variant{
		BasePriceCents:  333,
		DiscountPercent: pctPtr("25"),
	})
	require.Equal(t, 250, eff.UnitPriceCents)
}

func TestResolveIgnoresInvalidSale(t *testing.T) {
	t.Parallel()

	// Sale at or above base is treated as absent; percent still applies.
	eff := Resolve(models.Variant{
		BasePriceCents:  100000,
		SalePriceCents:  intPtr(120000),
		DiscountPercent: pctPtr("10"),
	})
	require.Equal(t, 90000, eff.UnitPriceCents)
	require.True(t, eff.PercentApplied)

	eff = Resolve(models.Variant{
		BasePriceCents: 100000,
		SalePriceCents: intPtr(0),
	})
	require.Equal(t, 100000, eff.UnitPriceCents)
}

func TestResolveIgnoresInvalidPercent(t *testing.T) {
	t.Parallel()

	for _, pct := range []string{"0", "-5", "101"} {
		eff := Resolve(models.Variant{
			BasePriceCents:  100000,
			DiscountPercent: pctPtr(pct),
		})
		require.Equal(t, 100000, eff.UnitPriceCents, "percent %s", pct)
		require.False(t, eff.PercentApplied)
	}
}

func TestResolveFullPercentIsFree(t *testing.T) {
	t.Parallel()

	eff := Resolve(models.Variant{
		BasePriceCents:  100000,
		DiscountPercent: pctPtr("100"),
	})
	require.Equal(t, 0, eff.UnitPriceCents)
	require.Equal(t, 100000, eff.DiscountCents)
}

func TestResolveNonPositiveBase(t *testing.T) {
	t.Parallel()

	eff := Resolve(models.Variant{BasePriceCents: 0, DiscountPercent: pctPtr("20")})
	require.Equal(t, 0, eff.UnitPriceCents)
}
