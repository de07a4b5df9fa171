package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/mnldiecast/storefront-backend/pkg/db/models"
)

// Effective is the resolved selling price for a variant, with the breakdown
// the storefront shows next to the strikethrough price.
type Effective struct {
	UnitPriceCents     int
	BasePriceCents     int
	DiscountCents      int
	SaleApplied        bool
	PercentApplied     bool
	DiscountPercentage decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// Resolve computes the effective unit price for a variant. An explicit sale
// price wins over a percent discount; a sale price outside (0, base) is
// treated as absent. Percent discounts outside (0, 100] are ignored. The
// result is never negative and never exceeds the base price.
func Resolve(v models.Variant) Effective {
	eff := Effective{
		UnitPriceCents: v.BasePriceCents,
		BasePriceCents: v.BasePriceCents,
	}
	if v.BasePriceCents <= 0 {
		eff.UnitPriceCents = 0
		return eff
	}

	if v.SalePriceCents != nil {
		sale := *v.SalePriceCents
		if sale > 0 && sale < v.BasePriceCents {
			eff.UnitPriceCents = sale
			eff.DiscountCents = v.BasePriceCents - sale
			eff.SaleApplied = true
			return eff
		}
	}

	if v.DiscountPercent != nil {
		pct := *v.DiscountPercent
		if pct.IsPositive() && pct.LessThanOrEqual(oneHundred) {
			discounted := decimal.NewFromInt(int64(v.BasePriceCents)).
				Mul(oneHundred.Sub(pct)).
				Div(oneHundred).
				Round(0) // half-up at the centavo
			unit := int(discounted.IntPart())
			if unit < 0 {
				unit = 0
			}
			if unit > v.BasePriceCents {
				unit = v.BasePriceCents
			}
			eff.UnitPriceCents = unit
			eff.DiscountCents = v.BasePriceCents - unit
			eff.PercentApplied = true
			eff.DiscountPercentage = pct
		}
	}

	return eff
}
