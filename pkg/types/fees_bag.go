package types

import (
	"database/sql/driver"
	"encoding/json"
)

// FeesBag records every surcharge and discount that went into an order's
// total, in centavos. Orders are immutable price-wise once created, so this
// is a snapshot rather than a live computation.
type FeesBag struct {
	ShippingFeeCents      int `json:"shipping_fee_cents"`
	CashOnPickupFeeCents  int `json:"cop_fee_cents"`
	LalamoveFeeCents      int `json:"lalamove_fee_cents"`
	PriorityFeeCents      int `json:"priority_fee_cents"`
	InsuranceFeeCents     int `json:"insurance_fee_cents"`
	AddOnFeeCents         int `json:"addon_fee_cents"`
	ShippingDiscountCents int `json:"shipping_discount_cents"`
}

// Value serializes the bag to JSON.
func (f *FeesBag) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// Scan decodes JSONB into the bag.
func (f *FeesBag) Scan(value interface{}) error {
	if value == nil {
		*f = FeesBag{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, f)
}
