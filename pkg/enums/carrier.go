package enums

import "fmt"

// Carrier identifies a shipping method offered at checkout.
type Carrier string

const (
	CarrierJNT      Carrier = "JNT"
	CarrierLBC      Carrier = "LBC"
	CarrierLalamove Carrier = "LALAMOVE"
	CarrierPickup   Carrier = "PICKUP"
)

var validCarriers = []Carrier{
	CarrierJNT,
	CarrierLBC,
	CarrierLalamove,
	CarrierPickup,
}

// String implements fmt.Stringer.
func (c Carrier) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Carrier.
func (c Carrier) IsValid() bool {
	for _, candidate := range validCarriers {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCarrier converts raw input into a Carrier.
func ParseCarrier(value string) (Carrier, error) {
	for _, candidate := range validCarriers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid carrier %q", value)
}
