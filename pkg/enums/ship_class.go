package enums

import "fmt"

// ShipClass is the packaging-capacity category of a variant. It drives
// carrier package selection only and has no relation to price.
type ShipClass string

const (
	ShipClassMiniGT           ShipClass = "MINI_GT"
	ShipClassKaido            ShipClass = "KAIDO"
	ShipClassTomica           ShipClass = "TOMICA"
	ShipClassHotWheelsBasic   ShipClass = "HOT_WHEELS_BASIC"
	ShipClassAcrylicMini      ShipClass = "ACRYLIC_MINI"
	ShipClassAcrylicTrueScale ShipClass = "ACRYLIC_TRUE_SCALE"
	// ShipClassDiorama can only travel by Lalamove; no courier package
	// carries it.
	ShipClassDiorama ShipClass = "DIORAMA"
)

// ShipClassDefault is assumed when a variant does not declare a class.
const ShipClassDefault = ShipClassMiniGT

var validShipClasses = []ShipClass{
	ShipClassMiniGT,
	ShipClassKaido,
	ShipClassTomica,
	ShipClassHotWheelsBasic,
	ShipClassAcrylicMini,
	ShipClassAcrylicTrueScale,
	ShipClassDiorama,
}

// String implements fmt.Stringer.
func (s ShipClass) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipClass.
func (s ShipClass) IsValid() bool {
	for _, candidate := range validShipClasses {
		if candidate == s {
			return true
		}
	}
	return false
}

// OrDefault replaces an empty or unknown class with the default bucket.
func (s ShipClass) OrDefault() ShipClass {
	if s.IsValid() {
		return s
	}
	return ShipClassDefault
}

// ParseShipClass converts raw input into a ShipClass.
func ParseShipClass(value string) (ShipClass, error) {
	for _, candidate := range validShipClasses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ship class %q", value)
}
