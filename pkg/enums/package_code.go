package enums

// PackageCode names a box or pouch size within a carrier's catalog.
type PackageCode string

const (
	// J&T Express pouches.
	PackageJNTSmall  PackageCode = "SMALL"
	PackageJNTMedium PackageCode = "MEDIUM"

	// LBC boxes, ascending by physical size.
	PackageLBCNSakto   PackageCode = "N_SAKTO"
	PackageLBCMinibox  PackageCode = "MINIBOX"
	PackageLBCSmallBox PackageCode = "SMALL_BOX"
)

// String implements fmt.Stringer.
func (p PackageCode) String() string {
	return string(p)
}
