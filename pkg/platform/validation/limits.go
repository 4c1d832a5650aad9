package validation

// MaxBodySize bounds JSON request bodies. Two base64 images of 5MB each plus
// the surrounding document fit under it.
const MaxBodySize = 16 << 20

// String length limits for free-text fields.
const (
	MaxNameLength     = 120
	MaxAddressLength  = 500
	MaxDoubtTitle     = 200
	MaxDoubtBody      = 4000
	MaxDistrictLength = 100
	MaxCategoryLength = 100
)
