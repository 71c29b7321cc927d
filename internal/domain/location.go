package domain

// Coordinates are floating-point degrees as supplied by the vendor.
// Values outside the nominal lat/lon ranges pass through untouched.
type Coordinates struct {
	ID       string
	Source   string
	SourceID string

	Latitude  float64
	Longitude float64
}

// Address is a postal address. Pointer fields distinguish "not provided"
// from an explicitly empty value.
type Address struct {
	Line1      string
	Line2      *string
	City       string
	PostalCode *string
	State      *string
	Country    string
	// ISO 3166-1 alpha-2.
	CountryCode string
	// Mirrors the raw address line when no richer formatting exists.
	FormattedAddress *string
}

type Location struct {
	ID       string
	Source   string
	SourceID string

	Address     Address
	Coordinates *Coordinates

	Neighborhood *string
	District     *string

	NearbyAttractions []string
	DistanceToCenter  *float64 // km
}
