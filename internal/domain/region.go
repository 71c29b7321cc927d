package domain

// Region is one node of the vendor's geographic hierarchy, as delivered by
// the full region dump.
type Region struct {
	ID       string
	Source   string
	SourceID string

	Name string
	Type string // country|province|city|...

	CountryCode string
	CountryName string

	Center *Coordinates

	HotelIDs   []string
	HotelCount int

	RawData map[string]any
}
