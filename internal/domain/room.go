package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate prices one stay window for a room. Money is exact decimal, never a
// binary float, so cent-level drift cannot occur.
type Rate struct {
	ID       string
	Source   string
	SourceID string

	RatePlanID   string
	RatePlanName *string

	PricePerNight decimal.Decimal
	TotalPrice    decimal.Decimal
	Currency      string // ISO 4217

	CheckInDate  time.Time
	CheckOutDate time.Time

	MaxOccupancy int
	BoardType    *string

	IsRefundable       bool
	CancellationPolicy *string

	RawData map[string]any
}

// Room belongs to a Hotel via HotelID and owns its rates in vendor order.
type Room struct {
	ID       string
	Source   string
	SourceID string

	HotelID     string
	Name        string
	Description *string

	MaxOccupancy int
	MaxAdults    int
	MaxChildren  *int
	SizeSqm      *float64

	BedType  *string
	BedCount *int

	Amenities []Amenity
	Images    []string

	Available *bool
	Rates     []Rate

	RawData map[string]any
}
