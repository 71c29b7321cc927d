package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the closed status set vendor strings are mapped onto.
// A vendor status with no match maps to BookingStatusUnknown; the verbatim
// string stays reachable through RawData.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusFailed    BookingStatus = "failed"
	BookingStatusUnknown   BookingStatus = "unknown"
)

type Booking struct {
	ID       string
	Source   string
	SourceID string

	BookingNumber string
	Status        BookingStatus

	HotelID    string
	RoomID     string
	RatePlanID *string

	GuestName  string
	GuestEmail *string
	GuestPhone *string

	NumberOfGuests   int
	NumberOfAdults   int
	NumberOfChildren int

	CheckInDate     time.Time
	CheckOutDate    time.Time
	SpecialRequests *string

	TotalPrice    decimal.Decimal
	Currency      string
	PaymentStatus *string
	PaymentMethod *string

	BookedAt    time.Time
	CancelledAt *time.Time // absent until cancellation

	RawData map[string]any
}

// Guest identifies the lead guest on a booking request.
type Guest struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// BookingRequest is the standardized inbound shape for creating a booking.
// Entity ids may carry their "{source}_{entity}_" prefix; adapters strip it
// before talking to the vendor.
type BookingRequest struct {
	HotelID string
	RoomID  string
	RateID  string

	CheckIn  time.Time
	CheckOut time.Time

	Adults       int
	ChildrenAges []int

	Guest           Guest
	SpecialRequests string
	Currency        string
}

// SearchParams is the standardized hotel/room search input.
type SearchParams struct {
	RegionID string
	CityID   string
	Coords   *Coordinates
	RadiusKm int

	CheckIn  time.Time
	CheckOut time.Time

	Adults       int
	ChildrenAges []int

	Currency string
	Language string

	StarRating *int
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal

	Page     int
	PageSize int
}
