package ratehawk_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/nrenier/ratehawk-connector/internal/adapters/ratehawk"
	"github.com/nrenier/ratehawk-connector/internal/domain"
)

// decode mimics the client: UseNumber so prices stay exact.
func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return m
}

const hotelFixture = `{
  "id": "42",
  "name": "Hotel Alpha",
  "star_rating": 4,
  "description": "Small and quiet.",
  "amenities": ["Free WiFi", "Swimming Pool", "laser tag arena"],
  "images": ["https://img.example/1.jpg"],
  "location": {
    "address": "Via Roma 1",
    "zip_code": "00100",
    "city": {"name": "Rome"},
    "country": {"name": "Italy", "code": "IT"},
    "geo": {"lat": 41.9, "lon": 12.5}
  }
}`

func TestHotelFromRaw(t *testing.T) {
	h, err := ratehawk.HotelFromRaw(decode(t, hotelFixture))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if h.ID != "ratehawk_hotel_42" || h.Source != "ratehawk" || h.SourceID != "42" {
		t.Fatalf("unexpected ids: %+v", h)
	}
	if h.Name != "Hotel Alpha" {
		t.Fatalf("name = %q", h.Name)
	}
	if h.Category == nil || *h.Category != 4 {
		t.Fatalf("category = %v", h.Category)
	}
	if h.Location.Address.City != "Rome" || h.Location.Address.CountryCode != "IT" {
		t.Fatalf("unexpected address: %+v", h.Location.Address)
	}
	if c := h.Location.Coordinates; c == nil || c.Latitude != 41.9 || c.Longitude != 12.5 {
		t.Fatalf("unexpected coordinates: %+v", h.Location.Coordinates)
	}
	if h.Location.ID != "ratehawk_location_42" || h.Location.SourceID != "42_location" {
		t.Fatalf("unexpected location ids: %+v", h.Location)
	}

	// the unmappable amenity string is dropped, the rest classified
	want := []domain.Amenity{domain.AmenityWifi, domain.AmenityPool}
	if !reflect.DeepEqual(h.Amenities, want) {
		t.Fatalf("amenities = %v, want %v", h.Amenities, want)
	}
}

func TestHotelFromRaw_MissingID(t *testing.T) {
	_, err := ratehawk.HotelFromRaw(decode(t, `{"name": "No ID Hotel"}`))
	var terr *domain.TransformError
	if err == nil || !asTransformError(err, &terr) {
		t.Fatalf("expected TransformError, got %v", err)
	}
	if terr.Entity != "hotel" || terr.Field != "id" {
		t.Fatalf("unexpected error detail: %+v", terr)
	}
}

func TestHotelFromRaw_NumericID(t *testing.T) {
	h, err := ratehawk.HotelFromRaw(decode(t, `{"id": 42, "name": "N"}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if h.ID != "ratehawk_hotel_42" {
		t.Fatalf("id = %q", h.ID)
	}
}

// Missing key and present-but-empty value must stay distinguishable.
func TestHotelFromRaw_MissingVsEmpty(t *testing.T) {
	withEmpty, _ := ratehawk.HotelFromRaw(decode(t,
		`{"id": "1", "location": {"neighborhood": ""}}`))
	if withEmpty.Location.Neighborhood == nil || *withEmpty.Location.Neighborhood != "" {
		t.Fatalf("present empty neighborhood should be a pointer to \"\", got %v",
			withEmpty.Location.Neighborhood)
	}

	withMissing, _ := ratehawk.HotelFromRaw(decode(t, `{"id": "1", "location": {}}`))
	if withMissing.Location.Neighborhood != nil {
		t.Fatalf("absent neighborhood should be nil, got %q", *withMissing.Location.Neighborhood)
	}
}

func TestHotelFromRaw_Deterministic(t *testing.T) {
	a, _ := ratehawk.HotelFromRaw(decode(t, hotelFixture))
	b, _ := ratehawk.HotelFromRaw(decode(t, hotelFixture))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same bytes must yield identical values")
	}
}

func TestHotelDetailsFromRaw(t *testing.T) {
	h, err := ratehawk.HotelDetailsFromRaw(decode(t, `{
	  "id": "42",
	  "name": "Hotel Alpha",
	  "rating": 8.7,
	  "review_count": 120,
	  "details": {
	    "checkin_time": "15:00",
	    "checkout_time": "9:30",
	    "cancellation_policy": "free until 24h",
	    "pet_policy": ""
	  }
	}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if h.CheckInTime == nil || *h.CheckInTime != "15:00" {
		t.Fatalf("checkin = %v", h.CheckInTime)
	}
	// single-digit hour is normalized
	if h.CheckOutTime == nil || *h.CheckOutTime != "09:30" {
		t.Fatalf("checkout = %v", h.CheckOutTime)
	}
	if h.Rating == nil || *h.Rating != 8.7 {
		t.Fatalf("rating = %v", h.Rating)
	}
	if h.ReviewCount == nil || *h.ReviewCount != 120 {
		t.Fatalf("review_count = %v", h.ReviewCount)
	}
	if h.PetPolicy == nil || *h.PetPolicy != "" {
		t.Fatalf("present empty pet_policy should be kept: %v", h.PetPolicy)
	}
}

func TestHotelDetailsFromRaw_BadClockTimeSkipped(t *testing.T) {
	h, err := ratehawk.HotelDetailsFromRaw(decode(t, `{
	  "id": "42",
	  "details": {"checkin_time": "whenever"}
	}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if h.CheckInTime != nil {
		t.Fatalf("invalid time should be dropped, got %q", *h.CheckInTime)
	}
}

func TestRateFromRaw_ExactMoney(t *testing.T) {
	rate, err := ratehawk.RateFromRaw(decode(t, `{
	  "id": "r1",
	  "checkin": "2026-09-01",
	  "checkout": "2026-09-04",
	  "price_per_night": 41.15,
	  "total_price": 123.45,
	  "currency": "USD"
	}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := rate.TotalPrice.String(); got != "123.45" {
		t.Fatalf("total = %s, want exact 123.45", got)
	}
	if got := rate.PricePerNight.String(); got != "41.15" {
		t.Fatalf("per night = %s, want exact 41.15", got)
	}
	if rate.Currency != "USD" {
		t.Fatalf("currency = %q", rate.Currency)
	}
	if rate.CheckInDate.Format("2006-01-02") != "2026-09-01" {
		t.Fatalf("checkin = %v", rate.CheckInDate)
	}
}

func TestRateFromRaw_MissingDates(t *testing.T) {
	_, err := ratehawk.RateFromRaw(decode(t, `{"id": "r1", "total_price": "10"}`))
	var terr *domain.TransformError
	if err == nil || !asTransformError(err, &terr) {
		t.Fatalf("expected TransformError, got %v", err)
	}
	if terr.Field != "checkin" {
		t.Fatalf("field = %q", terr.Field)
	}
}

func TestRoomFromRaw_BadRateDropped(t *testing.T) {
	room, err := ratehawk.RoomFromRaw(decode(t, `{
	  "id": "sgl",
	  "name": "Single",
	  "rates": [
	    {"id": "ok", "checkin": "2026-09-01", "checkout": "2026-09-02", "total_price": "50"},
	    {"id": "bad"}
	  ]
	}`), "42")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if room.HotelID != "42" {
		t.Fatalf("hotel id = %q", room.HotelID)
	}
	if len(room.Rates) != 1 || room.Rates[0].SourceID != "ok" {
		t.Fatalf("rates = %+v, want only the valid one", room.Rates)
	}
}

func TestBookingFromRaw(t *testing.T) {
	b, err := ratehawk.BookingFromRaw(decode(t, `{
	  "id": "bk-77",
	  "status": "Confirmed",
	  "hotel_id": "42",
	  "room_id": "sgl",
	  "checkin": "2026-09-01",
	  "checkout": "2026-09-04",
	  "total_price": "300.00",
	  "children": [4, 9],
	  "guest": {"name": "Ada Lovelace", "email": "ada@example.com"},
	  "created_at": "2026-08-20T10:00:00Z"
	}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if b.ID != "ratehawk_booking_bk-77" || b.Status != domain.BookingStatusConfirmed {
		t.Fatalf("unexpected booking: %+v", b)
	}
	if b.NumberOfChildren != 2 {
		t.Fatalf("children from ages list = %d, want 2", b.NumberOfChildren)
	}
	if b.TotalPrice.String() != "300" {
		t.Fatalf("total = %s", b.TotalPrice.String())
	}
	if b.BookedAt.IsZero() {
		t.Fatalf("booked_at should come from created_at")
	}
	if b.CancelledAt != nil {
		t.Fatalf("cancelled_at should stay nil")
	}
}

func TestBookingFromRaw_UnknownStatus(t *testing.T) {
	b, err := ratehawk.BookingFromRaw(decode(t, `{
	  "id": "bk-1",
	  "status": "processing_weirdly",
	  "checkin": "2026-09-01",
	  "checkout": "2026-09-02"
	}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if b.Status != domain.BookingStatusUnknown {
		t.Fatalf("status = %q, want unknown", b.Status)
	}
	// the verbatim vendor value stays reachable
	if b.RawData["status"] != "processing_weirdly" {
		t.Fatalf("raw status lost: %v", b.RawData["status"])
	}
}

func TestBookingFromRaw_NoCreatedAt(t *testing.T) {
	b, err := ratehawk.BookingFromRaw(decode(t, `{
	  "id": "bk-2",
	  "checkin": "2026-09-01",
	  "checkout": "2026-09-02"
	}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !b.BookedAt.IsZero() {
		t.Fatalf("missing created_at must not be backfilled with wall clock")
	}
}

func TestRegionFromRaw(t *testing.T) {
	r, err := ratehawk.RegionFromRaw(decode(t, `{
	  "id": 1528,
	  "name": {"en": "Rome", "it": "Roma"},
	  "type": "city",
	  "country": {"code": "IT", "name": "Italy"},
	  "hids": ["h1", "h2", "h3"]
	}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if r.ID != "ratehawk_region_1528" || r.Name != "Rome" || r.CountryCode != "IT" {
		t.Fatalf("unexpected region: %+v", r)
	}
	if r.HotelCount != 3 {
		t.Fatalf("hotel count = %d", r.HotelCount)
	}
}

func TestSearchQuery(t *testing.T) {
	p := domain.SearchParams{RegionID: "ratehawk_region_1528", Adults: 2, Currency: ""}
	q := ratehawk.SearchQuery(p)
	if q["region_id"] != "1528" {
		t.Fatalf("region_id = %q, prefix should be stripped", q["region_id"])
	}
	if q["currency"] != "EUR" {
		t.Fatalf("currency default = %q", q["currency"])
	}
	if q["adults"] != "2" {
		t.Fatalf("adults = %q", q["adults"])
	}
}

func TestBookingRequestBody_StripsPrefixes(t *testing.T) {
	body := ratehawk.BookingRequestBody(domain.BookingRequest{
		HotelID: "ratehawk_hotel_42",
		RoomID:  "sgl",
		RateID:  "ratehawk_rate_r1",
	})
	if body["hotel_id"] != "42" || body["room_id"] != "sgl" || body["rate_id"] != "r1" {
		t.Fatalf("unexpected ids: %v %v %v", body["hotel_id"], body["room_id"], body["rate_id"])
	}
}

func asTransformError(err error, target **domain.TransformError) bool {
	te, ok := err.(*domain.TransformError)
	if ok {
		*target = te
	}
	return ok
}
