package ratehawk

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/nrenier/ratehawk-connector/internal/domain"
)

// Source is the adapter identifier stamped on every normalized entity.
const Source = "ratehawk"

const dateLayout = "2006-01-02"

/* ---- raw payload helpers ---- */

func rawMap(m map[string]any, key string) (map[string]any, bool) {
	v, ok := m[key].(map[string]any)
	return v, ok
}

func rawStr(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// rawStrPtr preserves the missing-vs-empty distinction: an absent key yields
// nil, a present empty string yields a pointer to "".
func rawStrPtr(m map[string]any, key string) *string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func rawList(m map[string]any, key string) []any {
	if l, ok := m[key].([]any); ok {
		return l
	}
	return nil
}

func rawStrings(m map[string]any, key string) []string {
	raw := rawList(m, key)
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// rawID stringifies the vendor identifier under key. Ratehawk sends ids as
// both JSON strings and numbers.
func rawID(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func rawFloat(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func rawInt(m map[string]any, key string) (int, bool) {
	if f, ok := rawFloat(m, key); ok {
		return int(f), true
	}
	return 0, false
}

func rawIntDefault(m map[string]any, key string, def int) int {
	if v, ok := m[key]; !ok || v == nil {
		return def
	}
	if n, ok := rawInt(m, key); ok {
		return n
	}
	return def
}

func rawIntPtr(m map[string]any, key string) *int {
	if v, ok := m[key]; !ok || v == nil {
		return nil
	}
	if n, ok := rawInt(m, key); ok {
		return &n
	}
	return nil
}

func rawFloatPtr(m map[string]any, key string) *float64 {
	if v, ok := m[key]; !ok || v == nil {
		return nil
	}
	if f, ok := rawFloat(m, key); ok {
		return &f
	}
	return nil
}

// rawMoney parses a price into exact decimal. JSON numbers arrive as
// json.Number because the client decodes with UseNumber, so no binary float
// ever sits between the wire and the Decimal.
func rawMoney(m map[string]any, key string) (decimal.Decimal, error) {
	switch v := m[key].(type) {
	case nil:
		return decimal.Zero, nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		if strings.TrimSpace(v) == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(strings.TrimSpace(v))
	case float64:
		// only reachable for payloads decoded without UseNumber
		return decimal.NewFromString(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return decimal.Zero, nil
	}
}

func rawDate(m map[string]any, key string) (time.Time, bool, error) {
	s := rawStr(m, key)
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, true, err
	}
	return t, true, nil
}

func rawTimestamp(m map[string]any, key string) (*time.Time, error) {
	s := rawStr(m, key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	u := t.UTC()
	return &u, nil
}

/* ---- hotel ---- */

// HotelFromRaw converts one vendor hotel fragment into the standardized
// model. Pure: same bytes in, same value out.
func HotelFromRaw(data map[string]any) (domain.Hotel, error) {
	hotelID := rawID(data, "id")
	if hotelID == "" {
		return domain.Hotel{}, &domain.TransformError{Entity: "hotel", Field: "id"}
	}

	h := domain.Hotel{
		ID:          domain.EntityID(Source, "hotel", hotelID),
		Source:      Source,
		SourceID:    hotelID,
		Name:        rawStr(data, "name"),
		Description: rawStrPtr(data, "description"),
		Category:    rawIntPtr(data, "star_rating"),
		Location:    locationFromRaw(data, hotelID),
		Phone:       rawStrPtr(data, "phone"),
		Email:       rawStrPtr(data, "email"),
		Website:     rawStrPtr(data, "website"),
		Amenities:   mapAmenities(rawList(data, "amenities"), HotelAmenity),
		Images:      rawStrings(data, "images"),
		RawData:     data,
	}
	return h, nil
}

// HotelDetailsFromRaw is HotelFromRaw plus the enrichment only the detail
// endpoint carries: check-in/out times, policies, rating, review count.
func HotelDetailsFromRaw(data map[string]any) (domain.Hotel, error) {
	h, err := HotelFromRaw(data)
	if err != nil {
		return domain.Hotel{}, err
	}

	if details, ok := rawMap(data, "details"); ok {
		// an unparseable time of day is logged and skipped, not fatal
		if t, ok := clockTime(rawStr(details, "checkin_time")); ok {
			h.CheckInTime = &t
		} else if rawStr(details, "checkin_time") != "" {
			log.Warn().Str("hotel", h.SourceID).
				Str("checkin_time", rawStr(details, "checkin_time")).
				Msg("invalid check-in time format")
		}
		if t, ok := clockTime(rawStr(details, "checkout_time")); ok {
			h.CheckOutTime = &t
		} else if rawStr(details, "checkout_time") != "" {
			log.Warn().Str("hotel", h.SourceID).
				Str("checkout_time", rawStr(details, "checkout_time")).
				Msg("invalid check-out time format")
		}
		h.CancellationPolicy = rawStrPtr(details, "cancellation_policy")
		h.ChildrenPolicy = rawStrPtr(details, "children_policy")
		h.PetPolicy = rawStrPtr(details, "pet_policy")
	}

	h.Rating = rawFloatPtr(data, "rating")
	h.ReviewCount = rawIntPtr(data, "review_count")
	return h, nil
}

// clockTime normalizes "15:00" / "9:30" into "15:04" form.
func clockTime(s string) (string, bool) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return "", false
	}
	h, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	m, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return "", false
	}
	return strconv.Itoa(h/10) + strconv.Itoa(h%10) + ":" + strconv.Itoa(m/10) + strconv.Itoa(m%10), true
}

func locationFromRaw(data map[string]any, hotelID string) domain.Location {
	locData, _ := rawMap(data, "location")
	if locData == nil {
		locData = map[string]any{}
	}

	city, _ := rawMap(locData, "city")
	state, _ := rawMap(locData, "state")
	country, _ := rawMap(locData, "country")

	addr := domain.Address{
		Line1:            rawStr(locData, "address"),
		Line2:            nil,
		City:             rawStr(city, "name"),
		PostalCode:       rawStrPtr(locData, "zip_code"),
		State:            rawStrPtr(state, "name"),
		Country:          rawStr(country, "name"),
		CountryCode:      rawStr(country, "code"),
		FormattedAddress: rawStrPtr(locData, "address"),
	}

	var coords *domain.Coordinates
	if geo, ok := rawMap(locData, "geo"); ok {
		lat, okLat := rawFloat(geo, "lat")
		lon, okLon := rawFloat(geo, "lon")
		if okLat && okLon {
			coords = &domain.Coordinates{
				ID:        domain.EntityID(Source, "coordinates", hotelID),
				Source:    Source,
				SourceID:  hotelID + "_geo",
				Latitude:  lat,
				Longitude: lon,
			}
		}
	}

	return domain.Location{
		ID:                domain.EntityID(Source, "location", hotelID),
		Source:            Source,
		SourceID:          hotelID + "_location",
		Address:           addr,
		Coordinates:       coords,
		Neighborhood:      rawStrPtr(locData, "neighborhood"),
		District:          rawStrPtr(locData, "district"),
		NearbyAttractions: []string{},
		DistanceToCenter:  rawFloatPtr(locData, "distance_to_center"),
	}
}

/* ---- room & rate ---- */

// RoomFromRaw converts one vendor room fragment. The room does not carry its
// parent reference, so the hotel's source id comes in as context.
func RoomFromRaw(data map[string]any, hotelID string) (domain.Room, error) {
	roomID := rawID(data, "id")
	if roomID == "" {
		return domain.Room{}, &domain.TransformError{Entity: "room", Field: "id"}
	}

	var rates []domain.Rate
	for _, rv := range rawList(data, "rates") {
		rateData, ok := rv.(map[string]any)
		if !ok {
			continue
		}
		rate, err := RateFromRaw(rateData)
		if err != nil {
			// a bad rate drops that rate, not the room
			log.Warn().Err(err).Str("room", roomID).Msg("skipping rate")
			continue
		}
		rates = append(rates, rate)
	}

	available := true
	if b, ok := data["available"].(bool); ok {
		available = b
	}

	room := domain.Room{
		ID:           domain.EntityID(Source, "room", roomID),
		Source:       Source,
		SourceID:     roomID,
		HotelID:      hotelID,
		Name:         rawStr(data, "name"),
		Description:  rawStrPtr(data, "description"),
		MaxOccupancy: rawIntDefault(data, "max_occupancy", 1),
		MaxAdults:    rawIntDefault(data, "max_adults", 1),
		MaxChildren:  rawIntPtr(data, "max_children"),
		SizeSqm:      rawFloatPtr(data, "size_sqm"),
		BedType:      rawStrPtr(data, "bed_type"),
		BedCount:     rawIntPtr(data, "bed_count"),
		Amenities:    mapAmenities(rawList(data, "amenities"), RoomAmenity),
		Images:       rawStrings(data, "images"),
		Available:    &available,
		Rates:        rates,
		RawData:      data,
	}
	return room, nil
}

// RateFromRaw converts one rate-plan fragment.
func RateFromRaw(data map[string]any) (domain.Rate, error) {
	rateID := rawID(data, "id")
	if rateID == "" {
		return domain.Rate{}, &domain.TransformError{Entity: "rate", Field: "id"}
	}

	checkin, present, err := rawDate(data, "checkin")
	if err != nil {
		return domain.Rate{}, &domain.TransformError{Entity: "rate", Field: "checkin", SourceID: rateID, Reason: err.Error()}
	}
	if !present {
		return domain.Rate{}, &domain.TransformError{Entity: "rate", Field: "checkin", SourceID: rateID}
	}
	checkout, present, err := rawDate(data, "checkout")
	if err != nil {
		return domain.Rate{}, &domain.TransformError{Entity: "rate", Field: "checkout", SourceID: rateID, Reason: err.Error()}
	}
	if !present {
		return domain.Rate{}, &domain.TransformError{Entity: "rate", Field: "checkout", SourceID: rateID}
	}

	perNight, err := rawMoney(data, "price_per_night")
	if err != nil {
		return domain.Rate{}, &domain.TransformError{Entity: "rate", Field: "price_per_night", SourceID: rateID, Reason: err.Error()}
	}
	total, err := rawMoney(data, "total_price")
	if err != nil {
		return domain.Rate{}, &domain.TransformError{Entity: "rate", Field: "total_price", SourceID: rateID, Reason: err.Error()}
	}

	refundable := false
	if b, ok := data["is_refundable"].(bool); ok {
		refundable = b
	}

	currency := rawStr(data, "currency")
	if currency == "" {
		currency = "EUR"
	}

	rate := domain.Rate{
		ID:                 domain.EntityID(Source, "rate", rateID),
		Source:             Source,
		SourceID:           rateID,
		RatePlanID:         rateID,
		RatePlanName:       rawStrPtr(data, "name"),
		PricePerNight:      perNight,
		TotalPrice:         total,
		Currency:           currency,
		CheckInDate:        checkin,
		CheckOutDate:       checkout,
		MaxOccupancy:       rawIntDefault(data, "max_occupancy", 1),
		BoardType:          rawStrPtr(data, "board_type"),
		IsRefundable:       refundable,
		CancellationPolicy: rawStrPtr(data, "cancellation_policy"),
		RawData:            data,
	}
	return rate, nil
}

/* ---- booking ---- */

var bookingStatuses = map[string]domain.BookingStatus{
	"pending":   domain.BookingStatusPending,
	"confirmed": domain.BookingStatusConfirmed,
	"cancelled": domain.BookingStatusCancelled,
	"completed": domain.BookingStatusCompleted,
	"failed":    domain.BookingStatusFailed,
}

// BookingFromRaw converts a vendor booking payload. Dates are required;
// their absence or malformation fails the transform since downstream booking
// logic depends on them.
func BookingFromRaw(data map[string]any) (domain.Booking, error) {
	bookingID := rawID(data, "id")
	if bookingID == "" {
		return domain.Booking{}, &domain.TransformError{Entity: "booking", Field: "id"}
	}

	status, ok := bookingStatuses[strings.ToLower(rawStr(data, "status"))]
	if !ok {
		status = domain.BookingStatusUnknown
	}

	checkin, _, err := rawDate(data, "checkin")
	if err != nil {
		return domain.Booking{}, &domain.TransformError{Entity: "booking", Field: "checkin", SourceID: bookingID, Reason: err.Error()}
	}
	checkout, _, err := rawDate(data, "checkout")
	if err != nil {
		return domain.Booking{}, &domain.TransformError{Entity: "booking", Field: "checkout", SourceID: bookingID, Reason: err.Error()}
	}
	if checkin.IsZero() || checkout.IsZero() {
		return domain.Booking{}, &domain.TransformError{Entity: "booking", Field: "checkin/checkout", SourceID: bookingID, Reason: "missing stay dates"}
	}

	bookedAt, err := rawTimestamp(data, "created_at")
	if err != nil {
		return domain.Booking{}, &domain.TransformError{Entity: "booking", Field: "created_at", SourceID: bookingID, Reason: err.Error()}
	}
	cancelledAt, err := rawTimestamp(data, "cancelled_at")
	if err != nil {
		return domain.Booking{}, &domain.TransformError{Entity: "booking", Field: "cancelled_at", SourceID: bookingID, Reason: err.Error()}
	}

	total, err := rawMoney(data, "total_price")
	if err != nil {
		return domain.Booking{}, &domain.TransformError{Entity: "booking", Field: "total_price", SourceID: bookingID, Reason: err.Error()}
	}

	guest, _ := rawMap(data, "guest")

	bookingNumber := rawStr(data, "reference_number")
	if bookingNumber == "" {
		bookingNumber = bookingID
	}

	currency := rawStr(data, "currency")
	if currency == "" {
		currency = "EUR"
	}

	b := domain.Booking{
		ID:               domain.EntityID(Source, "booking", bookingID),
		Source:           Source,
		SourceID:         bookingID,
		BookingNumber:    bookingNumber,
		Status:           status,
		HotelID:          rawID(data, "hotel_id"),
		RoomID:           rawID(data, "room_id"),
		RatePlanID:       ratePlanIDFromRaw(data),
		GuestName:        rawStr(guest, "name"),
		GuestEmail:       rawStrPtr(guest, "email"),
		GuestPhone:       rawStrPtr(guest, "phone"),
		NumberOfGuests:   rawIntDefault(data, "guests", 1),
		NumberOfAdults:   rawIntDefault(data, "adults", 1),
		NumberOfChildren: childrenCount(data),
		CheckInDate:      checkin,
		CheckOutDate:     checkout,
		SpecialRequests:  rawStrPtr(data, "special_requests"),
		TotalPrice:       total,
		Currency:         currency,
		PaymentStatus:    rawStrPtr(data, "payment_status"),
		PaymentMethod:    rawStrPtr(data, "payment_method"),
		CancelledAt:      cancelledAt,
		RawData:          data,
	}
	if bookedAt != nil {
		b.BookedAt = *bookedAt
	}
	return b, nil
}

func ratePlanIDFromRaw(data map[string]any) *string {
	id := rawID(data, "rate_id")
	if id == "" {
		return nil
	}
	return &id
}

// childrenCount reads the children field, which Ratehawk sends either as a
// count or as a list of ages.
func childrenCount(data map[string]any) int {
	switch v := data["children"].(type) {
	case []any:
		return len(v)
	case nil:
		return 0
	default:
		return rawIntDefault(data, "children", 0)
	}
}

/* ---- region ---- */

// RegionFromRaw converts one line of the region dump.
func RegionFromRaw(data map[string]any) (domain.Region, error) {
	regionID := rawID(data, "id")
	if regionID == "" {
		return domain.Region{}, &domain.TransformError{Entity: "region", Field: "id"}
	}

	country, _ := rawMap(data, "country")

	var center *domain.Coordinates
	if c, ok := rawMap(data, "center"); ok {
		lat, okLat := rawFloat(c, "lat")
		lon, okLon := rawFloat(c, "lon")
		if okLat && okLon {
			center = &domain.Coordinates{
				ID:        domain.EntityID(Source, "coordinates", regionID),
				Source:    Source,
				SourceID:  regionID + "_center",
				Latitude:  lat,
				Longitude: lon,
			}
		}
	}

	hotelIDs := rawStrings(data, "hotels")
	if hotelIDs == nil {
		hotelIDs = rawStrings(data, "hids")
	}

	r := domain.Region{
		ID:          domain.EntityID(Source, "region", regionID),
		Source:      Source,
		SourceID:    regionID,
		Name:        regionName(data),
		Type:        rawStr(data, "type"),
		CountryCode: rawStr(country, "code"),
		CountryName: rawStr(country, "name"),
		Center:      center,
		HotelIDs:    hotelIDs,
		HotelCount:  len(hotelIDs),
		RawData:     data,
	}
	return r, nil
}

// regionName handles both plain-string names and the localized name map the
// dump uses ({"en": ..., "it": ...}).
func regionName(data map[string]any) string {
	switch v := data["name"].(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["en"].(string); ok && s != "" {
			return s
		}
		if s, ok := v["it"].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

/* ---- standardized -> vendor (request direction) ---- */

// stripPrefix removes a "{source}_{entity}_" prefix so callers can pass
// either normalized or native ids.
func stripPrefix(id, entity string) string {
	return strings.TrimPrefix(id, Source+"_"+entity+"_")
}

// BookingRequestBody shapes a standardized booking request into the vendor's
// POST body.
func BookingRequestBody(req domain.BookingRequest) map[string]any {
	children := make([]int, len(req.ChildrenAges))
	copy(children, req.ChildrenAges)

	return map[string]any{
		"hotel_id": stripPrefix(req.HotelID, "hotel"),
		"room_id":  stripPrefix(req.RoomID, "room"),
		"rate_id":  stripPrefix(req.RateID, "rate"),
		"checkin":  req.CheckIn.Format(dateLayout),
		"checkout": req.CheckOut.Format(dateLayout),
		"adults":   req.Adults,
		"children": children,
		"guest": map[string]any{
			"first_name": req.Guest.FirstName,
			"last_name":  req.Guest.LastName,
			"email":      req.Guest.Email,
			"phone":      req.Guest.Phone,
		},
		"special_requests": req.SpecialRequests,
		"currency":         defaultCurrency(req.Currency),
	}
}

// SearchQuery shapes standardized search params into vendor query values.
func SearchQuery(p domain.SearchParams) map[string]string {
	q := make(map[string]string, 12)

	switch {
	case p.RegionID != "":
		q["region_id"] = stripPrefix(p.RegionID, "region")
	case p.CityID != "":
		q["city_id"] = p.CityID
	case p.Coords != nil:
		q["latitude"] = strconv.FormatFloat(p.Coords.Latitude, 'f', -1, 64)
		q["longitude"] = strconv.FormatFloat(p.Coords.Longitude, 'f', -1, 64)
		radius := p.RadiusKm
		if radius <= 0 {
			radius = 10
		}
		q["radius"] = strconv.Itoa(radius)
	}

	if !p.CheckIn.IsZero() {
		q["checkin"] = p.CheckIn.Format(dateLayout)
	}
	if !p.CheckOut.IsZero() {
		q["checkout"] = p.CheckOut.Format(dateLayout)
	}

	adults := p.Adults
	if adults <= 0 {
		adults = 1
	}
	q["adults"] = strconv.Itoa(adults)

	if len(p.ChildrenAges) > 0 {
		ages := make([]string, len(p.ChildrenAges))
		for i, a := range p.ChildrenAges {
			ages[i] = strconv.Itoa(a)
		}
		q["children"] = strings.Join(ages, ",")
	}

	q["currency"] = defaultCurrency(p.Currency)
	if p.Language != "" {
		q["language"] = p.Language
	} else {
		q["language"] = "en"
	}

	if p.StarRating != nil {
		q["star_rating"] = strconv.Itoa(*p.StarRating)
	}
	if p.PriceMin != nil {
		q["price_min"] = p.PriceMin.String()
	}
	if p.PriceMax != nil {
		q["price_max"] = p.PriceMax.String()
	}
	if p.Page > 0 {
		q["page"] = strconv.Itoa(p.Page)
	}
	if p.PageSize > 0 {
		q["hotels_count"] = strconv.Itoa(p.PageSize)
	}
	return q
}

func defaultCurrency(c string) string {
	if c == "" {
		return "EUR"
	}
	return c
}
