package ratehawk

import (
	"strings"

	"github.com/nrenier/ratehawk-connector/internal/domain"
)

// Ratehawk ships amenities as free text. Two vocabularies exist, one for
// hotel-level strings and one for room-level strings; both classify into the
// same closed enum. The tables below map enum value -> accepted lowercase
// aliases and are inverted once at init into direct lookups.

var hotelAmenityAliases = map[domain.Amenity][]string{
	domain.AmenityWifi:           {"wifi", "free wifi", "internet", "internet access", "wi-fi"},
	domain.AmenityPool:           {"pool", "swimming pool", "outdoor pool", "indoor pool"},
	domain.AmenityFitnessCenter:  {"fitness", "fitness center", "fitness centre", "gym"},
	domain.AmenityRestaurant:     {"restaurant"},
	domain.AmenityBar:            {"bar", "lounge bar"},
	domain.AmenitySpa:            {"spa", "wellness", "sauna"},
	domain.AmenityRoomService:    {"room service", "room-service"},
	domain.AmenityParking:        {"parking", "free parking", "garage"},
	domain.AmenityBusinessCenter: {"business center", "business centre", "meeting rooms"},
	domain.AmenityBreakfast:      {"breakfast", "breakfast included"},
	domain.AmenityLaundry:        {"laundry", "laundry service", "dry cleaning"},
	domain.AmenityShuttle:        {"shuttle", "airport shuttle", "transfer"},
	domain.AmenityConcierge:      {"concierge", "concierge service"},
	domain.AmenityAirCon:         {"air conditioning", "air-conditioning"},
	domain.AmenityDisabledAccess: {"disabled access", "accessibility", "wheelchair accessible"},
	domain.AmenityPetFriendly:    {"pets allowed", "pet friendly", "pet-friendly"},
	domain.AmenityBeachAccess:    {"beach", "beach access", "private beach", "beachfront"},
	domain.AmenitySkiAccess:      {"ski", "ski access", "ski-in ski-out", "ski storage"},
}

var roomAmenityAliases = map[domain.Amenity][]string{
	domain.AmenityAirCon:        {"air conditioning", "room air conditioning", "air-conditioning"},
	domain.AmenityTV:            {"tv", "television", "flat-screen tv", "satellite tv"},
	domain.AmenityWifi:          {"wifi", "free wifi", "internet", "wi-fi"},
	domain.AmenityMiniBar:       {"minibar", "mini-bar", "mini bar"},
	domain.AmenitySafe:          {"safe", "in-room safe", "safe deposit box"},
	domain.AmenityHairdryer:     {"hairdryer", "hair dryer"},
	domain.AmenityBathtub:       {"bathtub", "bath", "bath tub"},
	domain.AmenityShower:        {"shower", "walk-in shower"},
	domain.AmenityBalcony:       {"balcony", "terrace"},
	domain.AmenityKitchen:       {"kitchen", "kitchenette"},
	domain.AmenityCoffeeMachine: {"coffee machine", "coffee maker", "tea/coffee maker"},
	domain.AmenityIron:          {"iron", "ironing facilities"},
	domain.AmenityDesk:          {"desk", "work desk"},
	domain.AmenityTelephone:     {"telephone", "phone"},
	domain.AmenityBathRobes:     {"bathrobe", "bath robes", "bathrobes"},
	domain.AmenitySeaView:       {"sea view", "ocean view"},
	domain.AmenityMountainView:  {"mountain view"},
	domain.AmenityCityView:      {"city view"},
}

var (
	hotelAmenityLookup = invertAliases(hotelAmenityAliases)
	roomAmenityLookup  = invertAliases(roomAmenityAliases)
)

func invertAliases(tbl map[domain.Amenity][]string) map[string]domain.Amenity {
	out := make(map[string]domain.Amenity, len(tbl)*3)
	for amenity, aliases := range tbl {
		for _, a := range aliases {
			out[a] = amenity
		}
	}
	return out
}

// HotelAmenity classifies one hotel-level vendor string. The second return
// is false for unrecognized strings; callers drop those silently.
func HotelAmenity(s string) (domain.Amenity, bool) {
	a, ok := hotelAmenityLookup[strings.ToLower(strings.TrimSpace(s))]
	return a, ok
}

// RoomAmenity classifies one room-level vendor string.
func RoomAmenity(s string) (domain.Amenity, bool) {
	a, ok := roomAmenityLookup[strings.ToLower(strings.TrimSpace(s))]
	return a, ok
}

// mapAmenities runs a vendor string list through one of the lookups and
// deduplicates the result, keeping first-seen order.
func mapAmenities(raw []any, classify func(string) (domain.Amenity, bool)) []domain.Amenity {
	var out []domain.Amenity
	seen := make(map[domain.Amenity]struct{})
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		a, ok := classify(s)
		if !ok {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
