package domain

import "fmt"

// Amenity is the closed amenity vocabulary shared by hotels and rooms.
// Vendor free-text amenity strings are classified into this set; strings
// with no match are dropped, never stored verbatim.
type Amenity string

const (
	AmenityWifi           Amenity = "wifi"
	AmenityPool           Amenity = "pool"
	AmenityFitnessCenter  Amenity = "fitness_center"
	AmenityRestaurant     Amenity = "restaurant"
	AmenityBar            Amenity = "bar"
	AmenitySpa            Amenity = "spa"
	AmenityRoomService    Amenity = "room_service"
	AmenityParking        Amenity = "parking"
	AmenityBusinessCenter Amenity = "business_center"
	AmenityBreakfast      Amenity = "breakfast"
	AmenityLaundry        Amenity = "laundry"
	AmenityShuttle        Amenity = "shuttle"
	AmenityConcierge      Amenity = "concierge"
	AmenityAirCon         Amenity = "air_conditioning"
	AmenityDisabledAccess Amenity = "disabled_access"
	AmenityPetFriendly    Amenity = "pet_friendly"
	AmenityBeachAccess    Amenity = "beach_access"
	AmenitySkiAccess      Amenity = "ski_access"
	AmenityTV             Amenity = "tv"
	AmenityMiniBar        Amenity = "mini_bar"
	AmenitySafe           Amenity = "safe"
	AmenityHairdryer      Amenity = "hairdryer"
	AmenityBathtub        Amenity = "bathtub"
	AmenityShower         Amenity = "shower"
	AmenityBalcony        Amenity = "balcony"
	AmenityKitchen        Amenity = "kitchen"
	AmenityCoffeeMachine  Amenity = "coffee_machine"
	AmenityIron           Amenity = "iron"
	AmenityDesk           Amenity = "desk"
	AmenityTelephone      Amenity = "telephone"
	AmenityBathRobes      Amenity = "bath_robes"
	AmenitySeaView        Amenity = "sea_view"
	AmenityMountainView   Amenity = "mountain_view"
	AmenityCityView       Amenity = "city_view"
)

// EntityID builds the deterministic identifier every standardized entity
// carries: "{source}_{entity}_{sourceID}". Stable across repeated transforms
// of the same vendor record.
func EntityID(source, entity, sourceID string) string {
	return fmt.Sprintf("%s_%s_%s", source, entity, sourceID)
}

// Hotel is the standardized accommodation record. Values are never mutated
// after transformation; a changed vendor record yields a new value.
type Hotel struct {
	ID       string
	Source   string
	SourceID string

	Name        string
	Description *string
	Category    *int // star rating 1-5
	Location    Location

	Phone   *string
	Email   *string
	Website *string

	Amenities []Amenity
	Images    []string

	// Times of day in "15:04" form.
	CheckInTime  *string
	CheckOutTime *string

	CancellationPolicy *string
	ChildrenPolicy     *string
	PetPolicy          *string

	Rating      *float64 // 0-10
	ReviewCount *int

	// Verbatim vendor payload, kept for forward-compatible field access.
	RawData map[string]any
}
