package domain

import (
	"context"
	"time"
)

// Vendor is the per-supplier capability contract. The synchronizer and the
// HTTP facade depend only on this interface, never on a concrete adapter, so
// further suppliers slot in without touching orchestration code.
//
// Fetch methods perform exactly one vendor call (plus bounded retries) and
// return parsed JSON; Transform methods are pure and deal with normalization
// only. Search/booking methods combine the two for the direct request paths.
type Vendor interface {
	Source() string

	SearchHotels(ctx context.Context, p SearchParams) ([]Hotel, error)
	GetHotelDetails(ctx context.Context, hotelID string) (Hotel, error)
	SearchRooms(ctx context.Context, hotelID string, p SearchParams) ([]Room, error)

	SearchHotelsByName(ctx context.Context, name, language string) ([]Hotel, error)

	CreateBooking(ctx context.Context, req BookingRequest) (Booking, error)
	GetBooking(ctx context.Context, bookingID string) (Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (Booking, error)

	// IncrementalHotelDump returns the vendor's day-over-day hotel change
	// feed, unprocessed.
	IncrementalHotelDump(ctx context.Context, query map[string]string) (map[string]any, error)

	// FetchRegionDump resolves the vendor's full region hierarchy.
	FetchRegionDump(ctx context.Context) ([]map[string]any, error)
	// FetchHotelPage lists raw hotels of a region; the listing ends when a
	// page comes back shorter than pageSize.
	FetchHotelPage(ctx context.Context, regionID string, page, pageSize int) ([]map[string]any, error)

	TransformRegion(raw map[string]any) (Region, error)
	TransformHotel(raw map[string]any) (Hotel, error)
}

// StoreHealth reports search-store connectivity.
type StoreHealth struct {
	Connected bool
	Status    string // green|yellow|red when connected
}

// SearchStore is the document store normalized entities are upserted into.
// Upserts are keyed by entity id and last-write-wins, so re-running a sync
// is idempotent.
type SearchStore interface {
	UpsertRegion(ctx context.Context, r Region) error
	UpsertHotel(ctx context.Context, h Hotel) error

	FindHotelsByName(ctx context.Context, query string, size int) ([]Hotel, error)
	FindHotelsByRegion(ctx context.Context, regionID string, size int) ([]Hotel, error)

	Health(ctx context.Context) (StoreHealth, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// SyncFailure is one record dropped during a batch run.
type SyncFailure struct {
	Kind     string // region|hotel
	SourceID string
	Reason   string
}

// RunSummary is what a synchronization run hands back to the operator:
// enough to decide whether to re-run.
type RunSummary struct {
	RunID      string
	Country    string
	StartedAt  time.Time
	FinishedAt time.Time

	RegionsProcessed int
	RegionsSkipped   int
	RegionsFailed    int

	HotelsProcessed int
	HotelsFailed    int

	Failures []SyncFailure
}

// RecordRepository persists booking records and sync-run history in the
// relational side store.
type RecordRepository interface {
	SaveBooking(ctx context.Context, b Booking) error
	SaveSyncRun(ctx context.Context, s RunSummary) error
	RecentSyncRuns(ctx context.Context, limit int) ([]RunSummary, error)
}
