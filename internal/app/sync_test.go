package app_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/nrenier/ratehawk-connector/internal/app"
	"github.com/nrenier/ratehawk-connector/internal/domain"
)

// ---- fakes ----

type fakeVendor struct {
	regionDump []map[string]any
	hotelPages map[string][][]map[string]any // regionID -> pages

	hotels  []domain.Hotel
	hotel   domain.Hotel
	rooms   []domain.Room
	booking domain.Booking
	err     error
}

func (f *fakeVendor) Source() string { return "ratehawk" }

func (f *fakeVendor) SearchHotels(ctx context.Context, p domain.SearchParams) ([]domain.Hotel, error) {
	return f.hotels, f.err
}
func (f *fakeVendor) GetHotelDetails(ctx context.Context, id string) (domain.Hotel, error) {
	return f.hotel, f.err
}
func (f *fakeVendor) SearchRooms(ctx context.Context, id string, p domain.SearchParams) ([]domain.Room, error) {
	return f.rooms, f.err
}
func (f *fakeVendor) SearchHotelsByName(ctx context.Context, name, lang string) ([]domain.Hotel, error) {
	return f.hotels, f.err
}
func (f *fakeVendor) CreateBooking(ctx context.Context, req domain.BookingRequest) (domain.Booking, error) {
	return f.booking, f.err
}
func (f *fakeVendor) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	return f.booking, f.err
}
func (f *fakeVendor) CancelBooking(ctx context.Context, id string) (domain.Booking, error) {
	return f.booking, f.err
}
func (f *fakeVendor) IncrementalHotelDump(ctx context.Context, q map[string]string) (map[string]any, error) {
	return nil, f.err
}
func (f *fakeVendor) FetchRegionDump(ctx context.Context) ([]map[string]any, error) {
	return f.regionDump, f.err
}
func (f *fakeVendor) FetchHotelPage(ctx context.Context, regionID string, page, pageSize int) ([]map[string]any, error) {
	pages := f.hotelPages[regionID]
	if page > len(pages) {
		return nil, nil
	}
	return pages[page-1], nil
}
func (f *fakeVendor) TransformRegion(raw map[string]any) (domain.Region, error) {
	id, _ := raw["id"].(string)
	if id == "" {
		return domain.Region{}, &domain.TransformError{Entity: "region", Field: "id"}
	}
	code, _ := raw["country"].(string)
	return domain.Region{
		ID: "ratehawk_region_" + id, Source: "ratehawk", SourceID: id,
		CountryCode: code,
	}, nil
}
func (f *fakeVendor) TransformHotel(raw map[string]any) (domain.Hotel, error) {
	id, _ := raw["id"].(string)
	if id == "" {
		return domain.Hotel{}, &domain.TransformError{Entity: "hotel", Field: "id", Reason: "missing"}
	}
	return domain.Hotel{ID: "ratehawk_hotel_" + id, Source: "ratehawk", SourceID: id}, nil
}

type fakeStore struct {
	mu      sync.Mutex
	regions map[string]domain.Region
	hotels  map[string]domain.Hotel
	health  domain.StoreHealth
	failOn  string // region SourceID whose upsert errors
	byName  []domain.Hotel
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		regions: map[string]domain.Region{},
		hotels:  map[string]domain.Hotel{},
		health:  domain.StoreHealth{Connected: true, Status: "green"},
	}
}

func (s *fakeStore) UpsertRegion(ctx context.Context, r domain.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.SourceID == s.failOn {
		return errors.New("index unavailable")
	}
	s.regions[r.ID] = r
	return nil
}
func (s *fakeStore) UpsertHotel(ctx context.Context, h domain.Hotel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hotels[h.ID] = h
	return nil
}
func (s *fakeStore) FindHotelsByName(ctx context.Context, q string, size int) ([]domain.Hotel, error) {
	return s.byName, nil
}
func (s *fakeStore) FindHotelsByRegion(ctx context.Context, regionID string, size int) ([]domain.Hotel, error) {
	return s.byName, nil
}
func (s *fakeStore) Health(ctx context.Context) (domain.StoreHealth, error) {
	return s.health, nil
}

type fakeRecords struct {
	mu       sync.Mutex
	bookings []domain.Booking
	runs     []domain.RunSummary
}

func (r *fakeRecords) SaveBooking(ctx context.Context, b domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = append(r.bookings, b)
	return nil
}
func (r *fakeRecords) SaveSyncRun(ctx context.Context, s domain.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, s)
	return nil
}
func (r *fakeRecords) RecentSyncRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs, nil
}

// ---- tests ----

func TestSyncRegions_PartialFailure(t *testing.T) {
	dump := make([]map[string]any, 0, 10)
	for i := 1; i <= 10; i++ {
		rec := map[string]any{"id": fmt.Sprintf("r-%d", i), "country": "IT"}
		if i == 5 {
			delete(rec, "id") // one broken record
		}
		dump = append(dump, rec)
	}
	vendor := &fakeVendor{regionDump: dump}
	store := newFakeStore()
	records := &fakeRecords{}

	sync := app.NewSynchronizer(vendor, store, records, 2, 100)
	sum, err := sync.SyncRegions(context.Background(), "IT")
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if sum.RegionsProcessed != 9 || sum.RegionsFailed != 1 {
		t.Fatalf("processed=%d failed=%d, want 9/1", sum.RegionsProcessed, sum.RegionsFailed)
	}
	if len(store.regions) != 9 {
		t.Fatalf("store has %d regions, want 9", len(store.regions))
	}
	if len(sum.Failures) != 1 || sum.Failures[0].Kind != "region" {
		t.Fatalf("failures = %+v", sum.Failures)
	}
	if !strings.Contains(sum.Failures[0].Reason, `"id"`) {
		t.Fatalf("failure reason %q does not name the missing field", sum.Failures[0].Reason)
	}
	if len(records.runs) != 1 || records.runs[0].RunID != sum.RunID {
		t.Fatalf("run history not persisted: %+v", records.runs)
	}
}

func TestSyncRegions_CountryFilter(t *testing.T) {
	vendor := &fakeVendor{regionDump: []map[string]any{
		{"id": "r-1", "country": "IT"},
		{"id": "r-2", "country": "FR"},
		{"id": "r-3", "country": "it"},
	}}
	store := newFakeStore()

	sync := app.NewSynchronizer(vendor, store, nil, 2, 100)
	sum, err := sync.SyncRegions(context.Background(), "IT")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	// the filter is case-insensitive
	if sum.RegionsProcessed != 2 || sum.RegionsSkipped != 1 {
		t.Fatalf("processed=%d skipped=%d, want 2/1", sum.RegionsProcessed, sum.RegionsSkipped)
	}
}

func TestSyncRegions_UpsertFailureNamed(t *testing.T) {
	vendor := &fakeVendor{regionDump: []map[string]any{
		{"id": "r-1", "country": "IT"},
		{"id": "r-2", "country": "IT"},
	}}
	store := newFakeStore()
	store.failOn = "r-2"

	sync := app.NewSynchronizer(vendor, store, nil, 2, 100)
	sum, _ := sync.SyncRegions(context.Background(), "")
	if sum.RegionsProcessed != 1 || sum.RegionsFailed != 1 {
		t.Fatalf("processed=%d failed=%d", sum.RegionsProcessed, sum.RegionsFailed)
	}
	if sum.Failures[0].SourceID != "r-2" {
		t.Fatalf("failure names %q, want r-2", sum.Failures[0].SourceID)
	}
}

func TestSyncHotels_PagingEndsOnShortPage(t *testing.T) {
	// region a: one full page then a short one; region b: one short page
	vendor := &fakeVendor{hotelPages: map[string][][]map[string]any{
		"a": {
			{{"id": "h1"}, {"id": "h2"}},
			{{"id": "h3"}},
		},
		"b": {
			{{"id": "h4"}, {}}, // second record carries no id
		},
	}}
	store := newFakeStore()

	sync := app.NewSynchronizer(vendor, store, nil, 2, 2)
	sum, err := sync.SyncHotels(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if sum.HotelsProcessed != 4 {
		t.Fatalf("processed = %d, want 4", sum.HotelsProcessed)
	}
	if sum.HotelsFailed != 1 {
		t.Fatalf("failed = %d, want 1", sum.HotelsFailed)
	}
	if len(store.hotels) != 4 {
		t.Fatalf("store has %d hotels", len(store.hotels))
	}
}

func TestSync_Idempotent(t *testing.T) {
	vendor := &fakeVendor{regionDump: []map[string]any{{"id": "r-1", "country": "IT"}}}
	store := newFakeStore()
	sync := app.NewSynchronizer(vendor, store, nil, 1, 100)

	for i := 0; i < 3; i++ {
		if _, err := sync.SyncRegions(context.Background(), "IT"); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if len(store.regions) != 1 {
		t.Fatalf("re-running must not duplicate: %d regions", len(store.regions))
	}
}
