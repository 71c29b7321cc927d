package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nrenier/ratehawk-connector/internal/domain"
)

// QueryService serves the read paths. Vendor-backed lookups are cache-aside
// with a shared TTL; store-backed lookups hit the search index first and fall
// back to the vendor only when the index has nothing.
type QueryService struct {
	vendor   domain.Vendor
	store    domain.SearchStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(v domain.Vendor, s domain.SearchStore, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{vendor: v, store: s, cache: c, cacheTTL: ttl}
}

func (s *QueryService) SearchHotels(ctx context.Context, p domain.SearchParams) ([]domain.Hotel, error) {
	key := searchKey("search", "", p)
	var out []domain.Hotel
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	hotels, err := s.vendor.SearchHotels(ctx, p)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, hotels, int(s.cacheTTL.Seconds()))
	return hotels, nil
}

func (s *QueryService) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	key := "hotel:" + id
	var h domain.Hotel
	if ok, _ := s.cache.Get(ctx, key, &h); ok {
		return h, nil
	}
	h, err := s.vendor.GetHotelDetails(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	_ = s.cache.Set(ctx, key, h, int(s.cacheTTL.Seconds()))
	return h, nil
}

func (s *QueryService) SearchRooms(ctx context.Context, hotelID string, p domain.SearchParams) ([]domain.Room, error) {
	key := searchKey("rooms", hotelID, p)
	var out []domain.Room
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	rooms, err := s.vendor.SearchRooms(ctx, hotelID, p)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, rooms, int(s.cacheTTL.Seconds()))
	return rooms, nil
}

// HotelsByName reads the search index first; the vendor's suggest endpoint is
// the fallback for names the index has not been synced with yet.
func (s *QueryService) HotelsByName(ctx context.Context, name, language string, size int) ([]domain.Hotel, error) {
	key := fmt.Sprintf("byname:%s:%s:%d", strings.ToLower(name), strings.ToLower(language), size)
	var out []domain.Hotel
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	hotels, err := s.store.FindHotelsByName(ctx, name, size)
	if err != nil || len(hotels) == 0 {
		hotels, err = s.vendor.SearchHotelsByName(ctx, name, language)
		if err != nil {
			return nil, err
		}
	}
	_ = s.cache.Set(ctx, key, hotels, int(s.cacheTTL.Seconds()))
	return hotels, nil
}

func (s *QueryService) HotelsByRegion(ctx context.Context, regionID string, size int) ([]domain.Hotel, error) {
	key := fmt.Sprintf("byregion:%s:%d", regionID, size)
	var out []domain.Hotel
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	hotels, err := s.store.FindHotelsByRegion(ctx, regionID, size)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, hotels, int(s.cacheTTL.Seconds()))
	return hotels, nil
}

// IncrementalChanges proxies the vendor's day-over-day hotel change feed.
// Deliberately uncached: callers poll it to learn what moved since yesterday.
func (s *QueryService) IncrementalChanges(ctx context.Context, query map[string]string) (map[string]any, error) {
	return s.vendor.IncrementalHotelDump(ctx, query)
}

// StoreStatus is never cached; it exists to tell the truth right now.
func (s *QueryService) StoreStatus(ctx context.Context) (domain.StoreHealth, error) {
	return s.store.Health(ctx)
}

func searchKey(prefix, hotelID string, p domain.SearchParams) string {
	ages := make([]string, len(p.ChildrenAges))
	for i, a := range p.ChildrenAges {
		ages[i] = fmt.Sprint(a)
	}
	scope := p.RegionID
	if scope == "" {
		scope = p.CityID
	}
	if p.Coords != nil {
		scope = fmt.Sprintf("%f,%f,%d", p.Coords.Latitude, p.Coords.Longitude, p.RadiusKm)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s:%d:%s:%s:%d",
		prefix, hotelID, scope,
		p.CheckIn.Format("2006-01-02"), p.CheckOut.Format("2006-01-02"),
		p.Adults, strings.Join(ages, ","), p.Currency, p.Page)
}
