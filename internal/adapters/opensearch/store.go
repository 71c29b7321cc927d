package opensearchad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/nrenier/ratehawk-connector/internal/domain"
)

// Store adapts an OpenSearch cluster to the domain.SearchStore port. Entities
// are flattened into search documents keyed by their normalized id, so the
// upsert is last-write-wins and idempotent. The underlying client is safe for
// concurrent use.
type Store struct {
	client      *opensearch.Client
	hotelIndex  string
	regionIndex string
}

type Config struct {
	Addresses []string
	Username  string
	Password  string
	// Index names; empty means the defaults below.
	HotelIndex  string
	RegionIndex string
}

func New(cfg Config) (*Store, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("opensearch: %w", err)
	}
	s := &Store{
		client:      client,
		hotelIndex:  cfg.HotelIndex,
		regionIndex: cfg.RegionIndex,
	}
	if s.hotelIndex == "" {
		s.hotelIndex = "hotel_ratehawk"
	}
	if s.regionIndex == "" {
		s.regionIndex = "region_ratehawk"
	}
	return s, nil
}

/* ---- documents ---- */

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type countryDoc struct {
	Name string `json:"name,omitempty"`
	Code string `json:"code,omitempty"`
}

type hotelDoc struct {
	ID          string           `json:"id"`
	Source      string           `json:"source"`
	SourceID    string           `json:"source_id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Address     string           `json:"address,omitempty"`
	City        string           `json:"city,omitempty"`
	Country     countryDoc       `json:"country"`
	RegionID    string           `json:"region_id,omitempty"`
	Stars       *int             `json:"stars,omitempty"`
	Rating      *float64         `json:"rating,omitempty"`
	Photos      []string         `json:"photos,omitempty"`
	Amenities   []domain.Amenity `json:"amenities,omitempty"`
	Coordinates *geoPoint        `json:"coordinates,omitempty"`
}

type regionDoc struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	SourceID    string     `json:"source_id"`
	Name        string     `json:"name"`
	Type        string     `json:"type,omitempty"`
	Country     countryDoc `json:"country"`
	HotelsCount int        `json:"hotels_number"`
	Center      *geoPoint  `json:"center,omitempty"`
}

func hotelToDoc(h domain.Hotel) hotelDoc {
	doc := hotelDoc{
		ID:          h.ID,
		Source:      h.Source,
		SourceID:    h.SourceID,
		Name:        h.Name,
		Description: h.Description,
		Address:     h.Location.Address.Line1,
		City:        h.Location.Address.City,
		Country: countryDoc{
			Name: h.Location.Address.Country,
			Code: h.Location.Address.CountryCode,
		},
		RegionID:  regionIDFromRaw(h.RawData),
		Stars:     h.Category,
		Rating:    h.Rating,
		Photos:    h.Images,
		Amenities: h.Amenities,
	}
	if c := h.Location.Coordinates; c != nil {
		doc.Coordinates = &geoPoint{Lat: c.Latitude, Lon: c.Longitude}
	}
	return doc
}

// regionIDFromRaw pulls the vendor's region reference out of the opaque
// payload; hotels are searchable by region without the model having to grow
// a field the vendor only sometimes sends.
func regionIDFromRaw(raw map[string]any) string {
	region, ok := raw["region"].(map[string]any)
	if !ok {
		return ""
	}
	switch v := region["id"].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}

/* ---- writes ---- */

func (s *Store) UpsertHotel(ctx context.Context, h domain.Hotel) error {
	return s.index(ctx, s.hotelIndex, h.ID, hotelToDoc(h))
}

func (s *Store) UpsertRegion(ctx context.Context, r domain.Region) error {
	doc := regionDoc{
		ID:          r.ID,
		Source:      r.Source,
		SourceID:    r.SourceID,
		Name:        r.Name,
		Type:        r.Type,
		Country:     countryDoc{Name: r.CountryName, Code: r.CountryCode},
		HotelsCount: r.HotelCount,
	}
	if r.Center != nil {
		doc.Center = &geoPoint{Lat: r.Center.Latitude, Lon: r.Center.Longitude}
	}
	return s.index(ctx, s.regionIndex, r.ID, doc)
}

func (s *Store) index(ctx context.Context, idx, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := opensearchapi.IndexRequest{
		Index:      idx,
		DocumentID: id,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("opensearch index %s: %w", idx, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("opensearch index %s: %s: %s", idx, res.Status(), strings.TrimSpace(string(b)))
	}
	io.Copy(io.Discard, res.Body)
	return nil
}

/* ---- queries ---- */

func (s *Store) FindHotelsByName(ctx context.Context, query string, size int) ([]domain.Hotel, error) {
	if size <= 0 {
		size = 10
	}
	body := map[string]any{
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"match": map[string]any{"name": map[string]any{"query": query, "boost": 2.0}}},
					map[string]any{"match": map[string]any{"address": query}},
					map[string]any{"match": map[string]any{"description": query}},
				},
			},
		},
	}
	return s.searchHotels(ctx, body)
}

func (s *Store) FindHotelsByRegion(ctx context.Context, regionID string, size int) ([]domain.Hotel, error) {
	if size <= 0 {
		size = 100
	}
	body := map[string]any{
		"size": size,
		"query": map[string]any{
			"term": map[string]any{"region_id": regionID},
		},
	}
	return s.searchHotels(ctx, body)
}

func (s *Store) searchHotels(ctx context.Context, body map[string]any) ([]domain.Hotel, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.hotelIndex),
		s.client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("opensearch search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("opensearch search: %s: %s", res.Status(), strings.TrimSpace(string(b)))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source hotelDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	hotels := make([]domain.Hotel, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		hotels = append(hotels, docToHotel(hit.Source))
	}
	return hotels, nil
}

// docToHotel rebuilds the slice of the model the index carries. Fields the
// document does not store stay absent.
func docToHotel(doc hotelDoc) domain.Hotel {
	h := domain.Hotel{
		ID:          doc.ID,
		Source:      doc.Source,
		SourceID:    doc.SourceID,
		Name:        doc.Name,
		Description: doc.Description,
		Category:    doc.Stars,
		Rating:      doc.Rating,
		Images:      doc.Photos,
		Amenities:   doc.Amenities,
		Location: domain.Location{
			ID:       domain.EntityID(doc.Source, "location", doc.SourceID),
			Source:   doc.Source,
			SourceID: doc.SourceID + "_location",
			Address: domain.Address{
				Line1:       doc.Address,
				City:        doc.City,
				Country:     doc.Country.Name,
				CountryCode: doc.Country.Code,
			},
			NearbyAttractions: []string{},
		},
	}
	if doc.Coordinates != nil {
		h.Location.Coordinates = &domain.Coordinates{
			ID:        domain.EntityID(doc.Source, "coordinates", doc.SourceID),
			Source:    doc.Source,
			SourceID:  doc.SourceID + "_geo",
			Latitude:  doc.Coordinates.Lat,
			Longitude: doc.Coordinates.Lon,
		}
	}
	return h
}

/* ---- health ---- */

func (s *Store) Health(ctx context.Context) (domain.StoreHealth, error) {
	res, err := s.client.Cluster.Health(
		s.client.Cluster.Health.WithContext(ctx),
	)
	if err != nil {
		return domain.StoreHealth{Connected: false}, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return domain.StoreHealth{Connected: false}, fmt.Errorf("opensearch health: %s", res.Status())
	}

	var parsed struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return domain.StoreHealth{Connected: true}, err
	}
	return domain.StoreHealth{Connected: true, Status: parsed.Status}, nil
}
