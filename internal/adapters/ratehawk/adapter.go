package ratehawk

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/nrenier/ratehawk-connector/internal/domain"
)

// Adapter glues the raw client to the pure transforms and implements the
// domain.Vendor contract. It owns vendor-specific id prefix handling so the
// rest of the system only ever sees normalized ids.
type Adapter struct {
	client *Client
}

func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Source() string { return Source }

func (a *Adapter) SearchHotels(ctx context.Context, p domain.SearchParams) ([]domain.Hotel, error) {
	resp, err := a.client.SearchHotels(ctx, SearchQuery(p))
	if err != nil {
		return nil, err
	}
	return a.hotelsFromList(rawList(resp, "hotels")), nil
}

func (a *Adapter) GetHotelDetails(ctx context.Context, hotelID string) (domain.Hotel, error) {
	resp, err := a.client.GetHotel(ctx, stripPrefix(hotelID, "hotel"))
	if err != nil {
		return domain.Hotel{}, err
	}
	return HotelDetailsFromRaw(resp)
}

func (a *Adapter) SearchRooms(ctx context.Context, hotelID string, p domain.SearchParams) ([]domain.Room, error) {
	sourceID := stripPrefix(hotelID, "hotel")
	query := SearchQuery(p)
	query["hotel_id"] = sourceID

	resp, err := a.client.SearchRates(ctx, query)
	if err != nil {
		return nil, err
	}

	var rooms []domain.Room
	for _, rv := range rawList(resp, "rooms") {
		data, ok := rv.(map[string]any)
		if !ok {
			continue
		}
		room, err := RoomFromRaw(data, sourceID)
		if err != nil {
			log.Warn().Err(err).Str("hotel", sourceID).Msg("skipping room")
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (a *Adapter) SearchHotelsByName(ctx context.Context, name, language string) ([]domain.Hotel, error) {
	if language == "" {
		language = "en"
	}
	resp, err := a.client.Multicomplete(ctx, map[string]string{
		"query":    name,
		"language": language,
	})
	if err != nil {
		return nil, err
	}
	return a.hotelsFromList(rawList(resp, "hotels")), nil
}

func (a *Adapter) CreateBooking(ctx context.Context, req domain.BookingRequest) (domain.Booking, error) {
	resp, err := a.client.CreateBooking(ctx, BookingRequestBody(req))
	if err != nil {
		return domain.Booking{}, err
	}
	return BookingFromRaw(resp)
}

func (a *Adapter) GetBooking(ctx context.Context, bookingID string) (domain.Booking, error) {
	resp, err := a.client.GetBooking(ctx, stripPrefix(bookingID, "booking"))
	if err != nil {
		return domain.Booking{}, err
	}
	return BookingFromRaw(resp)
}

func (a *Adapter) CancelBooking(ctx context.Context, bookingID string) (domain.Booking, error) {
	resp, err := a.client.DeleteBooking(ctx, stripPrefix(bookingID, "booking"))
	if err != nil {
		return domain.Booking{}, err
	}
	booking, err := BookingFromRaw(resp)
	if err != nil {
		return domain.Booking{}, err
	}
	// the vendor's cancel response sometimes lags the state change
	booking.Status = domain.BookingStatusCancelled
	if booking.CancelledAt == nil {
		now := time.Now().UTC()
		booking.CancelledAt = &now
	}
	return booking, nil
}

func (a *Adapter) IncrementalHotelDump(ctx context.Context, query map[string]string) (map[string]any, error) {
	return a.client.HotelIncrementalDump(ctx, query)
}

// FetchRegionDump resolves the dump descriptor, downloads the JSONL.zst
// file it points at, and returns one raw record per line. The caller (the
// synchronizer) owns filtering and transformation.
func (a *Adapter) FetchRegionDump(ctx context.Context) ([]map[string]any, error) {
	info, err := a.client.RegionDumpInfo(ctx, map[string]any{"language": "en"})
	if err != nil {
		return nil, err
	}
	dumpURL := dumpURLFrom(info)
	if dumpURL == "" {
		return nil, &domain.VendorError{Op: "region dump", Err: fmt.Errorf("descriptor carries no dump url")}
	}
	return a.downloadJSONL(ctx, dumpURL)
}

func (a *Adapter) FetchHotelPage(ctx context.Context, regionID string, page, pageSize int) ([]map[string]any, error) {
	resp, err := a.client.SearchByRegion(ctx, map[string]string{
		"region_id":    stripPrefix(regionID, "region"),
		"page":         fmt.Sprintf("%d", page),
		"hotels_count": fmt.Sprintf("%d", pageSize),
	})
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for _, v := range rawList(resp, "hotels") {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (a *Adapter) TransformRegion(raw map[string]any) (domain.Region, error) {
	return RegionFromRaw(raw)
}

func (a *Adapter) TransformHotel(raw map[string]any) (domain.Hotel, error) {
	return HotelFromRaw(raw)
}

/* ---- internals ---- */

func (a *Adapter) hotelsFromList(raw []any) []domain.Hotel {
	var hotels []domain.Hotel
	for _, hv := range raw {
		data, ok := hv.(map[string]any)
		if !ok {
			continue
		}
		hotel, err := HotelFromRaw(data)
		if err != nil {
			log.Warn().Err(err).Msg("skipping hotel")
			continue
		}
		hotels = append(hotels, hotel)
	}
	return hotels
}

func dumpURLFrom(info map[string]any) string {
	if data, ok := rawMap(info, "data"); ok {
		if u := rawStr(data, "url"); u != "" {
			return u
		}
	}
	return rawStr(info, "url")
}

// downloadJSONL fetches a dump file, decompresses it when it is zstd, and
// parses one JSON object per line. Malformed lines are skipped with a
// warning, matching the tolerant dump semantics.
func (a *Adapter) downloadJSONL(ctx context.Context, dumpURL string) ([]map[string]any, error) {
	tmp, err := os.CreateTemp("", "ratehawk-dump-*.jsonl.zst")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := a.client.Download(ctx, dumpURL, tmp); err != nil {
		return nil, err
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		return nil, err
	}

	var scanner *bufio.Scanner
	if strings.HasSuffix(strings.ToLower(dumpURL), ".zst") {
		zr, err := zstd.NewReader(tmp)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		scanner = bufio.NewScanner(zr)
	} else {
		scanner = bufio.NewScanner(tmp)
	}
	// dump lines can be large
	scanner.Buffer(make([]byte, 0, 1<<20), 16<<20)

	var records []map[string]any
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text))
		dec.UseNumber()
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			log.Warn().Int("line", line).Err(err).Msg("invalid dump line")
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
