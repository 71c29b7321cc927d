package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/nrenier/ratehawk-connector/internal/app"
	"github.com/nrenier/ratehawk-connector/internal/domain"
)

type Handlers struct {
	Q       *app.QueryService
	B       *app.BookingService
	Sync    *app.Synchronizer
	Records domain.RecordRepository // optional, serves run history
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api", func(r chi.Router) {
		r.Post("/hotels/search", h.searchHotels)
		r.Get("/hotels/name", h.hotelsByName)
		r.Get("/hotels/region", h.hotelsByRegion)
		r.Get("/hotels/{id}", h.getHotel)
		r.Post("/hotels/{id}/rooms", h.searchRooms)

		r.Post("/bookings", h.createBooking)
		r.Get("/bookings/{id}", h.getBooking)
		r.Delete("/bookings/{id}", h.cancelBooking)

		r.Get("/hotels/dump/incremental", h.incrementalDump)

		r.Post("/regions/sync", h.syncRegions)
		r.Post("/hotels/sync", h.syncHotels)
		r.Get("/sync/runs", h.listSyncRuns)

		r.Get("/opensearch/status", h.storeStatus)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeErr maps domain errors onto HTTP statuses. Vendor credential failures
// surface as 502 because the client's own request was fine.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusBadGateway, "Supplier Rejected Credentials", err.Error())
	default:
		var terr *domain.TransformError
		if errors.As(err, &terr) {
			writeProblem(w, http.StatusBadRequest, "Invalid Supplier Payload", terr.Error())
			return
		}
		var verr *domain.VendorError
		if errors.As(err, &verr) {
			writeProblem(w, http.StatusBadGateway, "Supplier Error", verr.Error())
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

/* ---- request shapes ---- */

type searchRequest struct {
	RegionID string   `json:"region_id"`
	CityID   string   `json:"city_id"`
	Lat      *float64 `json:"latitude"`
	Lon      *float64 `json:"longitude"`
	RadiusKm int      `json:"radius_km"`

	CheckIn  string `json:"checkin"`
	CheckOut string `json:"checkout"`

	Adults       int   `json:"adults"`
	ChildrenAges []int `json:"children_ages"`

	Currency string `json:"currency"`
	Language string `json:"language"`

	StarRating *int    `json:"star_rating"`
	PriceMin   *string `json:"price_min"`
	PriceMax   *string `json:"price_max"`

	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func (req searchRequest) toParams() (domain.SearchParams, error) {
	checkIn, err := time.Parse("2006-01-02", req.CheckIn)
	if err != nil {
		return domain.SearchParams{}, errors.New("checkin must be YYYY-MM-DD")
	}
	checkOut, err := time.Parse("2006-01-02", req.CheckOut)
	if err != nil {
		return domain.SearchParams{}, errors.New("checkout must be YYYY-MM-DD")
	}
	if !checkOut.After(checkIn) {
		return domain.SearchParams{}, errors.New("checkout must be after checkin")
	}
	p := domain.SearchParams{
		RegionID:     req.RegionID,
		CityID:       req.CityID,
		RadiusKm:     req.RadiusKm,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Adults:       req.Adults,
		ChildrenAges: req.ChildrenAges,
		Currency:     req.Currency,
		Language:     req.Language,
		StarRating:   req.StarRating,
		Page:         req.Page,
		PageSize:     req.PageSize,
	}
	if p.Adults <= 0 {
		p.Adults = 2
	}
	if req.Lat != nil && req.Lon != nil {
		p.Coords = &domain.Coordinates{Latitude: *req.Lat, Longitude: *req.Lon}
	}
	if req.PriceMin != nil {
		d, err := decimal.NewFromString(*req.PriceMin)
		if err != nil {
			return domain.SearchParams{}, errors.New("price_min must be a decimal string")
		}
		p.PriceMin = &d
	}
	if req.PriceMax != nil {
		d, err := decimal.NewFromString(*req.PriceMax)
		if err != nil {
			return domain.SearchParams{}, errors.New("price_max must be a decimal string")
		}
		p.PriceMax = &d
	}
	return p, nil
}

type bookingCreateRequest struct {
	HotelID string `json:"hotel_id"`
	RoomID  string `json:"room_id"`
	RateID  string `json:"rate_id"`

	CheckIn  string `json:"checkin"`
	CheckOut string `json:"checkout"`

	Adults       int   `json:"adults"`
	ChildrenAges []int `json:"children_ages"`

	Guest struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	} `json:"guest"`

	SpecialRequests string `json:"special_requests"`
	Currency        string `json:"currency"`
}

/* ---- hotels ---- */

func (h *Handlers) searchHotels(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be JSON")
		return
	}
	p, err := req.toParams()
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Search", err.Error())
		return
	}
	hotels, err := h.Q.SearchHotels(r.Context(), p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hotels)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Q.GetHotel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}

	etag, body := calcETagAndBody(hotel)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getHotel body")
	}
}

func (h *Handlers) searchRooms(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be JSON")
		return
	}
	p, err := req.toParams()
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Search", err.Error())
		return
	}
	rooms, err := h.Q.SearchRooms(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handlers) hotelsByName(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeProblem(w, http.StatusBadRequest, "Missing Query", "query parameter is required")
		return
	}
	language := r.URL.Query().Get("language")
	if language == "" {
		language = "en"
	}
	hotels, err := h.Q.HotelsByName(r.Context(), query, language, sizeParam(r, 10))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hotels)
}

func (h *Handlers) hotelsByRegion(w http.ResponseWriter, r *http.Request) {
	regionID := r.URL.Query().Get("region_id")
	if regionID == "" {
		writeProblem(w, http.StatusBadRequest, "Missing Region", "region_id parameter is required")
		return
	}
	hotels, err := h.Q.HotelsByRegion(r.Context(), regionID, sizeParam(r, 100))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hotels)
}

func sizeParam(r *http.Request, def int) int {
	if s := r.URL.Query().Get("size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 1000 {
			return n
		}
	}
	return def
}

/* ---- bookings ---- */

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be JSON")
		return
	}
	if req.HotelID == "" || req.RoomID == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Booking", "hotel_id and room_id are required")
		return
	}
	checkIn, err := time.Parse("2006-01-02", req.CheckIn)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Booking", "checkin must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse("2006-01-02", req.CheckOut)
	if err != nil || !checkOut.After(checkIn) {
		writeProblem(w, http.StatusBadRequest, "Invalid Booking", "checkout must be YYYY-MM-DD after checkin")
		return
	}

	booking, err := h.B.CreateBooking(r.Context(), domain.BookingRequest{
		HotelID:      req.HotelID,
		RoomID:       req.RoomID,
		RateID:       req.RateID,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Adults:       req.Adults,
		ChildrenAges: req.ChildrenAges,
		Guest: domain.Guest{
			FirstName: req.Guest.FirstName,
			LastName:  req.Guest.LastName,
			Email:     req.Guest.Email,
			Phone:     req.Guest.Phone,
		},
		SpecialRequests: req.SpecialRequests,
		Currency:        req.Currency,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.B.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.B.CancelBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handlers) incrementalDump(w http.ResponseWriter, r *http.Request) {
	query := map[string]string{"language": "en"}
	if l := r.URL.Query().Get("language"); l != "" {
		query["language"] = l
	}
	out, err := h.Q.IncrementalChanges(r.Context(), query)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

/* ---- sync ---- */

func (h *Handlers) syncRegions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Country string `json:"country"`
	}
	// empty body means "use no filter"
	_ = json.NewDecoder(r.Body).Decode(&req)

	sum, err := h.Sync.SyncRegions(r.Context(), req.Country)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *Handlers) syncHotels(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RegionIDs []string `json:"region_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.RegionIDs) == 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "region_ids is required")
		return
	}
	sum, err := h.Sync.SyncHotels(r.Context(), req.RegionIDs)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *Handlers) listSyncRuns(w http.ResponseWriter, r *http.Request) {
	if h.Records == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "run history is not configured")
		return
	}
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	runs, err := h.Records.RecentSyncRuns(r.Context(), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

/* ---- store ---- */

func (h *Handlers) storeStatus(w http.ResponseWriter, r *http.Request) {
	health, err := h.Q.StoreStatus(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}
	writeJSON(w, http.StatusOK, health)
}
