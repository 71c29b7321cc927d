package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/nrenier/ratehawk-connector/internal/domain"
)

// BookingService owns the booking lifecycle. The vendor is the source of
// truth; every snapshot that comes back is mirrored into the relational
// record store so bookings stay auditable after vendor-side retention ends.
// A failed mirror write is logged, never surfaced: the booking exists at the
// vendor regardless.
type BookingService struct {
	vendor  domain.Vendor
	records domain.RecordRepository // optional
}

func NewBookingService(v domain.Vendor, r domain.RecordRepository) *BookingService {
	return &BookingService{vendor: v, records: r}
}

func (s *BookingService) CreateBooking(ctx context.Context, req domain.BookingRequest) (domain.Booking, error) {
	b, err := s.vendor.CreateBooking(ctx, req)
	if err != nil {
		return domain.Booking{}, err
	}
	s.mirror(ctx, b)
	return b, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (domain.Booking, error) {
	b, err := s.vendor.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	s.mirror(ctx, b)
	return b, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (domain.Booking, error) {
	b, err := s.vendor.CancelBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	s.mirror(ctx, b)
	return b, nil
}

func (s *BookingService) mirror(ctx context.Context, b domain.Booking) {
	if s.records == nil {
		return
	}
	if err := s.records.SaveBooking(ctx, b); err != nil {
		log.Warn().Str("booking", b.SourceID).Err(err).Msg("booking record not persisted")
	}
}
