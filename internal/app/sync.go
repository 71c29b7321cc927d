package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/nrenier/ratehawk-connector/internal/adapters/observability"
	"github.com/nrenier/ratehawk-connector/internal/domain"
)

// Synchronizer pulls vendor dumps and listing pages, normalizes each record,
// and upserts it into the search store. One bad record never aborts a run:
// it is counted, named in the summary, and the run moves on. Upserts are
// keyed by entity id, so re-running after a partial failure only heals.
type Synchronizer struct {
	vendor  domain.Vendor
	store   domain.SearchStore
	records domain.RecordRepository // optional run-history sink

	workers  int
	pageSize int
}

func NewSynchronizer(v domain.Vendor, s domain.SearchStore, r domain.RecordRepository, workers, pageSize int) *Synchronizer {
	if workers <= 0 {
		workers = 4
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Synchronizer{vendor: v, store: s, records: r, workers: workers, pageSize: pageSize}
}

// SyncRegions downloads the full region dump and upserts every region whose
// country matches; empty country means no filter. Records the vendor cannot
// normalize are skipped and reported, not fatal.
func (s *Synchronizer) SyncRegions(ctx context.Context, country string) (domain.RunSummary, error) {
	sum := domain.RunSummary{
		RunID:     uuid.NewString(),
		Country:   strings.ToUpper(country),
		StartedAt: time.Now().UTC(),
	}
	log.Info().Str("run_id", sum.RunID).Str("country", sum.Country).Msg("region sync starting")

	_, err := s.regionPass(ctx, &sum)
	sum.FinishedAt = time.Now().UTC()
	if err != nil {
		return sum, err
	}

	s.saveRun(ctx, sum)
	log.Info().
		Str("run_id", sum.RunID).
		Int("processed", sum.RegionsProcessed).
		Int("skipped", sum.RegionsSkipped).
		Int("failed", sum.RegionsFailed).
		Msg("region sync completed")
	return sum, nil
}

// SyncAll is the full pipeline: region dump first, then the hotel listings
// of every region the dump matched. One summary covers both passes.
func (s *Synchronizer) SyncAll(ctx context.Context, country string) (domain.RunSummary, error) {
	sum := domain.RunSummary{
		RunID:     uuid.NewString(),
		Country:   strings.ToUpper(country),
		StartedAt: time.Now().UTC(),
	}
	log.Info().Str("run_id", sum.RunID).Str("country", sum.Country).Msg("full sync starting")

	regionIDs, err := s.regionPass(ctx, &sum)
	if err != nil {
		sum.FinishedAt = time.Now().UTC()
		return sum, err
	}
	s.hotelPass(ctx, regionIDs, &sum)

	sum.FinishedAt = time.Now().UTC()
	s.saveRun(ctx, sum)
	log.Info().
		Str("run_id", sum.RunID).
		Int("regions", sum.RegionsProcessed).
		Int("hotels", sum.HotelsProcessed).
		Int("hotels_failed", sum.HotelsFailed).
		Msg("full sync completed")
	return sum, ctx.Err()
}

// regionPass upserts matching regions into the store and returns their
// vendor ids, the input of the hotel pass.
func (s *Synchronizer) regionPass(ctx context.Context, sum *domain.RunSummary) ([]string, error) {
	raws, err := s.vendor.FetchRegionDump(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return ids, err
		}

		region, terr := s.vendor.TransformRegion(raw)
		if terr != nil {
			sum.RegionsFailed++
			sum.Failures = append(sum.Failures, failureFrom("region", terr))
			observability.ObserveSync("region", "failed")
			log.Warn().Err(terr).Msg("region dropped")
			continue
		}
		if sum.Country != "" && !strings.EqualFold(region.CountryCode, sum.Country) {
			sum.RegionsSkipped++
			observability.ObserveSync("region", "skipped")
			continue
		}
		if err := s.store.UpsertRegion(ctx, region); err != nil {
			sum.RegionsFailed++
			sum.Failures = append(sum.Failures, domain.SyncFailure{
				Kind: "region", SourceID: region.SourceID, Reason: err.Error(),
			})
			observability.ObserveSync("region", "failed")
			log.Warn().Str("region", region.SourceID).Err(err).Msg("region upsert failed")
			continue
		}
		sum.RegionsProcessed++
		ids = append(ids, region.SourceID)
		observability.ObserveSync("region", "ok")
	}
	return ids, nil
}

// SyncHotels walks the listing pages of each region concurrently, bounded by
// the worker count. A region's listing ends when a page comes back shorter
// than the page size.
func (s *Synchronizer) SyncHotels(ctx context.Context, regionIDs []string) (domain.RunSummary, error) {
	sum := domain.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log.Info().Str("run_id", sum.RunID).Int("regions", len(regionIDs)).Msg("hotel sync starting")

	s.hotelPass(ctx, regionIDs, &sum)

	sum.FinishedAt = time.Now().UTC()
	s.saveRun(ctx, sum)
	log.Info().
		Str("run_id", sum.RunID).
		Int("processed", sum.HotelsProcessed).
		Int("failed", sum.HotelsFailed).
		Msg("hotel sync completed")
	return sum, ctx.Err()
}

func (s *Synchronizer) hotelPass(ctx context.Context, regionIDs []string, sum *domain.RunSummary) {
	sem := semaphore.NewWeighted(int64(s.workers))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, regionID := range regionIDs {
		regionID := regionID

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			processed, failures := s.syncRegionHotels(ctx, regionID)

			mu.Lock()
			sum.HotelsProcessed += processed
			sum.HotelsFailed += len(failures)
			sum.Failures = append(sum.Failures, failures...)
			mu.Unlock()
		}()
	}
	wg.Wait()
}

func (s *Synchronizer) syncRegionHotels(ctx context.Context, regionID string) (int, []domain.SyncFailure) {
	var processed int
	var failures []domain.SyncFailure

	for page := 1; ; page++ {
		raws, err := s.vendor.FetchHotelPage(ctx, regionID, page, s.pageSize)
		if err != nil {
			failures = append(failures, domain.SyncFailure{
				Kind: "hotel", SourceID: regionID, Reason: "page " + errReason(err),
			})
			log.Warn().Str("region", regionID).Int("page", page).Err(err).Msg("hotel page fetch failed")
			return processed, failures
		}

		for _, raw := range raws {
			hotel, terr := s.vendor.TransformHotel(raw)
			if terr != nil {
				failures = append(failures, failureFrom("hotel", terr))
				observability.ObserveSync("hotel", "failed")
				continue
			}
			if err := s.store.UpsertHotel(ctx, hotel); err != nil {
				failures = append(failures, domain.SyncFailure{
					Kind: "hotel", SourceID: hotel.SourceID, Reason: err.Error(),
				})
				observability.ObserveSync("hotel", "failed")
				continue
			}
			processed++
			observability.ObserveSync("hotel", "ok")
		}

		if len(raws) < s.pageSize {
			return processed, failures
		}
	}
}

func (s *Synchronizer) saveRun(ctx context.Context, sum domain.RunSummary) {
	if s.records == nil {
		return
	}
	if err := s.records.SaveSyncRun(ctx, sum); err != nil {
		log.Warn().Str("run_id", sum.RunID).Err(err).Msg("sync run not persisted")
	}
}

func failureFrom(kind string, err error) domain.SyncFailure {
	f := domain.SyncFailure{Kind: kind, Reason: err.Error()}
	var terr *domain.TransformError
	if errors.As(err, &terr) {
		f.SourceID = terr.SourceID
		if terr.Reason != "" {
			f.Reason = terr.Reason
		}
	}
	return f
}

func errReason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
