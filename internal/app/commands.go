package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"hotel_monitor/internal/adapters/observability"
	"hotel_monitor/internal/domain"
)

const keyAllHotels = "hotels:all"

func hotelKey(id string) string { return fmt.Sprintf("hotel:%s", id) }

// Invalidator drops cached read models after a store.
type Invalidator interface {
	Invalidate(ctx context.Context, hotelID string)
}

type ScrapeService struct {
	scraper     domain.ScraperClient
	repo        domain.HotelRepository
	invalidator Invalidator
}

func NewScrapeService(c domain.ScraperClient, r domain.HotelRepository, inv Invalidator) *ScrapeService {
	return &ScrapeService{scraper: c, repo: r, invalidator: inv}
}

// Submit validates req, scrapes it, stores the snapshot and returns it unchanged.
// Nothing is written unless the scraper returned a usable snapshot.
func (s *ScrapeService) Submit(ctx context.Context, req domain.ScrapeRequest) (domain.Snapshot, error) {
	snap, err := s.submit(ctx, req)
	if err != nil {
		observability.ObserveScrape(string(domain.KindOf(err)))
		return domain.Snapshot{}, err
	}
	observability.ObserveScrape("ok")
	return snap, nil
}

func (s *ScrapeService) submit(ctx context.Context, req domain.ScrapeRequest) (domain.Snapshot, error) {
	if err := ValidateScrapeRequest(req); err != nil {
		return domain.Snapshot{}, err
	}
	log.Info().Str("url", req.URL).Str("checkin", req.Checkin).Msg("scrape requested")

	snap, err := s.scraper.Scrape(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("url", req.URL).Msg("scrape failed")
		return domain.Snapshot{}, err
	}

	upsert, err := mapSnapshot(snap)
	if err != nil {
		log.Warn().Err(err).Str("url", req.URL).Msg("scraper snapshot rejected")
		return domain.Snapshot{}, err
	}

	hotelID, err := s.repo.StoreHotel(ctx, upsert)
	if err != nil {
		log.Error().Err(err).Str("hotel", upsert.Name).Msg("store failed")
		return domain.Snapshot{}, domain.NewStorageError("Failed to store hotel data", err)
	}
	observability.ObserveStoredPrices(len(upsert.Rooms))

	// Stored data changed both read models; drop them so the next read refills.
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, hotelID)
	}
	return snap, nil
}
