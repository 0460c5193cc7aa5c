package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_monitor/internal/app"
	"hotel_monitor/internal/domain"
)

var validReq = domain.ScrapeRequest{URL: "https://www.booking.com/hotel/abc", Checkin: "2025-06-01"}

func TestSubmit_StoresAndInvalidates(t *testing.T) {
	sc := &fakeScraper{snap: grandPlaza()}
	repo := &fakeRepo{storeID: "hotel-uuid"}
	cache := &fakeCache{}
	_ = cache.Set(context.Background(), "hotels:all", []domain.Hotel{}, 60)
	svc := app.NewScrapeService(sc, repo, app.NewQueryService(repo, cache, time.Minute))

	snap, err := svc.Submit(context.Background(), validReq)
	require.NoError(t, err)
	assert.Equal(t, "Grand Plaza", snap.HotelName)
	require.Len(t, snap.Rooms, 1)
	assert.Equal(t, 120.0, snap.Rooms[0].Price)

	require.Len(t, repo.stored, 1)
	assert.Equal(t, "Grand Plaza", repo.stored[0].Name)
	assert.ElementsMatch(t, []string{"hotels:all", "hotel:hotel-uuid"}, cache.deleted)

	var hs []domain.Hotel
	ok, _ := cache.Get(context.Background(), "hotels:all", &hs)
	assert.False(t, ok, "list cache must be dropped after a store")
}

func TestSubmit_ValidationSkipsScraper(t *testing.T) {
	sc := &fakeScraper{snap: grandPlaza()}
	repo := &fakeRepo{}
	svc := app.NewScrapeService(sc, repo, nil)

	_, err := svc.Submit(context.Background(), domain.ScrapeRequest{URL: "http://booking.com/x", Checkin: "2025-06-01"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Zero(t, sc.calls)
	assert.Empty(t, repo.stored)
}

func TestSubmit_UpstreamUnavailableWritesNothing(t *testing.T) {
	sc := &fakeScraper{err: domain.NewUpstreamUnavailableError("Scraper service is not available. Please ensure the scraper is running at http://localhost:8000.", errBoom)}
	repo := &fakeRepo{}
	cache := &fakeCache{}
	svc := app.NewScrapeService(sc, repo, app.NewQueryService(repo, cache, time.Minute))

	_, err := svc.Submit(context.Background(), validReq)
	assert.Equal(t, domain.KindUpstreamUnavailable, domain.KindOf(err))
	assert.Contains(t, domain.MessageOf(err), "Scraper service is not available")
	assert.Empty(t, repo.stored)
	assert.Empty(t, cache.deleted)
}

func TestSubmit_RejectsUnusableSnapshot(t *testing.T) {
	snap := grandPlaza()
	snap.ScrapeDate = "not a date"
	repo := &fakeRepo{}
	svc := app.NewScrapeService(&fakeScraper{snap: snap}, repo, nil)

	_, err := svc.Submit(context.Background(), validReq)
	assert.Equal(t, domain.KindUpstreamFailure, domain.KindOf(err))
	assert.Empty(t, repo.stored)
}

func TestSubmit_StorageFailureMessage(t *testing.T) {
	repo := &fakeRepo{storeErr: errBoom}
	cache := &fakeCache{}
	svc := app.NewScrapeService(&fakeScraper{snap: grandPlaza()}, repo, app.NewQueryService(repo, cache, time.Minute))

	_, err := svc.Submit(context.Background(), validReq)
	assert.Equal(t, domain.KindStorage, domain.KindOf(err))
	assert.Equal(t, "Failed to store hotel data: boom", domain.MessageOf(err))
	assert.Empty(t, cache.deleted)
}

func TestSubmit_ReadInFlightDoesNotRecacheStaleList(t *testing.T) {
	repo := &fakeRepo{
		storeID:     "hotel-uuid",
		listStarted: make(chan struct{}),
		listGate:    make(chan struct{}),
	}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, time.Minute)
	svc := app.NewScrapeService(&fakeScraper{snap: grandPlaza()}, repo, q)

	// a list read starts before the store and is held inside the repository
	stale := make(chan []domain.Hotel, 1)
	go func() {
		hs, _ := q.ListHotels(context.Background())
		stale <- hs
	}()
	<-repo.listStarted

	_, err := svc.Submit(context.Background(), validReq)
	require.NoError(t, err)

	close(repo.listGate)
	assert.Empty(t, <-stale, "the slow read saw the pre-store rows")

	hs, err := q.ListHotels(context.Background())
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.Equal(t, "Grand Plaza", hs[0].Name)
}
