package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"hotel_monitor/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	mu        sync.Mutex
	stored    []domain.HotelUpsert
	storeErr  error
	storeID   string
	hotels    []domain.Hotel
	hotel     domain.Hotel
	getErr    error
	prices    []domain.DailyPrice
	since     time.Time
	listCalls int
	getCalls  int

	// when set, ListHotels snapshots the rows, closes listStarted once and
	// waits on listGate before answering
	listStarted chan struct{}
	listGate    chan struct{}
	startOnce   sync.Once
}

func (f *fakeRepo) StoreHotel(ctx context.Context, h domain.HotelUpsert) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storeErr != nil {
		return "", f.storeErr
	}
	f.stored = append(f.stored, h)
	f.hotels = append(f.hotels, domain.Hotel{ID: f.storeID, Name: h.Name})
	return f.storeID, nil
}

func (f *fakeRepo) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	f.mu.Lock()
	f.listCalls++
	rows := append([]domain.Hotel(nil), f.hotels...)
	f.mu.Unlock()

	if f.listGate != nil {
		f.startOnce.Do(func() { close(f.listStarted) })
		<-f.listGate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (f *fakeRepo) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return domain.Hotel{}, f.getErr
	}
	return f.hotel, nil
}

func (f *fakeRepo) ListRoomPrices(ctx context.Context, roomID string, since time.Time) ([]domain.DailyPrice, error) {
	f.since = since
	return f.prices, nil
}

type fakeScraper struct {
	snap  domain.Snapshot
	err   error
	calls int
}

func (f *fakeScraper) Scrape(ctx context.Context, req domain.ScrapeRequest) (domain.Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

// fakeCache round-trips through JSON like the real adapters.
type fakeCache struct {
	mu      sync.Mutex
	store   map[string][]byte
	deleted []string
	getErr  error
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.deleted = append(c.deleted, key)
	return nil
}

var errBoom = errors.New("boom")

func grandPlaza() domain.Snapshot {
	return domain.Snapshot{
		HotelID:     "booking-123",
		HotelName:   "Grand Plaza",
		Currency:    "USD",
		ScrapeDate:  "2025-05-30T10:15:00.123456",
		CheckInDate: "2025-06-01",
		Rooms: []domain.RoomOffer{
			{RoomID: "r-1", Name: "Double", Occupancy: 2, Price: 120, Refundable: true, Available: true},
		},
		Rating:    domain.Rating{Overall: 8.7, Location: 9.1},
		Amenities: []string{"wifi", "pool"},
	}
}
