package domain

import (
	"context"
	"time"
)

type HotelRepository interface {
	// Write path
	StoreHotel(ctx context.Context, h HotelUpsert) (string, error)

	// Read paths
	ListHotels(ctx context.Context) ([]Hotel, error)
	GetHotel(ctx context.Context, id string) (Hotel, error)
	ListRoomPrices(ctx context.Context, roomID string, since time.Time) ([]DailyPrice, error)
}

type ScraperClient interface {
	Scrape(ctx context.Context, req ScrapeRequest) (Snapshot, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
