package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"hotel_monitor/internal/domain"
)

// DefaultHistoryDays is the price-history window when the caller gives none.
const DefaultHistoryDays = 30

// Windows longer than maxHistoryDays start at historyFloor, which predates any stored price.
const maxHistoryDays = 100 * 365

var historyFloor = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

type QueryService struct {
	repo     domain.HotelRepository
	cache    domain.Cache
	cacheTTL time.Duration
	now      func() time.Time
	group    singleflight.Group
	// bumped by Invalidate; a read that started under an older generation is not cached
	gen atomic.Uint64
}

func NewQueryService(r domain.HotelRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl, now: time.Now}
}

// WithClock replaces the wall clock used for history windows.
func (s *QueryService) WithClock(now func() time.Time) *QueryService {
	s.now = now
	return s
}

// ListHotels returns every hotel, newest update first, each room with its latest price only.
func (s *QueryService) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	var out []domain.Hotel
	if s.cacheGet(ctx, keyAllHotels, &out) {
		return out, nil
	}
	v, err, _ := s.group.Do(keyAllHotels, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		gen := s.gen.Load()
		hs, err := s.repo.ListHotels(fctx)
		if err != nil {
			return nil, err
		}
		if hs == nil {
			hs = []domain.Hotel{}
		}
		s.cacheSet(fctx, gen, keyAllHotels, hs)
		return hs, nil
	})
	if err != nil {
		return nil, domain.NewStorageError("Failed to fetch hotels", err)
	}
	return v.([]domain.Hotel), nil
}

// GetHotel returns one hotel with the full price history of each room.
func (s *QueryService) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	key := hotelKey(id)
	var hv domain.Hotel
	if s.cacheGet(ctx, key, &hv) {
		return hv, nil
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		gen := s.gen.Load()
		h, err := s.repo.GetHotel(fctx, id)
		if err != nil {
			return nil, err
		}
		s.cacheSet(fctx, gen, key, h)
		return h, nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Hotel{}, domain.NewNotFoundError("Hotel not found")
	}
	if err != nil {
		return domain.Hotel{}, domain.NewStorageError("Failed to fetch hotel", err)
	}
	return v.(domain.Hotel), nil
}

// RoomPriceHistory returns prices scraped within the last days*24h, newest first.
// days <= 0 is not defaulted here; the facade applies DefaultHistoryDays when absent.
func (s *QueryService) RoomPriceHistory(ctx context.Context, roomID string, days int) ([]domain.DailyPrice, error) {
	since := historyFloor
	if days <= maxHistoryDays {
		since = s.now().UTC().AddDate(0, 0, -days)
	}
	ps, err := s.repo.ListRoomPrices(ctx, roomID, since)
	if err != nil {
		return nil, domain.NewStorageError("Failed to fetch price history", err)
	}
	if ps == nil {
		ps = []domain.DailyPrice{}
	}
	return ps, nil
}

func (s *QueryService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	return ok
}

// Invalidate drops the cached list and the hotel's detail after a store. Reads already in
// flight finish for their callers but no longer write their result back.
func (s *QueryService) Invalidate(ctx context.Context, hotelID string) {
	s.gen.Add(1)
	keys := []string{keyAllHotels, hotelKey(hotelID)}
	for _, key := range keys {
		s.group.Forget(key)
	}
	if s.cache == nil {
		return
	}
	for _, key := range keys {
		if err := s.cache.Del(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
		}
	}
}

func (s *QueryService) cacheSet(ctx context.Context, gen uint64, key string, v any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if s.gen.Load() != gen {
		log.Debug().Str("key", key).Msg("skip cache write, invalidated while reading")
		return
	}
	if err := s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
