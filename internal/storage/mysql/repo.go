package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_monitor/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

type scanner interface {
	Scan(dest ...any) error
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// StoreHotel writes one snapshot atomically: hotel upsert by name, find-or-create of each room,
// and one new daily price per room. It returns the hotel's id.
func (r *Repo) StoreHotel(ctx context.Context, h domain.HotelUpsert) (hotelID string, err error) {
	amen, err := json.Marshal(h.Amenities)
	if err != nil {
		return "", fmt.Errorf("encode amenities: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error().Err(rbErr).Str("hotel", h.Name).Msg("rollback failed")
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, upsertHotelSQL,
		uuid.NewString(),
		valStr(h.ExternalID),
		h.Name,
		h.Currency,
		string(amen),
		h.RatingOverall,
		h.RatingLocation,
	); err != nil {
		return "", fmt.Errorf("upsert hotel %q: %w", h.Name, err)
	}
	if err = tx.QueryRowContext(ctx, selectHotelIDSQL, h.Name).Scan(&hotelID); err != nil {
		return "", fmt.Errorf("lookup hotel %q: %w", h.Name, err)
	}

	for _, rm := range h.Rooms {
		if _, err = tx.ExecContext(ctx, insertRoomSQL,
			uuid.NewString(),
			hotelID,
			valStr(rm.ExternalID),
			rm.Name,
			rm.Occupancy,
		); err != nil {
			return "", fmt.Errorf("insert room %q: %w", rm.Name, err)
		}
		var roomID string
		if err = tx.QueryRowContext(ctx, selectRoomIDSQL, hotelID, rm.Name).Scan(&roomID); err != nil {
			return "", fmt.Errorf("lookup room %q: %w", rm.Name, err)
		}

		p := rm.Price
		if _, err = tx.ExecContext(ctx, insertPriceSQL,
			uuid.NewString(),
			roomID,
			p.CheckInDate.Format("2006-01-02"),
			p.Price,
			p.Available,
			p.Refundable,
			p.BreakfastIncluded,
			p.ScrapedAt.UTC(),
		); err != nil {
			return "", fmt.Errorf("insert price for room %q: %w", rm.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	log.Info().Str("hotel", h.Name).Str("hotel_id", hotelID).Int("rooms", len(h.Rooms)).Msg("stored hotel data")
	return hotelID, nil
}

func (r *Repo) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	hotels, err := r.queryHotels(ctx, listHotelsSQL)
	if err != nil {
		return nil, err
	}
	rooms, err := r.queryRooms(ctx, listRoomsSQL)
	if err != nil {
		return nil, err
	}
	prices, err := r.queryPrices(ctx, latestPricesSQL)
	if err != nil {
		return nil, err
	}
	return assemble(hotels, rooms, prices), nil
}

func (r *Repo) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Hotel{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Hotel{}, err
	}
	rooms, err := r.queryRooms(ctx, hotelRoomsSQL, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	prices, err := r.queryPrices(ctx, hotelPricesSQL, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	return assemble([]domain.Hotel{h}, rooms, prices)[0], nil
}

func (r *Repo) ListRoomPrices(ctx context.Context, roomID string, since time.Time) ([]domain.DailyPrice, error) {
	return r.queryPrices(ctx, roomPricesSQL, roomID, since.UTC())
}

// assemble nests rooms under hotels and prices under rooms, keeping query order.
func assemble(hotels []domain.Hotel, rooms []domain.Room, prices []domain.DailyPrice) []domain.Hotel {
	hotelIdx := make(map[string]int, len(hotels))
	for i := range hotels {
		hotels[i].Rooms = []domain.Room{}
		hotelIdx[hotels[i].ID] = i
	}
	type loc struct{ h, r int }
	roomIdx := make(map[string]loc, len(rooms))
	for _, rm := range rooms {
		hi, ok := hotelIdx[rm.HotelID]
		if !ok {
			continue
		}
		rm.Prices = []domain.DailyPrice{}
		hotels[hi].Rooms = append(hotels[hi].Rooms, rm)
		roomIdx[rm.ID] = loc{hi, len(hotels[hi].Rooms) - 1}
	}
	for _, p := range prices {
		l, ok := roomIdx[p.RoomID]
		if !ok {
			continue
		}
		room := &hotels[l.h].Rooms[l.r]
		room.Prices = append(room.Prices, p)
	}
	return hotels
}

func (r *Repo) queryHotels(ctx context.Context, q string, args ...any) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Hotel{}
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repo) queryRooms(ctx context.Context, q string, args ...any) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		var rm domain.Room
		var ext sql.NullString
		if err := rows.Scan(&rm.ID, &rm.HotelID, &ext, &rm.Name, &rm.Occupancy, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
			return nil, err
		}
		rm.ExternalID = strPtr(ext)
		out = append(out, rm)
	}
	return out, rows.Err()
}

func (r *Repo) queryPrices(ctx context.Context, q string, args ...any) ([]domain.DailyPrice, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.DailyPrice{}
	for rows.Next() {
		var p domain.DailyPrice
		if err := rows.Scan(
			&p.ID,
			&p.RoomID,
			&p.CheckInDate,
			&p.Price,
			&p.Available,
			&p.Refundable,
			&p.BreakfastIncluded,
			&p.ScrapedAt,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanHotel(s scanner) (domain.Hotel, error) {
	var h domain.Hotel
	var ext sql.NullString
	var amenitiesJSON []byte
	if err := s.Scan(
		&h.ID,
		&ext,
		&h.Name,
		&h.Currency,
		&amenitiesJSON,
		&h.RatingOverall,
		&h.RatingLocation,
		&h.CreatedAt,
		&h.UpdatedAt,
	); err != nil {
		return domain.Hotel{}, err
	}
	h.ExternalID = strPtr(ext)
	if len(amenitiesJSON) > 0 {
		if err := json.Unmarshal(amenitiesJSON, &h.Amenities); err != nil {
			log.Warn().Err(err).Str("hotel_id", h.ID).Msg("invalid amenities JSON")
		}
	}
	if h.Amenities == nil {
		h.Amenities = []string{}
	}
	return h, nil
}
