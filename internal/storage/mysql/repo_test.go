package mysql

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_monitor/internal/domain"
)

func newMock(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func snapshotUpsert() domain.HotelUpsert {
	scraped := time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)
	checkIn := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ext := "h-1"
	return domain.HotelUpsert{
		Name:           "Grand Plaza",
		ExternalID:     &ext,
		Currency:       "USD",
		Amenities:      []string{"wifi", "pool"},
		RatingOverall:  8.7,
		RatingLocation: 9.1,
		Rooms: []domain.RoomUpsert{
			{Name: "Double", Occupancy: 2, Price: domain.PriceFact{CheckInDate: checkIn, Price: 120, Available: true, Refundable: true, ScrapedAt: scraped}},
			{Name: "Suite", Occupancy: 4, Price: domain.PriceFact{CheckInDate: checkIn, Price: 310, Available: true, BreakfastIncluded: true, ScrapedAt: scraped}},
		},
	}
}

func TestStoreHotel_SingleTransaction(t *testing.T) {
	repo, mock := newMock(t)
	h := snapshotUpsert()

	mock.ExpectBegin()
	mock.ExpectExec(q(upsertHotelSQL)).
		WithArgs(sqlmock.AnyArg(), "h-1", "Grand Plaza", "USD", `["wifi","pool"]`, 8.7, 9.1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q(selectHotelIDSQL)).WithArgs("Grand Plaza").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("hotel-1"))

	for i, rm := range h.Rooms {
		roomID := []string{"room-1", "room-2"}[i]
		mock.ExpectExec(q(insertRoomSQL)).
			WithArgs(sqlmock.AnyArg(), "hotel-1", nil, rm.Name, rm.Occupancy).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(q(selectRoomIDSQL)).WithArgs("hotel-1", rm.Name).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(roomID))
		mock.ExpectExec(q(insertPriceSQL)).
			WithArgs(sqlmock.AnyArg(), roomID, "2025-06-01", rm.Price.Price, rm.Price.Available,
				rm.Price.Refundable, rm.Price.BreakfastIncluded, rm.Price.ScrapedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	id, err := repo.StoreHotel(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "hotel-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreHotel_RollsBackOnPriceFailure(t *testing.T) {
	repo, mock := newMock(t)
	h := snapshotUpsert()
	h.Rooms = h.Rooms[:1]

	mock.ExpectBegin()
	mock.ExpectExec(q(upsertHotelSQL)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q(selectHotelIDSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("hotel-1"))
	mock.ExpectExec(q(insertRoomSQL)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q(selectRoomIDSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("room-1"))
	mock.ExpectExec(q(insertPriceSQL)).WillReturnError(errors.New("deadlock found"))
	mock.ExpectRollback()

	_, err := repo.StoreHotel(context.Background(), h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

var (
	hotelCols = []string{"id", "external_id", "name", "currency", "amenities", "rating_overall", "rating_location", "created_at", "updated_at"}
	roomCols  = []string{"id", "hotel_id", "external_id", "name", "occupancy", "created_at", "updated_at"}
	priceCols = []string{"id", "room_id", "check_in_date", "price", "available", "refundable", "breakfast_included", "scraped_at", "created_at"}
)

func TestGetHotel_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(q(getHotelSQL)).WithArgs("missing").WillReturnRows(sqlmock.NewRows(hotelCols))

	_, err := repo.GetHotel(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListHotels_NestsRoomsAndLatestPrice(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q(listHotelsSQL)).WillReturnRows(sqlmock.NewRows(hotelCols).
		AddRow("hotel-1", "h-1", "Grand Plaza", "USD", []byte(`["wifi"]`), 8.7, 9.1, now, now).
		AddRow("hotel-2", nil, "Empty Inn", "EUR", nil, 0.0, 0.0, now, now))
	mock.ExpectQuery(q(listRoomsSQL)).WillReturnRows(sqlmock.NewRows(roomCols).
		AddRow("room-1", "hotel-1", nil, "Double", 2, now, now).
		AddRow("room-2", "hotel-1", nil, "Suite", 4, now, now))
	mock.ExpectQuery(q(latestPricesSQL)).WillReturnRows(sqlmock.NewRows(priceCols).
		AddRow("price-1", "room-1", day, 120.0, true, true, false, now, now))

	hotels, err := repo.ListHotels(context.Background())
	require.NoError(t, err)
	require.Len(t, hotels, 2)

	gp := hotels[0]
	assert.Equal(t, "h-1", *gp.ExternalID)
	assert.Equal(t, []string{"wifi"}, gp.Amenities)
	require.Len(t, gp.Rooms, 2)
	require.Len(t, gp.Rooms[0].Prices, 1)
	assert.Equal(t, 120.0, gp.Rooms[0].Prices[0].Price)
	assert.NotNil(t, gp.Rooms[1].Prices)
	assert.Empty(t, gp.Rooms[1].Prices)

	empty := hotels[1]
	assert.Nil(t, empty.ExternalID)
	assert.Equal(t, []string{}, empty.Amenities)
	assert.NotNil(t, empty.Rooms)
	assert.Empty(t, empty.Rooms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRoomPrices_PassesWindowStart(t *testing.T) {
	repo, mock := newMock(t)
	since := time.Date(2025, 5, 23, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q(roomPricesSQL)).WithArgs("room-1", since).WillReturnRows(sqlmock.NewRows(priceCols))

	prices, err := repo.ListRoomPrices(context.Background(), "room-1", since)
	require.NoError(t, err)
	assert.NotNil(t, prices)
	assert.Empty(t, prices)
	assert.NoError(t, mock.ExpectationsWereMet())
}
