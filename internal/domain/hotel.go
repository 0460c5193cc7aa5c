package domain

import "time"

// Hotel is the read model served by the query endpoints. Rooms carry either
// the latest price only (list) or the full history (detail).
type Hotel struct {
	ID             string    `json:"id"`
	ExternalID     *string   `json:"externalId"`
	Name           string    `json:"name"`
	Currency       string    `json:"currency"`
	Amenities      []string  `json:"amenities"`
	RatingOverall  float64   `json:"ratingOverall"`
	RatingLocation float64   `json:"ratingLocation"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Rooms          []Room    `json:"rooms"`
}

type Room struct {
	ID         string       `json:"id"`
	HotelID    string       `json:"hotelId"`
	ExternalID *string      `json:"externalId"`
	Name       string       `json:"name"`
	Occupancy  int          `json:"occupancy"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
	Prices     []DailyPrice `json:"prices"`
}

// DailyPrice is one observed price for a room. Rows are append-only.
type DailyPrice struct {
	ID                string    `json:"id"`
	RoomID            string    `json:"roomId"`
	CheckInDate       time.Time `json:"checkInDate"`
	Price             float64   `json:"price"`
	Available         bool      `json:"available"`
	Refundable        bool      `json:"refundable"`
	BreakfastIncluded bool      `json:"breakfastIncluded"`
	ScrapedAt         time.Time `json:"scrapedAt"`
	CreatedAt         time.Time `json:"createdAt"`
}

// HotelUpsert is the write model derived from one scraper snapshot.
type HotelUpsert struct {
	Name           string
	ExternalID     *string
	Currency       string
	Amenities      []string
	RatingOverall  float64
	RatingLocation float64
	Rooms          []RoomUpsert
}

type RoomUpsert struct {
	Name       string
	ExternalID *string
	Occupancy  int
	Price      PriceFact
}

type PriceFact struct {
	CheckInDate       time.Time
	Price             float64
	Available         bool
	Refundable        bool
	BreakfastIncluded bool
	ScrapedAt         time.Time
}
