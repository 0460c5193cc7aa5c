package domain

// ScrapeRequest is both the inbound submit body and the body forwarded to the scraper.
type ScrapeRequest struct {
	URL     string `json:"url"`
	Checkin string `json:"checkin"`
}

// Snapshot is the scraper's payload. Field names are the wire format.
type Snapshot struct {
	HotelID     string      `json:"hotelId"`
	HotelName   string      `json:"hotelName"`
	Currency    string      `json:"currency"`
	ScrapeDate  string      `json:"scrapeDate"`
	CheckInDate string      `json:"checkInDate"`
	Rooms       []RoomOffer `json:"rooms"`
	Rating      Rating      `json:"rating"`
	Amenities   []string    `json:"amenities"`
}

type RoomOffer struct {
	RoomID            string  `json:"roomId"`
	Name              string  `json:"name"`
	Occupancy         int     `json:"occupancy"`
	Price             float64 `json:"price"`
	Refundable        bool    `json:"refundable"`
	BreakfastIncluded bool    `json:"breakfastIncluded"`
	Available         bool    `json:"available"`
}

type Rating struct {
	Overall  float64 `json:"overall"`
	Location float64 `json:"location"`
}
