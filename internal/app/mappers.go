package app

import (
	"strings"
	"time"

	"hotel_monitor/internal/domain"
)

// Layouts accepted for scrapeDate. The scraper emits datetime.isoformat() without an offset;
// naive values are taken as UTC.
var scrapeDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

const checkInLayout = "2006-01-02"

func parseScrapeDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range scrapeDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseCheckIn accepts YYYY-MM-DD, or a full timestamp whose date part is kept.
func parseCheckIn(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) > len(checkInLayout) {
		if s[len(checkInLayout)] != 'T' {
			return time.Time{}, false
		}
		if _, ok := parseScrapeDate(s); !ok {
			return time.Time{}, false
		}
		s = s[:len(checkInLayout)]
	}
	t, err := time.Parse(checkInLayout, s)
	return t, err == nil
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// mapSnapshot converts a scraper snapshot into the write model. Every room shares the
// snapshot's check-in date and scrape time.
func mapSnapshot(s domain.Snapshot) (domain.HotelUpsert, error) {
	name := strings.TrimSpace(s.HotelName)
	if name == "" {
		return domain.HotelUpsert{}, domain.NewUpstreamFailureError("Scraper returned a snapshot without a hotel name", nil)
	}
	scrapedAt, ok := parseScrapeDate(s.ScrapeDate)
	if !ok {
		return domain.HotelUpsert{}, domain.NewUpstreamFailureError("Scraper returned an invalid scrapeDate: "+s.ScrapeDate, nil)
	}
	checkIn, ok := parseCheckIn(s.CheckInDate)
	if !ok {
		return domain.HotelUpsert{}, domain.NewUpstreamFailureError("Scraper returned an invalid checkInDate: "+s.CheckInDate, nil)
	}

	amenities := s.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	h := domain.HotelUpsert{
		Name:           name,
		ExternalID:     ptrStr(s.HotelID),
		Currency:       s.Currency,
		Amenities:      amenities,
		RatingOverall:  s.Rating.Overall,
		RatingLocation: s.Rating.Location,
		Rooms:          make([]domain.RoomUpsert, 0, len(s.Rooms)),
	}
	for _, r := range s.Rooms {
		h.Rooms = append(h.Rooms, domain.RoomUpsert{
			Name:       strings.TrimSpace(r.Name),
			ExternalID: ptrStr(r.RoomID),
			Occupancy:  r.Occupancy,
			Price: domain.PriceFact{
				CheckInDate:       checkIn,
				Price:             r.Price,
				Available:         r.Available,
				Refundable:        r.Refundable,
				BreakfastIncluded: r.BreakfastIncluded,
				ScrapedAt:         scrapedAt,
			},
		})
	}
	return h, nil
}
