package app

import (
	"regexp"
	"strings"

	"hotel_monitor/internal/domain"
)

const bookingPrefix = "https://www.booking.com"

// Shape only: 2024-13-40 passes.
var checkinPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateScrapeRequest applies the submit checks in order and stops at the first failure.
func ValidateScrapeRequest(req domain.ScrapeRequest) error {
	if req.URL == "" || req.Checkin == "" {
		return domain.NewValidationError("URL and checkin date are required")
	}
	if !strings.HasPrefix(req.URL, bookingPrefix) {
		return domain.NewValidationError("URL must be from booking.com")
	}
	if !checkinPattern.MatchString(req.Checkin) {
		return domain.NewValidationError("Check-in date must be in YYYY-MM-DD format")
	}
	return nil
}
