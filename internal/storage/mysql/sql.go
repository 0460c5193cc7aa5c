package mysql

// -----------------------------------------------------------------------------
// WRITE STATEMENTS (run inside one transaction per snapshot)
// -----------------------------------------------------------------------------

// Hotel identity is the exact (binary collated) name. Scalars are last-write-wins.
const upsertHotelSQL = `
INSERT INTO hotels
  (id, external_id, name, currency, amenities, rating_overall, rating_location)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  external_id     = VALUES(external_id),
  currency        = VALUES(currency),
  amenities       = VALUES(amenities),
  rating_overall  = VALUES(rating_overall),
  rating_location = VALUES(rating_location),
  updated_at      = CURRENT_TIMESTAMP(3)
`

const selectHotelIDSQL = `SELECT id FROM hotels WHERE name = ?`

// Rooms are created once; an existing (hotel_id, name) row is left untouched.
const insertRoomSQL = `
INSERT INTO rooms
  (id, hotel_id, external_id, name, occupancy)
VALUES
  (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE id = id
`

const selectRoomIDSQL = `SELECT id FROM rooms WHERE hotel_id = ? AND name = ?`

const insertPriceSQL = `
INSERT INTO daily_prices
  (id, room_id, check_in_date, price, available, refundable, breakfast_included, scraped_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const hotelColumns = `h.id, h.external_id, h.name, h.currency, h.amenities, h.rating_overall, h.rating_location, h.created_at, h.updated_at`

const roomColumns = `r.id, r.hotel_id, r.external_id, r.name, r.occupancy, r.created_at, r.updated_at`

const priceColumns = `p.id, p.room_id, p.check_in_date, p.price, p.available, p.refundable, p.breakfast_included, p.scraped_at, p.created_at`

// Newest first; created_at and id break ties between rows scraped at the same instant.
const priceOrder = `p.scraped_at DESC, p.created_at DESC, p.id DESC`

const listHotelsSQL = `SELECT ` + hotelColumns + ` FROM hotels h ORDER BY h.updated_at DESC, h.id`

const listRoomsSQL = `SELECT ` + roomColumns + ` FROM rooms r ORDER BY r.created_at, r.name`

// One row per room: its most recent price.
const latestPricesSQL = `
SELECT ` + priceColumns + `
FROM (
  SELECT dp.*,
         ROW_NUMBER() OVER (PARTITION BY dp.room_id ORDER BY dp.scraped_at DESC, dp.created_at DESC, dp.id DESC) AS rn
  FROM daily_prices dp
) p
WHERE p.rn = 1
`

const getHotelSQL = `SELECT ` + hotelColumns + ` FROM hotels h WHERE h.id = ?`

const hotelRoomsSQL = `SELECT ` + roomColumns + ` FROM rooms r WHERE r.hotel_id = ? ORDER BY r.created_at, r.name`

const hotelPricesSQL = `
SELECT ` + priceColumns + `
FROM daily_prices p
JOIN rooms r ON r.id = p.room_id
WHERE r.hotel_id = ?
ORDER BY ` + priceOrder

const roomPricesSQL = `
SELECT ` + priceColumns + `
FROM daily_prices p
WHERE p.room_id = ? AND p.scraped_at >= ?
ORDER BY ` + priceOrder
