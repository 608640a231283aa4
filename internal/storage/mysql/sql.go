package mysql

const upsertHotelSQL = `
INSERT INTO hotels
  (id, name, address, city, category, images)
VALUES
  (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name       = VALUES(name),
  address    = VALUES(address),
  city       = VALUES(city),
  category   = VALUES(category),
  images     = VALUES(images),
  updated_at = CURRENT_TIMESTAMP
`

// Room types are replaced wholesale on import; prices cascade.
const deleteRoomTypesSQL = `DELETE FROM room_types WHERE hotel_id = ?`

const insertRoomTypeSQL = `
INSERT INTO room_types (hotel_id, id, label, available)
VALUES (?, ?, ?, ?)
`

const insertPriceSQL = `
INSERT INTO room_type_prices (hotel_id, room_type_id, season, price)
VALUES (?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getHotelSQL = `
SELECT id, name, address, city, category, images
FROM hotels
WHERE id = ?
`
