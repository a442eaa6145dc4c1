package mysql

const insertHotelSQL = `
INSERT INTO hotels (id, owner_id, name, address, contact, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

const getHotelByOwnerSQL = `
SELECT id, owner_id, name, address, contact, created_at
FROM hotels
WHERE owner_id = ?
`

const insertRoomSQL = `
INSERT INTO rooms (id, hotel_id, room_type, price_per_night_cents, amenities, images, is_available, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// Room reads always join the owning hotel; the browse page renders the hotel
// name and address next to each room.
const roomColumns = `
  r.id, r.hotel_id, r.room_type, r.price_per_night_cents,
  r.amenities, r.images, r.is_available, r.created_at,
  h.id, h.owner_id, h.name, h.address, h.contact, h.created_at
`

const getRoomSQL = `
SELECT` + roomColumns + `
FROM rooms r
JOIN hotels h ON h.id = r.hotel_id
WHERE r.id = ?
`

const listAvailableRoomsSQL = `
SELECT` + roomColumns + `
FROM rooms r
JOIN hotels h ON h.id = r.hotel_id
WHERE r.is_available = 1
ORDER BY r.created_at DESC, r.id DESC
`

const listRoomsByHotelSQL = `
SELECT` + roomColumns + `
FROM rooms r
JOIN hotels h ON h.id = r.hotel_id
WHERE r.hotel_id = ?
ORDER BY r.created_at DESC, r.id DESC
`

const toggleRoomSQL = `
UPDATE rooms SET is_available = NOT is_available WHERE id = ?
`

const getRoomAvailabilitySQL = `
SELECT is_available FROM rooms WHERE id = ?
`

// lockRoomSQL serializes concurrent booking attempts on the same room: the
// row lock held until commit makes the overlap count below authoritative.
const lockRoomSQL = `
SELECT id FROM rooms WHERE id = ? FOR UPDATE
`

// A stored stay is [00:00:00.000 of arrival day, 23:59:59.999 of departure
// day], so an endpoint of one stay never equals an endpoint of another and
// inclusive bounds match the in-memory overlap rule. Three clauses: existing
// starts inside the candidate, ends inside it, or contains it.
const countOverlapSQL = `
SELECT COUNT(*)
FROM bookings
WHERE room_id = ?
  AND status <> 'cancelled'
  AND (
       (check_in  >= ? AND check_in  <= ?)
    OR (check_out >= ? AND check_out <= ?)
    OR (check_in  <= ? AND check_out >= ?)
  )
`

const insertBookingSQL = `
INSERT INTO bookings (id, user_id, room_id, hotel_id, check_in, check_out, guests, total_cents, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const bookingColumns = `
  b.id, b.user_id, b.room_id, b.hotel_id, b.check_in, b.check_out,
  b.guests, b.total_cents, b.status, b.created_at,
` + roomColumns

const getBookingSQL = `
SELECT` + bookingColumns + `
FROM bookings b
JOIN rooms r  ON r.id = b.room_id
JOIN hotels h ON h.id = b.hotel_id
WHERE b.id = ?
`

const listBookingsByUserSQL = `
SELECT` + bookingColumns + `
FROM bookings b
JOIN rooms r  ON r.id = b.room_id
JOIN hotels h ON h.id = b.hotel_id
WHERE b.user_id = ?
ORDER BY b.created_at DESC, b.id DESC
`

const listBookingsByHotelSQL = `
SELECT` + bookingColumns + `
FROM bookings b
JOIN rooms r  ON r.id = b.room_id
JOIN hotels h ON h.id = b.hotel_id
WHERE b.hotel_id = ?
ORDER BY b.created_at DESC, b.id DESC
`
