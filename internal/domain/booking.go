package domain

import "time"

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// Stay is a normalized booking interval: CheckIn at 00:00:00 UTC of the
// arrival day, CheckOut at 23:59:59.999 UTC of the departure day. A same-day
// pair therefore still spans a full calendar day instead of a zero-width
// range.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func NewStay(checkIn, checkOut time.Time) Stay {
	return Stay{CheckIn: DayStart(checkIn), CheckOut: dayEnd(checkOut)}
}

func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayEnd(t time.Time) time.Time {
	return DayStart(t).Add(24*time.Hour - time.Millisecond)
}

// Nights counts calendar nights between the arrival and departure days,
// rounding a partial day up.
func (s Stay) Nights() int {
	diff := DayStart(s.CheckOut).Sub(s.CheckIn)
	const day = 24 * time.Hour
	n := diff / day
	if diff%day > 0 {
		n++
	}
	return int(n)
}

// Overlaps reports whether other shares at least one instant with s:
// other starts during s, other ends during s, or other fully contains s.
// Both intervals must already be normalized.
func (s Stay) Overlaps(other Stay) bool {
	if !other.CheckIn.Before(s.CheckIn) && other.CheckIn.Before(s.CheckOut) {
		return true
	}
	if other.CheckOut.After(s.CheckIn) && !other.CheckOut.After(s.CheckOut) {
		return true
	}
	return !other.CheckIn.After(s.CheckIn) && !other.CheckOut.Before(s.CheckOut)
}

// TotalPrice derives the stay total from the nightly rate, both in minor
// units. ErrInvalidRange when the stay covers no nights; upstream date
// validation should have caught that already.
func TotalPrice(nightlyRateCents int64, s Stay) (int64, error) {
	nights := s.Nights()
	if nights <= 0 {
		return 0, ErrInvalidRange
	}
	return nightlyRateCents * int64(nights), nil
}

type Booking struct {
	ID      string
	UserID  string
	RoomID  string
	HotelID string // denormalized from the room at booking time
	Stay
	Guests     int
	TotalCents int64
	Status     BookingStatus
	CreatedAt  time.Time

	// Populated on read paths that join the room and hotel.
	Room  *Room
	Hotel *Hotel
}
