package domain

import "time"

type Hotel struct {
	ID        string
	OwnerID   string
	Name      string
	Address   string
	Contact   string
	CreatedAt time.Time
}

type Room struct {
	ID          string
	HotelID     string
	RoomType    string
	PriceCents  int64 // nightly rate in minor units
	Amenities   []string
	Images      []string
	IsAvailable bool
	CreatedAt   time.Time

	// Hotel is populated on read paths that join the owning hotel.
	Hotel *Hotel
}
