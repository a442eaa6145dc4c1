package domain

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("booking conflict")
	ErrInvalidRange = errors.New("invalid date range")
)

// ValidationError carries the caller-facing reason for a rejected request.
// Reasons are distinct per failed check so clients can tell them apart.
type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return e.Reason }

func Invalid(reason string) error { return &ValidationError{Reason: reason} }

type CatalogRepository interface {
	CreateHotel(ctx context.Context, h Hotel) error
	GetHotelByOwner(ctx context.Context, ownerID string) (Hotel, error)
	CreateRoom(ctx context.Context, r Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListAvailableRooms(ctx context.Context) ([]Room, error)
	ListRoomsByHotel(ctx context.Context, hotelID string) ([]Room, error)
	// ToggleRoomAvailability flips the flag and returns the new value.
	ToggleRoomAvailability(ctx context.Context, roomID string) (bool, error)
}

type BookingRepository interface {
	// CreateBooking re-checks the overlap rule and inserts the row within a
	// single transaction that holds a lock on the room, so of two concurrent
	// overlapping attempts exactly one commits. ErrConflict when the stay
	// overlaps a non-cancelled booking, ErrNotFound when the room is gone.
	CreateBooking(ctx context.Context, b Booking) error
	CountOverlapping(ctx context.Context, roomID string, s Stay) (int, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListByUser(ctx context.Context, userID string) ([]Booking, error)
	ListByHotel(ctx context.Context, hotelID string) ([]Booking, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type Uploader interface {
	Upload(ctx context.Context, r io.Reader, name string) (string, error)
}

type BookingMail struct {
	To           string
	GuestName    string
	BookingID    string
	HotelName    string
	HotelAddress string
	CheckIn      time.Time
	CheckOut     time.Time
	Guests       int
	Nights       int
	TotalCents   int64
}

type Mailer interface {
	SendBookingConfirmation(ctx context.Context, m BookingMail) error
}

type CheckoutParams struct {
	ProductName string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
	BookingID   string
}

type PaymentGateway interface {
	// CreateCheckoutSession returns the hosted checkout redirect URL.
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error)
}

// Claims is the verified identity asserted by the external auth provider.
// The API trusts these values verbatim; business logic never re-derives them.
type Claims struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

const RoleHotelOwner = "hotelOwner"

func (c Claims) IsOwner() bool { return c.Role == RoleHotelOwner }
