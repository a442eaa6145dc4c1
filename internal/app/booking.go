package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"quickstay/internal/adapters/observability"
	"quickstay/internal/domain"
)

func dashboardCacheKey(hotelID string) string { return "dashboard:" + hotelID }

type BookingService struct {
	bookings domain.BookingRepository
	catalog  domain.CatalogRepository
	cache    domain.Cache
	mailer   domain.Mailer
	payments domain.PaymentGateway
	cacheTTL time.Duration
	currency string
	now      func() time.Time
}

func NewBookingService(
	b domain.BookingRepository,
	c domain.CatalogRepository,
	cache domain.Cache,
	m domain.Mailer,
	p domain.PaymentGateway,
	ttl time.Duration,
	currency string,
) *BookingService {
	return &BookingService{
		bookings: b,
		catalog:  c,
		cache:    cache,
		mailer:   m,
		payments: p,
		cacheTTL: ttl,
		currency: currency,
		now:      time.Now,
	}
}

// WithClock replaces the service clock; tests only.
func (s *BookingService) WithClock(fn func() time.Time) *BookingService {
	s.now = fn
	return s
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

// validateDates runs the shared date checks in their fixed order and returns
// the normalized stay.
func (s *BookingService) validateDates(checkIn, checkOut string) (domain.Stay, error) {
	in, err := parseDate(checkIn)
	if err != nil {
		return domain.Stay{}, domain.Invalid("Invalid date format")
	}
	out, err := parseDate(checkOut)
	if err != nil {
		return domain.Stay{}, domain.Invalid("Invalid date format")
	}
	if !in.Before(out) {
		return domain.Stay{}, domain.Invalid("Check-out date must be after check-in date")
	}
	today := domain.DayStart(s.now().UTC())
	if domain.DayStart(in).Before(today) {
		return domain.Stay{}, domain.Invalid("Check-in date cannot be in the past")
	}
	return domain.NewStay(in, out), nil
}

// IsAvailable applies the overlap rule. Fail-safe: a lookup failure reports
// the room as unavailable, never available.
func (s *BookingService) IsAvailable(ctx context.Context, roomID string, stay domain.Stay) bool {
	n, err := s.bookings.CountOverlapping(ctx, roomID, stay)
	if err != nil {
		log.Error().Err(err).Str("room", roomID).Msg("availability lookup failed")
		return false
	}
	return n == 0
}

type CheckAvailabilityInput struct {
	RoomID       string
	CheckInDate  string
	CheckOutDate string
}

func (s *BookingService) CheckAvailability(ctx context.Context, in CheckAvailabilityInput) (bool, error) {
	if in.RoomID == "" || in.CheckInDate == "" || in.CheckOutDate == "" {
		return false, domain.Invalid("Missing required fields: room, checkInDate, checkOutDate")
	}
	stay, err := s.validateDates(in.CheckInDate, in.CheckOutDate)
	if err != nil {
		return false, err
	}
	return s.IsAvailable(ctx, in.RoomID, stay), nil
}

type CreateBookingInput struct {
	RoomID       string
	CheckInDate  string
	CheckOutDate string
	Guests       int
}

// CreateBooking validates the request, confirms availability, prices the
// stay, and persists the booking. The insert itself re-checks the overlap
// rule under a room lock, so a concurrent loser gets ErrConflict here even
// after the pre-check passed. The confirmation email is advisory: a send
// failure is logged and the booking stands.
func (s *BookingService) CreateBooking(ctx context.Context, claims domain.Claims, in CreateBookingInput) (domain.Booking, error) {
	if in.RoomID == "" || in.CheckInDate == "" || in.CheckOutDate == "" || in.Guests == 0 {
		return domain.Booking{}, domain.Invalid("Missing required fields")
	}
	if in.Guests < 0 {
		return domain.Booking{}, domain.Invalid("Guest count must be positive")
	}
	stay, err := s.validateDates(in.CheckInDate, in.CheckOutDate)
	if err != nil {
		return domain.Booking{}, err
	}

	room, err := s.catalog.GetRoom(ctx, in.RoomID)
	if err != nil {
		return domain.Booking{}, err
	}
	if !s.IsAvailable(ctx, room.ID, stay) {
		observability.ObserveBooking("conflict")
		return domain.Booking{}, domain.ErrConflict
	}
	total, err := domain.TotalPrice(room.PriceCents, stay)
	if err != nil {
		return domain.Booking{}, err
	}

	b := domain.Booking{
		ID:         uuid.NewString(),
		UserID:     claims.UserID,
		RoomID:     room.ID,
		HotelID:    room.HotelID,
		Stay:       stay,
		Guests:     in.Guests,
		TotalCents: total,
		Status:     domain.StatusConfirmed,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		if err == domain.ErrConflict {
			observability.ObserveBooking("conflict")
		}
		return domain.Booking{}, err
	}
	observability.ObserveBooking("created")
	_ = s.cache.Del(ctx, dashboardCacheKey(room.HotelID))

	s.sendConfirmation(ctx, claims, b, room)
	return b, nil
}

func (s *BookingService) sendConfirmation(ctx context.Context, claims domain.Claims, b domain.Booking, room domain.Room) {
	if s.mailer == nil || claims.Email == "" {
		return
	}
	m := domain.BookingMail{
		To:         claims.Email,
		GuestName:  claims.Name,
		BookingID:  b.ID,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		Guests:     b.Guests,
		Nights:     b.Stay.Nights(),
		TotalCents: b.TotalCents,
	}
	if room.Hotel != nil {
		m.HotelName = room.Hotel.Name
		m.HotelAddress = room.Hotel.Address
	}
	if err := s.mailer.SendBookingConfirmation(ctx, m); err != nil {
		log.Warn().Err(err).Str("booking", b.ID).Msg("confirmation email failed")
	}
}

// UserBookings returns the caller's bookings, newest first.
func (s *BookingService) UserBookings(ctx context.Context, claims domain.Claims) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, claims.UserID)
}

type Dashboard struct {
	TotalBookings int
	TotalRevenue  int64
	Bookings      []domain.Booking
}

// OwnerDashboard aggregates the bookings of the caller's hotel. Cancelled
// bookings are included in both the count and the revenue.
func (s *BookingService) OwnerDashboard(ctx context.Context, claims domain.Claims) (Dashboard, error) {
	hotel, err := s.catalog.GetHotelByOwner(ctx, claims.UserID)
	if err != nil {
		return Dashboard{}, err
	}

	key := dashboardCacheKey(hotel.ID)
	var d Dashboard
	if ok, _ := s.cache.Get(ctx, key, &d); ok {
		return d, nil
	}

	bookings, err := s.bookings.ListByHotel(ctx, hotel.ID)
	if err != nil {
		return Dashboard{}, err
	}
	d = Dashboard{TotalBookings: len(bookings), Bookings: bookings}
	for _, b := range bookings {
		d.TotalRevenue += b.TotalCents
	}
	_ = s.cache.Set(ctx, key, d, s.cacheTTL)
	return d, nil
}

// CreatePaymentSession opens a hosted checkout session for the caller's
// booking and returns the redirect URL.
func (s *BookingService) CreatePaymentSession(ctx context.Context, claims domain.Claims, bookingID, origin string) (string, error) {
	if bookingID == "" {
		return "", domain.Invalid("Missing required fields: bookingId")
	}
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if b.UserID != claims.UserID {
		return "", domain.ErrNotFound
	}
	room, err := s.catalog.GetRoom(ctx, b.RoomID)
	if err != nil {
		return "", err
	}
	product := room.RoomType
	if room.Hotel != nil {
		product = room.Hotel.Name
	}
	return s.payments.CreateCheckoutSession(ctx, domain.CheckoutParams{
		ProductName: product,
		AmountCents: b.TotalCents,
		Currency:    s.currency,
		SuccessURL:  origin + "/loader/my-bookings",
		CancelURL:   origin + "/my-bookings",
		BookingID:   b.ID,
	})
}
