package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"quickstay/internal/app"
	"quickstay/internal/domain"
)

type Handlers struct {
	Catalog  *app.CatalogService
	Bookings *app.BookingService
	v        *validator.Validate
}

// MountHandlers wires the whole API surface onto the server's router.
func MountHandlers(s *Server, catalog *app.CatalogService, bookings *app.BookingService, jwtSecret string) {
	h := &Handlers{
		Catalog:  catalog,
		Bookings: bookings,
		v:        validator.New(validator.WithRequiredStructEnabled()),
	}

	s.mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/rooms", h.listRooms)
		r.Post("/bookings/check-availability", h.checkAvailability)

		r.Group(func(r chi.Router) {
			r.Use(Auth(jwtSecret))

			r.Post("/hotels", h.registerHotel)
			r.Post("/bookings/book", h.createBooking)
			r.Get("/bookings/user", h.userBookings)
			r.Post("/bookings/stripe-payment", h.paymentSession)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleHotelOwner))

				r.Get("/rooms/owner", h.ownerRooms)
				r.Post("/rooms", h.createRoom)
				r.Post("/rooms/toggle-availability", h.toggleAvailability)
				r.Get("/bookings/owner-dashboard", h.ownerDashboard)
			})
		})
	})
}

// ---- response envelope ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": msg,
		"code":    code,
	})
}

// writeErr maps a service error onto the failure envelope. notFoundMsg names
// the resource the route was after, since ErrNotFound is shared.
func writeErr(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		fail(w, http.StatusBadRequest, ve.Reason, "validation")
	case errors.Is(err, domain.ErrInvalidRange):
		fail(w, http.StatusBadRequest, "Invalid date range", "validation")
	case errors.Is(err, domain.ErrNotFound):
		fail(w, http.StatusNotFound, notFoundMsg, "not_found")
	case errors.Is(err, domain.ErrConflict):
		fail(w, http.StatusConflict, "Room is not available for the selected dates", "conflict")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		fail(w, http.StatusInternalServerError, "Internal server error", "internal")
	}
}

func decode(r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(dst)
}

// ---- wire DTOs ----

type hotelJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact,omitempty"`
	Owner   string `json:"owner"`
}

type roomJSON struct {
	ID            string   `json:"id"`
	Hotel         any      `json:"hotel"`
	RoomType      string   `json:"roomType"`
	PricePerNight int64    `json:"pricePerNight"`
	Amenities     []string `json:"amenities"`
	Images        []string `json:"images"`
	IsAvailable   bool     `json:"isAvailable"`
	CreatedAt     string   `json:"createdAt"`
}

type bookingJSON struct {
	ID           string `json:"id"`
	User         string `json:"user"`
	Room         any    `json:"room"`
	Hotel        any    `json:"hotel"`
	CheckInDate  string `json:"checkInDate"`
	CheckOutDate string `json:"checkOutDate"`
	Guests       int    `json:"guests"`
	TotalPrice   int64  `json:"totalPrice"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
}

func toHotelJSON(h domain.Hotel) hotelJSON {
	return hotelJSON{ID: h.ID, Name: h.Name, Address: h.Address, Contact: h.Contact, Owner: h.OwnerID}
}

func toRoomJSON(r domain.Room) roomJSON {
	out := roomJSON{
		ID:            r.ID,
		Hotel:         r.HotelID,
		RoomType:      r.RoomType,
		PricePerNight: r.PriceCents,
		Amenities:     r.Amenities,
		Images:        r.Images,
		IsAvailable:   r.IsAvailable,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.Hotel != nil {
		out.Hotel = toHotelJSON(*r.Hotel)
	}
	return out
}

func toBookingJSON(b domain.Booking) bookingJSON {
	out := bookingJSON{
		ID:           b.ID,
		User:         b.UserID,
		Room:         b.RoomID,
		Hotel:        b.HotelID,
		CheckInDate:  b.CheckIn.UTC().Format(time.RFC3339),
		CheckOutDate: b.CheckOut.UTC().Format(time.RFC3339),
		Guests:       b.Guests,
		TotalPrice:   b.TotalCents,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if b.Room != nil {
		out.Room = toRoomJSON(*b.Room)
	}
	if b.Hotel != nil {
		out.Hotel = toHotelJSON(*b.Hotel)
	}
	return out
}

func toRoomList(rooms []domain.Room) []roomJSON {
	out := make([]roomJSON, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomJSON(r))
	}
	return out
}

func toBookingList(bookings []domain.Booking) []bookingJSON {
	out := make([]bookingJSON, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingJSON(b))
	}
	return out
}

// ---- catalog ----

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Catalog.ListAvailableRooms(r.Context())
	if err != nil {
		writeErr(w, r, err, "No rooms found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "rooms": toRoomList(rooms)})
}

type registerHotelReq struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	Contact string `json:"contact"`
}

func (h *Handlers) registerHotel(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var req registerHotelReq
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body", "validation")
		return
	}
	if err := h.v.Struct(req); err != nil {
		fail(w, http.StatusBadRequest, "Missing required fields: name, address", "validation")
		return
	}
	hotel, err := h.Catalog.RegisterHotel(r.Context(), claims, app.RegisterHotelInput{
		Name:    req.Name,
		Address: req.Address,
		Contact: req.Contact,
	})
	if err != nil {
		writeErr(w, r, err, "No Hotel found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Hotel registered successfully",
		"hotel":   toHotelJSON(hotel),
	})
}

func (h *Handlers) ownerRooms(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	rooms, err := h.Catalog.OwnerRooms(r.Context(), claims)
	if err != nil {
		writeErr(w, r, err, "No Hotel found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "rooms": toRoomList(rooms)})
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body", "validation")
		return
	}

	in := app.CreateRoomInput{RoomType: r.FormValue("roomType")}

	if raw := r.FormValue("pricePerNight"); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fail(w, http.StatusBadRequest, "Price per night must be a number", "validation")
			return
		}
		in.PriceCents = price
	}
	if raw := r.FormValue("amenities"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Amenities); err != nil {
			fail(w, http.StatusBadRequest, "Amenities must be a JSON array", "validation")
			return
		}
	}

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			f, err := fh.Open()
			if err != nil {
				fail(w, http.StatusBadRequest, "Invalid image upload", "validation")
				return
			}
			closers = append(closers, f)
			in.Images = append(in.Images, app.ImageFile{Name: fh.Filename, Reader: f})
		}
	}

	room, err := h.Catalog.CreateRoom(r.Context(), claims, in)
	if err != nil {
		writeErr(w, r, err, "No Hotel found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Room created successfully",
		"room":    toRoomJSON(room),
	})
}

type toggleReq struct {
	RoomID string `json:"roomId" validate:"required"`
}

func (h *Handlers) toggleAvailability(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var req toggleReq
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body", "validation")
		return
	}
	available, err := h.Catalog.ToggleAvailability(r.Context(), claims, req.RoomID)
	if err != nil {
		writeErr(w, r, err, "Room not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Room availability updated",
		"isAvailable": available,
	})
}

// ---- bookings ----

type checkAvailabilityReq struct {
	Room         string `json:"room"`
	CheckInDate  string `json:"checkInDate"`
	CheckOutDate string `json:"checkOutDate"`
}

func (h *Handlers) checkAvailability(w http.ResponseWriter, r *http.Request) {
	var req checkAvailabilityReq
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body", "validation")
		return
	}
	available, err := h.Bookings.CheckAvailability(r.Context(), app.CheckAvailabilityInput{
		RoomID:       req.Room,
		CheckInDate:  req.CheckInDate,
		CheckOutDate: req.CheckOutDate,
	})
	if err != nil {
		writeErr(w, r, err, "Room not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "isAvailable": available})
}

type createBookingReq struct {
	Room         string `json:"room" validate:"required"`
	CheckInDate  string `json:"checkInDate" validate:"required"`
	CheckOutDate string `json:"checkOutDate" validate:"required"`
	Guests       int    `json:"guests" validate:"required"`
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var req createBookingReq
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body", "validation")
		return
	}
	if err := h.v.Struct(req); err != nil {
		fail(w, http.StatusBadRequest, "Missing required fields", "validation")
		return
	}
	booking, err := h.Bookings.CreateBooking(r.Context(), claims, app.CreateBookingInput{
		RoomID:       req.Room,
		CheckInDate:  req.CheckInDate,
		CheckOutDate: req.CheckOutDate,
		Guests:       req.Guests,
	})
	if err != nil {
		writeErr(w, r, err, "Room not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Booking created successfully",
		"booking": toBookingJSON(booking),
	})
}

func (h *Handlers) userBookings(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	bookings, err := h.Bookings.UserBookings(r.Context(), claims)
	if err != nil {
		writeErr(w, r, err, "No bookings found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "bookings": toBookingList(bookings)})
}

func (h *Handlers) ownerDashboard(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	d, err := h.Bookings.OwnerDashboard(r.Context(), claims)
	if err != nil {
		writeErr(w, r, err, "No Hotel found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"dashboardData": map[string]any{
			"totalBookings": d.TotalBookings,
			"totalRevenue":  d.TotalRevenue,
			"bookings":      toBookingList(d.Bookings),
		},
	})
}

type paymentReq struct {
	BookingID string `json:"bookingId" validate:"required"`
}

func (h *Handlers) paymentSession(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var req paymentReq
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body", "validation")
		return
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		fail(w, http.StatusBadRequest, "Missing Origin header", "validation")
		return
	}
	url, err := h.Bookings.CreatePaymentSession(r.Context(), claims, req.BookingID, origin)
	if err != nil {
		writeErr(w, r, err, "Booking not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "url": url})
}
