package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	mysqldrv "github.com/go-sql-driver/mysql"

	"quickstay/internal/domain"
)

const erDupEntry = 1062

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- catalog ----

func (r *Repo) CreateHotel(ctx context.Context, h domain.Hotel) error {
	_, err := r.db.ExecContext(ctx, insertHotelSQL,
		h.ID, h.OwnerID, h.Name, h.Address, h.Contact, h.CreatedAt.UTC(),
	)
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) && me.Number == erDupEntry {
		return domain.ErrConflict
	}
	return err
}

func (r *Repo) GetHotelByOwner(ctx context.Context, ownerID string) (domain.Hotel, error) {
	var h domain.Hotel
	err := r.db.QueryRowContext(ctx, getHotelByOwnerSQL, ownerID).Scan(
		&h.ID, &h.OwnerID, &h.Name, &h.Address, &h.Contact, &h.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Hotel{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Hotel{}, err
	}
	h.CreatedAt = h.CreatedAt.UTC()
	return h, nil
}

func (r *Repo) CreateRoom(ctx context.Context, rm domain.Room) error {
	amen, err := json.Marshal(rm.Amenities)
	if err != nil {
		return fmt.Errorf("marshal amenities: %w", err)
	}
	imgs, err := json.Marshal(rm.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	_, err = r.db.ExecContext(ctx, insertRoomSQL,
		rm.ID, rm.HotelID, rm.RoomType, rm.PriceCents,
		string(amen), string(imgs), rm.IsAvailable, rm.CreatedAt.UTC(),
	)
	return err
}

type roomScanner interface{ Scan(dest ...any) error }

func scanRoom(row roomScanner) (domain.Room, error) {
	var (
		rm        domain.Room
		h         domain.Hotel
		amenities []byte
		images    []byte
	)
	if err := row.Scan(
		&rm.ID, &rm.HotelID, &rm.RoomType, &rm.PriceCents,
		&amenities, &images, &rm.IsAvailable, &rm.CreatedAt,
		&h.ID, &h.OwnerID, &h.Name, &h.Address, &h.Contact, &h.CreatedAt,
	); err != nil {
		return domain.Room{}, err
	}
	_ = json.Unmarshal(amenities, &rm.Amenities)
	_ = json.Unmarshal(images, &rm.Images)
	rm.CreatedAt = rm.CreatedAt.UTC()
	h.CreatedAt = h.CreatedAt.UTC()
	rm.Hotel = &h
	return rm, nil
}

func (r *Repo) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, getRoomSQL, id))
	if err == sql.ErrNoRows {
		return domain.Room{}, domain.ErrNotFound
	}
	return rm, err
}

func (r *Repo) listRooms(ctx context.Context, query string, args ...any) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

func (r *Repo) ListAvailableRooms(ctx context.Context) ([]domain.Room, error) {
	return r.listRooms(ctx, listAvailableRoomsSQL)
}

func (r *Repo) ListRoomsByHotel(ctx context.Context, hotelID string) ([]domain.Room, error) {
	return r.listRooms(ctx, listRoomsByHotelSQL, hotelID)
}

func (r *Repo) ToggleRoomAvailability(ctx context.Context, roomID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, toggleRoomSQL, roomID)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n == 0 {
		return false, domain.ErrNotFound
	}
	var available bool
	if err := r.db.QueryRowContext(ctx, getRoomAvailabilitySQL, roomID).Scan(&available); err != nil {
		return false, err
	}
	return available, nil
}

// ---- bookings ----

// CreateBooking holds the room row lock across the overlap count and the
// insert, so of two concurrent overlapping attempts exactly one commits.
func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var roomID string
	if err := tx.QueryRowContext(ctx, lockRoomSQL, b.RoomID).Scan(&roomID); err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		return err
	}

	var n int
	err = tx.QueryRowContext(ctx, countOverlapSQL,
		b.RoomID,
		b.CheckIn.UTC(), b.CheckOut.UTC(),
		b.CheckIn.UTC(), b.CheckOut.UTC(),
		b.CheckIn.UTC(), b.CheckOut.UTC(),
	).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrConflict
	}

	_, err = tx.ExecContext(ctx, insertBookingSQL,
		b.ID, b.UserID, b.RoomID, b.HotelID,
		b.CheckIn.UTC(), b.CheckOut.UTC(),
		b.Guests, b.TotalCents, string(b.Status), b.CreatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repo) CountOverlapping(ctx context.Context, roomID string, s domain.Stay) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countOverlapSQL,
		roomID,
		s.CheckIn.UTC(), s.CheckOut.UTC(),
		s.CheckIn.UTC(), s.CheckOut.UTC(),
		s.CheckIn.UTC(), s.CheckOut.UTC(),
	).Scan(&n)
	return n, err
}

func scanBooking(row roomScanner) (domain.Booking, error) {
	var (
		b         domain.Booking
		rm        domain.Room
		h         domain.Hotel
		amenities []byte
		images    []byte
		status    string
	)
	if err := row.Scan(
		&b.ID, &b.UserID, &b.RoomID, &b.HotelID, &b.CheckIn, &b.CheckOut,
		&b.Guests, &b.TotalCents, &status, &b.CreatedAt,
		&rm.ID, &rm.HotelID, &rm.RoomType, &rm.PriceCents,
		&amenities, &images, &rm.IsAvailable, &rm.CreatedAt,
		&h.ID, &h.OwnerID, &h.Name, &h.Address, &h.Contact, &h.CreatedAt,
	); err != nil {
		return domain.Booking{}, err
	}
	b.Status = domain.BookingStatus(status)
	b.CheckIn = b.CheckIn.UTC()
	b.CheckOut = b.CheckOut.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	_ = json.Unmarshal(amenities, &rm.Amenities)
	_ = json.Unmarshal(images, &rm.Images)
	rm.CreatedAt = rm.CreatedAt.UTC()
	h.CreatedAt = h.CreatedAt.UTC()
	hcopy := h
	rm.Hotel = &hcopy
	b.Room = &rm
	b.Hotel = &h
	return b, nil
}

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, getBookingSQL, id))
	if err == sql.ErrNoRows {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, err
}

func (r *Repo) listBookings(ctx context.Context, query string, arg any) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	return r.listBookings(ctx, listBookingsByUserSQL, userID)
}

func (r *Repo) ListByHotel(ctx context.Context, hotelID string) ([]domain.Booking, error) {
	return r.listBookings(ctx, listBookingsByHotelSQL, hotelID)
}
