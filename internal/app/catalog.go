package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"quickstay/internal/domain"
)

const roomsCacheKey = "rooms:available"

type CatalogService struct {
	repo     domain.CatalogRepository
	cache    domain.Cache
	uploader domain.Uploader
	cacheTTL time.Duration
}

func NewCatalogService(r domain.CatalogRepository, c domain.Cache, u domain.Uploader, ttl time.Duration) *CatalogService {
	return &CatalogService{repo: r, cache: c, uploader: u, cacheTTL: ttl}
}

type RegisterHotelInput struct {
	Name    string
	Address string
	Contact string
}

// RegisterHotel creates the caller's hotel. One hotel per owner.
func (s *CatalogService) RegisterHotel(ctx context.Context, claims domain.Claims, in RegisterHotelInput) (domain.Hotel, error) {
	if in.Name == "" || in.Address == "" {
		return domain.Hotel{}, domain.Invalid("Missing required fields: name, address")
	}
	_, err := s.repo.GetHotelByOwner(ctx, claims.UserID)
	if err == nil {
		return domain.Hotel{}, domain.Invalid("Hotel already registered")
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Hotel{}, err
	}

	h := domain.Hotel{
		ID:        uuid.NewString(),
		OwnerID:   claims.UserID,
		Name:      in.Name,
		Address:   in.Address,
		Contact:   in.Contact,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateHotel(ctx, h); err != nil {
		return domain.Hotel{}, err
	}
	return h, nil
}

type ImageFile struct {
	Name   string
	Reader io.Reader
}

type CreateRoomInput struct {
	RoomType   string
	PriceCents int64
	Amenities  []string
	Images     []ImageFile
}

func (s *CatalogService) CreateRoom(ctx context.Context, claims domain.Claims, in CreateRoomInput) (domain.Room, error) {
	if in.RoomType == "" {
		return domain.Room{}, domain.Invalid("Missing required fields: roomType, pricePerNight")
	}
	if in.PriceCents <= 0 {
		return domain.Room{}, domain.Invalid("Price per night must be positive")
	}
	hotel, err := s.repo.GetHotelByOwner(ctx, claims.UserID)
	if err != nil {
		return domain.Room{}, err
	}

	urls, err := s.uploadImages(ctx, in.Images)
	if err != nil {
		return domain.Room{}, err
	}

	room := domain.Room{
		ID:          uuid.NewString(),
		HotelID:     hotel.ID,
		RoomType:    in.RoomType,
		PriceCents:  in.PriceCents,
		Amenities:   in.Amenities,
		Images:      urls,
		IsAvailable: true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return domain.Room{}, err
	}
	_ = s.cache.Del(ctx, roomsCacheKey)
	room.Hotel = &hotel
	return room, nil
}

// uploadImages pushes all files to the image host in parallel; the first
// failure cancels the rest and fails the room creation.
func (s *CatalogService) uploadImages(ctx context.Context, files []ImageFile) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}
	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			u, err := s.uploader.Upload(gctx, f.Reader, f.Name)
			if err != nil {
				return err
			}
			urls[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// ListAvailableRooms is the public browse path; served cache-first.
func (s *CatalogService) ListAvailableRooms(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	if ok, _ := s.cache.Get(ctx, roomsCacheKey, &rooms); ok {
		return rooms, nil
	}
	rooms, err := s.repo.ListAvailableRooms(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, roomsCacheKey, rooms, s.cacheTTL)
	return rooms, nil
}

func (s *CatalogService) OwnerRooms(ctx context.Context, claims domain.Claims) ([]domain.Room, error) {
	hotel, err := s.repo.GetHotelByOwner(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRoomsByHotel(ctx, hotel.ID)
}

// ToggleAvailability flips the room's availability flag. The room must belong
// to the caller's hotel.
func (s *CatalogService) ToggleAvailability(ctx context.Context, claims domain.Claims, roomID string) (bool, error) {
	if roomID == "" {
		return false, domain.Invalid("Missing required fields: roomId")
	}
	hotel, err := s.repo.GetHotelByOwner(ctx, claims.UserID)
	if err != nil {
		return false, err
	}
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	if room.HotelID != hotel.ID {
		return false, domain.ErrNotFound
	}
	now, err := s.repo.ToggleRoomAvailability(ctx, roomID)
	if err != nil {
		return false, err
	}
	_ = s.cache.Del(ctx, roomsCacheKey)
	return now, nil
}
