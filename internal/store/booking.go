package store

import (
	"context"

	"github.com/jinzhu/gorm"

	"littlelemon/internal/models"
)

// BookingRepository is the persistence contract of the booking resource.
type BookingRepository interface {
	List(ctx context.Context) ([]models.Booking, error)
	Get(ctx context.Context, id uint) (*models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) error
	Update(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id uint) error
}

type BookingStore struct {
	db *gorm.DB
}

func NewBookingStore(db *gorm.DB) *BookingStore {
	return &BookingStore{db: db}
}

func (s *BookingStore) List(ctx context.Context) ([]models.Booking, error) {
	const op = "store.BookingStore.List"
	if err := checked(ctx, op); err != nil {
		return nil, err
	}

	bookings := []models.Booking{}
	if err := s.db.Order("id").Find(&bookings).Error; err != nil {
		return nil, wrap(op, err)
	}
	return bookings, nil
}

func (s *BookingStore) Get(ctx context.Context, id uint) (*models.Booking, error) {
	const op = "store.BookingStore.Get"
	if err := checked(ctx, op); err != nil {
		return nil, err
	}

	var booking models.Booking
	if err := s.db.Where("id = ?", id).First(&booking).Error; err != nil {
		return nil, wrap(op, err)
	}
	return &booking, nil
}

func (s *BookingStore) Create(ctx context.Context, booking *models.Booking) error {
	const op = "store.BookingStore.Create"
	if err := checked(ctx, op); err != nil {
		return err
	}
	if err := booking.Validate(); err != nil {
		return err
	}

	booking.ID = 0
	if err := s.db.Create(booking).Error; err != nil {
		return wrap(op, err)
	}
	return nil
}

func (s *BookingStore) Update(ctx context.Context, booking *models.Booking) error {
	const op = "store.BookingStore.Update"
	if err := checked(ctx, op); err != nil {
		return err
	}
	if booking.ID == 0 {
		return ErrNotFound
	}
	if err := booking.Validate(); err != nil {
		return err
	}

	res := s.db.Model(&models.Booking{ID: booking.ID}).Updates(map[string]interface{}{
		"name":         booking.Name,
		"no_of_guests": booking.NoOfGuests,
		"booking_date": booking.BookingDate,
	})
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *BookingStore) Delete(ctx context.Context, id uint) error {
	const op = "store.BookingStore.Delete"
	if err := checked(ctx, op); err != nil {
		return err
	}

	res := s.db.Where("id = ?", id).Delete(&models.Booking{})
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
