package store

import (
	"context"

	"github.com/jinzhu/gorm"

	"littlelemon/internal/models"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	const op = "store.UserStore.Create"
	if err := checked(ctx, op); err != nil {
		return err
	}

	if err := s.db.Create(user).Error; err != nil {
		return wrap(op, err)
	}
	return nil
}

func (s *UserStore) ByID(ctx context.Context, id uint) (*models.User, error) {
	const op = "store.UserStore.ByID"
	if err := checked(ctx, op); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, wrap(op, err)
	}
	return &user, nil
}

func (s *UserStore) ByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "store.UserStore.ByUsername"
	if err := checked(ctx, op); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, wrap(op, err)
	}
	return &user, nil
}

// SetActive toggles whether the user may authenticate.
func (s *UserStore) SetActive(ctx context.Context, id uint, active bool) error {
	const op = "store.UserStore.SetActive"
	if err := checked(ctx, op); err != nil {
		return err
	}
	if id == 0 {
		return ErrNotFound
	}

	res := s.db.Model(&models.User{ID: id}).Update("is_active", active)
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
