package store

import (
	"context"

	"github.com/jinzhu/gorm"

	"littlelemon/internal/models"
)

// MenuRepository is the persistence contract of the menu resource.
type MenuRepository interface {
	List(ctx context.Context) ([]models.MenuItem, error)
	Get(ctx context.Context, id uint) (*models.MenuItem, error)
	Create(ctx context.Context, item *models.MenuItem) error
	Update(ctx context.Context, item *models.MenuItem) error
	Delete(ctx context.Context, id uint) error
}

type MenuStore struct {
	db *gorm.DB
}

func NewMenuStore(db *gorm.DB) *MenuStore {
	return &MenuStore{db: db}
}

func (s *MenuStore) List(ctx context.Context) ([]models.MenuItem, error) {
	const op = "store.MenuStore.List"
	if err := checked(ctx, op); err != nil {
		return nil, err
	}

	items := []models.MenuItem{}
	if err := s.db.Order("id").Find(&items).Error; err != nil {
		return nil, wrap(op, err)
	}
	return items, nil
}

func (s *MenuStore) Get(ctx context.Context, id uint) (*models.MenuItem, error) {
	const op = "store.MenuStore.Get"
	if err := checked(ctx, op); err != nil {
		return nil, err
	}

	var item models.MenuItem
	if err := s.db.Where("id = ?", id).First(&item).Error; err != nil {
		return nil, wrap(op, err)
	}
	return &item, nil
}

// Create validates and inserts item, filling in its id.
func (s *MenuStore) Create(ctx context.Context, item *models.MenuItem) error {
	const op = "store.MenuStore.Create"
	if err := checked(ctx, op); err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return err
	}

	item.ID = 0
	if err := s.db.Create(item).Error; err != nil {
		return wrap(op, err)
	}
	return nil
}

// Update overwrites every column of the row with item's id.
func (s *MenuStore) Update(ctx context.Context, item *models.MenuItem) error {
	const op = "store.MenuStore.Update"
	if err := checked(ctx, op); err != nil {
		return err
	}
	if item.ID == 0 {
		return ErrNotFound
	}
	if err := item.Validate(); err != nil {
		return err
	}

	res := s.db.Model(&models.MenuItem{ID: item.ID}).Updates(map[string]interface{}{
		"title":     item.Title,
		"price":     item.Price,
		"inventory": item.Inventory,
	})
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MenuStore) Delete(ctx context.Context, id uint) error {
	const op = "store.MenuStore.Delete"
	if err := checked(ctx, op); err != nil {
		return err
	}

	res := s.db.Where("id = ?", id).Delete(&models.MenuItem{})
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
