// Package store persists menu items, bookings and users through gorm.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jinzhu/gorm"
)

// ErrNotFound is returned when no row matches the requested id.
var ErrNotFound = errors.New("record not found")

func wrap(op string, err error) error {
	if gorm.IsRecordNotFoundError(err) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// checked returns ctx's error, if any. gorm v1 does not take a context, so
// cancellation is only observed before a statement is issued.
func checked(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
