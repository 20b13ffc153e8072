package models

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	NameMaxLength = 255

	GuestsMin = 1
	GuestsMax = 6
)

// Booking is a table reservation.
type Booking struct {
	ID          uint      `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	NoOfGuests  int       `gorm:"not null" json:"no_of_guests"`
	BookingDate time.Time `gorm:"not null" json:"booking_date"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

func (b *Booking) String() string {
	return fmt.Sprintf("name: %s, no of guests: %d, Booking date: %s",
		b.Name, b.NoOfGuests, b.BookingDate.Format(time.RFC3339))
}

// Validate checks the booking against the column constraints.
func (b *Booking) Validate() error {
	errs := FieldErrors{}
	switch n := utf8.RuneCountInString(b.Name); {
	case n == 0:
		errs.Add("name", MsgBlank)
	case n > NameMaxLength:
		errs.Add("name", MaxLengthMessage(NameMaxLength))
	}
	if b.NoOfGuests < GuestsMin {
		errs.Add("no_of_guests", MinValueMessage(GuestsMin))
	}
	if b.NoOfGuests > GuestsMax {
		errs.Add("no_of_guests", MaxValueMessage(GuestsMax))
	}
	if b.BookingDate.IsZero() {
		errs.Add("booking_date", MsgRequired)
	}
	return errs.OrNil()
}
