package models

import (
	"encoding/json"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	TitleMaxLength = 255

	InventoryMin = 0
	InventoryMax = 99999

	PriceMaxDigits      = 10
	PriceDecimalPlaces  = 2
	PriceMaxWholeDigits = PriceMaxDigits - PriceDecimalPlaces
)

var (
	ErrPriceMaxDigits      = errors.New("Ensure that there are no more than 10 digits in total.")
	ErrPriceDecimalPlaces  = errors.New("Ensure that there are no more than 2 decimal places.")
	ErrPriceMaxWholeDigits = errors.New("Ensure that there are no more than 8 digits before the decimal point.")
)

// MenuItem represents a dish on the menu
type MenuItem struct {
	ID        uint            `gorm:"primary_key" json:"id"`
	Title     string          `gorm:"size:255;not null" json:"title"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Inventory int             `gorm:"not null" json:"inventory"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
}

// MarshalJSON renders the price with exactly two decimal places.
func (m MenuItem) MarshalJSON() ([]byte, error) {
	type alias MenuItem
	return json.Marshal(struct {
		alias
		Price string `json:"price"`
	}{
		alias: alias(m),
		Price: m.Price.StringFixed(PriceDecimalPlaces),
	})
}

// Validate checks the item against the column constraints.
func (m *MenuItem) Validate() error {
	errs := FieldErrors{}
	switch n := utf8.RuneCountInString(m.Title); {
	case n == 0:
		errs.Add("title", MsgBlank)
	case n > TitleMaxLength:
		errs.Add("title", MaxLengthMessage(TitleMaxLength))
	}
	if err := ValidatePrice(m.Price); err != nil {
		errs.Add("price", err.Error())
	}
	if m.Inventory < InventoryMin {
		errs.Add("inventory", MinValueMessage(InventoryMin))
	}
	if m.Inventory > InventoryMax {
		errs.Add("inventory", MaxValueMessage(InventoryMax))
	}
	return errs.OrNil()
}

// ValidatePrice enforces the decimal(10,2) shape of a price as written by the
// client. Trailing zeros count: "5.500" has three decimal places.
func ValidatePrice(d decimal.Decimal) error {
	coef := d.Coefficient()
	digits := len(coef.Abs(coef).String())
	exp := int(d.Exponent())

	var total, places, whole int
	switch {
	case exp >= 0:
		total = digits + exp
		whole = total
	case digits > -exp:
		places = -exp
		total = digits
		whole = total - places
	default:
		places = -exp
		total = places
	}

	switch {
	case total > PriceMaxDigits:
		return ErrPriceMaxDigits
	case places > PriceDecimalPlaces:
		return ErrPriceDecimalPlaces
	case whole > PriceMaxWholeDigits:
		return ErrPriceMaxWholeDigits
	}
	return nil
}

// PriceText formats d keeping the exponent it was parsed with, so that
// ValidatePrice(NewFromString(PriceText(d))) sees the same digits.
func PriceText(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
