package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"

	"littlelemon/internal/models"
)

const (
	msgInvalidInteger  = "A valid integer is required."
	msgInvalidNumber   = "A valid number is required."
	msgInvalidString   = "Not a valid string."
	msgInvalidDateTime = "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z]."
)

// price accepts a JSON string or number and keeps the digits as written, so
// "5.500" still counts three decimal places.
type price decimal.Decimal

var (
	priceType    = reflect.TypeOf(decimal.Decimal{})
	dateTimeType = reflect.TypeOf(time.Time{})
)

func (p *price) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return &json.UnmarshalTypeError{Value: string(b), Type: priceType}
	}
	*p = price(d)
	return nil
}

// dateTime accepts ISO 8601 date-times with or without seconds and zone.
// A missing zone is read as UTC.
type dateTime time.Time

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

func (d *dateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		for _, layout := range dateTimeLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
				*d = dateTime(t)
				return nil
			}
		}
	}
	return &json.UnmarshalTypeError{Value: string(b), Type: dateTimeType}
}

var registerOnce sync.Once

// registerValidators teaches gin's validator about the request types. It is
// safe to call from every NewServer.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if p, ok := field.Interface().(price); ok {
				return models.PriceText(decimal.Decimal(p))
			}
			return nil
		}, price{})
		v.RegisterValidation("notblank", validators.NotBlank)
		v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(fl.Field().String())
			return err == nil && models.ValidatePrice(d) == nil
		})
	})
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	return bindBody(c, obj, c.ShouldBindJSON)
}

// bindBody decodes and validates the body into obj. On failure it writes the
// 400 response and returns false. An empty body validates as {}.
func bindBody(c *gin.Context, obj interface{}, bind func(interface{}) error) bool {
	err := bind(obj)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err == nil {
		return true
	}
	c.JSON(http.StatusBadRequest, bindError(err))
	return false
}

// bindError turns a decoding or validation error into a response body.
func bindError(err error) interface{} {
	var (
		ve validator.ValidationErrors
		te *json.UnmarshalTypeError
		se *json.SyntaxError
	)
	switch {
	case errors.As(err, &ve):
		fields := models.FieldErrors{}
		for _, fe := range ve {
			fields.Add(fe.Field(), fieldMessage(fe))
		}
		return fields
	case errors.As(err, &te):
		if te.Field == "" {
			return models.FieldErrors{"non_field_errors": {
				fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", te.Value),
			}}
		}
		return models.FieldErrors{te.Field: {typeMessage(te.Type)}}
	case errors.As(err, &se):
		return gin.H{"detail": "JSON parse error - " + se.Error()}
	default:
		return gin.H{"detail": "JSON parse error - " + err.Error()}
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return models.MsgRequired
	case "notblank":
		return models.MsgBlank
	case "money":
		return priceMessage(fe.Value())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	}
	return "Invalid value."
}

func priceMessage(v interface{}) string {
	var d decimal.Decimal
	switch x := v.(type) {
	case string:
		d, _ = decimal.NewFromString(x)
	case price:
		d = decimal.Decimal(x)
	case *price:
		d = decimal.Decimal(*x)
	}
	if err := models.ValidatePrice(d); err != nil {
		return err.Error()
	}
	return msgInvalidNumber
}

func typeMessage(t reflect.Type) string {
	switch {
	case t == priceType:
		return msgInvalidNumber
	case t == dateTimeType:
		return msgInvalidDateTime
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return msgInvalidInteger
	case reflect.Float32, reflect.Float64:
		return msgInvalidNumber
	case reflect.String:
		return msgInvalidString
	}
	return "Invalid value."
}
