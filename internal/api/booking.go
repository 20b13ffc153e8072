package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"littlelemon/internal/auth"
	"littlelemon/internal/events"
	"littlelemon/internal/models"
)

type bookingRequest struct {
	Name        *string   `json:"name" binding:"required,notblank,max=255"`
	NoOfGuests  *int      `json:"no_of_guests" binding:"required,min=1,max=6"`
	BookingDate *dateTime `json:"booking_date" binding:"required"`
}

type bookingPatch struct {
	Name        *string   `json:"name" binding:"omitempty,notblank,max=255"`
	NoOfGuests  *int      `json:"no_of_guests" binding:"omitempty,min=1,max=6"`
	BookingDate *dateTime `json:"booking_date"`
}

func (r bookingRequest) apply(b *models.Booking) {
	if r.Name != nil {
		b.Name = strings.TrimSpace(*r.Name)
	}
	if r.NoOfGuests != nil {
		b.NoOfGuests = *r.NoOfGuests
	}
	if r.BookingDate != nil {
		b.BookingDate = time.Time(*r.BookingDate)
	}
}

func (s *Server) ListBookings(c *gin.Context) {
	bookings, err := s.bookings.List(c.Request.Context())
	if err != nil {
		s.fail(c, "list bookings", err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (s *Server) CreateBooking(c *gin.Context) {
	var req bookingRequest
	if !bindJSON(c, &req) {
		return
	}

	booking := &models.Booking{}
	req.apply(booking)
	if err := s.bookings.Create(c.Request.Context(), booking); err != nil {
		s.fail(c, "create booking", err)
		return
	}

	if user, ok := auth.CurrentUser(c); ok {
		s.log.Debug("booking created", "booking", booking.String(), "user", user.Username)
	}
	s.publish(events.ResourceBooking, events.ActionCreated, booking.ID, booking)
	c.JSON(http.StatusCreated, booking)
}

func (s *Server) RetrieveBooking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	booking, err := s.bookings.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "get booking", err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (s *Server) UpdateBooking(c *gin.Context) {
	var req bookingRequest
	s.updateBooking(c, &req, func() bookingRequest { return req })
}

func (s *Server) PartialUpdateBooking(c *gin.Context) {
	var req bookingPatch
	s.updateBooking(c, &req, func() bookingRequest { return bookingRequest(req) })
}

func (s *Server) updateBooking(c *gin.Context, body interface{}, changes func() bookingRequest) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	booking, err := s.bookings.Get(ctx, id)
	if err != nil {
		s.fail(c, "get booking", err)
		return
	}
	if !bindJSON(c, body) {
		return
	}

	changes().apply(booking)
	if err := s.bookings.Update(ctx, booking); err != nil {
		s.fail(c, "update booking", err)
		return
	}

	s.publish(events.ResourceBooking, events.ActionUpdated, booking.ID, booking)
	c.JSON(http.StatusOK, booking)
}

func (s *Server) DeleteBooking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := s.bookings.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, "delete booking", err)
		return
	}

	s.publish(events.ResourceBooking, events.ActionDeleted, id, nil)
	c.Status(http.StatusNoContent)
}
