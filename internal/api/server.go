package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"littlelemon/internal/auth"
	"littlelemon/internal/events"
	"littlelemon/internal/models"
	"littlelemon/internal/realtime"
	"littlelemon/internal/sl"
	"littlelemon/internal/store"
	"littlelemon/internal/web"
)

// Deps are the collaborators the HTTP layer needs. Hub and Monitor may be nil.
type Deps struct {
	Log         *slog.Logger
	ServiceName string
	Menu        store.MenuRepository
	Bookings    store.BookingRepository
	Auth        *auth.Authenticator
	Events      events.Publisher
	Hub         *realtime.Hub
	Metrics     gin.HandlerFunc
	Ping        func(ctx context.Context) error
}

// Server represents the restaurant API
type Server struct {
	Router *gin.Engine

	log      *slog.Logger
	service  string
	menu     store.MenuRepository
	bookings store.BookingRepository
	auth     *auth.Authenticator
	events   events.Publisher
	ping     func(ctx context.Context) error
}

// NewServer builds the routing table around d.
func NewServer(d Deps) *Server {
	registerValidators()

	router := gin.New()
	router.HandleMethodNotAllowed = true

	s := &Server{
		Router:   router,
		log:      d.Log,
		service:  d.ServiceName,
		menu:     d.Menu,
		bookings: d.Bookings,
		auth:     d.Auth,
		events:   d.Events,
		ping:     d.Ping,
	}
	if s.events == nil {
		s.events = events.Nop{}
	}

	router.Use(gin.Recovery(), s.requestLogger())
	if d.Metrics != nil {
		router.Use(d.Metrics)
	}
	router.SetHTMLTemplate(web.Templates())

	s.setupRoutes(d.Hub)
	return s
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes(hub *realtime.Hub) {
	s.Router.NoRoute(func(c *gin.Context) {
		notFound(c)
	})
	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"detail": fmt.Sprintf("Method %q not allowed.", c.Request.Method),
		})
	})

	s.Router.GET("/", s.GetIndex)
	s.Router.GET("/healthz", s.Health)
	s.Router.POST("/api-token-auth/", s.ObtainToken)

	menu := s.Router.Group("/menu")
	{
		menu.GET("/", s.ListMenuItems)
		menu.POST("/", s.CreateMenuItem)
		menu.GET("/:id/", s.RetrieveMenuItem)
		menu.PUT("/:id/", s.UpdateMenuItem)
		menu.PATCH("/:id/", s.PartialUpdateMenuItem)
		menu.DELETE("/:id/", s.DeleteMenuItem)
	}

	gate := auth.Middleware(s.auth, s.log)

	tables := s.Router.Group("/Booking/tables", gate)
	{
		tables.GET("/", s.ListBookings)
		tables.POST("/", s.CreateBooking)
		tables.GET("/:id/", s.RetrieveBooking)
		tables.PUT("/:id/", s.UpdateBooking)
		tables.PATCH("/:id/", s.PartialUpdateBooking)
		tables.DELETE("/:id/", s.DeleteBooking)
	}

	if hub != nil {
		s.Router.GET("/ws/events", gate, hub.ServeWS)
	}
}

func (s *Server) GetIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", web.IndexPage{Title: "Little Lemon"})
}

func (s *Server) Health(c *gin.Context) {
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			s.log.Warn("health check failed", sl.Err(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestLogger writes one record per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-ID", reqID)

		c.Next()

		s.log.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("request_id", reqID),
		)
	}
}

// publish emits a change event. Failures are logged, never returned.
func (s *Server) publish(resource, action string, id uint, obj interface{}) {
	ev, err := events.New(s.service, resource, action, id, obj)
	if err != nil {
		s.log.Error("build change event", slog.String("resource", resource), sl.Err(err))
		return
	}
	s.events.Publish(ev)
}

// fail maps a store error to a response.
func (s *Server) fail(c *gin.Context, op string, err error) {
	var fields models.FieldErrors
	switch {
	case errors.Is(err, store.ErrNotFound):
		notFound(c)
	case errors.As(err, &fields):
		c.JSON(http.StatusBadRequest, fields)
	default:
		s.log.Error(op, sl.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "A server error occurred."})
	}
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}

// idParam reads the :id path segment. Anything but a positive integer is a
// 404, the same as an unknown id.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, strconv.IntSize)
	if err != nil || id == 0 {
		notFound(c)
		return 0, false
	}
	return uint(id), true
}
