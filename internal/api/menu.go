package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"littlelemon/internal/events"
	"littlelemon/internal/models"
)

// menuItemRequest is the body of POST and PUT: every field is required.
type menuItemRequest struct {
	Title     *string `json:"title" binding:"required,notblank,max=255"`
	Price     *price  `json:"price" binding:"required,money"`
	Inventory *int    `json:"inventory" binding:"required,min=0,max=99999"`
}

// menuItemPatch is the body of PATCH: only supplied fields are checked.
type menuItemPatch struct {
	Title     *string `json:"title" binding:"omitempty,notblank,max=255"`
	Price     *price  `json:"price" binding:"omitempty,money"`
	Inventory *int    `json:"inventory" binding:"omitempty,min=0,max=99999"`
}

func (r menuItemRequest) apply(item *models.MenuItem) {
	if r.Title != nil {
		item.Title = strings.TrimSpace(*r.Title)
	}
	if r.Price != nil {
		item.Price = decimal.Decimal(*r.Price)
	}
	if r.Inventory != nil {
		item.Inventory = *r.Inventory
	}
}

func (s *Server) ListMenuItems(c *gin.Context) {
	items, err := s.menu.List(c.Request.Context())
	if err != nil {
		s.fail(c, "list menu items", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) CreateMenuItem(c *gin.Context) {
	var req menuItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item := &models.MenuItem{}
	req.apply(item)
	if err := s.menu.Create(c.Request.Context(), item); err != nil {
		s.fail(c, "create menu item", err)
		return
	}

	s.publish(events.ResourceMenu, events.ActionCreated, item.ID, item)
	c.JSON(http.StatusCreated, item)
}

func (s *Server) RetrieveMenuItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	item, err := s.menu.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "get menu item", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) UpdateMenuItem(c *gin.Context) {
	var req menuItemRequest
	s.updateMenuItem(c, &req, func() menuItemRequest { return req })
}

func (s *Server) PartialUpdateMenuItem(c *gin.Context) {
	var req menuItemPatch
	s.updateMenuItem(c, &req, func() menuItemRequest { return menuItemRequest(req) })
}

// updateMenuItem looks the item up before reading the body, so an unknown id
// is a 404 even when the body is invalid.
func (s *Server) updateMenuItem(c *gin.Context, body interface{}, changes func() menuItemRequest) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	item, err := s.menu.Get(ctx, id)
	if err != nil {
		s.fail(c, "get menu item", err)
		return
	}
	if !bindJSON(c, body) {
		return
	}

	changes().apply(item)
	if err := s.menu.Update(ctx, item); err != nil {
		s.fail(c, "update menu item", err)
		return
	}

	s.publish(events.ResourceMenu, events.ActionUpdated, item.ID, item)
	c.JSON(http.StatusOK, item)
}

func (s *Server) DeleteMenuItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := s.menu.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, "delete menu item", err)
		return
	}

	s.publish(events.ResourceMenu, events.ActionDeleted, id, nil)
	c.Status(http.StatusNoContent)
}
