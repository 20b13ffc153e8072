package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"littlelemon/internal/auth"
	"littlelemon/internal/models"
)

const msgBadCredentials = "Unable to log in with provided credentials."

type tokenRequest struct {
	Username *string `json:"username" form:"username" binding:"required,notblank"`
	Password *string `json:"password" form:"password" binding:"required,notblank"`
}

// ObtainToken exchanges a username and password for an API token. The body
// may be JSON or a form.
func (s *Server) ObtainToken(c *gin.Context) {
	var req tokenRequest
	if !bindBody(c, &req, c.ShouldBind) {
		return
	}

	token, err := s.auth.Login(c.Request.Context(), *req.Username, *req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, models.FieldErrors{"non_field_errors": {msgBadCredentials}})
		return
	case err != nil:
		s.fail(c, "obtain token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
