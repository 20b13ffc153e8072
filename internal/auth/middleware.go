package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"littlelemon/internal/models"
	"littlelemon/internal/sl"
)

const userKey = "auth.user"

// Middleware rejects the request unless the Authorization header resolves to
// an active user. It runs before the wrapped handlers touch the store.
func Middleware(a *Authenticator, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err == nil {
			c.Set(userKey, user)
			c.Next()
			return
		}

		switch {
		case errors.Is(err, ErrInactiveUser):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "User inactive or deleted."})
		case errors.Is(err, ErrNoCredentials):
			unauthorized(c, "Authentication credentials were not provided.")
		case errors.Is(err, ErrInvalidToken):
			unauthorized(c, "Invalid token.")
		case errors.Is(err, ErrInvalidCredentials):
			unauthorized(c, "Invalid username/password.")
		default:
			log.Error("authenticate request", sl.Err(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "A server error occurred."})
		}
	}
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Token")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}

// CurrentUser returns the user stored by Middleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
