package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/posthub/posthub/internal/model"
)

// currentUserKey is the echo context key holding the authenticated user.
const currentUserKey = "current_user"

// authRequired resolves the bearer token to a user. Requests without a
// valid session get 401; the client never pre-rejects, it always sends.
func (s *Server) authRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authorization required"})
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
		}

		var user model.User
		var expiresAt, createdAt string
		err := s.db.QueryRowContext(c.Request().Context(), `
			SELECT u.id, u.username, COALESCE(u.email, ''), u.name, u.role, u.created_at, s.expires_at
			FROM sessions s JOIN users u ON u.id = s.user_id
			WHERE s.token = ?`, token,
		).Scan(&user.ID, &user.Username, &user.Email, &user.Name, &user.Role, &createdAt, &expiresAt)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}

		expiry, err := time.Parse(time.RFC3339, expiresAt)
		if err != nil || time.Now().After(expiry) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "token expired"})
		}

		user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		c.Set(currentUserKey, &user)
		return next(c)
	}
}

// currentUser returns the user resolved by authRequired.
func currentUser(c echo.Context) *model.User {
	user, _ := c.Get(currentUserKey).(*model.User)
	return user
}
