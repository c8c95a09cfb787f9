package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/posthub/posthub/internal/logger"
	"github.com/posthub/posthub/internal/model"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	// Username also accepts an email address.
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// handleRegister handles user registration
func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "username and password required"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("bcrypt error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	now := time.Now().UTC()
	var email interface{}
	if req.Email != "" {
		email = req.Email
	}

	res, err := s.db.ExecContext(c.Request().Context(), `
		INSERT INTO users (username, email, name, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.Username, email, req.Name, string(hash), model.RoleUser, now.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return c.JSON(http.StatusConflict, map[string]string{"error": "username or email already taken"})
		}
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	userID, err := res.LastInsertId()
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	user := model.User{
		ID:        userID,
		Username:  req.Username,
		Email:     req.Email,
		Name:      req.Name,
		Role:      model.RoleUser,
		CreatedAt: now,
	}

	token, err := s.createSession(c, userID)
	if err != nil {
		logger.Error("session error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	logger.Info("User registered", logger.F("username", req.Username), logger.F("id", userID))
	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// handleLogin handles user login. The identifier matches username or email
// case-insensitively.
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	var user model.User
	var passwordHash, createdAt string
	err := s.db.QueryRowContext(c.Request().Context(), `
		SELECT id, username, COALESCE(email, ''), name, role, password_hash, created_at
		FROM users WHERE username = ? COLLATE NOCASE OR email = ? COLLATE NOCASE`,
		req.Username, req.Username,
	).Scan(&user.ID, &user.Username, &user.Email, &user.Name, &user.Role, &passwordHash, &createdAt)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid username or password"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid username or password"})
	}

	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	token, err := s.createSession(c, user.ID)
	if err != nil {
		logger.Error("session error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	logger.Info("User logged in", logger.F("username", user.Username))
	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// handleMe returns the authenticated user.
func (s *Server) handleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}

// createSession mints an opaque token and stores it. Sessions expire after
// 30 days.
func (s *Server) createSession(c echo.Context, userID int64) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	now := time.Now().UTC()
	expiresAt := now.Add(30 * 24 * time.Hour)

	_, err := s.db.ExecContext(c.Request().Context(), `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		token, userID, expiresAt.Format(time.RFC3339), now.Format(time.RFC3339))
	return token, err
}
