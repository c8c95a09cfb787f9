// Package server is the bundled PostHub backend: the HTTP surface the
// resource client consumes, stored in an embedded sqlite database. It is the
// authorization boundary the client defers to; authorship and role checks
// happen here regardless of what the UI showed.
package server

import (
	"database/sql"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/posthub/posthub/internal/logger"
	_ "modernc.org/sqlite"
)

// Server is the PostHub API server
type Server struct {
	db   *sql.DB
	echo *echo.Echo
}

// New creates a new server backed by the sqlite database at dbPath.
func New(dbPath string) (*Server, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	s := &Server{db: db}

	if err := s.migrate(); err != nil {
		return nil, err
	}

	s.setupEcho()

	return s, nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true

	// Request logging
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			res := c.Response()
			logger.Info("HTTP request",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("status", res.Status),
				logger.F("duration", time.Since(start).String()))

			return err
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	e.GET("/health", s.handleHealth)

	api := e.Group("/api")

	// Auth endpoints
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.GET("/auth/me", s.handleMe, s.authRequired)

	// Posts: reads are public, mutations authenticated
	api.GET("/posts", s.handleListPosts)
	api.GET("/posts/:id", s.handleGetPost)
	api.POST("/posts", s.handleCreatePost, s.authRequired)
	api.PUT("/posts/:id", s.handleUpdatePost, s.authRequired)
	api.DELETE("/posts/:id", s.handleDeletePost, s.authRequired)

	// Comments
	api.GET("/posts/:id/comments", s.handleListComments)
	api.POST("/posts/:id/comments", s.handleAddComment, s.authRequired)
	api.DELETE("/comments/:id", s.handleDeleteComment, s.authRequired)

	s.echo = e
}

// Close closes the database connection
func (s *Server) Close() error {
	return s.db.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
