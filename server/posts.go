package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/posthub/posthub/internal/logger"
	"github.com/posthub/posthub/internal/model"
)

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
}

// postColumns selects one post joined with its author and comment count.
const postColumns = `
	SELECT p.id, p.title, p.content, p.excerpt, p.like_count, p.created_at,
	       u.id, u.username, u.name,
	       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)
	FROM posts p JOIN users u ON u.id = p.author_id`

func scanPost(row interface{ Scan(...interface{}) error }) (*model.Post, error) {
	var p model.Post
	var author model.UserRef
	var createdAt string
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Excerpt, &p.LikeCount, &createdAt,
		&author.ID, &author.Username, &author.Name, &p.CommentCount)
	if err != nil {
		return nil, err
	}
	p.Author = &author
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// handleListPosts returns all posts, newest first. Public.
func (s *Server) handleListPosts(c echo.Context) error {
	rows, err := s.db.QueryContext(c.Request().Context(), postColumns+` ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			logger.Error("db error", logger.F("error", err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		posts = append(posts, *p)
	}

	return c.JSON(http.StatusOK, posts)
}

// handleGetPost returns one post. Public.
func (s *Server) handleGetPost(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid post id"})
	}

	p, err := scanPost(s.db.QueryRowContext(c.Request().Context(), postColumns+` WHERE p.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "post not found"})
		}
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, p)
}

// handleCreatePost publishes a post authored by the authenticated user.
func (s *Server) handleCreatePost(c echo.Context) error {
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Title == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title and content required"})
	}

	user := currentUser(c)
	now := time.Now().UTC()

	res, err := s.db.ExecContext(c.Request().Context(), `
		INSERT INTO posts (author_id, title, content, excerpt, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		user.ID, req.Title, req.Content, req.Excerpt, now.Format(time.RFC3339))
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	id, _ := res.LastInsertId()
	logger.Info("Post created", logger.F("id", id), logger.F("author", user.Username))

	return c.JSON(http.StatusCreated, model.Post{
		ID:        id,
		Title:     req.Title,
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		Author:    user.Ref(),
		CreatedAt: now,
	})
}

// handleUpdatePost replaces the editable fields. Only the author may update;
// the client-side check is advisory, this one is not.
func (s *Server) handleUpdatePost(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid post id"})
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Title == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title and content required"})
	}

	user := currentUser(c)

	var authorID int64
	err = s.db.QueryRowContext(c.Request().Context(),
		`SELECT author_id FROM posts WHERE id = ?`, id).Scan(&authorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "post not found"})
		}
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if authorID != user.ID {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "only the author may edit this post"})
	}

	_, err = s.db.ExecContext(c.Request().Context(), `
		UPDATE posts SET title = ?, content = ?, excerpt = ? WHERE id = ?`,
		req.Title, req.Content, req.Excerpt, id)
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	p, err := scanPost(s.db.QueryRowContext(c.Request().Context(), postColumns+` WHERE p.id = ?`, id))
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, p)
}

// handleDeletePost removes a post and its comments. Author only.
func (s *Server) handleDeletePost(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid post id"})
	}

	user := currentUser(c)

	var authorID int64
	err = s.db.QueryRowContext(c.Request().Context(),
		`SELECT author_id FROM posts WHERE id = ?`, id).Scan(&authorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "post not found"})
		}
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if authorID != user.ID {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "only the author may delete this post"})
	}

	if _, err := s.db.ExecContext(c.Request().Context(), `DELETE FROM comments WHERE post_id = ?`, id); err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if _, err := s.db.ExecContext(c.Request().Context(), `DELETE FROM posts WHERE id = ?`, id); err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	logger.Info("Post deleted", logger.F("id", id), logger.F("by", user.Username))
	return c.NoContent(http.StatusNoContent)
}
