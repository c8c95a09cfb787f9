package server

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/posthub/posthub/internal/logger"
	"github.com/posthub/posthub/internal/model"
)

type commentRequest struct {
	Content string `json:"content"`
}

// handleListComments returns a post's comments, oldest first. Public.
func (s *Server) handleListComments(c echo.Context) error {
	postID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid post id"})
	}

	var exists int64
	err = s.db.QueryRowContext(c.Request().Context(),
		`SELECT id FROM posts WHERE id = ?`, postID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "post not found"})
		}
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	rows, err := s.db.QueryContext(c.Request().Context(), `
		SELECT cm.id, cm.post_id, cm.content, cm.created_at, u.id, u.username, u.name
		FROM comments cm JOIN users u ON u.id = cm.author_id
		WHERE cm.post_id = ?
		ORDER BY cm.created_at ASC, cm.id ASC`, postID)
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var cm model.Comment
		var author model.UserRef
		var createdAt string
		if err := rows.Scan(&cm.ID, &cm.PostID, &cm.Content, &createdAt,
			&author.ID, &author.Username, &author.Name); err != nil {
			logger.Error("db error", logger.F("error", err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		cm.Author = &author
		cm.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		comments = append(comments, cm)
	}

	return c.JSON(http.StatusOK, comments)
}

// handleAddComment attaches a comment to a post. The response carries the
// server-assigned id; the client appends it as-is.
func (s *Server) handleAddComment(c echo.Context) error {
	postID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid post id"})
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Content == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "content required"})
	}

	var exists int64
	err = s.db.QueryRowContext(c.Request().Context(),
		`SELECT id FROM posts WHERE id = ?`, postID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "post not found"})
		}
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	user := currentUser(c)
	now := time.Now().UTC()

	res, err := s.db.ExecContext(c.Request().Context(), `
		INSERT INTO comments (post_id, author_id, content, created_at)
		VALUES (?, ?, ?, ?)`,
		postID, user.ID, req.Content, now.Format(time.RFC3339))
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	id, _ := res.LastInsertId()
	logger.Info("Comment added", logger.F("post", postID), logger.F("author", user.Username))

	return c.JSON(http.StatusCreated, model.Comment{
		ID:        id,
		PostID:    postID,
		Content:   req.Content,
		Author:    user.Ref(),
		CreatedAt: now,
	})
}

// handleDeleteComment removes a comment. Allowed for the comment's author
// or an admin.
func (s *Server) handleDeleteComment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid comment id"})
	}

	user := currentUser(c)

	var authorID int64
	err = s.db.QueryRowContext(c.Request().Context(),
		`SELECT author_id FROM comments WHERE id = ?`, id).Scan(&authorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "comment not found"})
		}
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if authorID != user.ID && user.Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "not allowed to delete this comment"})
	}

	if _, err := s.db.ExecContext(c.Request().Context(), `DELETE FROM comments WHERE id = ?`, id); err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	logger.Info("Comment deleted", logger.F("id", id), logger.F("by", user.Username))
	return c.NoContent(http.StatusNoContent)
}
