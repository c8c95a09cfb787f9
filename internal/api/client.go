// Package api is the HTTP resource client for the PostHub backend. One
// configured transport serves every posts/comments/auth operation; bearer
// injection happens in a single place, and every failure resolves to an
// error carrying the server's message and status when available.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/posthub/posthub/internal/logger"
	"github.com/posthub/posthub/internal/model"
	"github.com/posthub/posthub/internal/session"
)

// RemoteError is the uniform failure for network-level errors and non-2xx
// responses. Message is the server-supplied error text when one was sent.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.Status)
}

// Is lets a 404 satisfy errors.Is(err, model.ErrNotFound).
func (e *RemoteError) Is(target error) bool {
	return target == model.ErrNotFound && e.Status == http.StatusNotFound
}

// bearerTransport attaches the stored token to every outgoing request. With
// no session present the request goes out unauthenticated; the server owns
// rejection.
type bearerTransport struct {
	store *session.Store
	next  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.store.Token(); token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return t.next.RoundTrip(req)
}

// Client is the resource client. Construct one per process with NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a resource client rooted at baseURL (e.g.
// "http://localhost:8080/api"). The session store feeds the bearer header.
func NewClient(baseURL string, store *session.Store) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: &bearerTransport{store: store, next: http.DefaultTransport},
		},
	}
}

// do performs one round trip: marshal body, send, map non-2xx to
// RemoteError, decode into out when given. No retries, no caching.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	logger.Debug("HTTP round trip",
		logger.F("method", method),
		logger.F("path", path),
		logger.F("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage pulls the human-readable message out of an error body,
// accepting both {"error": ...} and {"message": ...} shapes.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return ""
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt,omitempty"`
}

// AuthResponse is the login/register payload.
type AuthResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// ListPosts fetches all posts. Public endpoint.
func (c *Client) ListPosts(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	if err := c.do(ctx, http.MethodGet, "/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost fetches one post by id. Public endpoint.
func (c *Client) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	var post model.Post
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost publishes a new post.
func (c *Client) CreatePost(ctx context.Context, in PostInput) (*model.Post, error) {
	var post model.Post
	if err := c.do(ctx, http.MethodPost, "/posts", in, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost replaces the editable fields of a post.
func (c *Client) UpdatePost(ctx context.Context, id int64, in PostInput) (*model.Post, error) {
	var post model.Post
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/posts/%d", id), in, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", id), nil, nil)
}

// ListComments fetches the comments of a post. Public endpoint.
func (c *Client) ListComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	var comments []model.Comment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d/comments", postID), nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment attaches a comment to a post and returns it with its
// server-assigned id.
func (c *Client) AddComment(ctx context.Context, postID int64, content string) (*model.Comment, error) {
	body := map[string]string{"content": content}
	var comment model.Comment
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d/comments", postID), body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/comments/%d", id), nil, nil)
}

// Login authenticates against the backend. The identifier may be a username
// or an email.
func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) (*AuthResponse, error) {
	body := map[string]string{"username": usernameOrEmail, "password": password}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account on the backend.
func (c *Client) Register(ctx context.Context, username, email, password, name string) (*AuthResponse, error) {
	body := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
		"name":     name,
	}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me fetches the authenticated user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
