package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/posthub/posthub/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

type authPayload struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func register(t *testing.T, ts *httptest.Server, username, email, password string) authPayload {
	t.Helper()
	resp, body := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
		"name":     username,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out authPayload
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func createPost(t *testing.T, ts *httptest.Server, token, title string) model.Post {
	t.Helper()
	resp, body := doJSON(t, ts, http.MethodPost, "/api/posts", token, map[string]string{
		"title":   title,
		"content": "Some **markdown** content.",
		"excerpt": "Some excerpt",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var post model.Post
	require.NoError(t, json.Unmarshal(body, &post))
	return post
}

func TestRegisterLoginMe(t *testing.T) {
	ts := newTestServer(t)

	reg := register(t, ts, "alice", "alice@example.com", "secret")
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "alice", reg.User.Username)
	assert.Equal(t, model.RoleUser, reg.User.Role)
	assert.Empty(t, reg.User.Password)

	// Login by email, different case.
	resp, body := doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "Alice@Example.com",
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var login authPayload
	require.NoError(t, json.Unmarshal(body, &login))
	assert.Equal(t, reg.User.ID, login.User.ID)
	assert.NotEqual(t, reg.Token, login.Token)

	resp, body = doJSON(t, ts, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me model.User
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "alice", me.Username)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice", "alice@example.com", "secret")

	resp, body := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ALICE",
		"password": "other",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "already taken")
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice", "", "secret")

	resp, _ := doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, ts, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodGet, "/api/auth/me", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodPost, "/api/posts", "", map[string]string{
		"title": "t", "content": "c",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPostLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice", "", "pw")

	created := createPost(t, ts, alice.Token, "First post")
	assert.NotZero(t, created.ID)
	require.NotNil(t, created.Author)
	assert.Equal(t, "alice", created.Author.Username)

	// Public list includes it with a zero comment count.
	resp, body := doJSON(t, ts, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var posts []model.Post
	require.NoError(t, json.Unmarshal(body, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, 0, posts[0].CommentCount)

	// Update.
	resp, body = doJSON(t, ts, http.MethodPut, fmt.Sprintf("/api/posts/%d", created.ID), alice.Token, map[string]string{
		"title":   "Renamed",
		"content": "New content",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated model.Post
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "Renamed", updated.Title)

	// Delete, then 404.
	resp, _ = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/posts/%d", created.ID), alice.Token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/posts/%d", created.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostMutationsAuthorOnly(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice", "", "pw")
	bob := register(t, ts, "bob", "", "pw")

	post := createPost(t, ts, alice.Token, "Alice's post")

	resp, _ := doJSON(t, ts, http.MethodPut, fmt.Sprintf("/api/posts/%d", post.ID), bob.Token, map[string]string{
		"title": "hijack", "content": "x",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Still there.
	resp, _ = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMissingPostIs404(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice", "", "pw")

	resp, _ := doJSON(t, ts, http.MethodGet, "/api/posts/999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodPut, "/api/posts/999", alice.Token, map[string]string{
		"title": "t", "content": "c",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodDelete, "/api/posts/999", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestComments(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice", "", "pw")
	bob := register(t, ts, "bob", "", "pw")

	post := createPost(t, ts, alice.Token, "Commented post")

	resp, body := doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), bob.Token, map[string]string{
		"content": "great read",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var comment model.Comment
	require.NoError(t, json.Unmarshal(body, &comment))
	assert.NotZero(t, comment.ID)
	assert.Equal(t, post.ID, comment.PostID)
	require.NotNil(t, comment.Author)
	assert.Equal(t, "bob", comment.Author.Username)

	// Listing is public and includes the comment.
	resp, body = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", post.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var comments []model.Comment
	require.NoError(t, json.Unmarshal(body, &comments))
	require.Len(t, comments, 1)

	// The post's comment count reflects it.
	resp, body = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched model.Post
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, 1, fetched.CommentCount)

	// Alice is neither the comment author nor an admin.
	resp, _ = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/comments/%d", comment.ID), alice.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Bob deletes his own comment.
	resp, _ = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/comments/%d", comment.ID), bob.Token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/comments/%d", comment.ID), bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommentOnMissingPost(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice", "", "pw")

	resp, _ := doJSON(t, ts, http.MethodPost, "/api/posts/999/comments", alice.Token, map[string]string{
		"content": "hello",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodGet, "/api/posts/999/comments", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := doJSON(t, ts, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ok")
}
