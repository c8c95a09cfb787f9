package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/posthub/posthub/internal/model"
	"github.com/posthub/posthub/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.Open(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	return store
}

func TestBearerHeaderInjectedWhenLoggedIn(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]model.Post{})
	}))
	defer srv.Close()

	store := newTestStore(t)
	require.NoError(t, store.SetSession("tok-abc", &model.User{ID: 1, Username: "alice"}))

	client := NewClient(srv.URL, store)
	_, err := client.ListPosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestNoBearerHeaderWhenLoggedOut(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]model.Post{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))
	_, err := client.ListPosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", gotAuth)
}

func TestBearerHeaderTracksStoreAcrossRequests(t *testing.T) {
	var headers []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = append(headers, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]model.Post{})
	}))
	defer srv.Close()

	store := newTestStore(t)
	client := NewClient(srv.URL, store)

	_, err := client.ListPosts(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.SetSession("later", &model.User{ID: 1}))
	_, err = client.ListPosts(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.ClearSession())
	_, err = client.ListPosts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer later", ""}, headers)
}

func TestServerErrorBecomesRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "username or email already taken"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))
	_, err := client.Register(context.Background(), "alice", "", "pw", "")
	require.Error(t, err)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusConflict, remoteErr.Status)
	assert.Equal(t, "username or email already taken", remoteErr.Message)
}

func TestErrorBodyMessageKeyAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "title required"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))
	_, err := client.CreatePost(context.Background(), PostInput{})

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "title required", remoteErr.Message)
}

func TestNotFoundMatchesSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "post not found"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))
	_, err := client.GetPost(context.Background(), 999)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestForbiddenDoesNotMatchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))
	err := client.DeletePost(context.Background(), 1)
	assert.False(t, errors.Is(err, model.ErrNotFound))
}

func TestRequestPathsAndMethods(t *testing.T) {
	type seen struct{ method, path string }
	var last seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = seen{r.Method, r.URL.Path}
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api", newTestStore(t))
	ctx := context.Background()

	_, err := client.GetPost(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, seen{"GET", "/api/posts/5"}, last)

	_, err = client.UpdatePost(ctx, 5, PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, seen{"PUT", "/api/posts/5"}, last)

	require.NoError(t, client.DeleteComment(ctx, 9))
	assert.Equal(t, seen{"DELETE", "/api/comments/9"}, last)

	_, err = client.AddComment(ctx, 5, "hello")
	require.NoError(t, err)
	assert.Equal(t, seen{"POST", "/api/posts/5/comments"}, last)
}

func TestAddCommentSendsContent(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(model.Comment{ID: 1, PostID: 5, Content: body["content"]})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))
	comment, err := client.AddComment(context.Background(), 5, "nice post")
	require.NoError(t, err)
	assert.Equal(t, "nice post", body["content"])
	assert.Equal(t, int64(1), comment.ID)
}

func TestLoginDecodesAuthResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AuthResponse{
			Token: "tok",
			User:  model.User{ID: 2, Username: "demo"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))
	resp, err := client.Login(context.Background(), "demo", "demo123")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, "demo", resp.User.Username)
}

func TestConnectionFailureIsNotRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, newTestStore(t))
	_, err := client.ListPosts(context.Background())
	require.Error(t, err)

	var remoteErr *RemoteError
	assert.False(t, errors.As(err, &remoteErr))
}
