package tui

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/posthub/posthub/internal/auth"
	"github.com/posthub/posthub/internal/model"
	"github.com/posthub/posthub/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider(t *testing.T) auth.Provider {
	t.Helper()
	store, err := session.Open(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	return auth.NewLocal(store)
}

func samplePosts() []model.Post {
	return []model.Post{
		{ID: 1, Title: "first", Author: &model.UserRef{ID: 1, Username: "alice"}},
		{ID: 2, Title: "second", Author: &model.UserRef{ID: 2, Username: "bob"}},
		{ID: 3, Title: "third", Author: &model.UserRef{ID: 1, Username: "alice"}},
	}
}

func postIDs(posts []model.Post) []int64 {
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func TestFeedAppliesLoadedPosts(t *testing.T) {
	m := newFeedModel(nil, testProvider(t))
	m.seq = 1
	m.loading = true

	m, _ = m.update(postsLoadedMsg{seq: 1, posts: samplePosts()})

	assert.False(t, m.loading)
	assert.Equal(t, []int64{1, 2, 3}, postIDs(m.posts))
}

func TestFeedDropsStaleLoad(t *testing.T) {
	m := newFeedModel(nil, testProvider(t))
	m.seq = 2
	m.loading = true

	// A response issued before the screen was re-entered must not apply.
	m, _ = m.update(postsLoadedMsg{seq: 1, posts: samplePosts()})

	assert.True(t, m.loading)
	assert.Empty(t, m.posts)
}

func TestFeedDeleteRemovesMatchingEntryInOrder(t *testing.T) {
	m := newFeedModel(nil, testProvider(t))
	m.posts = samplePosts()
	m.seq = 1

	m, _ = m.update(feedPostDeletedMsg{seq: 1, id: 2})

	assert.Equal(t, []int64{1, 3}, postIDs(m.posts))
}

func TestFeedFailedDeleteLeavesListIdentical(t *testing.T) {
	m := newFeedModel(nil, testProvider(t))
	m.posts = samplePosts()
	m.seq = 1
	m.deleting = true

	m, _ = m.update(feedPostDeletedMsg{seq: 1, id: 2, err: errors.New("boom")})

	assert.False(t, m.deleting)
	assert.Equal(t, []int64{1, 2, 3}, postIDs(m.posts))
}

func TestFeedDeleteAdjustsCursor(t *testing.T) {
	m := newFeedModel(nil, testProvider(t))
	m.posts = samplePosts()
	m.cursor = 2
	m.seq = 1

	m, _ = m.update(feedPostDeletedMsg{seq: 1, id: 3})

	assert.Equal(t, 1, m.cursor)
}

func TestFeedDeleteActionGuardsDoubleFire(t *testing.T) {
	m := newFeedModel(nil, testProvider(t))
	m.posts = samplePosts()
	m.seq = 1

	m, cmd := m.update(feedDeleteMsg{seq: 1, id: 1})
	require.NotNil(t, cmd)
	assert.True(t, m.deleting)

	// A second confirmed delete while one is in flight is ignored.
	_, cmd = m.update(feedDeleteMsg{seq: 1, id: 1})
	assert.Nil(t, cmd)
}

func TestFeedStaleDeleteActionIgnored(t *testing.T) {
	m := newFeedModel(nil, testProvider(t))
	m.posts = samplePosts()
	m.seq = 5

	_, cmd := m.update(feedDeleteMsg{seq: 4, id: 1})
	assert.Nil(t, cmd)
	assert.False(t, m.deleting)
}

func TestReaderAppendsServerComment(t *testing.T) {
	m := newReaderModel(nil, testProvider(t))
	m.seq = 1
	m.submitting = true
	m.composing = true
	m.comments = []model.Comment{
		{ID: 10, PostID: 1, Content: "earlier"},
	}

	added := &model.Comment{ID: 11, PostID: 1, Content: "fresh", Author: &model.UserRef{Username: "bob"}}
	m, _ = m.update(commentAddedMsg{seq: 1, comment: added})

	assert.False(t, m.submitting)
	assert.False(t, m.composing)
	require.Len(t, m.comments, 2)
	assert.Equal(t, int64(10), m.comments[0].ID)
	assert.Equal(t, int64(11), m.comments[1].ID)
}

func TestReaderStaleCommentResultDropped(t *testing.T) {
	m := newReaderModel(nil, testProvider(t))
	m.seq = 3
	m.submitting = true

	m, _ = m.update(commentAddedMsg{seq: 2, comment: &model.Comment{ID: 1}})

	assert.Empty(t, m.comments)
}

func TestReaderCommentDeleteRemovesMatchingEntry(t *testing.T) {
	m := newReaderModel(nil, testProvider(t))
	m.seq = 1
	m.comments = []model.Comment{
		{ID: 10, Content: "a"},
		{ID: 11, Content: "b"},
		{ID: 12, Content: "c"},
	}

	m, _ = m.update(commentDeletedMsg{seq: 1, id: 11})

	require.Len(t, m.comments, 2)
	assert.Equal(t, int64(10), m.comments[0].ID)
	assert.Equal(t, int64(12), m.comments[1].ID)
}

func TestReaderFailedCommentDeleteLeavesListIdentical(t *testing.T) {
	m := newReaderModel(nil, testProvider(t))
	m.seq = 1
	m.deletingComment = true
	m.comments = []model.Comment{{ID: 10}, {ID: 11}}

	m, _ = m.update(commentDeletedMsg{seq: 1, id: 10, err: errors.New("boom")})

	assert.False(t, m.deletingComment)
	assert.Len(t, m.comments, 2)
}

func TestReaderPostDeleteNavigatesToFeed(t *testing.T) {
	m := newReaderModel(nil, testProvider(t))
	m.seq = 1
	m.deletingPost = true

	m, cmd := m.update(readerPostDeletedMsg{seq: 1})
	require.NotNil(t, cmd)
	assert.False(t, m.deletingPost)
	assert.IsType(t, showFeedMsg{}, cmd())
}

func TestReaderFailedPostDeleteStays(t *testing.T) {
	m := newReaderModel(nil, testProvider(t))
	m.seq = 1
	m.deletingPost = true

	m, cmd := m.update(readerPostDeletedMsg{seq: 1, err: errors.New("boom")})
	require.NotNil(t, cmd)
	assert.False(t, m.deletingPost)
	assert.IsType(t, statusMsg(""), cmd())
}

func loadedEditor(t *testing.T) editorModel {
	t.Helper()
	m := newEditorModel(nil)
	m, _ = m.open(5)
	m, _ = m.update(editorLoadedMsg{seq: m.seq, post: &model.Post{
		ID: 5, Title: "title", Excerpt: "excerpt", Content: "content",
	}})
	require.Equal(t, editorEditing, m.state)
	return m
}

func TestEditorCancelCleanEditGoesStraightBack(t *testing.T) {
	m := loadedEditor(t)

	cmd := m.cancel()
	require.NotNil(t, cmd)
	assert.Equal(t, showReaderMsg{postID: 5}, cmd())
}

func TestEditorCancelDirtyEditConfirms(t *testing.T) {
	m := loadedEditor(t)
	m.content.SetValue("content, reworked")

	cmd := m.cancel()
	require.NotNil(t, cmd)
	req, ok := cmd().(confirmRequestMsg)
	require.True(t, ok)
	assert.Equal(t, showReaderMsg{postID: 5}, req.accept)
}

func TestEditorCancelRevertedEditGoesStraightBack(t *testing.T) {
	m := loadedEditor(t)
	m.title.SetValue("changed")
	m.title.SetValue("title")

	cmd := m.cancel()
	require.NotNil(t, cmd)
	assert.Equal(t, showReaderMsg{postID: 5}, cmd())
}

func TestEditorCancelCleanCreateGoesStraightBack(t *testing.T) {
	m := newEditorModel(nil)
	m, _ = m.open(0)

	cmd := m.cancel()
	require.NotNil(t, cmd)
	assert.Equal(t, showFeedMsg{}, cmd())
}

func TestEditorCancelDirtyCreateConfirms(t *testing.T) {
	m := newEditorModel(nil)
	m, _ = m.open(0)
	m.title.SetValue("draft")

	cmd := m.cancel()
	require.NotNil(t, cmd)
	req, ok := cmd().(confirmRequestMsg)
	require.True(t, ok)
	assert.Equal(t, showFeedMsg{}, req.accept)
}

func TestReaderLoadedNotFound(t *testing.T) {
	m := newReaderModel(nil, testProvider(t))
	m.seq = 1
	m.loading = true

	m, _ = m.update(readerLoadedMsg{seq: 1, err: model.ErrNotFound})

	assert.False(t, m.loading)
	assert.Equal(t, "Post not found.", m.errMsg)
	assert.Nil(t, m.post)
}
