package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/posthub/posthub/internal/api"
	"github.com/posthub/posthub/internal/auth"
	"github.com/posthub/posthub/internal/logger"
	"github.com/posthub/posthub/internal/model"
)

// readerModel is the post-detail coordinator. It owns the post and its
// comment list; a successful comment add appends the server-returned comment
// (with its assigned id) as the last element, a successful comment delete
// removes exactly the matching entry.
type readerModel struct {
	client   *api.Client
	provider auth.Provider

	width  int
	height int

	postID   int64
	post     *model.Post
	comments []model.Comment
	rendered string // glamour-rendered post body
	scroll   int

	commentCursor int
	composing     bool
	input         textarea.Model

	loading         bool
	submitting      bool
	deletingComment bool
	deletingPost    bool
	seq             int
	errMsg          string
}

type (
	readerLoadedMsg struct {
		seq      int
		post     *model.Post
		comments []model.Comment
		err      error
	}
	commentAddedMsg struct {
		seq     int
		comment *model.Comment
		err     error
	}
	// commentDeleteMsg is the confirmed comment-delete action.
	commentDeleteMsg struct {
		seq int
		id  int64
	}
	commentDeletedMsg struct {
		seq int
		id  int64
		err error
	}
	// readerDeleteMsg is the confirmed post-delete action.
	readerDeleteMsg struct {
		seq int
		id  int64
	}
	readerPostDeletedMsg struct {
		seq int
		err error
	}
)

func newReaderModel(client *api.Client, provider auth.Provider) readerModel {
	ta := textarea.New()
	ta.Placeholder = "Share your thoughts..."
	ta.SetHeight(3)
	ta.CharLimit = 2000
	return readerModel{client: client, provider: provider, input: ta}
}

func (m *readerModel) invalidate() {
	m.seq++
}

func (m *readerModel) resize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 8)
	m.rerender()
}

// open resets the screen for a post and fetches it together with its
// comments, mirroring the detail page's parallel fetch.
func (m readerModel) open(postID int64) (readerModel, tea.Cmd) {
	m.seq++
	m.postID = postID
	m.post = nil
	m.comments = nil
	m.rendered = ""
	m.scroll = 0
	m.commentCursor = 0
	m.composing = false
	m.loading = true
	m.submitting = false
	m.deletingComment = false
	m.deletingPost = false
	m.errMsg = ""
	m.input.Reset()

	seq, client := m.seq, m.client
	return m, func() tea.Msg {
		ctx := context.Background()
		post, err := client.GetPost(ctx, postID)
		if err != nil {
			return readerLoadedMsg{seq: seq, err: err}
		}
		comments, err := client.ListComments(ctx, postID)
		if err != nil {
			return readerLoadedMsg{seq: seq, err: err}
		}
		return readerLoadedMsg{seq: seq, post: post, comments: comments}
	}
}

// rerender re-runs the markdown renderer at the current width.
func (m *readerModel) rerender() {
	if m.post == nil {
		return
	}
	width := m.width - 6
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err == nil {
		if out, rerr := r.Render(m.post.Content); rerr == nil {
			m.rendered = out
			return
		}
	}
	m.rendered = m.post.Content
}

func (m readerModel) update(msg tea.Msg) (readerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case readerLoadedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			logger.Error("Failed to load post", logger.F("id", m.postID), logger.F("error", msg.err))
			if errors.Is(msg.err, model.ErrNotFound) {
				m.errMsg = "Post not found."
			} else {
				m.errMsg = "Post not found or failed to load."
			}
			return m, nil
		}
		m.post = msg.post
		m.comments = msg.comments
		m.rerender()
		return m, nil

	case commentAddedMsg:
		m.submitting = false
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			logger.Error("Failed to add comment", logger.F("error", msg.err))
			return m, notify("Failed to add comment. Please try again.")
		}
		// Append after remote success; prior elements keep their order.
		m.comments = append(m.comments, *msg.comment)
		m.composing = false
		m.input.Reset()
		return m, notify("Comment added")

	case commentDeleteMsg:
		if msg.seq != m.seq || m.deletingComment {
			return m, nil
		}
		m.deletingComment = true
		seq, client, id := m.seq, m.client, msg.id
		return m, func() tea.Msg {
			err := client.DeleteComment(context.Background(), id)
			return commentDeletedMsg{seq: seq, id: id, err: err}
		}

	case commentDeletedMsg:
		m.deletingComment = false
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			logger.Error("Failed to delete comment", logger.F("id", msg.id), logger.F("error", msg.err))
			return m, notify("Failed to delete comment. Please try again.")
		}
		for i, c := range m.comments {
			if c.ID == msg.id {
				m.comments = append(m.comments[:i], m.comments[i+1:]...)
				break
			}
		}
		if m.commentCursor >= len(m.comments) && m.commentCursor > 0 {
			m.commentCursor--
		}
		return m, notify("Comment deleted")

	case readerDeleteMsg:
		if msg.seq != m.seq || m.deletingPost {
			return m, nil
		}
		m.deletingPost = true
		seq, client, id := m.seq, m.client, msg.id
		return m, func() tea.Msg {
			err := client.DeletePost(context.Background(), id)
			return readerPostDeletedMsg{seq: seq, err: err}
		}

	case readerPostDeletedMsg:
		m.deletingPost = false
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			logger.Error("Failed to delete post", logger.F("id", m.postID), logger.F("error", msg.err))
			return m, notify("Failed to delete post. Please try again.")
		}
		return m, func() tea.Msg { return showFeedMsg{} }

	case tea.KeyMsg:
		if m.composing {
			return m.updateCompose(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m readerModel) updateCompose(msg tea.KeyMsg) (readerModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.composing = false
		m.input.Reset()
		return m, nil

	case key.Matches(msg, keys.Submit):
		content := strings.TrimSpace(m.input.Value())
		if content == "" {
			return m, nil
		}
		if m.submitting {
			return m, nil // one submit at a time
		}
		m.submitting = true
		seq, client, postID := m.seq, m.client, m.postID
		return m, func() tea.Msg {
			comment, err := client.AddComment(context.Background(), postID, content)
			return commentAddedMsg{seq: seq, comment: comment, err: err}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m readerModel) updateKeys(msg tea.KeyMsg) (readerModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Back):
		return m, func() tea.Msg { return showFeedMsg{} }

	case key.Matches(msg, keys.Up):
		if m.scroll > 0 {
			m.scroll--
		}

	case key.Matches(msg, keys.Down):
		m.scroll++

	case msg.String() == "K":
		if m.commentCursor > 0 {
			m.commentCursor--
		}

	case msg.String() == "J":
		if m.commentCursor < len(m.comments)-1 {
			m.commentCursor++
		}

	case key.Matches(msg, keys.Refresh):
		return m.open(m.postID)

	case key.Matches(msg, keys.Comment):
		if m.provider.CurrentUser() == nil {
			return m, func() tea.Msg { return showLoginMsg{} }
		}
		m.composing = true
		m.input.Focus()
		return m, textarea.Blink

	case key.Matches(msg, keys.Edit):
		if m.post != nil && m.post.EditableBy(m.provider.CurrentUser()) {
			id := m.post.ID
			return m, func() tea.Msg { return showEditorMsg{postID: id} }
		}

	case key.Matches(msg, keys.Delete):
		if c := m.currentComment(); c != nil && c.DeletableBy(m.provider.CurrentUser()) {
			return m, confirmCmd(
				"Are you sure you want to delete this comment?",
				commentDeleteMsg{seq: m.seq, id: c.ID})
		}

	case msg.String() == "D":
		if m.post != nil && m.post.EditableBy(m.provider.CurrentUser()) {
			return m, confirmCmd(
				"Are you sure you want to delete this post?",
				readerDeleteMsg{seq: m.seq, id: m.post.ID})
		}
	}
	return m, nil
}

func (m *readerModel) currentComment() *model.Comment {
	if m.commentCursor < len(m.comments) {
		return &m.comments[m.commentCursor]
	}
	return nil
}

func (m readerModel) view(width, height int) string {
	if m.loading {
		return ListStyle.Width(width).Height(height).Render(HelpStyle.Render("Loading post..."))
	}
	if m.errMsg != "" || m.post == nil {
		s := ErrorStyle.Render("Post Not Found") + "\n\n" +
			HelpStyle.Render(m.errMsg) + "\n\n" +
			HelpStyle.Render("Press esc to go back.")
		return ListStyle.Width(width).Height(height).Render(s)
	}

	var s string
	s += TitleStyle.Render(m.post.Title) + "\n"
	s += BylineStyle.Render(fmt.Sprintf("%s · %s", m.post.Author.DisplayName(), formatDate(m.post.CreatedAt))) + "\n\n"
	s += m.rendered + "\n"
	s += strings.Repeat("─", min(width-6, 60)) + "\n"
	s += TitleStyle.Render(fmt.Sprintf("Comments (%d)", len(m.comments))) + "\n\n"

	if m.composing {
		s += m.input.View() + "\n"
		s += HelpStyle.Render("ctrl+s:post  esc:cancel") + "\n\n"
	} else if m.provider.CurrentUser() == nil {
		s += HelpStyle.Render("Sign in to leave a comment (press i on the feed).") + "\n\n"
	}

	if len(m.comments) == 0 {
		s += HelpStyle.Render("No comments yet. Be the first to share your thoughts!")
	}
	user := m.provider.CurrentUser()
	for i, c := range m.comments {
		cursor := "  "
		style := ItemStyle
		if i == m.commentCursor {
			cursor = "❯ "
			style = ItemSelectedStyle
		}
		head := fmt.Sprintf("%s%s · %s", cursor, c.Author.DisplayName(), formatDateTime(c.CreatedAt))
		if c.DeletableBy(user) {
			head += "  [d:delete]"
		}
		s += style.Render(head) + "\n"
		s += "    " + truncate(c.Content, width-8) + "\n"
	}

	// Window the body by scroll offset.
	lines := strings.Split(s, "\n")
	if m.scroll > len(lines)-1 {
		lines = nil
	} else {
		lines = lines[m.scroll:]
	}
	if len(lines) > height-2 {
		lines = lines[:height-2]
	}

	return ListStyle.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}
