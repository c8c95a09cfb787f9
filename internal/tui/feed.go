package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/posthub/posthub/internal/api"
	"github.com/posthub/posthub/internal/auth"
	"github.com/posthub/posthub/internal/logger"
	"github.com/posthub/posthub/internal/model"
)

// feedModel is the post-list coordinator. It owns the local list of posts;
// a successful remote delete removes the matching entry in place (no
// refetch), a failed one leaves the list untouched.
type feedModel struct {
	client   *api.Client
	provider auth.Provider

	posts  []model.Post
	cursor int

	loading  bool
	deleting bool
	seq      int
	errMsg   string
}

// Feed result and action messages. Every result carries the sequence number
// of the request that produced it.
type (
	postsLoadedMsg struct {
		seq   int
		posts []model.Post
		err   error
	}
	// feedDeleteMsg is the confirmed delete action.
	feedDeleteMsg struct {
		seq int
		id  int64
	}
	feedPostDeletedMsg struct {
		seq int
		id  int64
		err error
	}
)

func newFeedModel(client *api.Client, provider auth.Provider) feedModel {
	return feedModel{client: client, provider: provider}
}

// invalidate drops any in-flight responses on the floor.
func (m *feedModel) invalidate() {
	m.seq++
}

// reload fetches the post list. Each visit to the feed refetches; that is
// how staleness against other sessions is resolved.
func (m *feedModel) reload() tea.Cmd {
	m.seq++
	m.loading = true
	m.errMsg = ""
	seq, client := m.seq, m.client
	return func() tea.Msg {
		posts, err := client.ListPosts(context.Background())
		return postsLoadedMsg{seq: seq, posts: posts, err: err}
	}
}

func (m feedModel) update(msg tea.Msg) (feedModel, tea.Cmd) {
	switch msg := msg.(type) {
	case postsLoadedMsg:
		if msg.seq != m.seq {
			return m, nil // response for a screen the user already left
		}
		m.loading = false
		if msg.err != nil {
			logger.Error("Failed to load posts", logger.F("error", msg.err))
			m.errMsg = "Failed to load posts. Please try again later."
			return m, nil
		}
		m.posts = msg.posts
		if m.cursor >= len(m.posts) {
			m.cursor = 0
		}
		return m, nil

	case feedDeleteMsg:
		if msg.seq != m.seq || m.deleting {
			return m, nil
		}
		m.deleting = true
		seq, client, id := m.seq, m.client, msg.id
		return m, func() tea.Msg {
			err := client.DeletePost(context.Background(), id)
			return feedPostDeletedMsg{seq: seq, id: id, err: err}
		}

	case feedPostDeletedMsg:
		m.deleting = false
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			logger.Error("Failed to delete post", logger.F("id", msg.id), logger.F("error", msg.err))
			return m, notify("Failed to delete post. Please try again.")
		}
		// Remove exactly the matching entry, preserving order.
		for i, p := range m.posts {
			if p.ID == msg.id {
				m.posts = append(m.posts[:i], m.posts[i+1:]...)
				break
			}
		}
		if m.cursor >= len(m.posts) && m.cursor > 0 {
			m.cursor--
		}
		return m, notify("Post deleted")

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m feedModel) updateKeys(msg tea.KeyMsg) (feedModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.posts)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Refresh):
		return m, m.reload()

	case key.Matches(msg, keys.Enter):
		if p := m.current(); p != nil {
			id := p.ID
			return m, func() tea.Msg { return showReaderMsg{postID: id} }
		}

	case key.Matches(msg, keys.New):
		if m.provider.CurrentUser() == nil {
			return m, func() tea.Msg { return showLoginMsg{} }
		}
		return m, func() tea.Msg { return showEditorMsg{postID: 0} }

	case key.Matches(msg, keys.Edit):
		if p := m.current(); p != nil && p.EditableBy(m.provider.CurrentUser()) {
			id := p.ID
			return m, func() tea.Msg { return showEditorMsg{postID: id} }
		}

	case key.Matches(msg, keys.Delete):
		if p := m.current(); p != nil && p.EditableBy(m.provider.CurrentUser()) {
			return m, confirmCmd(
				"Are you sure you want to delete this post?",
				feedDeleteMsg{seq: m.seq, id: p.ID})
		}

	case key.Matches(msg, keys.SignIn):
		return m, func() tea.Msg { return showLoginMsg{} }

	case key.Matches(msg, keys.Logout):
		if m.provider.CurrentUser() == nil {
			return m, notify("Not signed in")
		}
		if err := m.provider.Logout(context.Background()); err != nil {
			return m, notify(fmt.Sprintf("Logout error: %v", err))
		}
		return m, notify("Signed out")
	}
	return m, nil
}

func (m *feedModel) current() *model.Post {
	if m.cursor < len(m.posts) {
		return &m.posts[m.cursor]
	}
	return nil
}

func (m feedModel) view(width, height int) string {
	var s string
	s += HeaderStyle.Render("PostHub · Latest Posts") + "\n"
	s += BylineStyle.Render("Discover the latest stories from the community") + "\n\n"

	switch {
	case m.loading:
		s += HelpStyle.Render("Loading posts...")
	case m.errMsg != "":
		s += ErrorStyle.Render(m.errMsg) + "\n"
		s += HelpStyle.Render("Press r to try again.")
	case len(m.posts) == 0:
		s += HelpStyle.Render("No posts yet. Be the first to share your story!")
		if m.provider.CurrentUser() != nil {
			s += "\n" + HelpStyle.Render("Press n to write your first post.")
		}
	default:
		user := m.provider.CurrentUser()
		for i, p := range m.posts {
			s += m.renderPost(i, &p, user, width) + "\n"
		}
	}

	return ListStyle.Width(width).Height(height).Render(s)
}

func (m feedModel) renderPost(i int, p *model.Post, user *model.User, width int) string {
	cursor := "  "
	style := ItemStyle
	if i == m.cursor {
		cursor = "❯ "
		style = ItemSelectedStyle
	}

	title := truncate(p.Title, width-30)
	byline := fmt.Sprintf("%s · %s", p.Author.DisplayName(), formatDate(p.CreatedAt))
	stats := fmt.Sprintf("💬 %d  ♥ %d", p.CommentCount, p.LikeCount)
	if p.EditableBy(user) {
		stats += "  (yours)"
	}

	line := style.Render(cursor+title) + "\n" +
		"    " + BylineStyle.Render(byline) + "  " + StatStyle.Render(stats)
	if i == m.cursor {
		line += "\n    " + HelpStyle.Render(truncate(p.Summary(150), width-8))
	}
	return line
}

// notify raises a status-bar notification.
func notify(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg(text) }
}

// confirmCmd asks the app shell for interactive confirmation before
// dispatching accept.
func confirmCmd(prompt string, accept tea.Msg) tea.Cmd {
	return func() tea.Msg { return confirmRequestMsg{prompt: prompt, accept: accept} }
}
