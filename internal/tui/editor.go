package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/posthub/posthub/internal/api"
	"github.com/posthub/posthub/internal/logger"
	"github.com/posthub/posthub/internal/model"
)

// editorState is the post editor's lifecycle: Idle → Loading (existing post)
// → Editing → Submitting → navigate away on success, or back to Editing with
// an error notice on failure.
type editorState int

const (
	editorIdle editorState = iota
	editorLoading
	editorEditing
	editorSubmitting
)

// Focusable fields, in tab order.
const (
	fieldTitle = iota
	fieldExcerpt
	fieldContent
	fieldCount
)

// editorModel is the create/edit coordinator. It holds a working copy of the
// form only; on success it navigates away and the target view refetches, so
// no local collection needs mutating here.
type editorModel struct {
	client *api.Client

	width  int
	height int

	postID int64 // 0 while creating
	state  editorState
	focus  int

	title   textinput.Model
	excerpt textinput.Model
	content textarea.Model

	// Snapshot of the form as loaded; blank for a new post. cancel()
	// confirms discard only when the current values differ from it.
	loadedTitle   string
	loadedExcerpt string
	loadedContent string

	seq    int
	errMsg string
}

type (
	editorLoadedMsg struct {
		seq  int
		post *model.Post
		err  error
	}
	postSavedMsg struct {
		seq  int
		post *model.Post
		err  error
	}
)

func newEditorModel(client *api.Client) editorModel {
	title := textinput.New()
	title.Placeholder = "Enter a compelling title..."
	title.CharLimit = 200

	excerpt := textinput.New()
	excerpt.Placeholder = "Brief description of your post (optional)..."
	excerpt.CharLimit = 300

	content := textarea.New()
	content.Placeholder = "Write your post content here... (Markdown supported)"
	content.SetHeight(12)

	return editorModel{client: client, state: editorIdle, title: title, excerpt: excerpt, content: content}
}

func (m *editorModel) invalidate() {
	m.seq++
}

func (m *editorModel) resize(width, height int) {
	m.width = width
	m.height = height
	m.title.Width = width - 10
	m.excerpt.Width = width - 10
	m.content.SetWidth(width - 10)
}

// open prepares the editor. With a post id the existing post is fetched to
// populate the working copy; with 0 the form starts blank.
func (m editorModel) open(postID int64) (editorModel, tea.Cmd) {
	m.seq++
	m.postID = postID
	m.errMsg = ""
	m.focus = fieldTitle
	m.title.Reset()
	m.excerpt.Reset()
	m.content.Reset()
	m.loadedTitle = ""
	m.loadedExcerpt = ""
	m.loadedContent = ""
	m.setFocus(fieldTitle)

	if postID == 0 {
		m.state = editorEditing
		return m, textinput.Blink
	}

	m.state = editorLoading
	seq, client := m.seq, m.client
	return m, func() tea.Msg {
		post, err := client.GetPost(context.Background(), postID)
		return editorLoadedMsg{seq: seq, post: post, err: err}
	}
}

func (m *editorModel) setFocus(field int) {
	m.focus = field
	m.title.Blur()
	m.excerpt.Blur()
	m.content.Blur()
	switch field {
	case fieldTitle:
		m.title.Focus()
	case fieldExcerpt:
		m.excerpt.Focus()
	case fieldContent:
		m.content.Focus()
	}
}

// dirty reports whether the form differs from what was loaded (or from
// blank, for a new post).
func (m editorModel) dirty() bool {
	return m.title.Value() != m.loadedTitle ||
		m.excerpt.Value() != m.loadedExcerpt ||
		m.content.Value() != m.loadedContent
}

func (m editorModel) update(msg tea.Msg) (editorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case editorLoadedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			logger.Error("Failed to load post for editing",
				logger.F("id", m.postID), logger.F("error", msg.err))
			return m, tea.Batch(
				notify("Failed to load post. Please try again."),
				func() tea.Msg { return showFeedMsg{} })
		}
		m.state = editorEditing
		m.title.SetValue(msg.post.Title)
		m.excerpt.SetValue(msg.post.Excerpt)
		m.content.SetValue(msg.post.Content)
		m.loadedTitle = msg.post.Title
		m.loadedExcerpt = msg.post.Excerpt
		m.loadedContent = msg.post.Content
		return m, textinput.Blink

	case postSavedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			// Back to Editing; the user retries or cancels.
			m.state = editorEditing
			logger.Error("Failed to save post", logger.F("error", msg.err))
			if m.postID == 0 {
				m.errMsg = "Failed to create post. Please try again."
			} else {
				m.errMsg = "Failed to update post. Please try again."
			}
			return m, nil
		}
		if m.postID == 0 {
			// The feed reloads on entry; nothing to insert locally.
			return m, tea.Batch(notify("Post published"),
				func() tea.Msg { return showFeedMsg{} })
		}
		id := m.postID
		return m, tea.Batch(notify("Post updated"),
			func() tea.Msg { return showReaderMsg{postID: id} })

	case tea.KeyMsg:
		if m.state != editorEditing {
			return m, nil // Loading and Submitting ignore input
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m editorModel) updateKeys(msg tea.KeyMsg) (editorModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		return m, m.cancel()

	case key.Matches(msg, keys.Switch):
		m.setFocus((m.focus + 1) % fieldCount)
		return m, nil

	case msg.String() == "shift+tab":
		m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		return m, nil

	case key.Matches(msg, keys.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldTitle:
		m.title, cmd = m.title.Update(msg)
	case fieldExcerpt:
		m.excerpt, cmd = m.excerpt.Update(msg)
	case fieldContent:
		m.content, cmd = m.content.Update(msg)
	}
	return m, cmd
}

// cancel leaves the editor: straight back when clean, after confirmation
// when there are unsaved changes.
func (m editorModel) cancel() tea.Cmd {
	var back tea.Msg = showFeedMsg{}
	if m.postID != 0 {
		back = showReaderMsg{postID: m.postID}
	}
	if m.dirty() {
		return confirmCmd("Are you sure you want to discard your changes?", back)
	}
	b := back
	return func() tea.Msg { return b }
}

// submit validates the working copy and issues the remote create or update.
// A second submit while one is in flight is suppressed by the state.
func (m editorModel) submit() (editorModel, tea.Cmd) {
	title := strings.TrimSpace(m.title.Value())
	content := strings.TrimSpace(m.content.Value())
	if title == "" || content == "" {
		m.errMsg = "Please fill in both title and content."
		return m, nil
	}

	m.state = editorSubmitting
	m.errMsg = ""
	in := api.PostInput{Title: title, Content: content, Excerpt: strings.TrimSpace(m.excerpt.Value())}
	seq, client, postID := m.seq, m.client, m.postID
	return m, func() tea.Msg {
		ctx := context.Background()
		var post *model.Post
		var err error
		if postID == 0 {
			post, err = client.CreatePost(ctx, in)
		} else {
			post, err = client.UpdatePost(ctx, postID, in)
		}
		return postSavedMsg{seq: seq, post: post, err: err}
	}
}

func (m editorModel) view(width, height int) string {
	var s string
	if m.postID == 0 {
		s += HeaderStyle.Render("Write New Post") + "\n"
		s += BylineStyle.Render("Share your thoughts with the community") + "\n\n"
	} else {
		s += HeaderStyle.Render("Edit Post") + "\n"
		s += BylineStyle.Render("Make changes to your post") + "\n\n"
	}

	switch m.state {
	case editorLoading:
		s += HelpStyle.Render("Loading post...")
	case editorSubmitting:
		s += m.renderForm()
		s += "\n" + HelpStyle.Render("Publishing...")
	default:
		s += m.renderForm()
		if m.errMsg != "" {
			s += "\n" + ErrorStyle.Render(m.errMsg)
		}
	}

	return ListStyle.Width(width).Height(height).Render(s)
}

func (m editorModel) renderForm() string {
	var s string
	s += LabelStyle.Render("Title") + "\n"
	s += m.title.View() + "\n\n"
	s += LabelStyle.Render("Excerpt (optional)") + "\n"
	s += m.excerpt.View() + "\n\n"
	s += LabelStyle.Render("Content") + "\n"
	s += m.content.View() + "\n"
	return s
}
