// Package tui is the interactive client. Each screen (feed, reader, editor,
// login) is its own coordinator: it owns one local collection, issues
// asynchronous commands against the resource client or the identity
// provider, and applies optimistic mutations only after the remote call
// succeeds. Responses arriving after navigation are dropped by sequence
// number; they are never applied to a screen the user has left.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/posthub/posthub/internal/api"
	"github.com/posthub/posthub/internal/auth"
	"github.com/posthub/posthub/internal/config"
	"github.com/posthub/posthub/internal/logger"
)

// view identifies the active screen
type view int

const (
	viewFeed view = iota
	viewReader
	viewEditor
	viewLogin
)

// Navigation messages emitted by the coordinators.
type (
	showFeedMsg   struct{}
	showReaderMsg struct{ postID int64 }
	showEditorMsg struct{ postID int64 } // 0 starts a new post
	showLoginMsg  struct{}
)

// statusMsg sets the status-bar notification.
type statusMsg string

// confirmRequestMsg asks the user to confirm a destructive action. On "y"
// the accept message is dispatched; on cancel nothing happens.
type confirmRequestMsg struct {
	prompt string
	accept tea.Msg
}

// App is the top-level bubbletea model. It only routes: every screen keeps
// its own collection and there is no shared mutable cache between them;
// staleness is resolved by refetching on navigation.
type App struct {
	cfg      *config.Config
	provider auth.Provider

	width  int
	height int
	view   view

	feed   feedModel
	reader readerModel
	editor editorModel
	login  loginModel

	confirm *confirmRequestMsg
	status  string
	help    bool
}

// NewApp creates the TUI application.
func NewApp(cfg *config.Config, client *api.Client, provider auth.Provider) App {
	logger.Info("Initializing TUI", logger.F("mode", cfg.Mode))
	return App{
		cfg:      cfg,
		provider: provider,
		view:     viewFeed,
		feed:     newFeedModel(client, provider),
		reader:   newReaderModel(client, provider),
		editor:   newEditorModel(client),
		login:    newLoginModel(provider),
	}
}

// Init opens the feed. The reload is dispatched as a navigation message so
// it runs through Update, where the mutated model is the one the runtime
// keeps; calling reload here would bump the sequence number on a copy and
// the response would be dropped as stale.
func (a App) Init() tea.Cmd {
	return func() tea.Msg { return showFeedMsg{} }
}

// Update handles messages
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.reader.resize(msg.Width, msg.Height)
		a.editor.resize(msg.Width, msg.Height)
		return a, nil

	case statusMsg:
		a.status = string(msg)
		return a, nil

	case confirmRequestMsg:
		if !a.cfg.ConfirmDelete {
			return a.Update(msg.accept)
		}
		m := msg
		a.confirm = &m
		return a, nil

	case showFeedMsg:
		a.view = viewFeed
		a.invalidateInactive()
		return a, a.feed.reload()

	case showReaderMsg:
		a.view = viewReader
		a.invalidateInactive()
		var cmd tea.Cmd
		a.reader, cmd = a.reader.open(msg.postID)
		return a, cmd

	case showEditorMsg:
		a.view = viewEditor
		a.invalidateInactive()
		var cmd tea.Cmd
		a.editor, cmd = a.editor.open(msg.postID)
		return a, cmd

	case showLoginMsg:
		a.view = viewLogin
		a.invalidateInactive()
		a.login = a.login.reset()
		return a, nil

	case tea.KeyMsg:
		// Confirmation modal swallows all keys.
		if a.confirm != nil {
			switch msg.String() {
			case "y", "Y":
				accept := a.confirm.accept
				a.confirm = nil
				return a.Update(accept)
			case "n", "N", "esc":
				a.confirm = nil
				a.status = "Cancelled"
			}
			return a, nil
		}

		if a.help {
			a.help = false
			return a, nil
		}

		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		// Only the active screen sees keystrokes.
		a.status = ""
		return a.updateActive(msg)
	}

	// Result messages route to their owning coordinator even when it is no
	// longer on screen, so in-flight flags clear; stale results are dropped
	// there by sequence number.
	return a.route(msg)
}

// updateActive dispatches a key to the active screen.
func (a App) updateActive(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.view {
	case viewFeed:
		if msg.String() == "?" {
			a.help = true
			return a, nil
		}
		a.feed, cmd = a.feed.update(msg)
	case viewReader:
		a.reader, cmd = a.reader.update(msg)
	case viewEditor:
		a.editor, cmd = a.editor.update(msg)
	case viewLogin:
		a.login, cmd = a.login.update(msg)
	}
	return a, cmd
}

// route dispatches non-key messages by ownership.
func (a App) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.(type) {
	case postsLoadedMsg, feedDeleteMsg, feedPostDeletedMsg:
		a.feed, cmd = a.feed.update(msg)
	case readerLoadedMsg, commentAddedMsg, commentDeleteMsg, commentDeletedMsg,
		readerDeleteMsg, readerPostDeletedMsg:
		a.reader, cmd = a.reader.update(msg)
	case editorLoadedMsg, postSavedMsg:
		a.editor, cmd = a.editor.update(msg)
	case authDoneMsg:
		a.login, cmd = a.login.update(msg)
	}
	return a, cmd
}

// invalidateInactive bumps the sequence number of every screen but the
// active one, so responses from before the navigation are not applied.
func (a *App) invalidateInactive() {
	if a.view != viewFeed {
		a.feed.invalidate()
	}
	if a.view != viewReader {
		a.reader.invalidate()
	}
	if a.view != viewEditor {
		a.editor.invalidate()
	}
	if a.view != viewLogin {
		a.login.invalidate()
	}
}

// View renders the UI
func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	var content string
	switch a.view {
	case viewFeed:
		content = a.feed.view(a.width, a.height-2)
	case viewReader:
		content = a.reader.view(a.width, a.height-2)
	case viewEditor:
		content = a.editor.view(a.width, a.height-2)
	case viewLogin:
		content = a.login.view(a.width, a.height-2)
	}

	if a.confirm != nil {
		modal := ModalStyle.Render(
			a.confirm.prompt + "\n\n" + HelpStyle.Render("y:confirm  n:cancel"))
		content = lipgloss.Place(a.width, a.height-2, lipgloss.Center, lipgloss.Center, modal)
	}

	if a.help {
		content = a.renderHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, a.renderStatusBar())
}

func (a App) renderStatusBar() string {
	text := a.status
	if text == "" {
		switch a.view {
		case viewFeed:
			text = "enter:read  n:write  e:edit  d:delete  r:refresh  i:sign in  L:logout  ?:help  q:quit"
		case viewReader:
			text = "j/k:scroll  J/K:comments  c:comment  e:edit  d:delete comment  D:delete post  esc:back"
		case viewEditor:
			text = "tab:next field  ctrl+s:save  esc:cancel"
		case viewLogin:
			text = "tab:next field  enter:submit  ctrl+t:switch sign in/up  esc:back"
		}
	}

	user := a.provider.CurrentUser()
	who := "not signed in"
	if user != nil {
		who = user.DisplayName()
	}

	avail := a.width - lipgloss.Width(text) - lipgloss.Width(who) - 4
	if avail < 1 {
		avail = 1
	}
	return StatusBarStyle.Width(a.width).Render(
		text + lipgloss.NewStyle().Width(avail).Render(" ") + BylineStyle.Render(who))
}

func (a App) renderHelp() string {
	help := `
╭────── Keyboard Shortcuts ──────╮
│                                │
│  Feed                          │
│  ────                          │
│  j/k      Move down/up         │
│  enter    Read post            │
│  n        Write new post       │
│  e        Edit own post        │
│  d        Delete own post      │
│  r        Refresh              │
│  i        Sign in / register   │
│  L        Logout               │
│                                │
│  Reader                        │
│  ──────                        │
│  j/k      Scroll               │
│  J/K      Select comment       │
│  c        Write comment        │
│  d        Delete comment       │
│  D        Delete post          │
│  esc      Back to feed         │
│                                │
│  q        Quit                 │
│                                │
╰────────────────────────────────╯

       Press any key to close
`
	return lipgloss.Place(a.width, a.height-2, lipgloss.Center, lipgloss.Center, help)
}
