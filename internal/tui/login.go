package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/posthub/posthub/internal/api"
	"github.com/posthub/posthub/internal/auth"
	"github.com/posthub/posthub/internal/model"
)

// loginMode toggles between the sign-in and sign-up forms.
type loginMode int

const (
	modeSignIn loginMode = iota
	modeSignUp
)

// Sign-up field order; sign-in uses username and password only.
const (
	loginName = iota
	loginEmail
	loginUsername
	loginPassword
	loginFieldCount
)

// loginModel is the authentication coordinator. It talks to the identity
// provider, whichever variant was selected at startup.
type loginModel struct {
	provider auth.Provider

	mode   loginMode
	inputs [loginFieldCount]textinput.Model
	focus  int

	submitting bool
	seq        int
	errMsg     string
}

type authDoneMsg struct {
	seq  int
	sess *auth.Session
	err  error
}

func newLoginModel(provider auth.Provider) loginModel {
	m := loginModel{provider: provider}

	for i := range m.inputs {
		m.inputs[i] = textinput.New()
		m.inputs[i].CharLimit = 100
		m.inputs[i].Width = 40
	}
	m.inputs[loginName].Placeholder = "Enter your full name"
	m.inputs[loginEmail].Placeholder = "Enter your email"
	m.inputs[loginUsername].Placeholder = "Enter your username"
	m.inputs[loginPassword].Placeholder = "Enter your password"
	m.inputs[loginPassword].EchoMode = textinput.EchoPassword

	return m
}

func (m *loginModel) invalidate() {
	m.seq++
}

// reset blanks the form for a fresh visit.
func (m loginModel) reset() loginModel {
	m.seq++
	m.mode = modeSignIn
	m.submitting = false
	m.errMsg = ""
	for i := range m.inputs {
		m.inputs[i].Reset()
		m.inputs[i].Blur()
	}
	m.setFocus(m.firstField())
	return m
}

// firstField returns the top field of the current form.
func (m loginModel) firstField() int {
	if m.mode == modeSignUp {
		return loginName
	}
	return loginUsername
}

func (m *loginModel) setFocus(field int) {
	m.focus = field
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.inputs[field].Focus()
}

func (m loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case authDoneMsg:
		m.submitting = false
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			m.errMsg = authErrorText(msg.err, m.mode)
			return m, nil
		}
		name := msg.sess.User.DisplayName()
		return m, tea.Batch(
			notify(fmt.Sprintf("Signed in as %s", name)),
			func() tea.Msg { return showFeedMsg{} })

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m loginModel) updateKeys(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		return m, func() tea.Msg { return showFeedMsg{} }

	case msg.String() == "ctrl+t":
		if m.mode == modeSignIn {
			m.mode = modeSignUp
		} else {
			m.mode = modeSignIn
		}
		for i := range m.inputs {
			m.inputs[i].Reset()
		}
		m.errMsg = ""
		m.setFocus(m.firstField())
		return m, nil

	case key.Matches(msg, keys.Switch):
		m.setFocus(m.nextField(1))
		return m, nil

	case msg.String() == "shift+tab":
		m.setFocus(m.nextField(-1))
		return m, nil

	case key.Matches(msg, keys.Enter):
		if m.focus == loginPassword {
			return m.submit()
		}
		m.setFocus(m.nextField(1))
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// nextField steps through the fields of the active form.
func (m loginModel) nextField(dir int) int {
	fields := []int{loginUsername, loginPassword}
	if m.mode == modeSignUp {
		fields = []int{loginName, loginEmail, loginUsername, loginPassword}
	}
	for i, f := range fields {
		if f == m.focus {
			return fields[(i+len(fields)+dir)%len(fields)]
		}
	}
	return fields[0]
}

// submit issues the register or login call; a second submit while one is in
// flight is suppressed.
func (m loginModel) submit() (loginModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}

	username := strings.TrimSpace(m.inputs[loginUsername].Value())
	password := m.inputs[loginPassword].Value()
	if username == "" || password == "" {
		m.errMsg = "Username and password are required."
		return m, nil
	}

	m.submitting = true
	m.errMsg = ""
	seq, provider := m.seq, m.provider

	if m.mode == modeSignUp {
		reg := auth.Registration{
			Username: username,
			Email:    strings.TrimSpace(m.inputs[loginEmail].Value()),
			Password: password,
			Name:     strings.TrimSpace(m.inputs[loginName].Value()),
		}
		return m, func() tea.Msg {
			sess, err := provider.Register(context.Background(), reg)
			return authDoneMsg{seq: seq, sess: sess, err: err}
		}
	}

	return m, func() tea.Msg {
		sess, err := provider.Login(context.Background(), username, password)
		return authDoneMsg{seq: seq, sess: sess, err: err}
	}
}

// authErrorText maps a provider failure to the notice shown on the form.
func authErrorText(err error, mode loginMode) string {
	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		return "Login failed. Please check your credentials."
	case errors.Is(err, model.ErrDuplicateIdentity):
		return "Username or email already taken."
	}
	var remote *api.RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	if mode == modeSignIn {
		return "Login failed. Please check your credentials."
	}
	return "Registration failed. Please try again."
}

func (m loginModel) view(width, height int) string {
	var s string
	if m.mode == modeSignIn {
		s += HeaderStyle.Render("Welcome Back") + "\n"
		s += BylineStyle.Render("Sign in to your account") + "\n\n"
	} else {
		s += HeaderStyle.Render("Join PostHub") + "\n"
		s += BylineStyle.Render("Create your account to start writing") + "\n\n"
	}

	render := func(label string, field int) string {
		return LabelStyle.Render(label) + "\n" + m.inputs[field].View() + "\n\n"
	}

	if m.mode == modeSignUp {
		s += render("Full Name", loginName)
		s += render("Email", loginEmail)
	}
	s += render("Username", loginUsername)
	s += render("Password", loginPassword)

	if m.submitting {
		if m.mode == modeSignIn {
			s += HelpStyle.Render("Signing in...")
		} else {
			s += HelpStyle.Render("Creating account...")
		}
	} else if m.errMsg != "" {
		s += ErrorStyle.Render(m.errMsg)
	}

	s += "\n\n"
	if m.mode == modeSignIn {
		s += HelpStyle.Render("Don't have an account? Press ctrl+t to sign up.")
	} else {
		s += HelpStyle.Render("Already have an account? Press ctrl+t to sign in.")
	}

	return ListStyle.Width(width).Height(height).Render(s)
}
