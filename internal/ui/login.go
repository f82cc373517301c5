package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ilasdev/ilas/internal/models"
	"github.com/ilasdev/ilas/internal/shared"
)

const (
	usernameField = iota
	passwordField
)

// LoginModel is the interactive credential form.
type LoginModel struct {
	inputs  []textinput.Model
	focus   int
	keys    keyMap
	help    help.Model
	done    bool
	aborted bool
}

// NewLoginForm creates the form with the username field focused.
func NewLoginForm() LoginModel {
	username := textinput.New()
	username.Placeholder = "username or email"
	username.Prompt = "Username: "
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return LoginModel{
		inputs: []textinput.Model{username, password},
		keys:   newKeyMap(),
		help:   help.New(),
	}
}

func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			m.aborted = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.submit):
			if m.focus == passwordField {
				m.done = true
				return m, tea.Quit
			}
			return m.setFocus(m.focus + 1)
		case key.Matches(msg, m.keys.next):
			return m.setFocus((m.focus + 1) % len(m.inputs))
		case key.Matches(msg, m.keys.prev):
			return m.setFocus((m.focus + len(m.inputs) - 1) % len(m.inputs))
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m LoginModel) setFocus(focus int) (tea.Model, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = focus
	return m, m.inputs[m.focus].Focus()
}

func (m LoginModel) View() string {
	if m.done || m.aborted {
		return ""
	}

	view := styles.title.Render("Sign in to ILAS") + "\n"
	for _, input := range m.inputs {
		view += input.View() + "\n"
	}
	return view + "\n" + m.help.View(m.keys)
}

// Credentials returns what was typed and whether the form was submitted.
func (m LoginModel) Credentials() (models.Credentials, bool) {
	if !m.done {
		return models.Credentials{}, false
	}
	return models.Credentials{
		Username: m.inputs[usernameField].Value(),
		Password: m.inputs[passwordField].Value(),
	}, true
}

// RunLoginForm runs the form to completion and returns the credentials.
func RunLoginForm() (models.Credentials, error) {
	final, err := tea.NewProgram(NewLoginForm()).Run()
	if err != nil {
		return models.Credentials{}, fmt.Errorf("login form failed: %w", err)
	}

	model, ok := final.(LoginModel)
	if !ok {
		return models.Credentials{}, fmt.Errorf("%w: unexpected model type", shared.ErrInvalidInput)
	}

	creds, submitted := model.Credentials()
	if !submitted {
		return models.Credentials{}, fmt.Errorf("%w: login cancelled", shared.ErrInvalidInput)
	}
	if creds.Username == "" || creds.Password == "" {
		return models.Credentials{}, fmt.Errorf("%w: username and password are required", shared.ErrMissingArgument)
	}
	return creds, nil
}
