package tui

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unicrew-app/unicrew-go/sdk/unicrew"
)

// Tab identifiers
const (
	tabDashboard = iota
	tabTeams
	tabNotifications

	tabCount
)

var tabNames = []string{"Dashboard", "Teams", "Notifications"}

// App is the root bubbletea model that contains all tab sub-models.
type App struct {
	activeTab int

	session *unicrew.Session

	authenticated bool
	userInput     textinput.Model
	passInput     textinput.Model
	authFocusPass bool
	authError     string
	authBusy      bool

	dashboard     dashboardModel
	teams         teamsModel
	notifications notificationsModel

	width  int
	height int
	ready  bool

	// Tabs fetch their data lazily on first activation.
	initialized [tabCount]bool
}

type loginMsg struct {
	err error
}

// NewApp creates the root TUI application model.
func NewApp(session *unicrew.Session, webBaseURL string) App {
	user := textinput.New()
	user.Prompt = "  Username: "
	user.CharLimit = 150
	user.Focus()

	pass := textinput.New()
	pass.Prompt = "  Password: "
	pass.CharLimit = 128
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '*'

	app := App{
		activeTab:     tabDashboard,
		session:       session,
		authenticated: session.IsAuthenticated(),
		userInput:     user,
		passInput:     pass,
		dashboard:     newDashboardModel(session),
		teams:         newTeamsModel(session, webBaseURL),
		notifications: newNotificationsModel(session),
	}
	app.initialized[tabDashboard] = true
	return app
}

func (a App) Init() tea.Cmd {
	if !a.authenticated {
		return textinput.Blink
	}
	return a.dashboard.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		contentH := a.height - 4 // tab bar + status bar
		if contentH < 1 {
			contentH = 1
		}
		a.dashboard.SetSize(a.width, contentH)
		a.teams.SetSize(a.width, contentH)
		a.notifications.SetSize(a.width, contentH)
		return a, nil

	case loginMsg:
		a.authBusy = false
		if msg.err != nil {
			a.authError = msg.err.Error()
			return a, nil
		}
		a.authError = ""
		a.authenticated = true
		a.initialized = [tabCount]bool{tabDashboard: true}
		return a, a.dashboard.Init()

	case tea.KeyMsg:
		if !a.authenticated {
			return a.updateAuthGate(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "tab":
			a.activeTab = (a.activeTab + 1) % tabCount
			return a, a.initTabIfNeeded()
		case "shift+tab":
			a.activeTab = (a.activeTab - 1 + tabCount) % tabCount
			return a, a.initTabIfNeeded()
		}
	}

	if !a.authenticated {
		return a.updateAuthGate(msg)
	}

	// Route msg to active tab
	var cmd tea.Cmd
	switch a.activeTab {
	case tabDashboard:
		a.dashboard, cmd = a.dashboard.Update(msg)
	case tabTeams:
		a.teams, cmd = a.teams.Update(msg)
	case tabNotifications:
		a.notifications, cmd = a.notifications.Update(msg)
	}
	return a, cmd
}

func (a App) updateAuthGate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		case "tab", "shift+tab", "up", "down":
			a.authFocusPass = !a.authFocusPass
			if a.authFocusPass {
				a.userInput.Blur()
				return a, a.passInput.Focus()
			}
			a.passInput.Blur()
			return a, a.userInput.Focus()
		case "enter":
			if a.authBusy {
				return a, nil
			}
			username := strings.TrimSpace(a.userInput.Value())
			password := a.passInput.Value()
			if username == "" || password == "" {
				a.authError = "username and password are required"
				return a, nil
			}
			a.authError = ""
			a.authBusy = true
			return a, a.login(username, password)
		}
	}

	var cmd tea.Cmd
	if a.authFocusPass {
		a.passInput, cmd = a.passInput.Update(msg)
	} else {
		a.userInput, cmd = a.userInput.Update(msg)
	}
	return a, cmd
}

func (a App) login(username, password string) tea.Cmd {
	return func() tea.Msg {
		return loginMsg{err: a.session.Login(context.Background(), username, password)}
	}
}

func (a *App) initTabIfNeeded() tea.Cmd {
	if a.initialized[a.activeTab] {
		return nil
	}
	a.initialized[a.activeTab] = true
	switch a.activeTab {
	case tabDashboard:
		return a.dashboard.Init()
	case tabTeams:
		return a.teams.Init()
	case tabNotifications:
		return a.notifications.Init()
	}
	return nil
}

func (a App) View() string {
	if !a.authenticated {
		return a.renderAuthView()
	}
	if !a.ready {
		return "Initializing..."
	}

	var sb strings.Builder
	sb.WriteString(a.renderTabBar())
	sb.WriteString("\n")

	switch a.activeTab {
	case tabDashboard:
		sb.WriteString(a.dashboard.View())
	case tabTeams:
		sb.WriteString(a.teams.View())
	case tabNotifications:
		sb.WriteString(a.notifications.View())
	}

	sb.WriteString("\n")
	sb.WriteString(a.renderStatusBar())
	return sb.String()
}

func (a App) renderAuthView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("UniCrew — sign in"))
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("enter your account credentials, tab switches fields"))
	sb.WriteString("\n\n")
	if a.authBusy {
		sb.WriteString(warningStyle.Render("Signing in..."))
		sb.WriteString("\n\n")
	}
	if a.authError != "" {
		sb.WriteString(errorStyle.Render(a.authError))
		sb.WriteString("\n\n")
	}
	sb.WriteString(a.userInput.View())
	sb.WriteString("\n")
	sb.WriteString(a.passInput.View())
	sb.WriteString("\n\n")
	sb.WriteString(helpStyle.Render("enter: sign in • esc: quit"))
	return sb.String()
}

func (a App) renderTabBar() string {
	var tabs []string
	for i, name := range tabNames {
		if i == a.activeTab {
			tabs = append(tabs, tabActiveStyle.Render(name))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(name))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return tabBarStyle.Width(a.width).Render(bar)
}

func (a App) renderStatusBar() string {
	left := "tab: switch • r: refresh • q: quit"
	right := ""
	if u := a.session.User(); u != nil {
		right = u.Username
	}
	if a.session.IsRefreshing() {
		right += " ⟳"
	}

	width := a.width
	if width < 1 {
		width = 1
	}
	contentWidth := width - 2
	if contentWidth < 0 {
		contentWidth = 0
	}
	gap := contentWidth - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return statusBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

// Run starts the TUI application.
// output specifies where bubbletea renders. If nil, defaults to os.Stdout.
func Run(session *unicrew.Session, webBaseURL string, output io.Writer) error {
	if output == nil {
		output = os.Stdout
	}
	app := NewApp(session, webBaseURL)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithOutput(output))
	_, err := p.Run()
	return err
}
