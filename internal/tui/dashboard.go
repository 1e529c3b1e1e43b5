package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unicrew-app/unicrew-go/sdk/unicrew"
)

// dashboardModel shows the signed-in profile, pending requests and
// outstanding invitations.
type dashboardModel struct {
	session  *unicrew.Session
	viewport viewport.Model
	content  string
	width    int
	height   int
	ready    bool
}

type dashboardDataMsg struct {
	profile     unicrew.User
	requests    []unicrew.JoinRequest
	invitations []unicrew.JoinRequest
	err         error
}

func newDashboardModel(session *unicrew.Session) dashboardModel {
	return dashboardModel{session: session}
}

func (m dashboardModel) Init() tea.Cmd {
	return m.fetchData
}

func (m dashboardModel) fetchData() tea.Msg {
	ctx := context.Background()
	users := m.session.Users()

	profile, profileErr := users.Profile(ctx)
	requests, reqErr := users.MyRequests(ctx)
	invitations, invErr := users.MyInvitations(ctx)

	var err error
	for _, e := range []error{profileErr, reqErr, invErr} {
		if e != nil {
			err = e
			break
		}
	}
	return dashboardDataMsg{profile: profile, requests: requests, invitations: invitations, err: err}
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		if msg.err != nil {
			m.content = errorStyle.Render("⚠ Error: " + msg.err.Error())
		} else {
			m.content = m.renderDashboard(msg.profile, msg.requests, msg.invitations)
		}
		m.viewport.SetContent(m.content)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "r" {
			return m, m.fetchData
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *dashboardModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if !m.ready {
		m.viewport = viewport.New(w, h)
		m.viewport.SetContent(m.content)
		m.ready = true
	} else {
		m.viewport.Width = w
		m.viewport.Height = h
	}
}

func (m dashboardModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View()
}

func (m dashboardModel) renderDashboard(profile unicrew.User, requests, invitations []unicrew.JoinRequest) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Profile"))
	sb.WriteString("\n")

	name := strings.TrimSpace(profile.FirstName + " " + profile.LastName)
	if name == "" {
		name = profile.Username
	}
	sb.WriteString(formatKV("Name", name))
	sb.WriteString(formatKV("Username", profile.Username))
	sb.WriteString(formatKV("Email", profile.Email))
	if profile.Faculty != "" {
		sb.WriteString(formatKV("Faculty", profile.Faculty))
	}
	if profile.Course != nil {
		sb.WriteString(formatKV("Course", fmt.Sprintf("%d", *profile.Course)))
	}
	if profile.EducationLevelDisplay != "" {
		sb.WriteString(formatKV("Education", profile.EducationLevelDisplay))
	}
	if len(profile.SkillsList) > 0 {
		sb.WriteString(formatKV("Skills", strings.Join(profile.SkillsList, ", ")))
	}
	if len(profile.PersonalQualitiesList) > 0 {
		sb.WriteString(formatKV("Qualities", strings.Join(profile.PersonalQualitiesList, ", ")))
	}

	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render("My join requests"))
	sb.WriteString("\n")
	if len(requests) == 0 {
		sb.WriteString(helpStyle.Render("  none"))
		sb.WriteString("\n")
	}
	for _, r := range requests {
		sb.WriteString(fmt.Sprintf("  %s  %s\n",
			valueStyle.Render(r.TeamTitle),
			requestStatusStyle(r.Status).Render(r.Status)))
	}

	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render("Invitations"))
	sb.WriteString("\n")
	if len(invitations) == 0 {
		sb.WriteString(helpStyle.Render("  none"))
		sb.WriteString("\n")
	}
	for _, inv := range invitations {
		line := fmt.Sprintf("  %s", valueStyle.Render(inv.TeamTitle))
		if inv.Message != "" {
			line += helpStyle.Render("  — " + inv.Message)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}

func requestStatusStyle(status string) lipgloss.Style {
	switch status {
	case unicrew.MemberStatusApproved:
		return successStyle
	case unicrew.MemberStatusRejected:
		return errorStyle
	default:
		return warningStyle
	}
}

func formatKV(key, value string) string {
	return fmt.Sprintf("  %s %s\n", labelStyle.Render(key+":"), valueStyle.Render(value))
}
