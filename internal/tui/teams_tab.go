package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/unicrew-app/unicrew-go/internal/browser"
	"github.com/unicrew-app/unicrew-go/sdk/unicrew"
)

// teamsModel is a paginated team browser with a detail view.
type teamsModel struct {
	session    *unicrew.Session
	webBaseURL string

	page    int
	count   int
	hasNext bool
	teams   []unicrew.Team
	cursor  int

	detail *unicrew.Team

	status  string
	loadErr error
	width   int
	height  int
}

type teamsPageMsg struct {
	page   int
	result unicrew.Page[unicrew.Team]
	err    error
}

type teamDetailMsg struct {
	team unicrew.Team
	err  error
}

type teamActionMsg struct {
	status string
	err    error
}

func newTeamsModel(session *unicrew.Session, webBaseURL string) teamsModel {
	return teamsModel{session: session, webBaseURL: webBaseURL, page: 1}
}

func (m teamsModel) Init() tea.Cmd {
	return m.fetchPage(m.page)
}

func (m teamsModel) fetchPage(page int) tea.Cmd {
	return func() tea.Msg {
		result, err := m.session.Teams().List(context.Background(), unicrew.TeamFilter{Page: page})
		return teamsPageMsg{page: page, result: result, err: err}
	}
}

func (m teamsModel) fetchDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		team, err := m.session.Teams().Get(context.Background(), id)
		return teamDetailMsg{team: team, err: err}
	}
}

func (m teamsModel) joinTeam(id int64) tea.Cmd {
	return func() tea.Msg {
		detail, err := m.session.Teams().Join(context.Background(), id, "")
		if err != nil {
			return teamActionMsg{err: err}
		}
		if detail == "" {
			detail = "join request sent"
		}
		return teamActionMsg{status: detail}
	}
}

func (m teamsModel) Update(msg tea.Msg) (teamsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case teamsPageMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.loadErr = nil
		m.page = msg.page
		m.count = msg.result.Count
		m.hasNext = msg.result.Next != nil
		m.teams = msg.result.Results
		if m.cursor >= len(m.teams) {
			m.cursor = 0
		}
		return m, nil

	case teamDetailMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(msg.err.Error())
			return m, nil
		}
		team := msg.team
		m.detail = &team
		m.status = ""
		return m, nil

	case teamActionMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(msg.err.Error())
		} else {
			m.status = successStyle.Render(msg.status)
		}
		return m, nil

	case tea.KeyMsg:
		if m.detail != nil {
			return m.updateDetail(msg)
		}
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.teams)-1 {
				m.cursor++
			}
		case "right", "n":
			if m.hasNext {
				return m, m.fetchPage(m.page + 1)
			}
		case "left", "p":
			if m.page > 1 {
				return m, m.fetchPage(m.page - 1)
			}
		case "r":
			return m, m.fetchPage(m.page)
		case "enter":
			if m.cursor < len(m.teams) {
				return m, m.fetchDetail(m.teams[m.cursor].ID)
			}
		}
	}
	return m, nil
}

func (m teamsModel) updateDetail(msg tea.KeyMsg) (teamsModel, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.detail = nil
		m.status = ""
	case "j":
		return m, m.joinTeam(m.detail.ID)
	case "c":
		if m.detail.InviteToken == "" {
			m.status = warningStyle.Render("no invite token on this team")
			return m, nil
		}
		link := m.session.Teams().InviteLink(m.webBaseURL, m.detail.InviteToken)
		if err := clipboard.WriteAll(link); err != nil {
			m.status = errorStyle.Render("clipboard: " + err.Error())
			return m, nil
		}
		m.status = successStyle.Render("invite link copied")
	case "o":
		url := fmt.Sprintf("%s/teams/%d", strings.TrimRight(m.webBaseURL, "/"), m.detail.ID)
		if err := browser.OpenURL(url); err != nil {
			m.status = errorStyle.Render("open: " + err.Error())
			return m, nil
		}
		m.status = successStyle.Render("opened in browser")
	}
	return m, nil
}

func (m *teamsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m teamsModel) View() string {
	if m.detail != nil {
		return m.renderDetail()
	}
	return m.renderList()
}

func (m teamsModel) renderList() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Teams"))
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("enter: detail • n/p: page • r: refresh"))
	sb.WriteString("\n\n")

	if m.loadErr != nil {
		sb.WriteString(errorStyle.Render("⚠ Error: " + m.loadErr.Error()))
		return sb.String()
	}
	if len(m.teams) == 0 {
		sb.WriteString(helpStyle.Render("  no teams"))
		return sb.String()
	}

	header := fmt.Sprintf("  %-36s %-18s %-8s %s", "Title", "Category", "Status", "Creator")
	sb.WriteString(tableHeaderStyle.Render(header))
	sb.WriteString("\n")

	for i, t := range m.teams {
		row := fmt.Sprintf("  %-36s %-18s %-8s %s",
			truncate(t.Title, 36), truncate(t.Category, 18), t.Status, t.Creator)
		if i == m.cursor {
			sb.WriteString(tableSelectedStyle.Render(row))
		} else {
			sb.WriteString(tableCellStyle.Render(row))
		}
		sb.WriteString("\n")
	}

	pages := (m.count + unicrew.PageSize - 1) / unicrew.PageSize
	if pages < 1 {
		pages = 1
	}
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render(fmt.Sprintf("  page %d/%d • %d teams", m.page, pages, m.count)))
	if m.status != "" {
		sb.WriteString("\n")
		sb.WriteString(m.status)
	}
	return sb.String()
}

func (m teamsModel) renderDetail() string {
	t := m.detail
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(t.Title))
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("j: request to join • c: copy invite link • o: open in browser • esc: back"))
	sb.WriteString("\n\n")

	sb.WriteString(formatKV("Status", teamStatusStyle(t.Status).Render(t.Status)))
	sb.WriteString(formatKV("Category", t.Category))
	sb.WriteString(formatKV("Creator", t.Creator))
	sb.WriteString(formatKV("Created", t.CreatedAt.Format("2006-01-02")))
	if len(t.RequiredSkills) > 0 {
		sb.WriteString(formatKV("Skills wanted", strings.Join(t.RequiredSkills, ", ")))
	}
	if len(t.RequiredQualities) > 0 {
		sb.WriteString(formatKV("Qualities", strings.Join(t.RequiredQualities, ", ")))
	}
	if t.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(valueStyle.Render(t.Description))
		sb.WriteString("\n")
	}

	approved := make([]string, 0, len(t.Members))
	for _, member := range t.Members {
		if member.Status != unicrew.MemberStatusApproved || member.User == nil {
			continue
		}
		approved = append(approved, member.User.Username)
	}
	sb.WriteString("\n")
	sb.WriteString(formatKV("Members", strings.Join(approved, ", ")))

	if m.status != "" {
		sb.WriteString("\n")
		sb.WriteString(m.status)
	}
	return sb.String()
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
