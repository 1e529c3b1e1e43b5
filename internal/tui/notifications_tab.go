package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unicrew-app/unicrew-go/sdk/unicrew"
)

// notificationsModel lists notifications and lets the user mark them read.
type notificationsModel struct {
	session *unicrew.Session

	items   []unicrew.Notification
	cursor  int
	loadErr error
	status  string
	width   int
	height  int
}

type notificationsMsg struct {
	items []unicrew.Notification
	err   error
}

type notificationDoneMsg struct {
	status string
	err    error
}

func newNotificationsModel(session *unicrew.Session) notificationsModel {
	return notificationsModel{session: session}
}

func (m notificationsModel) Init() tea.Cmd {
	return m.fetchData
}

func (m notificationsModel) fetchData() tea.Msg {
	items, err := m.session.Notifications().List(context.Background())
	return notificationsMsg{items: items, err: err}
}

func (m notificationsModel) markRead(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := m.session.Notifications().MarkRead(context.Background(), id); err != nil {
			return notificationDoneMsg{err: err}
		}
		return notificationDoneMsg{status: "marked read"}
	}
}

func (m notificationsModel) markAllRead() tea.Msg {
	if err := m.session.Notifications().MarkAllRead(context.Background()); err != nil {
		return notificationDoneMsg{err: err}
	}
	return notificationDoneMsg{status: "all marked read"}
}

func (m notificationsModel) deleteCurrent(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := m.session.Notifications().Delete(context.Background(), id); err != nil {
			return notificationDoneMsg{err: err}
		}
		return notificationDoneMsg{status: "deleted"}
	}
}

func (m notificationsModel) Update(msg tea.Msg) (notificationsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case notificationsMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.loadErr = nil
		m.items = msg.items
		if m.cursor >= len(m.items) {
			m.cursor = 0
		}
		return m, nil

	case notificationDoneMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(msg.err.Error())
			return m, nil
		}
		m.status = successStyle.Render(msg.status)
		return m, m.fetchData

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "r":
			return m, m.fetchData
		case "enter", "m":
			if m.cursor < len(m.items) {
				return m, m.markRead(m.items[m.cursor].ID)
			}
		case "a":
			return m, m.markAllRead
		case "d":
			if m.cursor < len(m.items) {
				return m, m.deleteCurrent(m.items[m.cursor].ID)
			}
		}
	}
	return m, nil
}

func (m *notificationsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m notificationsModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Notifications"))
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("m: mark read • a: mark all read • d: delete • r: refresh"))
	sb.WriteString("\n\n")

	if m.loadErr != nil {
		sb.WriteString(errorStyle.Render("⚠ Error: " + m.loadErr.Error()))
		return sb.String()
	}
	if len(m.items) == 0 {
		sb.WriteString(helpStyle.Render("  no notifications"))
		return sb.String()
	}

	for i, n := range m.items {
		marker := "●"
		if n.IsRead {
			marker = " "
		}
		line := fmt.Sprintf("  %s %s  %s", marker, n.CreatedAt.Format("01-02 15:04"), truncate(n.Message, 80))
		if n.TeamTitle != "" {
			line += helpStyle.Render("  [" + n.TeamTitle + "]")
		}
		if i == m.cursor {
			sb.WriteString(tableSelectedStyle.Render(line))
		} else if n.IsRead {
			sb.WriteString(helpStyle.Render(line))
		} else {
			sb.WriteString(tableCellStyle.Render(line))
		}
		sb.WriteString("\n")
	}

	if m.status != "" {
		sb.WriteString("\n")
		sb.WriteString(m.status)
	}
	return sb.String()
}
