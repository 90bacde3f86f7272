package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"relay/pkg/eventlog"
	"relay/pkg/session"
)

// refreshInterval is the polling fallback; marker-dir watch events refresh
// sooner when fsnotify is available.
const refreshInterval = 2 * time.Second

// eventPaneSize is how many recent lifecycle events are shown.
const eventPaneSize = 8

// tickMsg is sent by Bubble Tea on every tick interval.
type tickMsg time.Time

// sessionsMsg carries the refreshed session list. nil means the fetch failed.
type sessionsMsg []session.Session

// eventsMsg carries recent lifecycle events from the audit log.
type eventsMsg []eventlog.Event

// tickCmd returns a command that sends a tickMsg after the refresh interval.
func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the Bubble Tea model for the relay dashboard.
type Model struct {
	src    *dataSource
	table  table.Model
	events []eventlog.Event
	theme  Theme

	width  int
	height int
}

func newModel(src *dataSource) Model {
	columns := []table.Column{
		{Title: "NAME", Width: 24},
		{Title: "STATUS", Width: 20},
		{Title: "CREATED", Width: 20},
		{Title: "LOG", Width: 10},
	}
	tbl := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	theme := DefaultTheme()
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(theme.Primary)
	styles.Selected = styles.Selected.Foreground(theme.Secondary).Bold(true)
	tbl.SetStyles(styles)

	return Model{src: src, table: tbl, theme: theme}
}

// Init starts the refresh loop and the marker directory watcher.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchSessionsCmd(),
		m.fetchEventsCmd(),
		tickCmd(),
		watchMarkerDir(m.src.markerDir),
	)
}

func (m Model) fetchSessionsCmd() tea.Cmd {
	return func() tea.Msg {
		sessions, _ := m.src.sessions()
		return sessionsMsg(sessions)
	}
}

func (m Model) fetchEventsCmd() tea.Cmd {
	return func() tea.Msg {
		return eventsMsg(m.src.recentEvents(eventPaneSize))
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, tea.Batch(m.fetchSessionsCmd(), m.fetchEventsCmd())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(4, msg.Height-eventPaneSize-6))
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchSessionsCmd(), m.fetchEventsCmd(), tickCmd())

	case fsChangeMsg:
		// A marker appeared or vanished; refresh now and re-arm the watcher.
		return m, tea.Batch(m.fetchSessionsCmd(), m.fetchEventsCmd(), watchMarkerDir(m.src.markerDir))

	case sessionsMsg:
		m.table.SetRows(sessionRows(msg))
		return m, nil

	case eventsMsg:
		m.events = msg
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// sessionRows converts sessions to table rows.
func sessionRows(sessions []session.Session) []table.Row {
	rows := make([]table.Row, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, table.Row{
			s.Name,
			string(s.Status),
			s.CreatedAt.Local().Format(time.DateTime),
			logSize(s.LogPath),
		})
	}
	return rows
}

// logSize renders the transcript size, or a dash when no log exists yet.
func logSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "-"
	}
	size := info.Size()
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1fM", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1fK", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%dB", size)
	}
}

// View renders the dashboard.
func (m Model) View() string {
	title := m.theme.TitleStyle().Render("relay sessions")
	help := m.theme.MutedStyle().Render("r refresh · q quit")

	body := title + "\n\n" + m.table.View() + "\n\n" + m.renderEvents() + "\n" + help
	return body
}

// renderEvents shows the recent-events pane.
func (m Model) renderEvents() string {
	header := m.theme.HeaderStyle().Render("recent events")
	if len(m.events) == 0 {
		return header + "\n" + m.theme.MutedStyle().Render("  (none)")
	}

	out := header
	for _, e := range m.events {
		line := fmt.Sprintf("  %s  %-12s  %s",
			e.CreatedAt.Local().Format("15:04:05"), e.Type, e.Session)
		out += "\n" + m.styleEvent(e.Type).Render(line)
	}
	return out
}
