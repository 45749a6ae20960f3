package ui

import "strings"

func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	lines := make([]string, 0, len(m.logEntries))
	for _, e := range m.logEntries {
		lines = append(lines, e.Colorize())
	}
	m.logs.SetContent(strings.Join(lines, "\n"))
	if m.logFollow {
		m.logs.GotoBottom()
	}
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	switch {
	case m.logPath == "":
		return styles.Pane.Render(styles.MutedText.Render("no log file configured"))
	case m.logErr != nil:
		return styles.Pane.Render(styles.DangerText.Render(m.logErr.Error()))
	case len(m.logEntries) == 0:
		return styles.Pane.Render(styles.MutedText.Render("log is empty: " + m.logPath))
	}
	return styles.Pane.Render(m.logs.View())
}
