package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type keyMap struct {
	Quit     key.Binding
	Help     key.Binding
	Theme    key.Binding
	Toggle   key.Binding
	Products key.Binding
	Logs     key.Binding
	Follow   key.Binding
	Move     key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("e", "ctrl+c"), key.WithHelp("e/ctrl+c", "quit")),
	Help:     key.NewBinding(key.WithKeys("h", "?"), key.WithHelp("h/?", "toggle help")),
	Theme:    key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "cycle theme (saved)")),
	Toggle:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch products/logs")),
	Products: key.NewBinding(key.WithKeys("p", "esc"), key.WithHelp("p/esc", "products")),
	Logs:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "logs")),
	Follow:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "follow new log lines")),
	Move:     key.NewBinding(key.WithKeys("j", "k", "up", "down"), key.WithHelp("j/k", "move or scroll")),
}

// helpGroups lists bindings per overlay section, in display order.
func (k keyMap) helpGroups() []struct {
	title    string
	bindings []key.Binding
} {
	return []struct {
		title    string
		bindings []key.Binding
	}{
		{"Views", []key.Binding{k.Toggle, k.Products, k.Logs, k.Move}},
		{"Log pane", []key.Binding{k.Follow}},
		{"General", []key.Binding{k.Theme, k.Help, k.Quit}},
	}
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyCol := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(12)

	lines := []string{
		styles.Text.Bold(true).Render("Keyboard Shortcuts"),
		styles.FaintText.Render(strings.Repeat("─", 30)),
	}
	for _, group := range keys.helpGroups() {
		lines = append(lines, "", styles.AccentText.Bold(true).Render(group.title))
		for _, b := range group.bindings {
			h := b.Help()
			lines = append(lines, keyCol.Render(h.Key)+styles.Text.Render(h.Desc))
		}
	}
	lines = append(lines, "", styles.MutedText.Render("any key closes this"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)))
}
