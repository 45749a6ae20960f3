package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/netmoya/internal/api"
)

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	parts := []string{styles.Logo.Render("netmoya")}

	conn := snap.Connectivity
	if snap.IsOffline() {
		parts = append(parts, styles.Badge("OFFLINE", m.theme.Danger))
	} else {
		parts = append(parts, styles.Badge("ONLINE "+conn.Kind.String(), m.theme.Success))
	}

	if m.session != nil {
		parts = append(parts, styles.MutedText.Render("env ")+styles.AccentText.Render(string(m.session.Environment())))
	}

	if snap.LoggedIn {
		parts = append(parts, styles.SuccessText.Render("signed in"))
	} else {
		parts = append(parts, styles.MutedText.Render("anonymous"))
	}

	switch {
	case !m.hasSnapshot || snap.LastUpdated.IsZero():
		parts = append(parts, styles.MutedText.Render("api ?"))
	case snap.Healthy:
		parts = append(parts, styles.SuccessText.Render("api ok"))
	default:
		parts = append(parts, styles.DangerText.Render("api down"))
	}

	if !snap.LastUpdated.IsZero() {
		parts = append(parts, styles.FaintText.Render("updated "+humanizeAgo(time.Since(snap.LastUpdated))))
	}

	status := strings.Join(parts, "  ")
	detail := ""
	if snap.LastError != nil {
		detail = styles.DangerText.Render(errorLabel(snap.LastError, snap.ConsecutiveFailures))
	}
	header := styles.Header
	if m.width > 0 {
		header = header.MaxWidth(m.width)
	}
	return header.Render(status) + "\n" + header.Render(detail)
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var hints string
	switch m.currentView {
	case ViewLogs:
		follow := "off"
		if m.logFollow {
			follow = "on"
		}
		hints = fmt.Sprintf("p products  space follow(%s)  j/k scroll  T theme  ? help  e quit", follow)
	default:
		hints = "l logs  j/k move  T theme  ? help  e quit"
	}
	if m.prefsErr != nil {
		hints += "  " + styles.WarningText.Render("prefs not saved")
	}
	return styles.Footer.Render(hints)
}

func errorLabel(err error, failures int) string {
	label := err.Error()
	if kind := api.KindOf(err); kind != api.KindUnknown {
		label = kind.String() + ": " + label
	}
	if failures > 1 {
		label = fmt.Sprintf("%s (x%d)", label, failures)
	}
	return label
}

func humanizeAgo(d time.Duration) string {
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}
