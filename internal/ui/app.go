package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/netmoya/internal/logtail"
	"github.com/five82/netmoya/internal/prefs"
	"github.com/five82/netmoya/internal/session"
	"github.com/five82/netmoya/internal/state"
)

// View selects the main pane.
type View int

const (
	ViewProducts View = iota
	ViewLogs
)

const logTailLines = 500

// Options configures the status view.
type Options struct {
	Context  context.Context
	Store    *state.Store
	Session  *session.Session
	LogPath  string
	PollTick time.Duration

	// Prefs seeds the theme, start view and log follow mode. Theme changes
	// are written back to PrefsPath when it is set.
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx       context.Context
	store     *state.Store
	session   *session.Session
	logPath   string
	pollTick  time.Duration
	prefsPath string

	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	snapshot    state.Snapshot
	hasSnapshot bool

	products table.Model
	spinner  spinner.Model

	logs       viewport.Model
	logFollow  bool
	logEntries []logtail.Entry
	logErr     error

	prefsErr error
}

// New creates the model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	p := opts.Prefs
	if p == (prefs.Prefs{}) {
		p = prefs.Default()
	}

	m := Model{
		ctx:       ctx,
		store:     opts.Store,
		session:   opts.Session,
		logPath:   opts.LogPath,
		pollTick:  pollTick,
		prefsPath: opts.PrefsPath,
		theme:     GetTheme(p.Theme),
		logFollow: p.FollowLogs,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		products: table.New(
			table.WithColumns(productColumns(80)),
			table.WithFocused(true),
		),
	}
	if p.StartView == prefs.ViewLogs {
		m.currentView = ViewLogs
	}
	m.applyTheme()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick), m.spinner.Tick}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs {
		cmds = append(cmds, loadLogsCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.logs = viewport.New(msg.Width, m.contentHeight())
		}
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.hasSnapshot = true
		m.updateProductTable()
		return m, nil

	case logsMsg:
		m.logEntries = msg
		m.logErr = nil
		m.updateLogViewport()
		return m, nil

	case logErrorMsg:
		m.logErr = msg.err
		return m, nil

	case prefsErrorMsg:
		m.prefsErr = msg.err
		return m, nil

	case spinner.TickMsg:
		if m.hasSnapshot {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderProducts())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, keys.Theme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTheme()
		return m, m.savePrefsCmd()
	case key.Matches(msg, keys.Toggle):
		if m.currentView == ViewLogs {
			m.currentView = ViewProducts
			return m, nil
		}
		return m.showLogs()
	case key.Matches(msg, keys.Products):
		m.currentView = ViewProducts
		return m, nil
	case key.Matches(msg, keys.Logs):
		return m.showLogs()
	}

	if m.currentView == ViewProducts {
		var cmd tea.Cmd
		m.products, cmd = m.products.Update(msg)
		return m, cmd
	}

	if key.Matches(msg, keys.Follow) {
		m.logFollow = !m.logFollow
		if m.logFollow {
			m.logs.GotoBottom()
		}
		return m, m.savePrefsCmd()
	}
	var cmd tea.Cmd
	m.logs, cmd = m.logs.Update(msg)
	if !m.logs.AtBottom() {
		m.logFollow = false
	}
	return m, cmd
}

func (m Model) showLogs() (tea.Model, tea.Cmd) {
	m.currentView = ViewLogs
	return m, loadLogsCmd(m.logPath)
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs && m.logFollow {
		cmds = append(cmds, loadLogsCmd(m.logPath))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) contentHeight() int {
	// Two header lines, the footer, the pane border and the page summary.
	h := m.height - 6
	if h < 3 {
		return 3
	}
	return h
}

func (m *Model) resize() {
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	m.products.SetColumns(productColumns(width))
	m.products.SetWidth(width)
	m.products.SetHeight(m.contentHeight())
	m.logs.Width = width
	m.logs.Height = m.contentHeight()
	m.updateLogViewport()
}

func (m *Model) applyTheme() {
	styles := m.theme.Styles()
	ts := table.DefaultStyles()
	ts.Header = ts.Header.Foreground(styles.AccentText.GetForeground()).Bold(true)
	ts.Selected = styles.Selected
	m.products.SetStyles(ts)
	m.spinner.Style = styles.AccentText
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type logsMsg []logtail.Entry

type logErrorMsg struct{ err error }

type prefsErrorMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func loadLogsCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		entries, err := logtail.ReadEntries(path, logTailLines)
		if err != nil {
			return logErrorMsg{err: err}
		}
		return logsMsg(entries)
	}
}

func (m Model) currentPrefs() prefs.Prefs {
	view := prefs.ViewProducts
	if m.currentView == ViewLogs {
		view = prefs.ViewLogs
	}
	return prefs.Prefs{Theme: m.theme.Name, StartView: view, FollowLogs: m.logFollow}
}

func (m Model) savePrefsCmd() tea.Cmd {
	if m.prefsPath == "" {
		return nil
	}
	path, p := m.prefsPath, m.currentPrefs()
	return func() tea.Msg {
		if err := prefs.Save(path, p); err != nil {
			return prefsErrorMsg{err: err}
		}
		return nil
	}
}

// Run starts the Bubble Tea program and blocks until it exits or the
// context is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}
