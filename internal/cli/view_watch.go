package cli

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/worktime/internal/cli/formatter"
	"github.com/alexanderramin/worktime/internal/contract"
	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/engine"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const lunchAlertDuration = 8 * time.Second

// watchTracker is the part of *service.Tracker the live dashboard uses.
type watchTracker interface {
	Today(ctx context.Context, req contract.TodayRequest) (*contract.TodayView, error)
	Execute(ctx context.Context, cmd engine.Command) (engine.Result, error)
	SyncNow(ctx context.Context) error
	Events() <-chan engine.Event
}

type (
	watchTickMsg   time.Time
	todayLoadedMsg struct {
		view *contract.TodayView
		err  error
	}
	engineEventMsg struct{ event engine.Event }
	actionDoneMsg  struct {
		notice string
		err    error
	}
)

type watchKeyMap struct {
	Work  key.Binding
	Lunch key.Binding
	Stop  key.Binding
	Sync  key.Binding
	Quit  key.Binding
}

func newWatchKeyMap() watchKeyMap {
	return watchKeyMap{
		Work:  key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "start work")),
		Lunch: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "start lunch")),
		Stop:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop all")),
		Sync:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "sync")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Work, k.Lunch, k.Stop, k.Sync, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// watchModel is a once-per-second refreshing dashboard of today's account.
type watchModel struct {
	ctx     context.Context
	tracker watchTracker
	loc     *time.Location
	now     func() time.Time

	keys watchKeyMap
	help help.Model

	today      *contract.TodayView
	err        error
	notice     string
	alert      string
	alertUntil time.Time
	width      int
}

func newWatchModel(ctx context.Context, t watchTracker, loc *time.Location, now func() time.Time) watchModel {
	return watchModel{
		ctx:     ctx,
		tracker: t,
		loc:     loc,
		now:     now,
		keys:    newWatchKeyMap(),
		help:    help.New(),
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), watchTick(), m.waitForEvent())
}

func watchTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return watchTickMsg(t) })
}

func (m watchModel) refresh() tea.Cmd {
	return func() tea.Msg {
		view, err := m.tracker.Today(m.ctx, contract.NewTodayRequest())
		return todayLoadedMsg{view: view, err: err}
	}
}

func (m watchModel) waitForEvent() tea.Cmd {
	events := m.tracker.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return engineEventMsg{event: ev}
	}
}

func (m watchModel) execute(notice string, command engine.Command) tea.Cmd {
	return func() tea.Msg {
		_, err := m.tracker.Execute(m.ctx, command)
		return actionDoneMsg{notice: notice, err: err}
	}
}

func (m watchModel) sync() tea.Cmd {
	return func() tea.Msg {
		err := m.tracker.SyncNow(m.ctx)
		return actionDoneMsg{notice: "Synced", err: err}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case watchTickMsg:
		if m.alert != "" && !time.Time(msg).Before(m.alertUntil) {
			m.alert = ""
		}
		return m, tea.Batch(m.refresh(), watchTick())

	case todayLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.today = msg.view
		return m, nil

	case engineEventMsg:
		if _, ok := msg.event.(engine.LunchThresholdCrossed); ok {
			m.alert = "Lunch break deducted from a long work session."
			m.alertUntil = m.now().Add(lunchAlertDuration)
		}
		return m, tea.Batch(m.refresh(), m.waitForEvent())

	case actionDoneMsg:
		m.err = msg.err
		m.notice = ""
		if msg.err == nil {
			m.notice = msg.notice
		}
		return m, m.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Work):
			return m, m.execute("Checked in to work", engine.StartSession{Type: domain.SessionWork})
		case key.Matches(msg, m.keys.Lunch):
			return m, m.execute("Checked in to lunch", engine.StartSession{Type: domain.SessionLunch})
		case key.Matches(msg, m.keys.Stop):
			return m, m.execute("Checked out", engine.CompleteAll{})
		case key.Matches(msg, m.keys.Sync):
			return m, m.sync()
		}
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	if m.today == nil {
		b.WriteString(formatter.Dim("Loading..."))
	} else {
		b.WriteString(formatter.FormatToday(m.today, m.loc))
	}
	b.WriteString("\n")

	if m.alert != "" {
		b.WriteString(formatter.StylePurple.Render("  ◆ "+m.alert) + "\n")
	}
	if m.err != nil {
		b.WriteString(formatter.StyleRed.Render("  "+m.err.Error()) + "\n")
	} else if m.notice != "" {
		b.WriteString(formatter.StyleGreen.Render("  "+m.notice) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
