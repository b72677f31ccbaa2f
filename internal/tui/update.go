package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/antaqor/yuki/internal/logger"
	"github.com/antaqor/yuki/internal/wizard"
)

// changedMsg is delivered when the wizard reported a state change
type changedMsg struct{}

// actionMsg is delivered when a wizard call issued by the TUI returns
type actionMsg struct {
	name string
	err  error
}

type loginMsg struct {
	err error
}

// run executes a blocking wizard call off the event loop
func (m Model) run(name string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionMsg{name: name, err: fn(ctx)}
	}
}

func (m Model) waitForActivity() tea.Cmd {
	if m.activity == nil {
		return nil
	}
	ctx, act := m.ctx, m.activity
	return func() tea.Msg {
		select {
		case <-act:
			return changedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) signIn(creds loginForm) tea.Cmd {
	ctx, login := m.ctx, m.login
	return func() tea.Msg {
		return loginMsg{err: login(ctx, creds.Email, creds.Password)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.picker.SetSize(msg.Width-4, max(msg.Height-12, 4))
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case changedMsg:
		m.refresh()
		return m, m.waitForActivity()
	case actionMsg:
		if msg.err != nil {
			logger.Debug("Wizard action failed", "action", msg.name, "error", msg.err)
		}
		m.refresh()
		return m, nil
	case loginMsg:
		if msg.err != nil {
			logger.Warn("Sign in failed", "error", msg.err)
			m.formError = msg.err.Error()
			return m, nil
		}
		m.formError = ""
		return m, m.run("start over", m.wizard.StartOver)
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		creds := *m.loginForm
		m.form = nil
		m.loginForm = nil
		return m, tea.Batch(cmd, m.signIn(creds))
	case huh.StateAborted:
		m.form = nil
		m.loginForm = nil
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.History):
		m.showHistory = !m.showHistory
		if m.showHistory && !m.state.IsLoadingHistory {
			return m, m.run("history", m.wizard.LoadHistory)
		}
		return m, nil
	case key.Matches(msg, m.keys.Login):
		if m.state.AuthRequired && m.login != nil {
			m.form = m.newLoginForm()
			return m, m.form.Init()
		}
		return m, nil
	case key.Matches(msg, m.keys.Back):
		if m.showHistory {
			m.showHistory = false
			return m, nil
		}
		m.wizard.Back()
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		m.cycle(1)
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.cycle(-1)
		return m, nil
	case key.Matches(msg, m.keys.StartOver):
		m.showHistory = false
		return m, m.run("start over", m.wizard.StartOver)
	}

	if m.showHistory {
		return m, nil
	}

	switch m.state.Step {
	case wizard.StepLocation, wizard.StepArtist:
		if key.Matches(msg, m.keys.Enter) {
			return m, m.choose()
		}
	case wizard.StepTime:
		switch {
		case key.Matches(msg, m.keys.Enter):
			if it, ok := m.picker.SelectedItem().(item); ok {
				if err := m.wizard.SelectSlot(m.state.SelectedDay, it.id); err != nil {
					logger.Debug("Wizard action failed", "action", "select slot", "error", err)
				}
				m.refresh()
			}
			return m, nil
		case key.Matches(msg, m.keys.PrevDay):
			m.shiftDay(-1)
			return m, nil
		case key.Matches(msg, m.keys.NextDay):
			m.shiftDay(1)
			return m, nil
		case key.Matches(msg, m.keys.Book):
			return m, m.run("book", func(ctx context.Context) error {
				_, err := m.wizard.Submit(ctx)
				return err
			})
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

// choose applies the highlighted location or artist
func (m Model) choose() tea.Cmd {
	it, ok := m.picker.SelectedItem().(item)
	if !ok {
		return nil
	}
	w := m.wizard
	if m.state.Step == wizard.StepLocation {
		return m.run("select location", func(ctx context.Context) error {
			return w.SelectLocation(ctx, it.id)
		})
	}
	return m.run("select artist", func(ctx context.Context) error {
		return w.SelectArtist(ctx, it.id)
	})
}

// cycle moves to the next reachable step in direction dir, wrapping around
func (m *Model) cycle(dir int) {
	steps := wizard.Steps()
	n := len(steps)
	current := int(m.state.Step)
	for i := 1; i < n; i++ {
		target := steps[((current+dir*i)%n+n)%n]
		if m.state.CanAccessStep(target) {
			m.showHistory = false
			m.wizard.GoTo(target)
			m.refresh()
			return
		}
	}
}

func (m *Model) shiftDay(dir int) {
	days := m.state.AvailabilityDays
	if len(days) == 0 {
		return
	}
	idx := -1
	for i, d := range days {
		if d.Date == m.state.SelectedDay {
			idx = i
			break
		}
	}
	next := idx + dir
	if idx < 0 {
		next = 0
	}
	if next < 0 || next >= len(days) {
		return
	}
	if err := m.wizard.PickDay(days[next].Date); err != nil {
		logger.Debug("Wizard action failed", "action", "pick day", "error", err)
	}
	m.refresh()
}
