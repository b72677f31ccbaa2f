package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/antaqor/yuki/internal/constants"
	"github.com/antaqor/yuki/internal/wizard"
)

// Activity carries wizard change notifications into the bubbletea loop.
// Pass its Notify method to wizard.WithOnChange.
type Activity chan struct{}

func NewActivity() Activity {
	return make(Activity, 1)
}

// Notify never blocks; bursts of changes collapse into one re-render.
func (a Activity) Notify() {
	select {
	case a <- struct{}{}:
	default:
	}
}

// LoginFunc signs the user in and stores the session token
type LoginFunc func(ctx context.Context, email, password string) error

type loginForm struct {
	Email    string
	Password string
}

type item struct {
	id    string
	title string
	desc  string
	// closed marks a slot that cannot be booked
	closed bool
}

func (i item) Title() string {
	if i.closed {
		return mutedStyle.Render(i.title + " (booked)")
	}
	return i.title
}

func (i item) Description() string { return i.desc }

func (i item) FilterValue() string { return i.title }

type Model struct {
	ctx      context.Context
	wizard   *wizard.Wizard
	activity Activity
	login    LoginFunc

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	picker  list.Model

	state wizard.State
	// pickerStep and pickerDay record what the picker currently lists
	pickerStep  wizard.Step
	pickerDay   string
	showHistory bool

	form      *huh.Form
	loginForm *loginForm
	formError string

	quitting bool
	width    int
	height   int
}

// New builds the TUI over a wizard. activity may be nil, in which case the view
// only refreshes after its own actions complete.
func New(ctx context.Context, w *wizard.Wizard, activity Activity, login LoginFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.PrevPage.SetEnabled(false)
	l.KeyMap.NextPage.SetEnabled(false)

	m := Model{
		ctx:        ctx,
		wizard:     w,
		activity:   activity,
		login:      login,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		spinner:    sp,
		picker:     l,
		state:      w.Snapshot(),
		pickerStep: -1,
	}
	m.syncPicker()
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Enter, m.keys.Back}
	switch m.state.Step {
	case wizard.StepTime:
		keys = append(keys, m.keys.PrevDay, m.keys.NextDay, m.keys.Book)
	case wizard.StepSummary:
		keys = append(keys, m.keys.StartOver)
	}
	if m.state.AuthRequired && m.login != nil {
		keys = append(keys, m.keys.Login)
	}
	return append(keys, m.keys.History, m.keys.Quit, m.keys.Help)
}

func (m Model) FullHelp() [][]key.Binding {
	return m.keys.FullHelp()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitForActivity(),
		m.run("start", m.wizard.Start),
	)
}

// Quitting reports whether the user asked to leave
func (m Model) Quitting() bool {
	return m.quitting
}

// syncPicker rebuilds the list for the current step from the state snapshot
func (m *Model) syncPicker() {
	var (
		items    []list.Item
		selected string
	)
	switch m.state.Step {
	case wizard.StepLocation:
		for _, l := range m.state.Locations {
			items = append(items, item{id: l.ID, title: l.Name, desc: l.Address})
		}
		selected = m.state.SelectedLocationID
	case wizard.StepArtist:
		for _, a := range m.state.Artists {
			items = append(items, item{id: a.ID, title: a.Name, desc: a.Bio})
		}
		selected = m.state.SelectedArtistID
	case wizard.StepTime:
		if day, ok := m.state.CurrentDay(); ok {
			for _, s := range day.Slots {
				desc := "open"
				if !s.Available {
					desc = "unavailable"
				}
				items = append(items, item{id: s.Time, title: s.Time, desc: desc, closed: !s.Available})
			}
		}
		selected = m.state.SelectedTime
	}

	moved := m.pickerStep != m.state.Step || m.pickerDay != m.state.SelectedDay
	m.picker.SetItems(items)
	m.pickerStep = m.state.Step
	m.pickerDay = m.state.SelectedDay
	if !moved {
		return
	}
	m.picker.Select(0)
	for i, it := range items {
		if it.(item).id == selected {
			m.picker.Select(i)
			break
		}
	}
}

func (m *Model) refresh() {
	m.state = m.wizard.Snapshot()
	m.syncPicker()
}

func (m Model) loading() bool {
	s := m.state
	return s.IsLoadingLocations || s.IsLoadingArtists || s.IsLoadingAvailability ||
		s.IsLoadingHistory || s.BookingStatus == constants.BookingSubmitting
}

func (m *Model) newLoginForm() *huh.Form {
	m.loginForm = &loginForm{}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&m.loginForm.Email).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("email is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.loginForm.Password),
		),
	).WithShowHelp(true)
}
