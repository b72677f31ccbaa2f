package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/antaqor/yuki/internal/constants"
	"github.com/antaqor/yuki/internal/models"
	"github.com/antaqor/yuki/internal/wizard"
)

var stepTitles = map[wizard.Step]string{
	wizard.StepLocation: "Location",
	wizard.StepArtist:   "Artist",
	wizard.StepTime:     "Time",
	wizard.StepSummary:  "Summary",
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch {
	case m.form != nil:
		content = m.form.View()
	case m.showHistory:
		content = m.viewHistory()
	default:
		switch m.state.Step {
		case wizard.StepLocation:
			content = m.viewPicker("Choose a location", m.state.IsLoadingLocations)
		case wizard.StepArtist:
			content = m.viewPicker("Choose an artist", m.state.IsLoadingArtists)
		case wizard.StepTime:
			content = m.viewTime()
		case wizard.StepSummary:
			content = m.viewSummary()
		}
	}

	ui := lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		m.viewSelection(),
		m.viewMessage(),
		docStyle.Render(content),
		m.help.View(m),
	)
	return ui
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, step := range wizard.Steps() {
		title := fmt.Sprintf("%d %s", i+1, stepTitles[step])
		switch {
		case !m.showHistory && m.state.Step == step:
			tabs = append(tabs, activeTabStyle.Render(title))
		case m.state.CanAccessStep(step):
			tabs = append(tabs, inactiveTabStyle.Render(title))
		default:
			tabs = append(tabs, lockedTabStyle.Render(title))
		}
	}
	if m.showHistory {
		tabs = append(tabs, activeTabStyle.Render("History"))
	}
	if m.loading() {
		tabs = append(tabs, m.spinner.View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// viewSelection shows the choices made so far
func (m Model) viewSelection() string {
	var parts []string
	if l, ok := m.state.Location(); ok {
		parts = append(parts, l.Name)
	}
	if a, ok := m.state.Artist(); ok {
		parts = append(parts, a.Name)
	}
	if m.state.SelectedDay != "" {
		parts = append(parts, formatDay(m.state.SelectedDay))
	}
	if m.state.SelectedTime != "" {
		parts = append(parts, m.state.SelectedTime)
	}
	if len(parts) == 0 {
		return ""
	}
	return mutedStyle.Render(" " + strings.Join(parts, " › "))
}

func (m Model) viewMessage() string {
	msg := m.state.Message
	var out string
	if msg != nil && msg.Text != "" {
		switch msg.Tone {
		case constants.ToneError:
			out = errorStyle.Render("✗ " + msg.Text)
		case constants.ToneSuccess:
			out = successStyle.Render("✓ " + msg.Text)
		default:
			out = infoStyle.Render(msg.Text)
		}
	}
	if m.state.AuthRequired {
		hint := "Run `yuki login` to sign in."
		if m.login != nil {
			hint = "Press L to sign in."
		}
		out = lipgloss.JoinVertical(lipgloss.Left, out, mutedStyle.Render(hint))
	}
	if m.formError != "" {
		out = lipgloss.JoinVertical(lipgloss.Left, out, errorStyle.Render(m.formError))
	}
	if out == "" {
		return ""
	}
	return " " + out
}

func (m Model) viewPicker(title string, loading bool) string {
	if loading && len(m.picker.Items()) == 0 {
		return fmt.Sprintf("%s Loading...", m.spinner.View())
	}
	if len(m.picker.Items()) == 0 {
		return mutedStyle.Render("Nothing to choose from yet.")
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, "", m.picker.View())
}

func (m Model) viewTime() string {
	if m.state.IsLoadingAvailability && len(m.state.AvailabilityDays) == 0 {
		return fmt.Sprintf("%s Loading availability...", m.spinner.View())
	}
	if len(m.state.AvailabilityDays) == 0 {
		return mutedStyle.Render("No availability to show.")
	}

	var days []string
	for _, d := range m.state.AvailabilityDays {
		label := formatDay(d.Date)
		if !d.HasAvailable() {
			label = mutedStyle.Render(label)
		}
		if d.Date == m.state.SelectedDay {
			days = append(days, selectedDayStyle.Render(label))
		} else {
			days = append(days, dayStyle.Render(label))
		}
	}
	strip := lipgloss.JoinHorizontal(lipgloss.Top, days...)

	body := m.picker.View()
	if m.state.SelectedDay == "" {
		body = mutedStyle.Render("Pick a day with ←/→.")
	} else if len(m.picker.Items()) == 0 {
		body = mutedStyle.Render(constants.MsgDayFullyBooked)
	}

	footer := mutedStyle.Render("Select a time, then press b to book.")
	if m.state.SelectedTime != "" {
		footer = successStyle.Render(fmt.Sprintf("%s at %s selected. Press b to book.", formatDay(m.state.SelectedDay), m.state.SelectedTime))
	}
	if m.state.BookingStatus == constants.BookingSubmitting {
		footer = fmt.Sprintf("%s Booking...", m.spinner.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, strip, "", body, footer)
}

func (m Model) viewSummary() string {
	b := m.state.LastBooking
	if b == nil {
		return mutedStyle.Render("No booking yet.")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		successStyle.Render("Your appointment"),
		cardStyle.Render(formatBooking(*b)),
		"",
		mutedStyle.Render("Press n to book another appointment."),
	)
}

func (m Model) viewHistory() string {
	if m.state.IsLoadingHistory && len(m.state.History) == 0 {
		return fmt.Sprintf("%s Loading bookings...", m.spinner.View())
	}
	if len(m.state.History) == 0 {
		return mutedStyle.Render("No bookings yet.")
	}
	var rows []string
	for _, b := range m.state.History {
		rows = append(rows, fmt.Sprintf("%s %s  %s with %s  %s",
			formatDay(b.Date), b.Time, b.Location.Name, b.Artist.Name, mutedStyle.Render(b.Status)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func formatBooking(b models.BookingSummary) string {
	lines := []string{
		fmt.Sprintf("When:   %s at %s", formatDay(b.Date), b.Time),
		fmt.Sprintf("Where:  %s", b.Location.Name),
		fmt.Sprintf("Artist: %s", b.Artist.Name),
		fmt.Sprintf("Status: %s", b.Status),
	}
	if b.ID != "" {
		lines = append(lines, mutedStyle.Render("Ref:    "+b.ID))
	}
	return strings.Join(lines, "\n")
}

// formatDay renders YYYY-MM-DD as "Mon 02 Jan"; unparseable dates are shown as is
func formatDay(date string) string {
	t, err := time.Parse(constants.DateFormat, date)
	if err != nil {
		return date
	}
	return t.Format("Mon 02 Jan")
}
