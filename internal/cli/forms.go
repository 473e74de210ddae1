package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/worktime/internal/cli/formatter"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

func worktimeHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	// Focused state: orange accent
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)

	// Blurred state: dimmed
	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

func themed(groups ...*huh.Group) *huh.Form {
	return huh.NewForm(groups...).WithTheme(worktimeHuhTheme()).WithShowHelp(false)
}

// validateOptionalDate accepts empty or YYYY-MM-DD.
func validateOptionalDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD format")
	}
	return nil
}

// validateClock requires HH:MM.
func validateClock(s string) error {
	if _, err := time.Parse("15:04", strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("use HH:MM format")
	}
	return nil
}

// validateOptionalClock accepts empty or HH:MM.
func validateOptionalClock(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return validateClock(s)
}

// validateManualHours accepts empty or a value between 0.25 and 12.
func validateManualHours(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !(v >= 0.25 && v <= 12) {
		return fmt.Errorf("enter hours between 0.25 and 12")
	}
	return nil
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// manualEntry collects the fields of a hand-entered session as text.
type manualEntry struct {
	Type     string
	Date     string
	CheckIn  string
	CheckOut string
	Hours    string
}

func manualSessionForm(e *manualEntry) *huh.Form {
	return themed(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Session type").
				Options(huh.NewOption("Work", "work"), huh.NewOption("Lunch", "lunch")).
				Value(&e.Type),
			huh.NewInput().
				Title("Date (YYYY-MM-DD, blank for today)").
				Placeholder(time.Now().Format(dateLayout)).
				Value(&e.Date).
				Validate(validateOptionalDate),
			huh.NewInput().
				Title("Check-in (HH:MM)").
				Placeholder("09:00").
				Value(&e.CheckIn).
				Validate(validateClock),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Check-out (HH:MM, blank to use hours)").
				Placeholder("17:30").
				Value(&e.CheckOut).
				Validate(validateOptionalClock),
			huh.NewInput().
				Title("Hours (0.25-12, blank to leave the session open)").
				Placeholder("8").
				Value(&e.Hours).
				Validate(validateManualHours),
		),
	)
}

func confirmForm(title string, result *bool) *huh.Form {
	return themed(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(result),
		),
	)
}

func credentialsForm(login, password *string) *huh.Form {
	return themed(
		huh.NewGroup(
			huh.NewInput().
				Title("Email or username").
				Value(login).
				Validate(validateRequired("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(password).
				Validate(validateRequired("password")),
		),
	)
}

func registrationForm(name, email, password *string) *huh.Form {
	return themed(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(name).
				Validate(validateRequired("name")),
			huh.NewInput().
				Title("Email").
				Value(email).
				Validate(validateRequired("email")),
			huh.NewInput().
				Title("Password (at least 6 characters)").
				EchoMode(huh.EchoModePassword).
				Value(password).
				Validate(validateRequired("password")),
		),
	)
}
