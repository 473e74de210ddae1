package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// BandStyle returns the style for a countdown band.
func BandStyle(band domain.CountdownBand) lipgloss.Style {
	switch band {
	case domain.BandCritical:
		return StyleRed
	case domain.BandWarning:
		return StyleYellow
	case domain.BandNormal:
		return StyleGreen
	default:
		return StyleDim
	}
}

// SyncPill returns a colored indicator such as "● Synced".
func SyncPill(status domain.SyncStatus) string {
	switch status {
	case domain.SyncSynced:
		return StyleGreen.Render("● Synced")
	case domain.SyncSyncing:
		return StyleBlue.Render("◌ Syncing")
	case domain.SyncOffline:
		return StyleYellow.Render("○ Offline")
	case domain.SyncError:
		return StyleRed.Render("✖ Sync error")
	case domain.SyncIdle, "":
		return StyleDim.Render("○ Idle")
	default:
		return StyleDim.Render(string(status))
	}
}

// TypeBadge renders a session type label.
func TypeBadge(t domain.SessionType) string {
	switch t {
	case domain.SessionWork:
		return StyleBlue.Render("Work")
	case domain.SessionLunch:
		return StylePurple.Render("Lunch")
	default:
		return StyleDim.Render(string(t))
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
