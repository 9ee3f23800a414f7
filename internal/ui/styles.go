package ui

import "github.com/charmbracelet/lipgloss"

// Arcane palette, tuned for dark terminal backgrounds.
const (
	ColorWhite = "#FFFFFF"

	ColorGray400 = "#9FA7B2"
	ColorGray500 = "#6C7585"
	ColorGray600 = "#4E5560"
	ColorGray800 = "#212732"

	ColorViolet300 = "#C4B5FD"
	ColorViolet400 = "#A78BFA"
	ColorViolet500 = "#8B5CF6"
	ColorViolet600 = "#7C3AED"

	ColorEmerald400 = "#34D399"
	ColorRose400    = "#FB7185"
	ColorAmber400   = "#FBBF24"
)

var (
	// TitleStyle is used for command headers.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorViolet500))

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorEmerald400))

	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorAmber400))

	// DimStyle is used for secondary text such as paths and versions.
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGray500))

	CommandStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorViolet300))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorViolet500)).
			Padding(0, 1)
)
