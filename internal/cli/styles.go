// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/pigeonhole/internal/model"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#7C6FF0")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor indicates warnings or degraded results.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates errors.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor indicates less prominent elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	// CategoryStyle highlights the assigned category.
	CategoryStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SuccessColor)

	// WarningStyle formats degraded or fallback output.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// SubtleStyle formats secondary detail.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#333"))
)

// FormatResult renders a categorization result for terminal display.
func FormatResult(result model.CategorizationResult) string {
	categoryStyle := CategoryStyle
	if result.Source == model.SourceFallback {
		categoryStyle = WarningStyle
	}

	out := fmt.Sprintf("%s %s\n", TitleStyle.Render("Category:"), categoryStyle.Render(result.Category))
	out += fmt.Sprintf("%s %.2f (%s)\n", TitleStyle.Render("Confidence:"), result.Confidence, result.Source)
	if result.Merchant != "" {
		out += fmt.Sprintf("%s %s\n", TitleStyle.Render("Merchant:"), result.Merchant)
	}
	for _, reason := range result.Reasons {
		out += SubtleStyle.Render(fmt.Sprintf("  - %s", reason)) + "\n"
	}
	if result.Reasoning != "" {
		out += SubtleStyle.Render(fmt.Sprintf("  %s", result.Reasoning)) + "\n"
	}
	out += SubtleStyle.Render(fmt.Sprintf("  fingerprint %s", result.Fingerprint))

	return out
}
