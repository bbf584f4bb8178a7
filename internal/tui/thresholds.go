package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/etcd-dash/internal/model"
)

// fragmentationSeverity returns Warning when more than half of the backend is
// free pages, Critical above 80%.
func fragmentationSeverity(pct float64) model.HintSeverity {
	switch {
	case pct > 80:
		return model.SeverityCritical
	case pct > 50:
		return model.SeverityWarning
	default:
		return model.SeverityNormal
	}
}

// severityToStyle maps a severity level to the appropriate lipgloss style.
func severityToStyle(s model.HintSeverity) lipgloss.Style {
	switch s {
	case model.SeverityWarning:
		return StyleYellow
	case model.SeverityCritical:
		return StyleRed
	default:
		return lipgloss.NewStyle()
	}
}

// severityFg returns the card foreground for a severity; normal values are green.
func severityFg(s model.HintSeverity) lipgloss.Color {
	switch s {
	case model.SeverityWarning:
		return colorYellow
	case model.SeverityCritical:
		return colorRed
	default:
		return colorGreen
	}
}
