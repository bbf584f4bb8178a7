package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/etcd-dash/internal/format"
)

const overviewCards = 5

// renderOverview renders the cluster overview bar.
// Wide terminals (>= 80 cols): all cards in a single horizontal row.
// Narrow terminals (< 80 cols): cards stacked in rows of 2.
// Returns empty string until the first successful poll.
func renderOverview(app *App) string {
	if app.state.LastUpdated.IsZero() {
		return ""
	}

	width := app.width
	if width <= 0 {
		width = 80
	}

	narrowMode := width < 80

	var cardWidth int
	if narrowMode {
		cardWidth = (width - 4) / 2
		if cardWidth < 10 {
			cardWidth = 10
		}
	} else {
		cardWidth = (width - 2*overviewCards) / overviewCards
		if cardWidth < 8 {
			cardWidth = 8
		}
	}

	// Mini bar inner width: card width minus padding (1 char each side).
	barWidth := cardWidth - 4
	if barWidth < 4 {
		barWidth = 4
	}

	sum := app.summary

	// Card 1: member count.
	card1 := StyleOverviewCard.
		Foreground(colorBlue).
		Width(cardWidth).
		Render(fmt.Sprintf("%d", sum.Endpoints) + "\nEndpoints")

	// Card 2: leader, red background when nobody leads.
	leader := sanitize(sum.LeaderAddress)
	leaderCard := StyleOverviewCard.Foreground(colorGreen)
	if leader == "" {
		leader = "NONE"
		if sum.Endpoints > 0 {
			leaderCard = StyleOverviewCard.Background(colorRed).Foreground(colorDark).Bold(true)
		}
	}
	card2 := leaderCard.
		Width(cardWidth).
		Render(truncateName(leader, cardWidth-2) + "\nLeader")

	// Card 3: version, yellow when members disagree.
	versionText := "---"
	versionFg := colorPurple
	switch len(sum.Versions) {
	case 0:
	case 1:
		versionText = sanitize(sum.Versions[0])
	default:
		versionText = fmt.Sprintf("mixed (%d)", len(sum.Versions))
		versionFg = colorYellow
	}
	card3 := StyleOverviewCard.
		Foreground(versionFg).
		Width(cardWidth).
		Render(versionText + "\nVersion")

	// Card 4: total backend size across members.
	card4 := StyleOverviewCard.
		Foreground(colorIndigo).
		Width(cardWidth).
		Render(format.FormatBytes(sum.TotalBytes) + "\n" +
			StyleDim.Render(format.FormatBytes(sum.InUseBytes)+" in use") + "\nDB Size")

	// Card 5: fragmentation with mini bar, threshold-colored.
	fragSev := fragmentationSeverity(sum.FragmentationPct)
	card5 := StyleOverviewCard.
		Foreground(severityFg(fragSev)).
		Width(cardWidth).
		Render(format.FormatPercent(sum.FragmentationPct) + "\n" + renderMiniBar(sum.FragmentationPct, barWidth) + "\nFragmented")

	if narrowMode {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, card1, card2)
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, card3, card4)
		return lipgloss.JoinVertical(lipgloss.Left, row1, row2, card5)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, card1, card2, card3, card4, card5)
}

// renderMiniBar renders a mini progress bar using Unicode block characters.
// Fills proportionally using "█" (U+2588) for filled and "░" (U+2591) for empty cells.
func renderMiniBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100.0 * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
