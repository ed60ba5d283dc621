package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/xinguang/stockwatch/pkg/stock"
)

// Styles
var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("252"))

	panelTitleStyle = lipgloss.NewStyle().Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("220")).
			Foreground(lipgloss.Color("0")).
			Bold(true)

	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("220")).
			Foreground(lipgloss.Color("220"))
)

const (
	normalHelp = "Quit[Q] | New[N] | Delete[D] | Refresh[R] | Move up[U] | Move down[J]"
	addingHelp = "Confirm[Enter] | Cancel[Esc] | Prefix Shanghai codes with 0, Shenzhen with 1"
)

// View implements tea.Model
func (m *Model) View() string {
	quotes := m.store.Snapshot()
	sel, hasSel := m.store.Selection()

	bodyHeight := m.height - 2
	if m.mode == stock.ModeAdding {
		bodyHeight -= 3
	}
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	listWidth := m.width * 30 / 100
	detailWidth := m.width - listWidth

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderList(quotes, sel, hasSel, listWidth, bodyHeight),
		m.renderDetail(quotes, sel, hasSel, detailWidth, bodyHeight),
	)

	parts := []string{m.renderTitleBar(), body}
	if m.mode == stock.ModeAdding {
		parts = append(parts, inputStyle.Width(m.width-2).Render("Symbol code "+m.input.View()))
	}
	parts = append(parts, m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderTitleBar() string {
	left := fmt.Sprintf("Stock v%s", m.version)

	var right string
	if errMsg := m.store.LastError(); errMsg != "" {
		right = errorStyle.Render(errMsg)
	} else if at := m.store.LastRefreshAt(); !at.IsZero() {
		right = at.Format("last update 15:04:05")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderList(quotes []stock.Quote, sel int, hasSel bool, width, height int) string {
	lines := []string{panelTitleStyle.Render("Watchlist")}
	for i, q := range quotes {
		pct := q.PercentDisplay()
		if q.Rising() {
			pct = upStyle.Render(pct)
		} else {
			pct = downStyle.Render(pct)
		}
		line := pct + " " + q.Title
		if hasSel && i == sel {
			line = selectedStyle.Render(q.PercentDisplay() + " " + q.Title)
		}
		lines = append(lines, line)
	}

	return panelStyle.
		Width(max(width-2, 1)).
		Height(max(height-2, 1)).
		Render(strings.Join(lines, "\n"))
}

func (m *Model) renderDetail(quotes []stock.Quote, sel int, hasSel bool, width, height int) string {
	lines := []string{panelTitleStyle.Render("Detail")}
	if hasSel && sel < len(quotes) {
		q := quotes[sel]
		lines = append(lines,
			"Code:       "+q.Code,
			"Name:       "+q.Title,
			"Change:     "+q.PercentDisplay(),
			fmt.Sprintf("Price:      %.2f", q.Price),
			fmt.Sprintf("Open:       %.2f", q.Open),
			fmt.Sprintf("Prev close: %.2f", q.YestClose),
			fmt.Sprintf("High:       %.2f", q.High),
			fmt.Sprintf("Low:        %.2f", q.Low),
		)
	}

	return panelStyle.
		Width(max(width-2, 1)).
		Height(max(height-2, 1)).
		Render(strings.Join(lines, "\n"))
}

func (m *Model) renderStatusBar() string {
	if m.mode == stock.ModeAdding {
		return statusStyle.Render(addingHelp)
	}
	return statusStyle.Render(normalHelp)
}
