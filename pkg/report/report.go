// Package report renders a watchlist snapshot as markdown
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/xinguang/stockwatch/pkg/stock"
)

// Markdown builds a markdown table of quotes with a status line
func Markdown(quotes []stock.Quote, lastErr string, refreshedAt time.Time) string {
	var b strings.Builder

	b.WriteString("# Watchlist\n\n")
	switch {
	case lastErr != "":
		fmt.Fprintf(&b, "**Error:** %s\n\n", lastErr)
	case !refreshedAt.IsZero():
		fmt.Fprintf(&b, "Last update %s\n\n", refreshedAt.Format("15:04:05"))
	}

	if len(quotes) == 0 {
		b.WriteString("_No symbols tracked._\n")
		return b.String()
	}

	b.WriteString("| Code | Name | Change | Price | Open | Prev Close | High | Low |\n")
	b.WriteString("|------|------|-------:|------:|-----:|-----------:|-----:|----:|\n")
	for _, q := range quotes {
		fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %.2f | %.2f | %.2f | %.2f |\n",
			q.Code, escape(q.Title), q.PercentDisplay(), q.Price, q.Open, q.YestClose, q.High, q.Low)
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// Render turns markdown into terminal output. style is a glamour standard
// style name ("dark", "light", "notty"); empty picks one from the terminal.
func Render(md, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return out, nil
}
