package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xinguang/stockwatch/pkg/stock"
)

func TestMarkdown(t *testing.T) {
	quotes := []stock.Quote{
		{Code: "600000", Title: "Pudong|Bank", Price: 10.5, Percent: 0.012},
		stock.NewQuote("000001"),
	}
	at := time.Date(2024, 1, 2, 9, 30, 5, 0, time.Local)

	md := Markdown(quotes, "", at)

	assert.Contains(t, md, "Last update 09:30:05")
	assert.Contains(t, md, `| 600000 | Pudong\|Bank | +1.20% | 10.50 |`)
	assert.Contains(t, md, "| 000001 | 000001 | +0.00% | 0.00 |")
}

func TestMarkdownError(t *testing.T) {
	md := Markdown(nil, "server error", time.Now())

	assert.Contains(t, md, "**Error:** server error")
	assert.NotContains(t, md, "Last update")
	assert.Contains(t, md, "No symbols tracked")
}

func TestRender(t *testing.T) {
	out, err := Render(Markdown([]stock.Quote{stock.NewQuote("600519")}, "", time.Time{}), "notty", 100)
	require.NoError(t, err)

	assert.Contains(t, out, "600519")
	assert.Contains(t, out, "Watchlist")
}
