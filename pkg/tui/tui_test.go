package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xinguang/stockwatch/pkg/stock"
	"github.com/xinguang/stockwatch/pkg/watchlist"
)

type fakeRefresher struct {
	calls int
}

func (f *fakeRefresher) RequestRefresh() bool {
	f.calls++
	return true
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newModel(codes ...string) (*Model, *fakeRefresher, *[][]string) {
	r := &fakeRefresher{}
	var saved [][]string
	m := New(Config{
		Version:  "1.0.0",
		Store:    watchlist.New(codes...),
		Refresh:  r,
		OnChange: func(codes []string) { saved = append(saved, codes) },
	})
	return m, r, &saved
}

func send(m *Model, msgs ...tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func TestNewSelectsFirst(t *testing.T) {
	m, _, _ := newModel("600000")
	i, ok := m.store.Selection()
	assert.True(t, ok)
	assert.Equal(t, 0, i)
}

func TestAddSymbol(t *testing.T) {
	m, r, saved := newModel("600000")

	send(m, runes("n"))
	assert.Equal(t, stock.ModeAdding, m.Mode())

	send(m, runes("000001"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, stock.ModeNormal, m.Mode())
	assert.Equal(t, []string{"600000", "000001"}, m.store.Codes())
	assert.Equal(t, 1, r.calls)
	require.Len(t, *saved, 1)
	assert.Equal(t, []string{"600000", "000001"}, (*saved)[0])

	i, _ := m.store.Selection()
	assert.Equal(t, 1, i)
}

func TestAddSplitsCommaSeparatedCodes(t *testing.T) {
	m, r, saved := newModel("600000")

	send(m, runes("n"), runes("000001, 600000,1399001"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"600000", "000001", "1399001"}, m.store.Codes())
	assert.Equal(t, 1, r.calls)
	require.Len(t, *saved, 1)

	i, _ := m.store.Selection()
	assert.Equal(t, 2, i)
}

func TestAddDuplicateOrEmptyIgnored(t *testing.T) {
	m, r, saved := newModel("600000")

	send(m, runes("n"), runes("600000"), tea.KeyMsg{Type: tea.KeyEnter})
	send(m, runes("n"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"600000"}, m.store.Codes())
	assert.Zero(t, r.calls)
	assert.Empty(t, *saved)
}

func TestAddCancel(t *testing.T) {
	m, _, _ := newModel()

	send(m, runes("n"), runes("600000"), tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, stock.ModeNormal, m.Mode())
	assert.Zero(t, m.store.Len())
}

func TestKeysInAddingModeAreText(t *testing.T) {
	m, _, _ := newModel("600000")

	send(m, runes("n"), runes("q"))

	assert.Equal(t, stock.ModeAdding, m.Mode())
	assert.Equal(t, "q", m.input.Value())
}

func TestDeleteSelected(t *testing.T) {
	m, _, saved := newModel("a", "b")

	send(m, tea.KeyMsg{Type: tea.KeyDown}, runes("d"))
	assert.Equal(t, []string{"a"}, m.store.Codes())
	i, ok := m.store.Selection()
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	send(m, runes("d"))
	assert.Zero(t, m.store.Len())
	_, ok = m.store.Selection()
	assert.False(t, ok)

	send(m, runes("d"))
	assert.Len(t, *saved, 2)
}

func TestMoveSelected(t *testing.T) {
	m, _, saved := newModel("a", "b", "c")

	send(m, runes("j"), runes("j"))
	assert.Equal(t, []string{"b", "c", "a"}, m.store.Codes())

	send(m, runes("u"))
	assert.Equal(t, []string{"b", "a", "c"}, m.store.Codes())
	i, _ := m.store.Selection()
	assert.Equal(t, 1, i)
	assert.Len(t, *saved, 3)
}

func TestSelectionWraps(t *testing.T) {
	m, _, _ := newModel("a", "b", "c")

	send(m, tea.KeyMsg{Type: tea.KeyUp})
	i, _ := m.store.Selection()
	assert.Equal(t, 2, i)

	send(m, tea.KeyMsg{Type: tea.KeyDown})
	i, _ = m.store.Selection()
	assert.Equal(t, 0, i)
}

func TestRefreshKey(t *testing.T) {
	m, r, _ := newModel("600000")
	send(m, runes("r"))
	assert.Equal(t, 1, r.calls)
}

func TestQuit(t *testing.T) {
	m, _, _ := newModel()
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTickAdvances(t *testing.T) {
	m, _, _ := newModel()
	_, cmd := m.Update(tickMsg(time.Now()))
	assert.Equal(t, 1, m.Ticks())
	assert.NotNil(t, cmd)
}

func TestViewShowsState(t *testing.T) {
	m, _, _ := newModel("600000")
	send(m, tea.WindowSizeMsg{Width: 100, Height: 20})
	m.store.Merge(map[string]interface{}{
		"600000": map[string]interface{}{"name": "Pudong Bank", "price": 10.5, "percent": 0.012},
	})
	m.store.MarkRefreshed(time.Date(2024, 1, 2, 9, 30, 0, 0, time.Local))

	view := m.View()
	assert.Contains(t, view, "Stock v1.0.0")
	assert.Contains(t, view, "last update 09:30:00")
	assert.Contains(t, view, "Pudong Bank")
	assert.Contains(t, view, "+1.20%")
	assert.Contains(t, view, "10.50")
	assert.Contains(t, view, "Quit[Q]")

	m.store.SetError("server error")
	view = m.View()
	assert.Contains(t, view, "server error")
	assert.NotContains(t, view, "last update")
}

func TestViewAddingMode(t *testing.T) {
	m, _, _ := newModel()
	send(m, runes("n"))

	view := m.View()
	assert.Contains(t, view, "Symbol code")
	assert.Contains(t, view, "Confirm[Enter]")
}
