// Package tui provides the live watchlist dashboard
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/xinguang/stockwatch/pkg/stock"
	"github.com/xinguang/stockwatch/pkg/watchlist"
)

// FrameInterval is how often the dashboard redraws from the store
const FrameInterval = 250 * time.Millisecond

// Refresher starts a background refresh
type Refresher interface {
	RequestRefresh() bool
}

// ChangeCallback is called with the codes after the user edits the watchlist
type ChangeCallback func(codes []string)

// tickMsg advances the frame counter
type tickMsg time.Time

// Config holds TUI configuration
type Config struct {
	Version  string
	Store    *watchlist.Store
	Refresh  Refresher
	OnChange ChangeCallback
}

// Model represents the dashboard state
type Model struct {
	store    *watchlist.Store
	refresh  Refresher
	onChange ChangeCallback
	version  string

	mode  stock.Mode
	input textinput.Model
	ticks int

	width  int
	height int
}

// New creates a new dashboard model
func New(cfg Config) *Model {
	ti := textinput.New()
	ti.Placeholder = "600000"
	ti.Prompt = "> "
	ti.CharLimit = 16

	m := &Model{
		store:    cfg.Store,
		refresh:  cfg.Refresh,
		onChange: cfg.OnChange,
		version:  cfg.Version,
		input:    ti,
		width:    80,
		height:   24,
	}
	if m.store.Len() > 0 {
		m.store.Select(0)
	}
	return m
}

// Mode returns the current input mode
func (m *Model) Mode() stock.Mode {
	return m.mode
}

// Ticks returns how many frames have elapsed
func (m *Model) Ticks() int {
	return m.ticks
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(FrameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.width/2 - 6
		return m, nil

	case tickMsg:
		m.ticks++
		return m, tickCmd()

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.mode == stock.ModeAdding {
			return m.updateAdding(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q":
		return m, tea.Quit
	case "n", "N":
		m.mode = stock.ModeAdding
		m.input.Reset()
		return m, m.input.Focus()
	case "d", "D":
		m.removeSelected()
	case "r", "R":
		m.refresh.RequestRefresh()
	case "u", "U":
		m.moveSelected(-1)
	case "j", "J":
		m.moveSelected(1)
	case "up":
		m.step(-1)
	case "down":
		m.step(1)
	}
	return m, nil
}

func (m *Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		codes := watchlist.SplitCodes(m.input.Value())
		m.leaveAdding()
		added := false
		for _, code := range codes {
			if m.store.Contains(code) {
				continue
			}
			m.store.Add(code)
			added = true
		}
		if added {
			m.store.Select(m.store.Len() - 1)
			m.changed()
			m.refresh.RequestRefresh()
		}
		return m, nil
	case tea.KeyEsc:
		m.leaveAdding()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) leaveAdding() {
	m.mode = stock.ModeNormal
	m.input.Reset()
	m.input.Blur()
}

func (m *Model) removeSelected() {
	i, ok := m.store.Selection()
	if !ok || !m.store.RemoveAt(i) {
		return
	}
	switch n := m.store.Len(); {
	case n == 0:
		m.store.ClearSelection()
	case i >= n:
		m.store.Select(n - 1)
	}
	m.changed()
}

func (m *Model) moveSelected(delta int) {
	i, ok := m.store.Selection()
	if !ok {
		return
	}
	if j, moved := m.store.Move(i, delta); moved {
		m.store.Select(j)
		m.changed()
	}
}

// step moves the highlight, wrapping around the list
func (m *Model) step(delta int) {
	n := m.store.Len()
	if n == 0 {
		return
	}
	i, ok := m.store.Selection()
	if !ok {
		m.store.Select(0)
		return
	}
	m.store.Select(((i+delta)%n + n) % n)
}

func (m *Model) changed() {
	if m.onChange != nil {
		m.onChange(m.store.Codes())
	}
}
