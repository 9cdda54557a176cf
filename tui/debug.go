package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

func (m *Model) openDebug() tea.Cmd {
	m.showDebug = true
	m.layout()

	cmds := []tea.Cmd{m.debugInput.Focus()}
	if m.cacheStats != nil {
		cmds = append(cmds, cacheStatsCmd(m.cacheStats))
	}

	return tea.Batch(cmds...)
}

func (m *Model) closeDebug() {
	m.showDebug = false
	m.debugInput.Blur()
	m.layout()
	m.refreshContent(false)
}

// handleDebugKey routes keys while debug panel is open, everything not bound
// to the panel goes to the HTML input.
func (m Model) handleDebugKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.CloseDebug):
		m.closeDebug()
	case key.Matches(msg, m.keys.DebugHTML):
		m.renderHTML = !m.renderHTML
	default:
		m.debugInput, cmd = m.debugInput.Update(msg)
	}

	return m, cmd
}

func (m *Model) debugView() string {
	width := max(m.width-4, minTextWidth)
	lines := []string{m.styles.Title.Render("Debug")}

	check := "[ ]"
	if m.renderHTML {
		check = "[x]"
	}
	lines = append(lines, check+" Render HTML "+m.styles.Weak.Render("(ctrl+r)"), "")

	list := m.list
	batch := "idle"
	if list.BatchInFlight() {
		batch = fmt.Sprintf("%d in flight", len(list.Batch))
	} else if list.BatchErr != nil {
		batch = "failed: " + list.BatchErr.Error()
	}
	lines = append(lines, fmt.Sprintf(
		"Stories   %s, %s, %d ids, %d loaded, batch %s",
		list.Page, list.Status, len(list.IDs), len(list.Stories), batch,
	))

	loaded, requested, failed := 0, 0, 0
	for _, tree := range m.trees {
		l, r, f := tree.Counts()
		loaded, requested, failed = loaded+l, requested+r, failed+f
	}
	lines = append(lines, fmt.Sprintf(
		"Comments  %d trees, %d loaded, %d in flight, %d failed",
		len(m.trees), loaded, requested-loaded-failed, failed,
	))

	iconDone, iconFound := 0, 0
	for _, state := range m.icons {
		if state.done {
			iconDone++
		}
		if state.swatch != "" {
			iconFound++
		}
	}
	lines = append(lines, fmt.Sprintf(
		"Favicons  %d sites, %d in flight, %d found",
		len(m.icons), len(m.icons)-iconDone, iconFound,
	))

	switch {
	case m.statsErr != nil:
		lines = append(lines, m.styles.Error.Render("Cache     "+m.statsErr.Error()))
	case m.stats != nil:
		lines = append(lines, "", "Cache")
		for _, stats := range m.stats {
			line := fmt.Sprintf(
				"  %-10s %8s rows %10s",
				stats.Table, humanize.Comma(stats.RowCnt), humanize.Bytes(uint64(max(stats.ByteCnt, 0))),
			)
			if !stats.NewestAt.IsZero() {
				line += m.styles.Weak.Render("  newest " + humanize.Time(stats.NewestAt))
			}
			lines = append(lines, line)
		}
	}

	lines = append(lines, "", "HTML input", m.debugInput.View(), "", "Preview")

	preview := m.renderText(m.debugInput.Value(), width-2)
	if strings.TrimSpace(preview) == "" {
		preview = m.styles.Weak.Render("(empty)")
	}
	lines = append(lines, preview)

	panel := m.styles.DebugBorder.Width(width).Render(strings.Join(lines, "\n"))

	return lipgloss.NewStyle().MaxHeight(m.viewport.Height).Render(panel)
}
