package tui

import (
	"fmt"
	"strings"

	"github.com/SirZenith/hnfeed/comment_parser"
	"github.com/SirZenith/hnfeed/favicon"
	"github.com/SirZenith/hnfeed/feed"
	"github.com/SirZenith/hnfeed/hn"
	"github.com/SirZenith/hnfeed/human_format"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

const (
	minTextWidth = 20
	indentWidth  = 2
)

// contentBuilder collects lines of scrollable content together with the
// line each focus target starts at.
type contentBuilder struct {
	lines       []string
	targets     []target
	targetLines []int
	focus       int
}

func (b *contentBuilder) add(text string) {
	b.lines = append(b.lines, strings.Split(text, "\n")...)
}

// addTarget registers a target starting at next line, returns whether it is
// the focused one.
func (b *contentBuilder) addTarget(t target) bool {
	b.targets = append(b.targets, t)
	b.targetLines = append(b.targetLines, len(b.lines))
	return len(b.targets)-1 == b.focus
}

func (b *contentBuilder) String() string {
	return strings.Join(b.lines, "\n")
}

func (m *Model) layout() {
	footer := 1 + lipgloss.Height(m.helpView())
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-1-footer, 1)
	m.help.Width = m.width
	m.debugInput.SetWidth(max(m.width-6, minTextWidth))
}

// refreshContent re-renders current view into viewport. With followFocus set,
// viewport scrolls so that focused target is visible.
func (m *Model) refreshContent(followFocus bool) {
	focus := m.focus()
	b := &contentBuilder{focus: focus.Index()}

	if m.inComments() {
		m.buildComments(b)
	} else {
		m.buildStories(b)
	}

	m.targets = b.targets
	m.targetLines = b.targetLines
	focus.Clamp(len(b.targets))

	if focus.Index() != b.focus {
		// focused target vanished, render again so highlight follows clamp
		b = &contentBuilder{focus: focus.Index()}
		if m.inComments() {
			m.buildComments(b)
		} else {
			m.buildStories(b)
		}
	}

	m.viewport.SetContent(b.String())

	if followFocus && len(m.targetLines) > 0 {
		line := m.targetLines[focus.Index()]
		if line < m.viewport.YOffset {
			m.viewport.SetYOffset(line)
		} else if line >= m.viewport.YOffset+m.viewport.Height {
			m.viewport.SetYOffset(line - m.viewport.Height + 1)
		}
	}
}

func (m Model) View() string {
	body := m.viewport.View()
	if m.showDebug {
		body = m.debugView()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.headerView(),
		body,
		m.statusView(),
		m.helpView(),
	)
}

func (m *Model) headerView() string {
	parts := []string{m.styles.Logo.Render("Y"), m.styles.Tab.Render("Hacker News")}
	for _, page := range hn.AllPages {
		style := m.styles.Tab
		if page == m.list.Page {
			style = m.styles.ActiveTab
		}
		parts = append(parts, style.Render(page.String()))
	}

	indicator := "⟳"
	if m.list.Loading() || m.list.BatchInFlight() {
		indicator = m.spinner.View()
	}
	parts = append(parts, m.styles.Tab.Render(indicator))

	line := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	return m.styles.Header.Width(max(m.width, lipgloss.Width(line))).Render(line)
}

func (m *Model) statusView() string {
	if m.statusErr {
		return m.styles.Error.Render(m.status)
	}

	text := m.status
	if text == "" {
		text = fmt.Sprintf("%s · %d/%d stories", m.list.Page, len(m.list.Stories), len(m.list.IDs))
		if m.inComments() {
			if tree := m.currentTree(); tree != nil {
				loaded, requested, _ := tree.Counts()
				text = fmt.Sprintf("%s · %d/%d comments loaded", m.list.Page, loaded, requested)
			}
		}
	}

	return m.styles.Status.Render(text)
}

func (m *Model) helpView() string {
	var keys help.KeyMap = m.keys
	if m.showDebug {
		keys = debugKeyMap{m.keys}
	}
	return m.help.View(keys)
}

func (m *Model) textWidth(depth int) int {
	return max(m.viewport.Width-indentWidth*depth-1, minTextWidth)
}

// ---------------------------------------------------------------------------
// story list

func (m *Model) buildStories(b *contentBuilder) {
	switch m.list.Status {
	case feed.StatusLoading:
		b.add(m.spinner.View() + " Loading stories...")
		return
	case feed.StatusError:
		b.add(m.styles.Error.Render("Error: " + m.list.Err.Error()))
		b.add("")
		focused := b.addTarget(target{kind: targetRetry})
		b.add(m.button("Retry", focused, false))
		return
	}

	if len(m.list.IDs) == 0 {
		b.add(m.styles.Weak.Render("No stories"))
		return
	}

	for i, story := range m.list.Stories {
		m.buildStory(b, i+1, story)
		b.add("")
	}

	if m.list.BatchErr != nil {
		b.add(m.styles.Error.Render("Error: " + m.list.BatchErr.Error()))
	}

	if len(m.list.Stories) < len(m.list.IDs) {
		focused := b.addTarget(target{kind: targetLoadMore})
		label := "Load More"
		if m.list.BatchInFlight() {
			label = m.spinner.View() + " Loading..."
		}
		b.add(m.button(label, focused, m.list.BatchInFlight()))
	}
}

func (m *Model) buildStory(b *contentBuilder, rank int, story *hn.Item) {
	prefix := m.styles.Weak.Render(fmt.Sprintf("%3d.", rank))
	if u := story.ParsedURL(); u != nil {
		b.add(prefix + " " + m.faviconView(story.URL) + " " + m.styles.Host.Render(human_format.URL(u)))
	} else {
		b.add(prefix)
	}

	focused := b.addTarget(target{kind: targetTitle, id: story.ID})
	b.add("     " + m.titleView(story, focused))
	b.add("     " + m.bylineView(story))

	meta := []string{}
	if points, ok := human_format.Points(story.Score); ok {
		meta = append(meta, m.styles.Weak.Render(points))
	}

	comments := human_format.CommentCount(story.Descendants)
	if story.HasComments() {
		focused = b.addTarget(target{kind: targetComments, id: story.ID})
		meta = append(meta, m.linkView(comments, focused))
	} else {
		meta = append(meta, m.styles.Weak.Render(comments))
	}

	b.add("     " + strings.Join(meta, m.styles.Separator.Render(" • ")))
}

func (m *Model) faviconView(link string) string {
	state, ok := m.icons[favicon.SiteKey(link)]
	switch {
	case !ok:
		return m.styles.Weak.Render("?")
	case !state.done:
		return m.spinner.View()
	case state.swatch == "":
		return m.styles.Weak.Render("○")
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(state.swatch)).Render("■")
	}
}

func (m *Model) titleView(story *hn.Item, focused bool) string {
	title := story.Title
	if title == "" {
		title = "(untitled)"
	}

	if focused {
		return m.styles.Focused.Render(title)
	}
	return m.styles.Title.Render(title)
}

func (m *Model) bylineView(item *hn.Item) string {
	parts := []string{}
	if item.By != "" {
		parts = append(parts, "by "+m.styles.Author.Render(item.By))
	}
	if !item.Time.IsZero() {
		parts = append(parts, human_format.DateTime(item.Time, m.now()))
	}
	return m.styles.Weak.Render(strings.Join(parts, " • "))
}

func (m *Model) linkView(text string, focused bool) string {
	if focused {
		return m.styles.Focused.Render(text)
	}
	return m.styles.Link.Render(text)
}

func (m *Model) button(label string, focused, disabled bool) string {
	style := m.styles.Button
	switch {
	case disabled:
		style = style.Inherit(m.styles.Disabled)
	case focused:
		style = style.BorderForeground(HNOrange).Inherit(m.styles.Focused)
	}
	return style.Render(label)
}

// ---------------------------------------------------------------------------
// comments

func (m *Model) buildComments(b *contentBuilder) {
	tree := m.currentTree()
	if tree == nil {
		return
	}
	story := tree.Story

	if u := story.ParsedURL(); u != nil {
		b.add(m.faviconView(story.URL) + " " + m.styles.Host.Render(human_format.URL(u)))
	}

	focused := b.addTarget(target{kind: targetTitle, id: story.ID})
	b.add(m.titleView(story, focused))
	b.add(m.bylineView(story))

	meta := []string{}
	if points, ok := human_format.Points(story.Score); ok {
		meta = append(meta, points)
	}
	meta = append(meta, human_format.CommentCount(story.Descendants))
	b.add(m.styles.Weak.Render(strings.Join(meta, " • ")))

	if story.Text != "" {
		b.add("")
		b.add(m.renderText(story.Text, m.textWidth(0)))
	}

	b.add(m.styles.Separator.Render(strings.Repeat("─", max(m.viewport.Width, 1))))

	rows := tree.Rows()
	if len(rows) == 0 {
		b.add(m.styles.Weak.Render("No comments yet"))
		return
	}

	for _, row := range rows {
		m.buildCommentRow(b, row)
	}
}

func (m *Model) buildCommentRow(b *contentBuilder, row feed.Row) {
	level := uint(indentWidth * (row.Depth - 1))
	focused := b.addTarget(target{kind: targetComment, id: row.ID})

	var header string
	switch {
	case row.Err != nil:
		header = m.styles.Error.Render("Error: " + row.Err.Error())
		if focused {
			header = m.styles.Focused.Render("Error: "+row.Err.Error()) + m.styles.Weak.Render(" (enter to retry)")
		}
		b.add(indent.String(header, level))
		return
	case row.Loading:
		header = m.spinner.View() + m.styles.Weak.Render(" loading")
		if focused {
			header = m.spinner.View() + m.styles.Focused.Render(" loading")
		}
		b.add(indent.String(header, level))
		return
	}

	item := row.Item
	marker := "▾"
	if row.Collapsed {
		marker = "▸"
	}

	switch {
	case item.Deleted || item.Dead:
		header = marker + " [deleted]"
	default:
		header = marker + " " + m.bylineView(item)
	}
	if row.Collapsed && len(item.Kids) > 0 {
		header += m.styles.Weak.Render(fmt.Sprintf(" [%d more]", len(item.Kids)))
	}
	if focused {
		header = m.styles.Focused.Render(marker) + header[len(marker):]
	}

	b.add(indent.String(header, level))

	if row.Collapsed || item.Text == "" {
		return
	}

	body := m.renderText(item.Text, m.textWidth(row.Depth))
	b.add(indent.String(body, level+indentWidth))
	b.add("")
}

// renderText renders comment HTML wrapped to width. With HTML rendering off
// the raw markup is shown.
func (m *Model) renderText(text string, width int) string {
	if !m.renderHTML {
		raw := comment_parser.ReplaceControl(text)
		return wrap.String(wordwrap.String(raw, width), width)
	}

	sb := strings.Builder{}
	for _, segment := range comment_parser.Parse(text) {
		switch segment.Kind {
		case comment_parser.SegmentNewLine:
			sb.WriteString("\n")
		case comment_parser.SegmentLink:
			sb.WriteString(m.styles.Link.Render(segment.Text))
		default:
			sb.WriteString(m.segmentStyle(segment.Style).Render(segment.Text))
		}
	}

	content := strings.TrimRight(sb.String(), "\n")
	return wrap.String(wordwrap.String(content, width), width)
}

func (m *Model) segmentStyle(style comment_parser.Style) lipgloss.Style {
	result := lipgloss.NewStyle()
	if style.Italic {
		result = result.Inherit(m.styles.Italic)
	}
	if style.Monospace {
		result = result.Inherit(m.styles.Monospace)
	}
	return result
}
