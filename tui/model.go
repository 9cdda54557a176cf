package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/SirZenith/hnfeed/comment_parser"
	"github.com/SirZenith/hnfeed/database"
	"github.com/SirZenith/hnfeed/favicon"
	"github.com/SirZenith/hnfeed/feed"
	"github.com/SirZenith/hnfeed/hn"
	"github.com/SirZenith/hnfeed/hnapi"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/pkg/browser"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

type Options struct {
	Context    context.Context
	Source     StorySource
	Favicons   FaviconSource // nil disables favicon lookup
	Page       hn.Page
	BatchSize  int
	RenderHTML bool

	OpenURL    func(string) error // defaults to system browser
	CopyText   func(string) error // defaults to system clipboard
	CacheStats func() ([]database.TableStats, error)
	Now        func() time.Time
}

type targetKind int

const (
	targetTitle targetKind = iota
	targetComments
	targetLoadMore
	targetRetry
	targetComment
)

// target is one focusable item on screen.
type target struct {
	kind targetKind
	id   hn.ItemID
}

type faviconState struct {
	swatch string
	done   bool
}

type Model struct {
	ctx        context.Context
	source     StorySource
	favicons   FaviconSource
	openURL    func(string) error
	copyText   func(string) error
	cacheStats func() ([]database.TableStats, error)
	now        func() time.Time

	keys       KeyMap
	styles     Styles
	help       help.Model
	spinner    spinner.Model
	viewport   viewport.Model
	debugInput textarea.Model

	list         *feed.StoryList
	history      *feed.History
	trees        map[hn.ItemID]*feed.CommentTree
	listFocus    feed.Focus
	commentFocus feed.Focus
	targets      []target
	targetLines  []int
	icons        map[string]faviconState

	renderHTML bool
	showDebug  bool
	status     string
	statusErr  bool
	stats      []database.TableStats
	statsErr   error
	width      int
	height     int
}

func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	openURL := opts.OpenURL
	if openURL == nil {
		openURL = browser.OpenURL
	}

	copyText := opts.CopyText
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	styles := DefaultStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Weak

	ta := textarea.New()
	ta.Placeholder = "<p>Paste HN HTML here"
	ta.ShowLineNumbers = false
	ta.SetWidth(defaultWidth - 4)
	ta.SetHeight(6)

	m := Model{
		ctx:        ctx,
		source:     opts.Source,
		favicons:   opts.Favicons,
		openURL:    openURL,
		copyText:   copyText,
		cacheStats: opts.CacheStats,
		now:        now,

		keys:       DefaultKeyMap(),
		styles:     styles,
		help:       help.New(),
		spinner:    sp,
		viewport:   viewport.New(defaultWidth, defaultHeight-3),
		debugInput: ta,

		list:    feed.NewStoryList(opts.Page, opts.BatchSize),
		history: feed.NewHistory(feed.View{Kind: feed.ViewStories}),
		trees:   map[hn.ItemID]*feed.CommentTree{},
		icons:   map[string]faviconState{},

		renderHTML: opts.RenderHTML,
		width:      defaultWidth,
		height:     defaultHeight,
	}
	m.layout()
	m.refreshContent(false)

	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadIDs(false))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshContent(true)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshContent(false)
	case pageIDsMsg:
		cmd = m.handlePageIDs(msg)
		m.refreshContent(false)
	case batchMsg:
		cmd = m.handleBatch(msg)
		m.refreshContent(false)
	case commentMsg:
		cmd = m.handleComment(msg)
		m.refreshContent(false)
	case faviconMsg:
		m.icons[msg.site] = faviconState{swatch: msg.swatch, done: true}
		if msg.err != nil {
			log.Debugf("favicon of %s: %s", msg.site, msg.err)
		}
		m.refreshContent(false)
	case actionMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus(msg.text)
		}
	case cacheStatsMsg:
		m.stats, m.statsErr = msg.stats, msg.err
		m.refreshContent(false)
	default:
		if m.showDebug {
			m.debugInput, cmd = m.debugInput.Update(msg)
		}
	}

	return m, cmd
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showDebug {
		return m.handleDebugKey(msg)
	}

	var cmd tea.Cmd
	followFocus := true

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Refresh):
		cmd = m.refresh()
	case key.Matches(msg, m.keys.Back):
		m.returnToList()
	case key.Matches(msg, m.keys.HistoryBack):
		cmd = m.navigateBack()
	case key.Matches(msg, m.keys.HistoryForward):
		cmd = m.navigateForward()
	case key.Matches(msg, m.keys.Debug):
		cmd = m.openDebug()
	case key.Matches(msg, m.keys.Next):
		m.focus().Next()
	case key.Matches(msg, m.keys.Prev):
		m.focus().Prev()
	case key.Matches(msg, m.keys.First):
		m.focus().Set(0)
	case key.Matches(msg, m.keys.Last):
		m.focus().Set(m.focus().Count() - 1)
	case key.Matches(msg, m.keys.Activate):
		cmd = m.activate()
	case key.Matches(msg, m.keys.TabTop):
		cmd = m.selectPage(hn.PageTop)
	case key.Matches(msg, m.keys.TabNew):
		cmd = m.selectPage(hn.PageNew)
	case key.Matches(msg, m.keys.TabShow):
		cmd = m.selectPage(hn.PageShow)
	case key.Matches(msg, m.keys.TabAsk):
		cmd = m.selectPage(hn.PageAsk)
	case key.Matches(msg, m.keys.TabJobs):
		cmd = m.selectPage(hn.PageJobs)
	case key.Matches(msg, m.keys.TabPrev):
		cmd = m.selectPage(m.shiftPage(-1))
	case key.Matches(msg, m.keys.TabNext):
		cmd = m.selectPage(m.shiftPage(1))
	case key.Matches(msg, m.keys.OpenLink):
		cmd = m.openFocused()
	case key.Matches(msg, m.keys.Copy):
		cmd = m.copyFocused()
	case key.Matches(msg, m.keys.HTML):
		m.renderHTML = !m.renderHTML
		followFocus = false
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		followFocus = false
	default:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	m.refreshContent(followFocus)

	return m, cmd
}

// ---------------------------------------------------------------------------
// navigation

func (m *Model) currentView() feed.View {
	return m.history.Current()
}

func (m *Model) inComments() bool {
	return m.currentView().Kind == feed.ViewComments
}

func (m *Model) currentTree() *feed.CommentTree {
	view := m.currentView()
	if view.Kind != feed.ViewComments {
		return nil
	}
	return m.trees[view.StoryID]
}

func (m *Model) focus() *feed.Focus {
	if m.inComments() {
		return &m.commentFocus
	}
	return &m.listFocus
}

func (m *Model) focusedTarget() (target, bool) {
	index := m.focus().Index()
	if index < 0 || index >= len(m.targets) {
		return target{}, false
	}
	return m.targets[index], true
}

func (m *Model) shiftPage(delta int) hn.Page {
	cnt := len(hn.AllPages)
	index := (int(m.list.Page) + delta + cnt) % cnt
	return hn.AllPages[index]
}

func (m *Model) loadIDs(fresh bool) tea.Cmd {
	if m.source == nil {
		return nil
	}
	return fetchIDsCmd(m.ctx, m.source, m.list.Gen, m.list.Page, fresh)
}

// selectPage switches story tab, comment view is closed and story list is
// loaded from scratch.
func (m *Model) selectPage(page hn.Page) tea.Cmd {
	if page == m.list.Page {
		return nil
	}

	m.list.Reset(page)
	m.history.Reset(feed.View{Kind: feed.ViewStories})
	m.listFocus = feed.Focus{}
	m.viewport.GotoTop()

	return m.loadIDs(false)
}

// refresh reloads story IDs of current page bypassing cache.
func (m *Model) refresh() tea.Cmd {
	m.list.Reset(m.list.Page)
	m.listFocus = feed.Focus{}
	if !m.inComments() {
		m.viewport.GotoTop()
	}

	return m.loadIDs(true)
}

func (m *Model) loadMore() tea.Cmd {
	ids := m.list.NextBatch()
	if ids == nil || m.source == nil {
		return nil
	}
	return fetchBatchCmd(m.ctx, m.source, m.list.Gen, ids)
}

func (m *Model) openComments(story *hn.Item) tea.Cmd {
	if _, ok := m.trees[story.ID]; !ok {
		m.trees[story.ID] = feed.NewCommentTree(story)
	}

	m.history.Push(feed.View{Kind: feed.ViewComments, StoryID: story.ID})
	m.commentFocus = feed.Focus{}
	m.viewport.GotoTop()

	return m.fetchPendingComments()
}

// returnToList leaves comment view, not allowed while story list is loading.
func (m *Model) returnToList() {
	if !m.inComments() || m.list.Loading() {
		return
	}

	m.history.Push(feed.View{Kind: feed.ViewStories})
	m.viewport.GotoTop()
}

func (m *Model) navigateBack() tea.Cmd {
	if _, ok := m.history.Back(); !ok {
		return nil
	}
	return m.enterView()
}

// navigateForward moves forward in history, on story list without forward
// history it loads more stories instead.
func (m *Model) navigateForward() tea.Cmd {
	if _, ok := m.history.Forward(); ok {
		return m.enterView()
	}

	if !m.inComments() {
		return m.loadMore()
	}

	return nil
}

func (m *Model) enterView() tea.Cmd {
	m.viewport.GotoTop()

	if m.inComments() {
		m.commentFocus = feed.Focus{}
		if m.currentTree() == nil {
			m.history.Reset(feed.View{Kind: feed.ViewStories})
			return nil
		}
		return m.fetchPendingComments()
	}

	return nil
}

func (m *Model) fetchPendingComments() tea.Cmd {
	tree := m.currentTree()
	if tree == nil || m.source == nil {
		return nil
	}

	cmds := []tea.Cmd{}
	for _, id := range tree.Pending() {
		cmds = append(cmds, fetchCommentCmd(m.ctx, m.source, tree.Story.ID, id))
	}

	return tea.Batch(cmds...)
}

func (m *Model) storyByID(id hn.ItemID) *hn.Item {
	if tree := m.currentTree(); tree != nil && tree.Story.ID == id {
		return tree.Story
	}
	return m.list.Story(id)
}

// activate performs action of focused item.
func (m *Model) activate() tea.Cmd {
	t, ok := m.focusedTarget()
	if !ok {
		return nil
	}

	switch t.kind {
	case targetTitle:
		story := m.storyByID(t.id)
		if story == nil {
			return nil
		}
		if story.URL != "" {
			return openURLCmd(m.openURL, story.URL)
		}
		if !m.inComments() {
			return m.openComments(story)
		}
	case targetComments:
		if story := m.storyByID(t.id); story != nil {
			return m.openComments(story)
		}
	case targetLoadMore:
		return m.loadMore()
	case targetRetry:
		return m.refresh()
	case targetComment:
		tree := m.currentTree()
		if tree == nil {
			return nil
		}

		node := tree.Node(t.id)
		switch {
		case node == nil:
		case node.Err != nil:
			tree.Retry(t.id)
		case node.Loaded():
			tree.Toggle(t.id)
		}

		return m.fetchPendingComments()
	}

	return nil
}

// openFocused opens focused story in browser, text posts and comments open
// their discussion page.
func (m *Model) openFocused() tea.Cmd {
	t, ok := m.focusedTarget()
	if !ok {
		return nil
	}

	switch t.kind {
	case targetTitle, targetComments:
		story := m.storyByID(t.id)
		if story == nil {
			return nil
		}
		if story.URL != "" && t.kind == targetTitle {
			return openURLCmd(m.openURL, story.URL)
		}
		return openURLCmd(m.openURL, hnapi.ItemWebURL(story.ID))
	case targetComment:
		return openURLCmd(m.openURL, hnapi.ItemWebURL(t.id))
	}

	return nil
}

// copyFocused copies plain text of focused comment, or link of focused story.
func (m *Model) copyFocused() tea.Cmd {
	t, ok := m.focusedTarget()
	if !ok {
		return nil
	}

	switch t.kind {
	case targetComment:
		tree := m.currentTree()
		if tree == nil {
			return nil
		}
		node := tree.Node(t.id)
		if node == nil || node.Item == nil {
			return nil
		}
		return copyTextCmd(m.copyText, comment_parser.ToPlainText(node.Item.Text))
	case targetTitle, targetComments:
		story := m.storyByID(t.id)
		if story == nil {
			return nil
		}
		link := story.URL
		if link == "" {
			link = hnapi.ItemWebURL(story.ID)
		}
		return copyTextCmd(m.copyText, link)
	}

	return nil
}

// ---------------------------------------------------------------------------
// fetch results

func (m *Model) handlePageIDs(msg pageIDsMsg) tea.Cmd {
	if msg.gen != m.list.Gen {
		return nil
	}

	if msg.err != nil {
		m.list.SetError(msg.err)
		m.setError(msg.err)
		return nil
	}

	m.list.SetIDs(msg.ids)
	m.clearStatus()

	if m.list.NeedsInitialBatch() {
		return m.loadMore()
	}

	return nil
}

func (m *Model) handleBatch(msg batchMsg) tea.Cmd {
	if msg.gen != m.list.Gen {
		return nil
	}

	m.list.CompleteBatch(msg.items, msg.err)
	if msg.err != nil {
		m.setError(fmt.Errorf("failed to load stories: %w", msg.err))
		return nil
	}
	if m.statusErr {
		m.clearStatus()
	}

	return m.lookupFavicons(msg.items)
}

func (m *Model) handleComment(msg commentMsg) tea.Cmd {
	tree := m.trees[msg.storyID]
	if tree == nil {
		return nil
	}

	if msg.err != nil {
		tree.SetError(msg.id, msg.err)
	} else {
		tree.SetItem(msg.item)
	}

	if tree != m.currentTree() {
		return nil
	}

	return m.fetchPendingComments()
}

func (m *Model) lookupFavicons(items []*hn.Item) tea.Cmd {
	if m.favicons == nil {
		return nil
	}

	cmds := []tea.Cmd{}
	for _, item := range items {
		if item.ParsedURL() == nil {
			continue
		}

		site := favicon.SiteKey(item.URL)
		if _, ok := m.icons[site]; ok {
			continue
		}

		m.icons[site] = faviconState{}
		cmds = append(cmds, lookupFaviconCmd(m.ctx, m.favicons, site))
	}

	return tea.Batch(cmds...)
}

func (m *Model) setStatus(text string) {
	m.status = text
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}
