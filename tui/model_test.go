package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SirZenith/hnfeed/favicon"
	"github.com/SirZenith/hnfeed/feed"
	"github.com/SirZenith/hnfeed/hn"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

var (
	keyF5        = tea.KeyMsg{Type: tea.KeyF5}
	keyF12       = tea.KeyMsg{Type: tea.KeyF12}
	keyBackspace = tea.KeyMsg{Type: tea.KeyBackspace}
	keyAltLeft   = tea.KeyMsg{Type: tea.KeyLeft, Alt: true}
	keyAltRight  = tea.KeyMsg{Type: tea.KeyRight, Alt: true}
	keyTab       = tea.KeyMsg{Type: tea.KeyTab}
	keyShiftTab  = tea.KeyMsg{Type: tea.KeyShiftTab}
	keyEnter     = tea.KeyMsg{Type: tea.KeyEnter}
	keySpace     = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyCtrlR     = tea.KeyMsg{Type: tea.KeyCtrlR}
	keyHome      = tea.KeyMsg{Type: tea.KeyHome}
	keyEnd       = tea.KeyMsg{Type: tea.KeyEnd}
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

type fakeSource struct {
	pages    map[hn.Page][]hn.ItemID
	pageErr  map[hn.Page]error
	items    map[hn.ItemID]*hn.Item
	itemErr  map[hn.ItemID]error // returned once
	freshCnt int
}

func newFakeSource() *fakeSource {
	source := &fakeSource{
		pages:   map[hn.Page][]hn.ItemID{},
		pageErr: map[hn.Page]error{},
		items:   map[hn.ItemID]*hn.Item{},
		itemErr: map[hn.ItemID]error{},
	}

	top := []hn.ItemID{}
	for i := 1; i <= 20; i++ {
		id := hn.ItemID(i)
		top = append(top, id)
		source.items[id] = &hn.Item{
			ID:    id,
			Type:  hn.ItemTypeStory,
			Title: fmt.Sprintf("Story %d", i),
			URL:   fmt.Sprintf("https://example.com/%d", i),
			By:    "alice",
			Score: i,
			Time:  testNow.Add(-2 * time.Hour),
		}
	}
	source.pages[hn.PageTop] = top

	story := source.items[1]
	story.Kids = []hn.ItemID{101, 102}
	story.Descendants = 3

	ask := source.items[2]
	ask.URL = ""
	ask.Title = "Ask HN: Story 2"
	ask.Text = "What do you <i>think</i>?"

	source.items[101] = &hn.Item{ID: 101, Type: hn.ItemTypeComment, By: "bob", Parent: 1, Kids: []hn.ItemID{103}, Text: "Hello <i>world</i>", Time: testNow.Add(-time.Hour)}
	source.items[102] = &hn.Item{ID: 102, Type: hn.ItemTypeComment, By: "carol", Parent: 1, Text: "Second", Time: testNow.Add(-time.Hour)}
	source.items[103] = &hn.Item{ID: 103, Type: hn.ItemTypeComment, Parent: 101, Deleted: true}

	source.pages[hn.PageNew] = []hn.ItemID{20}

	return source
}

func (s *fakeSource) FetchPageIDs(_ context.Context, page hn.Page) ([]hn.ItemID, error) {
	if err := s.pageErr[page]; err != nil {
		return nil, err
	}
	return append([]hn.ItemID(nil), s.pages[page]...), nil
}

func (s *fakeSource) FetchPageIDsFresh(ctx context.Context, page hn.Page) ([]hn.ItemID, error) {
	s.freshCnt++
	return s.FetchPageIDs(ctx, page)
}

func (s *fakeSource) FetchItem(_ context.Context, id hn.ItemID) (*hn.Item, error) {
	if err := s.itemErr[id]; err != nil {
		delete(s.itemErr, id)
		return nil, err
	}

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d: not found", id)
	}

	return item, nil
}

func (s *fakeSource) FetchItems(ctx context.Context, ids []hn.ItemID) ([]*hn.Item, error) {
	items := []*hn.Item{}
	for _, id := range ids {
		item, err := s.FetchItem(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

type fakeFavicons struct {
	lookups []string
}

func (f *fakeFavicons) Lookup(_ context.Context, siteURL string) (*favicon.Icon, error) {
	f.lookups = append(f.lookups, siteURL)
	return nil, favicon.ErrNoFavicon
}

type recorder struct {
	opened []string
	copied []string
}

// drain runs commands synchronously and feeds resulting messages back into
// model until nothing is left. Spinner ticks are dropped.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 1000 {
			t.Fatal("command queue does not settle")
		}

		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		switch msg := next().(type) {
		case nil, spinner.TickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			model, cmd := m.Update(msg)
			m = model.(Model)
			queue = append(queue, cmd)
		}
	}

	return m
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()

	for _, k := range keys {
		model, cmd := m.Update(k)
		m = drain(t, model.(Model), cmd)
	}

	return m
}

func newTestModel(t *testing.T, source *fakeSource) (Model, *recorder) {
	t.Helper()

	rec := &recorder{}
	m := New(Options{
		Source:     source,
		RenderHTML: true,
		OpenURL: func(url string) error {
			rec.opened = append(rec.opened, url)
			return nil
		},
		CopyText: func(text string) error {
			rec.copied = append(rec.copied, text)
			return nil
		},
		Now: func() time.Time { return testNow },
	})

	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = model.(Model)

	return drain(t, m, m.Init()), rec
}

func focusedKind(m Model) targetKind {
	t, _ := m.focusedTarget()
	return t.kind
}

func TestInitialLoad(t *testing.T) {
	m, _ := newTestModel(t, newFakeSource())

	if m.list.Status != feed.StatusDone {
		t.Fatalf("output:\n\t%q\nwant:\n\t%q", m.list.Status, feed.StatusDone)
	}
	if len(m.list.Stories) != feed.DefaultBatchSize {
		t.Errorf("output:\n\t%d\nwant:\n\t%d", len(m.list.Stories), feed.DefaultBatchSize)
	}

	// story 1 has title and comments, the rest only title, then load more
	if len(m.targets) != 17 {
		t.Fatalf("output:\n\t%d\nwant:\n\t%d", len(m.targets), 17)
	}
	if m.targets[1] != (target{kind: targetComments, id: 1}) {
		t.Errorf("unexpected second target %+v", m.targets[1])
	}
	if m.targets[16].kind != targetLoadMore {
		t.Errorf("last target is not load more: %+v", m.targets[16])
	}
}

func TestTabMovesFocus(t *testing.T) {
	m, _ := newTestModel(t, newFakeSource())

	m = press(t, m, keyTab)
	if index := m.listFocus.Index(); index != 1 {
		t.Errorf("output:\n\t%d\nwant:\n\t%d", index, 1)
	}

	m = press(t, m, keyShiftTab, keyShiftTab)
	if index := m.listFocus.Index(); index != 16 {
		t.Errorf("output:\n\t%d\nwant:\n\t%d", index, 16)
	}
	if focusedKind(m) != targetLoadMore {
		t.Errorf("expecting load more to be focused")
	}
}

func TestJumpToFirstAndLastTarget(t *testing.T) {
	m, _ := newTestModel(t, newFakeSource())

	m = press(t, m, keyEnd)
	if index := m.listFocus.Index(); index != 16 {
		t.Errorf("output:\n\t%d\nwant:\n\t%d", index, 16)
	}
	if focusedKind(m) != targetLoadMore {
		t.Errorf("expecting load more to be focused")
	}

	m = press(t, m, keyHome)
	if index := m.listFocus.Index(); index != 0 {
		t.Errorf("output:\n\t%d\nwant:\n\t%d", index, 0)
	}

	m = press(t, m, runeKey("G"))
	if index := m.listFocus.Index(); index != 16 {
		t.Errorf("output:\n\t%d\nwant:\n\t%d", index, 16)
	}

	m = press(t, m, runeKey("g"))
	if index := m.listFocus.Index(); index != 0 {
		t.Errorf("output:\n\t%d\nwant:\n\t%d", index, 0)
	}
}

func TestActivateTitleOpensLink(t *testing.T) {
	m, rec := newTestModel(t, newFakeSource())

	m = press(t, m, keyEnter)
	m = press(t, m, keySpace)

	want := []string{"https://example.com/1", "https://example.com/1"}
	if diff := cmp.Diff(want, rec.opened); diff != "" {
		t.Errorf("opened mismatch (-want +got):\n%s", diff)
	}
	if m.status != "opened https://example.com/1" {
		t.Errorf("output:\n\t%q\nwant:\n\t%q", m.status, "opened https://example.com/1")
	}
}

func TestActivateTextPostOpensComments(t *testing.T) {
	m, rec := newTestModel(t, newFakeSource())

	// third target is title of story 2 which has no link
	m = press(t, m, keyTab, keyTab, keyEnter)

	if len(rec.opened) != 0 {
		t.Errorf("unexpected opened links %v", rec.opened)
	}
	if view := m.currentView(); view != (feed.View{Kind: feed.ViewComments, StoryID: 2}) {
		t.Errorf("unexpected view %+v", view)
	}
}

func TestLoadMore(t *testing.T) {
	m, _ := newTestModel(t, newFakeSource())

	m = press(t, m, keyShiftTab, keyEnter)
	if len(m.list.Stories) != 20 {
		t.Errorf("output:\n\t%d\nwant:\n\t%d", len(m.list.Stories), 20)
	}

	// everything is loaded, no button left
	for _, target := range m.targets {
		if target.kind == targetLoadMore {
			t.Errorf("load more button still present")
		}
	}
}

func TestAltRightLoadsMoreOnList(t *testing.T) {
	m, _ := newTestModel(t, newFakeSource())

	m = press(t, m, keyAltRight)
	if len(m.list.Stories) != 20 {
		t.Errorf("output:\n\t%d\nwant:\n\t%d", len(m.list.Stories), 20)
	}
}

func openStoryComments(t *testing.T, m Model) Model {
	t.Helper()

	m.listFocus.Set(1)
	m = press(t, m, keyEnter)
	if !m.inComments() {
		t.Fatal("comment view not opened")
	}

	return m
}

func commentRowIDs(m Model) []hn.ItemID {
	ids := []hn.ItemID{}
	for _, row := range m.currentTree().Rows() {
		ids = append(ids, row.ID)
	}
	return ids
}

func TestOpenCommentsLoadsTree(t *testing.T) {
	m, _ := newTestModel(t, newFakeSource())
	m = openStoryComments(t, m)

	if diff := cmp.Diff([]hn.ItemID{101, 103, 102}, commentRowIDs(m)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	for _, row := range m.currentTree().Rows() {
		if row.Loading || row.Err != nil {
			t.Errorf("row %d not loaded: %+v", row.ID, row)
		}
	}

	if len(m.targets) != 4 {
		t.Errorf("output:\n\t%d\nwant:\n\t%d", len(m.targets), 4)
	}
}

func TestBackspaceAndHistory(t *testing.T) {
	m, _ := newTestModel(t, newFakeSource())
	m = openStoryComments(t, m)

	m = press(t, m, keyBackspace)
	if m.inComments() {
		t.Fatal("backspace did not return to story list")
	}

	m = press(t, m, keyAltLeft)
	if !m.inComments() {
		t.Fatal("alt+left did not go back to comments")
	}

	m = press(t, m, keyAltLeft)
	if m.inComments() {
		t.Fatal("alt+left did not go back to story list")
	}

	m = press(t, m, keyAltRight)
	if !m.inComments() {
		t.Fatal("alt+right did not go forward to comments")
	}

	// backspace on story list does nothing
	m = press(t, m, keyBackspace, keyBackspace)
	if m.inComments() || !m.history.CanBack() {
		t.Errorf("unexpected history state")
	}
}

func TestBackspaceIgnoredWhileLoading(t *testing.T) {
	source := newFakeSource()
	m, _ := newTestModel(t, source)
	m = openStoryComments(t, m)

	model, refreshCmd := m.Update(keyF5)
	m = model.(Model)
	if !m.list.Loading() {
		t.Fatal("refresh did not enter loading state")
	}
	if !m.inComments() {
		t.Fatal("refresh left comment view")
	}

	m = press(t, m, keyBackspace)
	if !m.inComments() {
		t.Fatal("backspace left comment view while loading")
	}

	m = drain(t, m, refreshCmd)
	if source.freshCnt != 1 {
		t.Errorf("output:\n\t%d\nwant:\n\t%d", source.freshCnt, 1)
	}

	m = press(t, m, keyBackspace)
	if m.inComments() {
		t.Fatal("backspace did not return to story list")
	}
}

func TestRefreshReloadsList(t *testing.T) {
	source := newFakeSource()
	m, _ := newTestModel(t, source)
	m = press(t, m, keyShiftTab, keyEnter)

	source.pages[hn.PageTop] = []hn.ItemID{5, 4, 3}
	gen := m.list.Gen

	m = press(t, m, keyF5)
	if m.list.Gen == gen {
		t.Errorf("refresh did not reset list")
	}
	if source.freshCnt != 1 {
		t.Errorf("output:\n\t%d\nwant:\n\t%d", source.freshCnt, 1)
	}

	titles := []string{}
	for _, story := range m.list.Stories {
		titles = append(titles, story.Title)
	}
	if diff := cmp.Diff([]string{"Story 5", "Story 4", "Story 3"}, titles); diff != "" {
		t.Errorf("stories mismatch (-want +got):\n%s", diff)
	}
}

func TestStaleResultsDropped(t *testing.T) {
	m, _ := newTestModel(t, newFakeSource())

	stale := []*hn.Item{{ID: 999, Title: "stale"}}
	model, _ := m.Update(batchMsg{gen: m.list.Gen - 1, items: stale})
	m = model.(Model)

	if m.list.Story(999) != nil {
		t.Errorf("stale batch was applied")
	}

	model, _ = m.Update(pageIDsMsg{gen: m.list.Gen - 1, err: errors.New("stale")})
	m = model.(Model)
	if m.list.Status != feed.StatusDone {
		t.Errorf("stale error was applied")
	}
}

func TestSelectTab(t *testing.T) {
	m, _ := newTestModel(t, newFakeSource())
	m = openStoryComments(t, m)

	m = press(t, m, runeKey("2"))
	if m.list.Page != hn.PageNew {
		t.Fatalf("output:\n\t%q\nwant:\n\t%q", m.list.Page, hn.PageNew)
	}
	if m.inComments() || m.history.CanBack() {
		t.Errorf("tab change kept comment view or history")
	}
	if len(m.list.Stories) != 1 || m.list.Stories[0].ID != 20 {
		t.Errorf("unexpected stories %v", m.list.Stories)
	}

	m = press(t, m, runeKey("["))
	if m.list.Page != hn.PageTop {
		t.Errorf("output:\n\t%q\nwant:\n\t%q", m.list.Page, hn.PageTop)
	}
}

func TestErrorStateRetry(t *testing.T) {
	source := newFakeSource()
	source.pageErr[hn.PageShow] = errors.New("offline")
	m, _ := newTestModel(t, source)

	m = press(t, m, runeKey("3"))
	if m.list.Status != feed.StatusError {
		t.Fatalf("output:\n\t%q\nwant:\n\t%q", m.list.Status, feed.StatusError)
	}
	if len(m.targets) != 1 || focusedKind(m) != targetRetry {
		t.Fatalf("retry button not focused: %+v", m.targets)
	}

	delete(source.pageErr, hn.PageShow)
	source.pages[hn.PageShow] = []hn.ItemID{7, 8}

	m = press(t, m, keyEnter)
	if m.list.Status != feed.StatusDone || len(m.list.Stories) != 2 {
		t.Errorf("retry failed: %s, %d stories", m.list.Status, len(m.list.Stories))
	}
}

func TestFailedBatchNotRetriedAutomatically(t *testing.T) {
	source := newFakeSource()
	source.itemErr[3] = errors.New("timeout")
	m, _ := newTestModel(t, source)

	if len(m.list.Stories) != 0 || m.list.BatchErr == nil {
		t.Fatalf("expecting failed first batch, got %d stories", len(m.list.Stories))
	}
	if !m.statusErr {
		t.Errorf("batch error not reported")
	}

	// load more is the only target
	m = press(t, m, keyEnter)
	if len(m.list.Stories) != feed.DefaultBatchSize {
		t.Errorf("output:\n\t%d\nwant:\n\t%d", len(m.list.Stories), feed.DefaultBatchSize)
	}
	if m.statusErr || m.status != "" {
		t.Errorf("stale batch error kept in status: %q", m.status)
	}
}

func TestLoadMoreAfterFailedBatchClearsError(t *testing.T) {
	source := newFakeSource()
	source.itemErr[16] = errors.New("boom")
	m, _ := newTestModel(t, source)

	m = press(t, m, keyAltRight)
	if m.list.BatchErr == nil || !m.statusErr {
		t.Fatalf("expecting failed second batch, status %q", m.status)
	}

	m = press(t, m, keyAltRight)
	if len(m.list.Stories) != 20 {
		t.Errorf("output:\n\t%d\nwant:\n\t%d", len(m.list.Stories), 20)
	}
	if m.statusErr || m.status != "" {
		t.Errorf("stale batch error kept in status: %q", m.status)
	}
}

func TestToggleComment(t *testing.T) {
	m, _ := newTestModel(t, newFakeSource())
	m = openStoryComments(t, m)

	m = press(t, m, keyTab, keyEnter)
	if diff := cmp.Diff([]hn.ItemID{101, 102}, commentRowIDs(m)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	m = press(t, m, keySpace)
	if diff := cmp.Diff([]hn.ItemID{101, 103, 102}, commentRowIDs(m)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestRetryFailedComment(t *testing.T) {
	source := newFakeSource()
	source.itemErr[102] = errors.New("timeout")
	m, _ := newTestModel(t, source)
	m = openStoryComments(t, m)

	node := m.currentTree().Node(102)
	if node.Err == nil {
		t.Fatal("expecting failed comment")
	}

	m = press(t, m, keyTab, keyTab, keyTab, keyEnter)
	if node := m.currentTree().Node(102); !node.Loaded() {
		t.Errorf("comment not loaded after retry: %+v", node)
	}
}

func TestCopyComment(t *testing.T) {
	m, rec := newTestModel(t, newFakeSource())
	m = openStoryComments(t, m)

	m = press(t, m, keyTab, runeKey("c"))

	if diff := cmp.Diff([]string{"Hello world"}, rec.copied); diff != "" {
		t.Errorf("copied mismatch (-want +got):\n%s", diff)
	}
}

func TestDebugPanel(t *testing.T) {
	m, _ := newTestModel(t, newFakeSource())

	// focus command of text input blinks forever, so it is not drained
	model, _ := m.Update(keyF12)
	m = model.(Model)
	if !m.showDebug {
		t.Fatal("debug panel not opened")
	}

	for _, k := range []tea.KeyMsg{runeKey("<i>"), runeKey("q"), keyCtrlR} {
		model, _ = m.Update(k)
		m = model.(Model)
	}

	if value := m.debugInput.Value(); value != "<i>q" {
		t.Errorf("output:\n\t%q\nwant:\n\t%q", value, "<i>q")
	}
	if m.renderHTML {
		t.Errorf("ctrl+r did not toggle html rendering")
	}
	if preview := m.renderText(m.debugInput.Value(), 40); preview != "<i>q" {
		t.Errorf("output:\n\t%q\nwant:\n\t%q", preview, "<i>q")
	}

	model, _ = m.Update(keyF12)
	m = model.(Model)
	if m.showDebug {
		t.Errorf("debug panel not closed")
	}
}

func TestFaviconLookupPerSite(t *testing.T) {
	source := newFakeSource()
	icons := &fakeFavicons{}

	m := New(Options{Source: source, Favicons: icons, Now: func() time.Time { return testNow }})
	m = drain(t, m, m.Init())

	if diff := cmp.Diff([]string{"https://example.com"}, icons.lookups); diff != "" {
		t.Errorf("lookups mismatch (-want +got):\n%s", diff)
	}

	state := m.icons["https://example.com"]
	if !state.done || state.swatch != "" {
		t.Errorf("unexpected favicon state %+v", state)
	}
}
