package tui

import (
	"context"

	"github.com/SirZenith/hnfeed/database"
	"github.com/SirZenith/hnfeed/favicon"
	"github.com/SirZenith/hnfeed/hn"
	tea "github.com/charmbracelet/bubbletea"
)

// StorySource provides stories and comments, satisfied by *hnapi.Client.
type StorySource interface {
	FetchPageIDs(ctx context.Context, page hn.Page) ([]hn.ItemID, error)
	FetchPageIDsFresh(ctx context.Context, page hn.Page) ([]hn.ItemID, error)
	FetchItem(ctx context.Context, id hn.ItemID) (*hn.Item, error)
	FetchItems(ctx context.Context, ids []hn.ItemID) ([]*hn.Item, error)
}

// FaviconSource is satisfied by *favicon.Service.
type FaviconSource interface {
	Lookup(ctx context.Context, siteURL string) (*favicon.Icon, error)
}

type pageIDsMsg struct {
	gen int
	ids []hn.ItemID
	err error
}

type batchMsg struct {
	gen   int
	items []*hn.Item
	err   error
}

type commentMsg struct {
	storyID hn.ItemID
	id      hn.ItemID
	item    *hn.Item
	err     error
}

type faviconMsg struct {
	site   string
	swatch string
	err    error
}

// actionMsg reports result of opening link or copying text.
type actionMsg struct {
	text string
	err  error
}

type cacheStatsMsg struct {
	stats []database.TableStats
	err   error
}

func fetchIDsCmd(ctx context.Context, source StorySource, gen int, page hn.Page, fresh bool) tea.Cmd {
	return func() tea.Msg {
		var ids []hn.ItemID
		var err error
		if fresh {
			ids, err = source.FetchPageIDsFresh(ctx, page)
		} else {
			ids, err = source.FetchPageIDs(ctx, page)
		}
		return pageIDsMsg{gen: gen, ids: ids, err: err}
	}
}

func fetchBatchCmd(ctx context.Context, source StorySource, gen int, ids []hn.ItemID) tea.Cmd {
	return func() tea.Msg {
		items, err := source.FetchItems(ctx, ids)
		return batchMsg{gen: gen, items: items, err: err}
	}
}

func fetchCommentCmd(ctx context.Context, source StorySource, storyID, id hn.ItemID) tea.Cmd {
	return func() tea.Msg {
		item, err := source.FetchItem(ctx, id)
		return commentMsg{storyID: storyID, id: id, item: item, err: err}
	}
}

func lookupFaviconCmd(ctx context.Context, source FaviconSource, site string) tea.Cmd {
	return func() tea.Msg {
		icon, err := source.Lookup(ctx, site)
		if err != nil {
			return faviconMsg{site: site, err: err}
		}
		return faviconMsg{site: site, swatch: icon.Swatch()}
	}
}

func openURLCmd(open func(string) error, url string) tea.Cmd {
	return func() tea.Msg {
		if err := open(url); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "opened " + url}
	}
}

func copyTextCmd(copyText func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		if err := copyText(text); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "copied to clipboard"}
	}
}

func cacheStatsCmd(load func() ([]database.TableStats, error)) tea.Cmd {
	return func() tea.Msg {
		stats, err := load()
		return cacheStatsMsg{stats: stats, err: err}
	}
}
