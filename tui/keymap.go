package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap lists every key binding of the reader.
type KeyMap struct {
	Refresh        key.Binding
	Back           key.Binding
	HistoryBack    key.Binding
	HistoryForward key.Binding
	Debug          key.Binding
	Next           key.Binding
	Prev           key.Binding
	First          key.Binding
	Last           key.Binding
	Activate       key.Binding

	TabTop   key.Binding
	TabNew   key.Binding
	TabShow  key.Binding
	TabAsk   key.Binding
	TabJobs  key.Binding
	TabPrev  key.Binding
	TabNext  key.Binding
	OpenLink key.Binding
	Copy     key.Binding
	HTML     key.Binding
	Help     key.Binding
	Quit     key.Binding

	CloseDebug key.Binding
	DebugHTML  key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Refresh: key.NewBinding(
			key.WithKeys("f5"),
			key.WithHelp("F5", "refresh"),
		),
		Back: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("⌫", "story list"),
		),
		HistoryBack: key.NewBinding(
			key.WithKeys("alt+left"),
			key.WithHelp("alt+←", "back"),
		),
		HistoryForward: key.NewBinding(
			key.WithKeys("alt+right"),
			key.WithHelp("alt+→", "forward/load more"),
		),
		Debug: key.NewBinding(
			key.WithKeys("f12"),
			key.WithHelp("F12", "debug"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "down", "j"),
			key.WithHelp("tab/↓", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up", "k"),
			key.WithHelp("shift+tab/↑", "previous"),
		),
		First: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "first"),
		),
		Last: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "last"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter/space", "activate"),
		),
		TabTop: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "top"),
		),
		TabNew: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "new"),
		),
		TabShow: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "show"),
		),
		TabAsk: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "ask"),
		),
		TabJobs: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "jobs"),
		),
		TabPrev: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous tab"),
		),
		TabNext: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next tab"),
		),
		OpenLink: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy"),
		),
		HTML: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle html"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		CloseDebug: key.NewBinding(
			key.WithKeys("esc", "f12"),
			key.WithHelp("esc/F12", "close debug"),
		),
		DebugHTML: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "toggle html"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Activate, k.Back, k.Refresh, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.First, k.Last, k.Activate, k.OpenLink, k.Copy},
		{k.Back, k.HistoryBack, k.HistoryForward, k.Refresh},
		{k.TabTop, k.TabNew, k.TabShow, k.TabAsk, k.TabJobs, k.TabPrev, k.TabNext},
		{k.HTML, k.Debug, k.Help, k.Quit},
	}
}

// debugKeyMap is help shown while debug panel is open.
type debugKeyMap struct {
	KeyMap
}

func (k debugKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.CloseDebug, k.DebugHTML, k.Quit}
}

func (k debugKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
