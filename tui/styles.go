package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	HNOrange   = lipgloss.Color("#ff6600")
	Background = lipgloss.Color("#f6f6ef")
	Foreground = lipgloss.Color("#000000")
	Weak       = lipgloss.Color("#828282")
	ErrorColor = lipgloss.Color("#e53935")
)

type Styles struct {
	Header      lipgloss.Style
	Logo        lipgloss.Style
	Tab         lipgloss.Style
	ActiveTab   lipgloss.Style
	Host        lipgloss.Style
	Title       lipgloss.Style
	Focused     lipgloss.Style
	Disabled    lipgloss.Style
	Author      lipgloss.Style
	Weak        lipgloss.Style
	Link        lipgloss.Style
	Italic      lipgloss.Style
	Monospace   lipgloss.Style
	Error       lipgloss.Style
	Button      lipgloss.Style
	Separator   lipgloss.Style
	Status      lipgloss.Style
	DebugBorder lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(HNOrange).
			Foreground(Foreground).
			Padding(0, 1),
		Logo: lipgloss.NewStyle().
			Background(lipgloss.Color("#ffffff")).
			Foreground(HNOrange).
			Bold(true).
			Padding(0, 1),
		Tab: lipgloss.NewStyle().
			Background(HNOrange).
			Foreground(Foreground).
			Padding(0, 1),
		ActiveTab: lipgloss.NewStyle().
			Background(Foreground).
			Foreground(lipgloss.Color("#ffffff")).
			Bold(true).
			Padding(0, 1),
		Host: lipgloss.NewStyle().
			Foreground(Weak),
		Title: lipgloss.NewStyle().
			Bold(true),
		Focused: lipgloss.NewStyle().
			Background(HNOrange).
			Foreground(lipgloss.Color("#ffffff")).
			Bold(true),
		Disabled: lipgloss.NewStyle().
			Foreground(Weak).
			Faint(true),
		Author: lipgloss.NewStyle().
			Bold(true),
		Weak: lipgloss.NewStyle().
			Foreground(Weak),
		Link: lipgloss.NewStyle().
			Foreground(HNOrange).
			Underline(true),
		Italic: lipgloss.NewStyle().
			Italic(true),
		Monospace: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5c5c5c")),
		Error: lipgloss.NewStyle().
			Foreground(ErrorColor),
		Button: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.NormalBorder()),
		Separator: lipgloss.NewStyle().
			Foreground(Weak),
		Status: lipgloss.NewStyle().
			Foreground(Weak),
		DebugBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(HNOrange).
			Padding(0, 1),
	}
}
