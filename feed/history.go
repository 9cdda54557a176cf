package feed

import "github.com/SirZenith/hnfeed/hn"

type ViewKind int

const (
	ViewStories ViewKind = iota
	ViewComments
)

// View identifies one screen of the reader.
type View struct {
	Kind    ViewKind
	StoryID hn.ItemID // story shown by comment view
}

// History is browser-like navigation history with back and forward stacks.
type History struct {
	current View
	back    []View
	forward []View
}

func NewHistory(initial View) *History {
	return &History{current: initial}
}

func (h *History) Current() View {
	return h.current
}

// Push navigates to a new view, forward history is dropped.
func (h *History) Push(view View) {
	if view == h.current {
		return
	}

	h.back = append(h.back, h.current)
	h.current = view
	h.forward = nil
}

// Reset drops all history and sets current view.
func (h *History) Reset(view View) {
	h.current = view
	h.back = nil
	h.forward = nil
}

func (h *History) CanBack() bool {
	return len(h.back) > 0
}

func (h *History) CanForward() bool {
	return len(h.forward) > 0
}

func (h *History) Back() (View, bool) {
	if len(h.back) == 0 {
		return h.current, false
	}

	last := len(h.back) - 1
	h.forward = append(h.forward, h.current)
	h.current = h.back[last]
	h.back = h.back[:last]

	return h.current, true
}

func (h *History) Forward() (View, bool) {
	if len(h.forward) == 0 {
		return h.current, false
	}

	last := len(h.forward) - 1
	h.back = append(h.back, h.current)
	h.current = h.forward[last]
	h.forward = h.forward[:last]

	return h.current, true
}
