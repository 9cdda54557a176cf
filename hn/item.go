package hn

import (
	"encoding/json"
	"net/url"
	"time"
)

type ItemID int

type ItemType string

const (
	ItemTypeStory   ItemType = "story"
	ItemTypeComment ItemType = "comment"
	ItemTypeJob     ItemType = "job"
	ItemTypePoll    ItemType = "poll"
	ItemTypePollOpt ItemType = "pollopt"
)

// Item is one entry of the item endpoint. Stories, comments, jobs and polls
// all share this shape, fields not used by a type are left zero.
type Item struct {
	ID          ItemID    `json:"id"`
	Deleted     bool      `json:"deleted,omitempty"`
	Type        ItemType  `json:"type"`
	By          string    `json:"by,omitempty"`
	Time        time.Time `json:"-"`
	Text        string    `json:"text,omitempty"`
	Dead        bool      `json:"dead,omitempty"`
	Parent      ItemID    `json:"parent,omitempty"`
	Poll        ItemID    `json:"poll,omitempty"`
	Kids        []ItemID  `json:"kids,omitempty"`
	URL         string    `json:"url,omitempty"`
	Score       int       `json:"score,omitempty"`
	Title       string    `json:"title,omitempty"`
	Parts       []ItemID  `json:"parts,omitempty"`
	Descendants int       `json:"descendants,omitempty"` // comment count of a story
}

type itemAlias Item

type itemJSON struct {
	itemAlias
	Time int64 `json:"time,omitempty"`
}

func (item *Item) UnmarshalJSON(data []byte) error {
	raw := itemJSON{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*item = Item(raw.itemAlias)
	if raw.Time != 0 {
		item.Time = time.Unix(raw.Time, 0).UTC()
	} else {
		item.Time = time.Time{}
	}

	return nil
}

func (item Item) MarshalJSON() ([]byte, error) {
	raw := itemJSON{itemAlias: itemAlias(item)}
	if !item.Time.IsZero() {
		raw.Time = item.Time.Unix()
	}

	return json.Marshal(raw)
}

// ParsedURL returns story link as URL. Nil is returned for text posts and
// for links that do not parse.
func (item *Item) ParsedURL() *url.URL {
	if item.URL == "" {
		return nil
	}

	u, err := url.Parse(item.URL)
	if err != nil {
		return nil
	}

	return u
}

// IsStoryLike reports whether item can be shown as an entry of story list.
func (item *Item) IsStoryLike() bool {
	switch item.Type {
	case ItemTypeStory, ItemTypeJob, ItemTypePoll:
		return true
	default:
		return false
	}
}

func (item *Item) HasComments() bool {
	return item.Descendants > 0
}
