package hn

import (
	"encoding/json"
	"testing"
	"time"
)

func TestItemDecode(t *testing.T) {
	sample := `{
		"by": "dhouston",
		"descendants": 71,
		"id": 8863,
		"kids": [8952, 9224, 8917],
		"score": 111,
		"time": 1175714200,
		"title": "My YC app: Dropbox - Throw away your USB drive",
		"type": "story",
		"url": "http://www.getdropbox.com/u/2/screencast.html"
	}`

	item := Item{}
	if err := json.Unmarshal([]byte(sample), &item); err != nil {
		t.Fatalf("failed to decode item: %s", err)
	}

	if item.ID != 8863 || item.By != "dhouston" || item.Descendants != 71 {
		t.Errorf("unexpected item fields: %+v", item)
	}

	want := time.Date(2007, time.April, 4, 19, 16, 40, 0, time.UTC)
	if !item.Time.Equal(want) {
		t.Errorf("output:\n\t%v\nwant:\n\t%v", item.Time, want)
	}

	if len(item.Kids) != 3 || item.Kids[2] != 8917 {
		t.Errorf("unexpected kids: %v", item.Kids)
	}

	if !item.IsStoryLike() || !item.HasComments() {
		t.Errorf("story should be story like and have comments")
	}

	if u := item.ParsedURL(); u == nil || u.Host != "www.getdropbox.com" {
		t.Errorf("unexpected parsed URL: %v", u)
	}
}

func TestItemRoundTripKeepsTime(t *testing.T) {
	item := Item{ID: 1, Type: ItemTypeComment, Time: time.Unix(1700000000, 0).UTC(), Text: "hi"}

	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("failed to encode item: %s", err)
	}

	decoded := Item{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to decode item: %s", err)
	}

	if !decoded.Time.Equal(item.Time) || decoded.Text != "hi" {
		t.Errorf("output:\n\t%+v\nwant:\n\t%+v", decoded, item)
	}
}

func TestItemWithoutTime(t *testing.T) {
	item := Item{}
	if err := json.Unmarshal([]byte(`{"id": 2, "deleted": true}`), &item); err != nil {
		t.Fatalf("failed to decode item: %s", err)
	}

	if !item.Time.IsZero() || !item.Deleted {
		t.Errorf("unexpected item: %+v", item)
	}

	if item.ParsedURL() != nil {
		t.Errorf("item without url should have nil parsed URL")
	}
}

func TestParsePage(t *testing.T) {
	items := []struct {
		input string
		want  Page
	}{
		{"top", PageTop},
		{"New", PageNew},
		{"showstories", PageShow},
		{" ASK ", PageAsk},
		{"jobs", PageJobs},
	}

	for _, item := range items {
		page, err := ParsePage(item.input)
		if err != nil {
			t.Errorf("failed to parse %q: %s", item.input, err)
			continue
		}

		if page != item.want {
			t.Errorf("output:\n\t%s\nwant:\n\t%s", page, item.want)
		}
	}

	if _, err := ParsePage("best"); err == nil {
		t.Errorf("expecting error for unknown page")
	}
}
